package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// stripeGateway talks to Stripe's payment-intents REST API.
// https://docs.stripe.com/api/payment_intents
type stripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewStripeGateway creates a Stripe adapter. Every call is bounded by the
// given timeout in addition to the caller's context.
func NewStripeGateway(secretKey, baseURL string, timeout time.Duration) Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &stripeGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", strings.ToLower(currency))
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent stripeIntent
	if err := g.do(ctx, http.MethodPost, "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (g *stripeGateway) GetIntentStatus(ctx context.Context, intentID string) (IntentStatus, error) {
	var intent stripeIntent
	if err := g.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, &intent); err != nil {
		return IntentUnknown, err
	}
	switch intent.Status {
	case "succeeded":
		return IntentSucceeded, nil
	case "processing", "requires_payment_method", "requires_confirmation", "requires_action":
		return IntentPending, nil
	case "canceled":
		return IntentFailed, nil
	default:
		return IntentUnknown, nil
	}
}

func (g *stripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: stripe returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var se stripeError
		_ = json.NewDecoder(resp.Body).Decode(&se)
		return fmt.Errorf("stripe request failed (%d): %s", resp.StatusCode, se.Error.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
