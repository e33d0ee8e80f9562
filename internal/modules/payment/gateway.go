package payment

import (
	"context"
	"errors"
)

// ErrGatewayUnavailable marks transient gateway failures (network errors,
// timeouts, provider 5xx). Callers may retry; it never means the payment
// itself was declined.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// IntentStatus is the gateway's authoritative view of a payment intent.
type IntentStatus string

const (
	IntentSucceeded IntentStatus = "succeeded"
	IntentPending   IntentStatus = "pending"
	IntentFailed    IntentStatus = "failed"
	IntentUnknown   IntentStatus = "unknown"
)

// Intent is a payment intent created at the gateway.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway is the provider-agnostic interface every payment adapter must
// implement. Amounts are integer minor units; floating point never crosses
// this boundary.
type Gateway interface {
	// CreateIntent registers a payment intent with the provider.
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)

	// GetIntentStatus fetches the provider's current settlement status. It
	// is the single source of truth for whether funds were captured.
	GetIntentStatus(ctx context.Context, intentID string) (IntentStatus, error)
}
