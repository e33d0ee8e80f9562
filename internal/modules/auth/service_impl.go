package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kartik7310/ProductHub/internal/modules/user"
)

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.StandardClaims
}

type service struct {
	userRepo user.Repository
	cfg      Config
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, cfg Config) Service {
	return &service{userRepo: userRepo, cfg: cfg}
}

func (s *service) Register(ctx context.Context, email, password, firstName, lastName string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         user.RoleUser,
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.issueTokens(u)
}

func (s *service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(u)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	c, err := parseToken(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.issueTokens(u)
}

func (s *service) issueTokens(u *user.User) (*TokenPair, error) {
	access, err := signToken(u, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(u, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func signToken(u *user.User, secret []byte, ttl time.Duration) (string, error) {
	c := &claims{
		Role: string(u.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}
