package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Token primitives =====
//
// Identity is established by an out-of-scope auth service; this layer only
// verifies its HS256 tokens and lifts the claims into the request.

type AuthConfig struct {
	HMACSecret []byte
	TTL        time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret: []byte(secret),
		TTL:        ttl,
	}}
}

// OperatorClaims identifies the staff member or owner working a terminal.
type OperatorClaims struct {
	OperatorID string `json:"operator_id"`
	PlaceID    string `json:"place_id"`
	Role       string `json:"role"` // "staff" | "owner"
	jwt.RegisteredClaims
}

// SubscriberClaims identifies the customer requesting a code.
type SubscriberClaims struct {
	SubscriberID string `json:"subscriber_id"`
	jwt.RegisteredClaims
}

// MintOperator signs an operator token. Production tokens come from the auth
// service; this is for tests and dev tooling.
func (a *AuthManager) MintOperator(operatorID, placeID, role string) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		OperatorID: operatorID,
		PlaceID:    placeID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   operatorID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.cfg.HMACSecret)
}

// MintSubscriber signs a subscriber token. Same caveat as MintOperator.
func (a *AuthManager) MintSubscriber(subscriberID string) (string, error) {
	now := time.Now()
	claims := SubscriberClaims{
		SubscriberID: subscriberID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   subscriberID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.cfg.HMACSecret)
}

func bearerToken(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return "", errors.New("missing token")
	}
	if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return "", errors.New("malformed authorization header")
	}
	return strings.TrimSpace(hdr[7:]), nil
}

func (a *AuthManager) ParseOperator(r *http.Request) (*OperatorClaims, error) {
	tok, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	claims := &OperatorClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tkn.Valid || claims.OperatorID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (a *AuthManager) ParseSubscriber(r *http.Request) (*SubscriberClaims, error) {
	tok, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	claims := &SubscriberClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tkn.Valid || claims.SubscriberID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
