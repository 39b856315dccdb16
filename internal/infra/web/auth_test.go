//go:build !integration

package web

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthManagerRoundTrip(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour)

	t.Run("Operator", func(t *testing.T) {
		token, err := auth.MintOperator("staff-1", "place-1", "staff")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest("POST", "/validate-subscription", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		claims, err := auth.ParseOperator(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if claims.OperatorID != "staff-1" || claims.PlaceID != "place-1" || claims.Role != "staff" {
			t.Errorf("claims = %+v", claims)
		}
	})

	t.Run("Subscriber token is not an operator token", func(t *testing.T) {
		token, _ := auth.MintSubscriber("subscriber-1")
		req := httptest.NewRequest("POST", "/validate-subscription", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		if _, err := auth.ParseOperator(req); err == nil {
			t.Error("expected subscriber token to be rejected by ParseOperator")
		}
	})

	t.Run("Wrong secret rejected", func(t *testing.T) {
		other := NewAuthManager("other-secret", time.Hour)
		token, _ := other.MintOperator("staff-1", "place-1", "staff")
		req := httptest.NewRequest("POST", "/validate-subscription", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		if _, err := auth.ParseOperator(req); err == nil {
			t.Error("expected token signed with a different secret to be rejected")
		}
	})

	t.Run("Expired token rejected", func(t *testing.T) {
		short := NewAuthManager("test-secret", -time.Minute)
		token, _ := short.MintOperator("staff-1", "place-1", "staff")
		req := httptest.NewRequest("POST", "/validate-subscription", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		if _, err := auth.ParseOperator(req); err == nil {
			t.Error("expected expired token to be rejected")
		}
	})

	t.Run("Unsigned token rejected", func(t *testing.T) {
		claims := OperatorClaims{OperatorID: "staff-1", PlaceID: "place-1", Role: "staff"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("mint unsigned token: %v", err)
		}
		req := httptest.NewRequest("POST", "/validate-subscription", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		if _, err := auth.ParseOperator(req); err == nil {
			t.Error("expected token with alg=none to be rejected")
		}
	})

	t.Run("Missing header", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/validate-subscription", nil)
		if _, err := auth.ParseOperator(req); err == nil {
			t.Error("expected missing header to be rejected")
		}
	})
}
