//go:build !integration

package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"

	"loyalty-subscription-core/internal/domain"
)

func TestMapCodeInsertError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"unique violation regenerates", &pgconn.PgError{Code: "23505"}, domain.ErrAlreadyExists},
		{"unknown subscription is permanent", &pgconn.PgError{Code: "23503"}, domain.ErrSubscriptionNotFound},
		{"other constraint is transient", &pgconn.PgError{Code: "23514"}, domain.ErrTransientStore},
		{"wrapped pg error still classified", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), domain.ErrSubscriptionNotFound},
		{"exec context error passes through", domain.ErrInvalidExecContext, domain.ErrInvalidExecContext},
		{"plain network error is transient", errors.New("broken pipe"), domain.ErrTransientStore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapCodeInsertError(tc.in)
			if !errors.Is(got, tc.want) {
				t.Errorf("mapCodeInsertError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
