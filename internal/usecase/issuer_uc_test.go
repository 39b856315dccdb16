//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

func TestIssuerUseCase_Issue(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should mint and store a fresh code with the configured TTL", func(t *testing.T) {
		codes := newMemCodeRepo()
		uc := NewIssuerUseCase(codes, 15*time.Minute, testLogger)

		before := time.Now()
		code, err := uc.Issue(ctx, "us-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if code.UserSubscriptionID != "us-1" {
			t.Errorf("expected code bound to us-1, got %s", code.UserSubscriptionID)
		}
		if len(code.Code) != codeLength {
			t.Errorf("expected %d-character code, got %q", codeLength, code.Code)
		}
		if code.Consumed {
			t.Error("expected a fresh code to be unconsumed")
		}
		wantExpiry := before.Add(15 * time.Minute)
		if code.ExpiresAt.Before(wantExpiry) || code.ExpiresAt.After(wantExpiry.Add(time.Second)) {
			t.Errorf("expected expiry ~15m out, got %v", code.ExpiresAt)
		}
		if stored := codes.get(code.Code); stored == nil {
			t.Error("expected the code to be persisted in the store")
		}
	})

	t.Run("should not invalidate earlier codes on re-issue", func(t *testing.T) {
		codes := newMemCodeRepo()
		uc := NewIssuerUseCase(codes, 15*time.Minute, testLogger)

		first, err := uc.Issue(ctx, "us-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		second, err := uc.Issue(ctx, "us-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if first.Code == second.Code {
			t.Fatal("expected distinct codes")
		}
		if stored := codes.get(first.Code); stored == nil || stored.Consumed {
			t.Error("expected the first code to remain valid after re-issue")
		}
	})

	t.Run("should not retry an unknown subscription", func(t *testing.T) {
		codes := newMemCodeRepo()
		attempts := 0
		codes.SaveFunc = func(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error {
			attempts++
			return domain.ErrSubscriptionNotFound
		}
		uc := NewIssuerUseCase(codes, time.Minute, testLogger)

		if _, err := uc.Issue(ctx, "us-gone"); !errors.Is(err, domain.ErrSubscriptionNotFound) {
			t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("expected no regeneration for a permanent error, got %d attempts", attempts)
		}
	})

	t.Run("should regenerate on a code collision", func(t *testing.T) {
		codes := newMemCodeRepo()
		attempts := 0
		codes.SaveFunc = func(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error {
			attempts++
			if attempts == 1 {
				return domain.ErrAlreadyExists
			}
			return nil
		}
		uc := NewIssuerUseCase(codes, time.Minute, testLogger)

		if _, err := uc.Issue(ctx, "us-1"); err != nil {
			t.Fatalf("expected a retry to succeed, but got: %v", err)
		}
		if attempts != 2 {
			t.Errorf("expected 2 save attempts, got %d", attempts)
		}
	})

	t.Run("should give up after repeated collisions", func(t *testing.T) {
		codes := newMemCodeRepo()
		codes.SaveFunc = func(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error {
			return domain.ErrAlreadyExists
		}
		uc := NewIssuerUseCase(codes, time.Minute, testLogger)

		if _, err := uc.Issue(ctx, "us-1"); !errors.Is(err, domain.ErrOperationFailed) {
			t.Errorf("expected ErrOperationFailed, got %v", err)
		}
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		codes := newMemCodeRepo()
		codes.SaveFunc = func(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error {
			return domain.ErrTransientStore
		}
		uc := NewIssuerUseCase(codes, time.Minute, testLogger)

		if _, err := uc.Issue(ctx, "us-1"); !errors.Is(err, domain.ErrTransientStore) {
			t.Errorf("expected ErrTransientStore, got %v", err)
		}
	})

	t.Run("should reject an empty subscription id", func(t *testing.T) {
		uc := NewIssuerUseCase(newMemCodeRepo(), time.Minute, testLogger)
		if _, err := uc.Issue(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestIssuerUseCase_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	codes := newMemCodeRepo()
	uc := NewIssuerUseCase(codes, time.Minute, newTestLogger())

	live, _ := model.NewValidationCode("id-live", "ABCD2345EFGH", "us-1", time.Now(), time.Hour)
	dead, _ := model.NewValidationCode("id-dead", "EFGH2345ABCD", "us-1", time.Now().Add(-2*time.Hour), time.Hour)
	_ = codes.Save(ctx, repository.NoTX, live)
	_ = codes.Save(ctx, repository.NoTX, dead)

	n, err := uc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged code, got %d", n)
	}
	if codes.get("ABCD2345EFGH") == nil {
		t.Error("expected the live code to survive the purge")
	}
	if codes.get("EFGH2345ABCD") != nil {
		t.Error("expected the expired code to be removed")
	}
}
