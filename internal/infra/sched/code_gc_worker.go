package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	ports "loyalty-subscription-core/internal/domain/ports/usecase"
	"loyalty-subscription-core/internal/infra/metrics"
)

// CodeGCWorker periodically removes expired validation codes from the store.
// Expired codes are permanently invalid either way; this keeps the table and
// its unique index small.
type CodeGCWorker struct {
	interval time.Duration
	issuer   ports.CodeIssuer
	log      *zerolog.Logger
}

func NewCodeGCWorker(interval time.Duration, issuer ports.CodeIssuer, logger *zerolog.Logger) *CodeGCWorker {
	gcLog := logger.With().Str("component", "CodeGCWorker").Logger()
	return &CodeGCWorker{
		interval: interval,
		issuer:   issuer,
		log:      &gcLog,
	}
}

func (w *CodeGCWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting code GC worker")
	// Run once on startup, then on every tick
	w.purge(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping code GC worker")
			return ctx.Err()
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

func (w *CodeGCWorker) purge(ctx context.Context) {
	n, err := w.issuer.PurgeExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("code purge failed")
		return
	}
	if n > 0 {
		metrics.IncCodesPurged(n)
		w.log.Info().Int64("count", n).Msg("expired validation codes purged")
	}
}
