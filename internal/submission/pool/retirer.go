// Package pool retires values from unique id pools.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"intake/internal/submission/metrics"
	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/pkg/platform/sentinel"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 10 * time.Millisecond
)

// ErrNotAPool is returned when the pool id names a group without entries.
var ErrNotAPool = errors.New("group is not an id pool")

type Retirer struct {
	store       ports.Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

type Option func(*Retirer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Retirer) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Retirer) {
		r.metrics = m
	}
}

// WithRetry sets how many times a conflicting retirement is attempted and the
// pause between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(r *Retirer) {
		if attempts > 0 {
			r.maxAttempts = attempts
		}
		r.backoff = backoff
	}
}

func New(store ports.Store, opts ...Option) (*Retirer, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	r := &Retirer{
		store:       store,
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Retire excludes usedValue from pool poolID. It reports false when the value
// is absent or already retired. The group deactivates once its last entry is
// retired.
//
// Called inside an enclosing transaction, the retirement joins it and a
// conflict surfaces when that transaction commits; retries only apply to
// standalone calls.
func (r *Retirer) Retire(ctx context.Context, poolID, usedValue string) (bool, error) {
	if poolID == "" || usedValue == "" {
		return false, nil
	}

	var retired bool
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		retired, err = r.attempt(ctx, poolID, usedValue)
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		r.metrics.IncrementPoolConflict()
		r.logger.InfoContext(ctx, "pool retirement conflicted, retrying",
			"pool_id", poolID,
			"attempt", attempt,
		)
		if attempt == r.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	if err != nil {
		return false, fmt.Errorf("retire %q from pool %s: %w", usedValue, poolID, err)
	}
	if retired {
		r.metrics.IncrementPoolRetirement()
	}
	return retired, nil
}

func (r *Retirer) attempt(ctx context.Context, poolID, usedValue string) (bool, error) {
	var retired bool
	err := r.store.RunInTx(ctx, func(ctx context.Context) error {
		retired = false
		rec, err := r.store.Load(ctx, models.TypeGroup, poolID)
		if err != nil {
			return err
		}
		g, ok := rec.(*models.Group)
		if !ok || g.Pool == nil {
			return ErrNotAPool
		}
		if !g.RetireID(usedValue) {
			return nil
		}
		if err := r.store.Upsert(ctx, g); err != nil {
			return err
		}
		retired = true
		if !g.IsActive() {
			r.logger.InfoContext(ctx, "id pool exhausted", "pool_id", poolID)
		}
		return nil
	})
	return retired, err
}
