// Package compute runs rule libraries against a committed submission bundle.
package compute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/sentinel"
	pstrings "intake/pkg/platform/strings"
)

const defaultConcurrency = 4

// RecordHook prepares an output record before it is persisted.
type RecordHook func(ctx context.Context, r models.Resource) (models.Resource, error)

type Runner struct {
	store       ports.Store
	engine      ports.LibraryEvaluator
	logger      *slog.Logger
	prepare     RecordHook
	concurrency int
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRecordHook runs hook on every output record before it is saved.
func WithRecordHook(hook RecordHook) Option {
	return func(r *Runner) {
		r.prepare = hook
	}
}

// WithConcurrency bounds how many libraries are evaluated at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func New(store ports.Store, engine ports.LibraryEvaluator, opts ...Option) (*Runner, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if engine == nil {
		return nil, errors.New("library evaluator is required")
	}
	r := &Runner{
		store:       store,
		engine:      engine,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Libraries lists the library references of a submission: the template's
// followed by the configured ones, deduplicated.
func Libraries(tmpl models.FormTemplate, cfg models.SubmissionConfig) []string {
	return pstrings.DedupeAndTrim(tmpl.Libraries, cfg.Libraries)
}

// Run evaluates every library and persists output artifacts. Libraries are
// independent: one failing never stops the others. The returned error joins
// the engine failures and is meant for logging; the Report is always
// complete.
func (r *Runner) Run(ctx context.Context, subject models.Reference, bundle models.Bundle, tmpl models.FormTemplate, cfg models.SubmissionConfig) (models.Report, error) {
	refs := Libraries(tmpl, cfg)
	report := models.Report{Outcomes: make([]models.Outcome, len(refs))}
	if len(refs) == 0 {
		return report, nil
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			report.Outcomes[i] = r.runLibrary(ctx, ref, subject, bundle)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range report.Outcomes {
		if o.Code == dErrors.CodeEngineFailure {
			errs = append(errs, fmt.Errorf("library %s: %w", o.Ref, o.Err))
		}
	}
	return report, errors.Join(errs...)
}

func (r *Runner) runLibrary(ctx context.Context, ref string, subject models.Reference, bundle models.Bundle) models.Outcome {
	ctx, span := otel.Tracer("intake/compute").Start(ctx, "compute.Library",
		trace.WithAttributes(attribute.String("library_id", ref)),
	)
	defer span.End()

	out := models.Outcome{Ref: ref}
	if err := ctx.Err(); err != nil {
		out.Code, out.Err = dErrors.CodeTimeout, err
		return out
	}

	library, err := r.store.Load(ctx, models.TypeLibrary, pstrings.LogicalID(ref))
	if errors.Is(err, sentinel.ErrNotFound) {
		r.logger.InfoContext(ctx, "library not found, skipping", "library_id", ref)
		out.Code, out.Err = dErrors.CodeNotConfigured, err
		return out
	}
	if err != nil {
		return r.fail(ctx, span, out, fmt.Errorf("load library: %w", err))
	}

	params, err := r.engine.Evaluate(ctx, library, subject, bundle)
	if err != nil {
		return r.fail(ctx, span, out, err)
	}

	for _, p := range params {
		if !p.OutputArtifact || p.Resource == nil {
			continue
		}
		rec := p.Resource
		if r.prepare != nil {
			prepared, err := r.prepare(ctx, rec)
			if err != nil {
				return r.fail(ctx, span, out, fmt.Errorf("prepare output %q: %w", p.Name, err))
			}
			rec = prepared
		}
		if err := r.store.Upsert(ctx, rec); err != nil {
			return r.fail(ctx, span, out, fmt.Errorf("persist output %s: %w", rec.AsReference(), err))
		}
		out.Records = append(out.Records, rec.AsReference())
	}
	span.SetAttributes(attribute.Int("outputs", len(out.Records)))
	return out
}

func (r *Runner) fail(ctx context.Context, span trace.Span, out models.Outcome, err error) models.Outcome {
	span.RecordError(err)
	span.SetStatus(codes.Error, "library evaluation failed")
	r.logger.WarnContext(ctx, "library evaluation failed",
		"library_id", out.Ref,
		"error", err,
	)
	out.Code, out.Err = dErrors.CodeEngineFailure, err
	return out
}
