// Package plan triggers plan-based record generation after a submission.
package plan

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

type Orchestrator struct {
	store       ports.Store
	generator   ports.PlanGenerator
	logger      *slog.Logger
	prepare     func(context.Context, models.Resource) (models.Resource, error)
	concurrency int
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithRecordHook runs hook on every generated record before it is saved.
func WithRecordHook(hook func(context.Context, models.Resource) (models.Resource, error)) Option {
	return func(o *Orchestrator) {
		o.prepare = hook
	}
}

func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func New(store ports.Store, generator ports.PlanGenerator, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if generator == nil {
		return nil, errors.New("plan generator is required")
	}
	o := &Orchestrator{
		store:       store,
		generator:   generator,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run applies every configured plan template to subject. Each plan's records
// are saved in their own transaction, so one failing plan leaves the others
// intact. The returned error joins engine failures for logging.
func (o *Orchestrator) Run(ctx context.Context, subject models.Reference, bundle models.Bundle, cfg models.SubmissionConfig) (models.Report, error) {
	ids := pstrings.DedupeAndTrim(cfg.PlanDefinitions)
	report := models.Report{Outcomes: make([]models.Outcome, len(ids))}
	if len(ids) == 0 {
		return report, nil
	}
	if subject.IsZero() {
		for i, id := range ids {
			report.Outcomes[i] = models.Outcome{Ref: id, Code: dErrors.CodeNotConfigured, Err: errors.New("submission has no subject")}
		}
		return report, nil
	}

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			report.Outcomes[i] = o.runPlan(ctx, id, subject, bundle)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, out := range report.Outcomes {
		if out.Code == dErrors.CodeEngineFailure {
			errs = append(errs, fmt.Errorf("plan %s: %w", out.Ref, out.Err))
		}
	}
	return report, errors.Join(errs...)
}

func (o *Orchestrator) runPlan(ctx context.Context, id string, subject models.Reference, bundle models.Bundle) models.Outcome {
	ctx, span := otel.Tracer("intake/plan").Start(ctx, "plan.Generate",
		trace.WithAttributes(attribute.String("plan_id", id)),
	)
	defer span.End()

	out := models.Outcome{Ref: id}
	if err := ctx.Err(); err != nil {
		out.Code, out.Err = dErrors.CodeTimeout, err
		return out
	}

	inst, err := o.generator.Generate(ctx, pstrings.LogicalID(id), subject, bundle)
	if errors.Is(err, sentinel.ErrNotFound) {
		o.logger.InfoContext(ctx, "plan template not found, skipping", "plan_id", id)
		out.Code, out.Err = dErrors.CodeNotConfigured, err
		return out
	}
	if err != nil {
		return o.fail(ctx, span, out, err)
	}
	if inst == nil {
		return out
	}

	records := make([]models.Resource, 0, len(inst.Resources)+1)
	if inst.Plan != nil {
		records = append(records, inst.Plan)
	}
	records = append(records, inst.Resources...)

	var saved []models.Reference
	err = o.store.RunInTx(ctx, func(ctx context.Context) error {
		saved = saved[:0]
		for _, rec := range records {
			if o.prepare != nil {
				prepared, err := o.prepare(ctx, rec)
				if err != nil {
					return fmt.Errorf("prepare %s: %w", rec.AsReference(), err)
				}
				rec = prepared
			}
			if err := o.store.Upsert(ctx, rec); err != nil {
				return fmt.Errorf("persist %s: %w", rec.AsReference(), err)
			}
			saved = append(saved, rec.AsReference())
		}
		return nil
	})
	if err != nil {
		return o.fail(ctx, span, out, err)
	}
	out.Records = saved
	span.SetAttributes(attribute.Int("records", len(saved)))
	return out
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, out models.Outcome, err error) models.Outcome {
	span.RecordError(err)
	span.SetStatus(codes.Error, "plan generation failed")
	o.logger.WarnContext(ctx, "plan generation failed",
		"plan_id", out.Ref,
		"error", err,
	)
	out.Code, out.Err = dErrors.CodeEngineFailure, err
	return out
}
