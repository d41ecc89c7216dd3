// Package service orchestrates form submissions: validation, extraction,
// reconciliation, enrichment, group side effects, one atomic commit and the
// best-effort post-commit steps.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"intake/internal/submission/compute"
	"intake/internal/submission/enrich"
	"intake/internal/submission/group"
	"intake/internal/submission/mapping"
	"intake/internal/submission/metrics"
	"intake/internal/submission/models"
	"intake/internal/submission/plan"
	"intake/internal/submission/pool"
	"intake/internal/submission/ports"
	"intake/internal/submission/reconcile"
	"intake/pkg/platform/audit"
	"intake/pkg/requestcontext"
)

const defaultPostCommitConcurrency = 4

// Submission is the result of a successful Submit.
type Submission struct {
	// Generated lists the records committed with the response, in ledger order.
	Generated []models.Reference
	Response  *models.FormResponse
	// Outputs lists records written by post-commit plans and libraries.
	Outputs  []models.Reference
	Warnings []models.Warning
	// Persisted is false for experimental templates, which are never saved.
	Persisted bool
}

// Service orchestrates submissions against one store.
type Service struct {
	store      ports.Store
	mapper     ports.MappingEngine
	transforms ports.TransformResolver
	reconciler *reconcile.Reconciler
	enricher   *enrich.Enricher
	groups     *group.Manager
	retirer    *pool.Retirer
	runner     *compute.Runner
	plans      *plan.Orchestrator

	libraries   ports.LibraryEvaluator
	generator   ports.PlanGenerator
	locker      ports.Locker
	audit       ports.AuditPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	newID       func() string
	concurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithLocker serializes submissions of the same response.
func WithLocker(locker ports.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLibraryEvaluator enables the post-commit computation step.
func WithLibraryEvaluator(engine ports.LibraryEvaluator) Option {
	return func(s *Service) {
		s.libraries = engine
	}
}

// WithPlanGenerator enables the post-commit plan step.
func WithPlanGenerator(generator ports.PlanGenerator) Option {
	return func(s *Service) {
		s.generator = generator
	}
}

// WithTransforms overrides how transform references are resolved. By default
// transforms are loaded from the store.
func WithTransforms(resolver ports.TransformResolver) Option {
	return func(s *Service) {
		s.transforms = resolver
	}
}

// WithPostCommitConcurrency bounds how many plans or libraries run at once.
func WithPostCommitConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New wires the pipeline. The store, mapping engine and expression evaluator
// are required; the post-commit engines are optional.
func New(store ports.Store, mapper ports.MappingEngine, eval ports.ExpressionEvaluator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if mapper == nil {
		return nil, errors.New("mapping engine is required")
	}
	if eval == nil {
		return nil, errors.New("expression evaluator is required")
	}
	s := &Service{
		store:       store,
		mapper:      mapper,
		logger:      slog.Default(),
		tracer:      otel.Tracer("intake/submission"),
		newID:       uuid.NewString,
		concurrency: defaultPostCommitConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transforms == nil {
		s.transforms = mapping.NewStoreResolver(store)
	}

	var err error
	if s.reconciler, err = reconcile.New(eval, reconcile.WithLogger(s.logger)); err != nil {
		return nil, err
	}
	if s.enricher, err = enrich.New(store, enrich.WithIDGenerator(s.newID)); err != nil {
		return nil, err
	}
	if s.groups, err = group.New(store, group.WithLogger(s.logger)); err != nil {
		return nil, err
	}
	if s.retirer, err = pool.New(store, pool.WithLogger(s.logger), pool.WithMetrics(s.metrics)); err != nil {
		return nil, err
	}
	if s.libraries != nil {
		s.runner, err = compute.New(store, s.libraries,
			compute.WithLogger(s.logger),
			compute.WithConcurrency(s.concurrency),
			compute.WithRecordHook(s.prepareOutput),
		)
		if err != nil {
			return nil, err
		}
	}
	if s.generator != nil {
		s.plans, err = plan.New(store, s.generator,
			plan.WithLogger(s.logger),
			plan.WithConcurrency(s.concurrency),
			plan.WithRecordHook(s.prepareOutput),
		)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// prepareOutput stamps ownership on records produced after the commit.
func (s *Service) prepareOutput(ctx context.Context, r models.Resource) (models.Resource, error) {
	return s.enricher.At(requestcontext.Now(ctx)).Enrich(r, requestcontext.OwnershipFrom(ctx), nil)
}

// stage starts a traced, timed pipeline stage.
func (s *Service) stage(ctx context.Context, name string) (context.Context, func()) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "submission."+name)
	return ctx, func() {
		span.End()
		s.metrics.ObserveStage(name, start)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"response_id", event.ResponseID,
			"error", err,
		)
	}
}

func (s *Service) lock(ctx context.Context, responseID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Lock(ctx, "response:"+responseID)
}
