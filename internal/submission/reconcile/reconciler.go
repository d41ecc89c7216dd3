// Package reconcile decides whether extracted records update prior records
// or create new ones.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	dErrors "intake/pkg/domain-errors"
)

// Input is one reconciliation request.
type Input struct {
	Candidates []models.Resource
	// Prior holds the records of the previous ledger, grouped by type.
	Prior map[models.ResourceType][]models.Resource
	// Expressions are identity expressions by record type. A type without an
	// expression always yields new records.
	Expressions map[models.ResourceType]string
	Editable    bool
	Subject     models.Reference
	SubjectType models.ResourceType
}

// Result reports the reconciled candidates. Records are the input records,
// re-identified in place where they matched.
type Result struct {
	Records  []models.Resource
	Matched  int
	Warnings []models.Warning
}

type Reconciler struct {
	eval   ports.ExpressionEvaluator
	logger *slog.Logger
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func New(eval ports.ExpressionEvaluator, opts ...Option) (*Reconciler, error) {
	if eval == nil {
		return nil, errors.New("expression evaluator is required")
	}
	r := &Reconciler{eval: eval, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Reconcile adopts prior ids for candidates whose identity value matches a
// prior record of the same type, compared case-insensitively without trimming. Each prior id is
// adopted at most once.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) Result {
	res := Result{Records: in.Candidates}
	claimed := make(map[models.Reference]bool)

	for _, cand := range in.Candidates {
		// Only the first candidate of the subject type takes the subject id;
		// the rest reconcile by expression like any other record.
		if in.Editable && in.SubjectType != "" && cand.ResourceType() == in.SubjectType &&
			!in.Subject.IsZero() && in.Subject.Type() == in.SubjectType && !claimed[in.Subject] {
			cand.Identify(in.Subject.ID())
			claimed[in.Subject] = true
			res.Matched++
			continue
		}

		expr := in.Expressions[cand.ResourceType()]
		priors := in.Prior[cand.ResourceType()]
		if expr == "" || len(priors) == 0 {
			continue
		}

		value, err := r.eval.ExtractValue(cand, expr)
		if err != nil {
			w := models.NewWarning(dErrors.CodeReconciliationError, string(cand.AsReference()), err)
			res.Warnings = append(res.Warnings, w)
			r.logger.WarnContext(ctx, "identity expression failed",
				"resource", cand.AsReference(),
				"expression", expr,
				"error", err,
			)
			continue
		}
		if value == "" {
			continue
		}

		if prior := r.match(ctx, value, expr, priors, claimed); prior != nil {
			cand.Identify(prior.ResourceID())
			claimed[prior.AsReference()] = true
			adoptIdentifiers(cand, prior)
			res.Matched++
		}
	}
	return res
}

func (r *Reconciler) match(ctx context.Context, value, expr string, priors []models.Resource, claimed map[models.Reference]bool) models.Resource {
	for _, prior := range priors {
		if claimed[prior.AsReference()] {
			continue
		}
		pv, err := r.eval.ExtractValue(prior, expr)
		if err != nil {
			r.logger.DebugContext(ctx, "identity expression failed on prior record",
				"resource", prior.AsReference(),
				"error", err,
			)
			continue
		}
		if strings.EqualFold(value, pv) {
			return prior
		}
	}
	return nil
}

// adoptIdentifiers keeps a related person's external identifiers stable.
func adoptIdentifiers(cand, prior models.Resource) {
	if cand.ResourceType() != models.TypeRelatedPerson {
		return
	}
	c, ok := cand.(models.Identified)
	if !ok {
		return
	}
	p, ok := prior.(models.Identified)
	if !ok || len(p.ExternalIdentifiers()) == 0 {
		return
	}
	c.SetExternalIdentifiers(append([]models.Identifier(nil), p.ExternalIdentifiers()...))
}
