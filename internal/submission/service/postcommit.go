package service

import (
	"context"
	"errors"
	"fmt"

	"intake/internal/submission/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/sentinel"
)

const postCommitRef = "post-commit"

// postCommit runs the best-effort steps against the committed bundle and
// returns the references of the records they wrote. Nothing here can fail the
// submission.
func (s *Service) postCommit(ctx context.Context, r *run) []models.Reference {
	s.auditSubmission(context.WithoutCancel(ctx), r)

	if err := ctx.Err(); err != nil {
		r.warn(dErrors.CodeTimeout, postCommitRef, fmt.Errorf("post-commit steps skipped: %w", err))
		s.logger.WarnContext(ctx, "context done after commit, skipping post-commit steps",
			"response_id", r.resp.ID,
			"error", err,
		)
		return nil
	}

	ctx, done := s.stage(ctx, "post_commit")
	defer done()

	bundle := models.NewBundle(r.records...)
	subject := r.resp.Subject
	var outputs []models.Reference

	if len(r.cfg.PlanDefinitions) > 0 {
		if s.plans == nil {
			r.warn(dErrors.CodeNotConfigured, postCommitRef, errors.New("no plan generator configured"))
		} else {
			report, err := s.plans.Run(ctx, subject, bundle, r.cfg)
			if err != nil {
				s.logger.WarnContext(ctx, "plan generation failed",
					"response_id", r.resp.ID,
					"error", err,
				)
			}
			r.warnings = append(r.warnings, report.Warnings(dErrors.CodePlanGenerationFailed)...)
			outputs = append(outputs, report.Persisted()...)
		}
	}

	if len(r.tmpl.Libraries) > 0 || len(r.cfg.Libraries) > 0 {
		if s.runner == nil {
			r.warn(dErrors.CodeNotConfigured, postCommitRef, errors.New("no library evaluator configured"))
		} else {
			report, err := s.runner.Run(ctx, subject, bundle, r.tmpl, r.cfg)
			if err != nil {
				s.logger.WarnContext(ctx, "library computation failed",
					"response_id", r.resp.ID,
					"error", err,
				)
			}
			r.warnings = append(r.warnings, report.Warnings(dErrors.CodeComputationFailed)...)
			outputs = append(outputs, report.Persisted()...)
		}
	}

	if r.editable {
		s.touchOnEdit(ctx, r)
	}

	s.metrics.AddRecordsPersisted(len(outputs))
	return outputs
}

// touchOnEdit re-saves the records named by UPDATE_DATE_ON_EDIT parameters so
// their LastUpdated reflects the edit.
func (s *Service) touchOnEdit(ctx context.Context, r *run) {
	for _, p := range r.params {
		if p.ParamType != models.ParamUpdateDateOnEdit || p.ResourceType == "" || p.Value == "" {
			continue
		}
		ref := models.NewReference(p.ResourceType, p.Value)
		rec, err := s.store.Load(ctx, p.ResourceType, p.Value)
		if errors.Is(err, sentinel.ErrNotFound) {
			r.warn(dErrors.CodeNotFound, ref.String(), err)
			continue
		}
		if err == nil {
			rec.Metadata().LastUpdated = r.now
			err = s.store.Upsert(ctx, rec)
		}
		if err != nil {
			r.warn(dErrors.CodePersistenceFailed, ref.String(), err)
			s.logger.WarnContext(ctx, "failed to update record date on edit",
				"resource", ref,
				"error", err,
			)
		}
	}
}

func (s *Service) auditSubmission(ctx context.Context, r *run) {
	s.emit(ctx, audit.Event{
		Action:     audit.ActionFormSubmitted,
		ResponseID: r.resp.ID,
		TemplateID: r.tmpl.ID,
		Subject:    r.resp.Subject.String(),
		Records:    len(r.records),
	})
	if r.retired {
		u := r.cfg.UniqueIDAssignment
		s.emit(ctx, audit.Event{
			Action:     audit.ActionPoolIDRetired,
			ResponseID: r.resp.ID,
			TemplateID: r.tmpl.ID,
			Subject:    models.NewReference(models.TypeGroup, u.PoolID).String(),
			Detail:     r.resp.AnswerText(u.LinkID),
		})
	}
}
