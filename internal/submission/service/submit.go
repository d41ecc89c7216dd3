package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"intake/internal/submission/ledger"
	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/internal/submission/reconcile"
	"intake/internal/submission/validate"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

// run carries one submission through the pipeline.
type run struct {
	tmpl     models.FormTemplate
	cfg      models.SubmissionConfig
	params   []models.ActionParameter
	resp     *models.FormResponse
	now      time.Time
	owner    requestcontext.Ownership
	editable bool
	records  []models.Resource
	retired  bool
	warnings []models.Warning
}

func (r *run) warn(code dErrors.Code, ref string, err error) {
	r.warnings = append(r.warnings, models.NewWarning(code, ref, err))
}

// Submit turns a completed response into committed records. Only validation
// failures (with cfg.RequireValid) and persistence failures are returned as
// errors; every other failure is reported in Submission.Warnings. The caller's
// response is not modified.
func (s *Service) Submit(ctx context.Context, tmpl models.FormTemplate, resp *models.FormResponse, cfg models.SubmissionConfig, params []models.ActionParameter) (*Submission, error) {
	if resp == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "response is required")
	}
	if cfg.Type.IsReadOnly() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "read-only forms cannot be submitted")
	}

	working, err := cloneResponse(resp)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid response")
	}
	if working.ID == "" {
		working.Identify(s.newID())
	}

	ctx, span := s.tracer.Start(ctx, "submission.Submit", trace.WithAttributes(
		attribute.String("response_id", working.ID),
		attribute.String("template_id", tmpl.ID),
	))
	defer span.End()

	unlock, err := s.lock(ctx, working.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "failed to acquire submission lock")
	}
	defer unlock()

	r := &run{
		tmpl:   tmpl,
		cfg:    cfg,
		params: params,
		resp:   working,
		now:    requestcontext.Now(ctx).UTC(),
		owner:  requestcontext.OwnershipFrom(ctx),
	}

	if err := s.validate(ctx, r); err != nil {
		s.metrics.IncrementSubmission("validation_failed")
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	if err := s.stampResponse(r); err != nil {
		s.metrics.IncrementSubmission("invalid_state")
		return nil, err
	}

	bundle := s.extract(ctx, r)
	if err := s.reconcile(ctx, r, bundle); err != nil {
		s.metrics.IncrementSubmission("persistence_failed")
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to load prior records")
	}
	if err := s.enrich(ctx, r); err != nil {
		s.metrics.IncrementSubmission("persistence_failed")
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to prepare records")
	}

	l := ledger.New(s.newID(), r.now, r.records)
	r.resp.AppendLedger(l)

	result := &Submission{Generated: l.References(), Response: r.resp}

	if tmpl.Experimental {
		s.logger.InfoContext(ctx, "experimental template, submission not persisted",
			"response_id", r.resp.ID,
			"template_id", tmpl.ID,
		)
		s.metrics.IncrementSubmission("experimental")
		result.Warnings = r.warnings
		return result, nil
	}

	if err := s.persist(ctx, r); err != nil {
		s.metrics.IncrementSubmission("persistence_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		s.logger.ErrorContext(ctx, "submission rolled back",
			"response_id", r.resp.ID,
			"template_id", tmpl.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to persist submission")
	}
	result.Persisted = true
	s.metrics.AddRecordsPersisted(len(r.records))

	result.Outputs = s.postCommit(ctx, r)
	result.Warnings = r.warnings

	s.metrics.IncrementSubmission("completed")
	for _, w := range r.warnings {
		s.metrics.IncrementWarning(string(w.Code))
	}
	span.SetAttributes(
		attribute.Int("records", len(result.Generated)),
		attribute.Int("warnings", len(result.Warnings)),
	)
	s.logger.InfoContext(ctx, "form submitted",
		"response_id", r.resp.ID,
		"template_id", tmpl.ID,
		"subject", r.resp.Subject,
		"records", len(result.Generated),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func cloneResponse(resp *models.FormResponse) (*models.FormResponse, error) {
	typed := *resp
	typed.Type = models.TypeFormResponse
	c, err := models.Clone(&typed)
	if err != nil {
		return nil, err
	}
	out, ok := c.(*models.FormResponse)
	if !ok {
		return nil, fmt.Errorf("response decoded as %s", c.ResourceType())
	}
	return out, nil
}

func (s *Service) validate(ctx context.Context, r *run) error {
	_, done := s.stage(ctx, "validate")
	defer done()

	issues := validate.Response(r.tmpl, r.resp)
	if len(issues) == 0 {
		return nil
	}
	if r.cfg.RequireValid {
		return issues.Err()
	}
	for _, issue := range issues {
		r.warn(dErrors.CodeValidationFailed, issue.LinkID, errors.New(issue.String()))
	}
	return nil
}

// stampResponse completes the response and resolves its subject where
// configuration or ownership decides it.
func (s *Service) stampResponse(r *run) error {
	resp := r.resp
	if err := resp.Transition(models.StatusCompleted); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "response cannot be submitted")
	}
	resp.Authored = r.now
	resp.Template = r.tmpl.Reference()
	resp.ApplyTags(r.tmpl.UseContext...)

	if explicit := r.cfg.ExplicitSubject(); !explicit.IsZero() {
		resp.Subject = explicit
	} else if resp.Subject.IsZero() && r.tmpl.SubjectType() == models.TypeOrganization && len(r.owner.OrganizationIDs) > 0 {
		resp.Subject = models.NewReference(models.TypeOrganization, r.owner.OrganizationIDs[0])
	}
	return nil
}

func (s *Service) extract(ctx context.Context, r *run) models.Bundle {
	ctx, done := s.stage(ctx, "extract")
	defer done()

	bundle, err := s.mapper.Extract(ctx, r.tmpl, r.resp, ports.MappingContext{
		Transforms: s.transforms,
		Subject:    r.resp.Subject,
	})
	if err != nil {
		r.warn(dErrors.CodeExtractionFailed, r.tmpl.Reference().String(), err)
		s.logger.WarnContext(ctx, "extraction failed, continuing with empty bundle",
			"response_id", r.resp.ID,
			"template_id", r.tmpl.ID,
			"error", err,
		)
		return models.Bundle{}
	}
	return bundle
}

// reconcile re-identifies candidates against the records of the previous
// submission event, when there is one.
func (s *Service) reconcile(ctx context.Context, r *run, bundle models.Bundle) error {
	ctx, done := s.stage(ctx, "reconcile")
	defer done()

	r.records = bundle.Entries
	for _, rec := range r.records {
		if rec.ResourceID() == "" {
			rec.Identify(s.newID())
		}
	}

	priorLedger, hasLedger := r.resp.LatestLedger()
	if !hasLedger && r.cfg.Type.IsEdit() && !r.resp.Subject.IsZero() {
		prev, err := s.latestCompleted(ctx, r.resp.Subject, r.tmpl.ID, r.resp.ID)
		if err != nil {
			return err
		}
		if prev != nil {
			priorLedger, hasLedger = prev.LatestLedger()
		}
	}
	r.editable = hasLedger || r.cfg.Type.IsEdit()
	if !r.editable {
		return nil
	}

	var prior ledger.Prior
	if hasLedger {
		var err error
		if prior, err = ledger.Load(ctx, s.store, priorLedger); err != nil {
			return err
		}
		for _, ref := range prior.Missing {
			s.logger.DebugContext(ctx, "ledgered record no longer exists", "resource", ref)
		}
	}

	subjectType := r.resp.Subject.Type()
	if subjectType == "" {
		subjectType = r.tmpl.SubjectType()
	}
	res := s.reconciler.Reconcile(ctx, reconcile.Input{
		Candidates:  r.records,
		Prior:       prior.ByType(),
		Expressions: r.cfg.IdentityExpressions,
		Editable:    true,
		Subject:     r.resp.Subject,
		SubjectType: subjectType,
	})
	r.warnings = append(r.warnings, res.Warnings...)
	s.logger.DebugContext(ctx, "records reconciled",
		"response_id", r.resp.ID,
		"candidates", len(r.records),
		"matched", res.Matched,
	)
	return nil
}

// enrich wires the subject and stamps ownership and location tags on every
// record and on the response.
func (s *Service) enrich(ctx context.Context, r *run) error {
	ctx, done := s.stage(ctx, "enrich")
	defer done()

	resp := r.resp
	if resp.Subject.IsZero() {
		if first, ok := models.NewBundle(r.records...).FirstOfType(r.tmpl.SubjectType()); ok {
			resp.Subject = first.AsReference()
		}
	}
	if resp.Subject.IsZero() {
		r.warn(dErrors.CodeNotConfigured, resp.AsReference().String(), errors.New("submission has no subject"))
	}

	for _, rec := range r.records {
		sb, ok := rec.(models.SubjectBound)
		if !ok || resp.Subject.IsZero() || rec.AsReference() == resp.Subject {
			continue
		}
		if r.editable || sb.SubjectReference().IsZero() {
			sb.AssignSubject(resp.Subject)
		}
	}

	tags := s.locationTags(ctx, r)
	enricher := s.enricher.At(r.now)
	for i, rec := range r.records {
		out, err := enricher.Enrich(rec, r.owner, tags)
		if err != nil {
			return err
		}
		r.records[i] = out
	}
	out, err := enricher.Enrich(resp, r.owner, tags)
	if err != nil {
		return err
	}
	r.resp = out.(*models.FormResponse)
	return nil
}

func (s *Service) locationTags(ctx context.Context, r *run) []models.Coding {
	var subject models.Resource
	if ref := r.resp.Subject; !ref.IsZero() {
		for _, rec := range r.records {
			if rec.AsReference() == ref {
				subject = rec
				break
			}
		}
		if subject == nil {
			subject = s.loadOptional(ctx, ref)
		}
	}
	var grp *models.Group
	if g := r.cfg.GroupResource; g != nil {
		if rec, ok := s.loadOptional(ctx, models.NewReference(models.TypeGroup, g.GroupIdentifier)).(*models.Group); ok {
			grp = rec
		}
	}
	tags, err := s.enricher.RelatedLocationTags(ctx, subject, grp, r.cfg.LinkageCode)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve location tags",
			"response_id", r.resp.ID,
			"error", err,
		)
		return nil
	}
	return tags
}

// loadOptional returns nil when the record is missing or unreadable.
func (s *Service) loadOptional(ctx context.Context, ref models.Reference) models.Resource {
	if ref.IsZero() {
		return nil
	}
	rec, err := s.store.Load(ctx, ref.Type(), ref.ID())
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load record", "resource", ref, "error", err)
		}
		return nil
	}
	return rec
}

// persist commits records, group side effects, pool retirement and the
// response atomically.
func (s *Service) persist(ctx context.Context, r *run) error {
	ctx, done := s.stage(ctx, "persist")
	defer done()

	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		r.retired = false
		for _, rec := range r.records {
			if err := s.store.Upsert(ctx, rec); err != nil {
				return fmt.Errorf("save %s: %w", rec.AsReference(), err)
			}
		}
		if err := s.applyGroupEffects(ctx, r); err != nil {
			return err
		}
		if u := r.cfg.UniqueIDAssignment; u != nil {
			if value := r.resp.AnswerText(u.LinkID); value != "" {
				retired, err := s.retirer.Retire(ctx, u.PoolID, value)
				if err != nil {
					return err
				}
				r.retired = retired
			}
		}
		if err := s.store.Upsert(ctx, r.resp); err != nil {
			return fmt.Errorf("save response %s: %w", r.resp.ID, err)
		}
		return nil
	})
}

func (s *Service) applyGroupEffects(ctx context.Context, r *run) error {
	g := r.cfg.GroupResource
	explicit := r.cfg.ExplicitSubject()
	if g != nil {
		for _, rec := range r.records {
			if g.ManagingEntityRelationshipCode != "" {
				if _, err := s.groups.UpdateManagingEntity(ctx, rec, g.GroupIdentifier, g.ManagingEntityRelationshipCode); err != nil {
					return err
				}
			}
			if g.MemberResourceType != "" {
				if _, err := s.groups.AddMember(ctx, rec, g.MemberResourceType, g.GroupIdentifier); err != nil {
					return err
				}
			}
		}
		if g.RemoveMember && !explicit.IsZero() {
			if _, err := s.groups.RemoveMember(ctx, explicit, g.GroupIdentifier); err != nil {
				return err
			}
		}
		if g.RemoveGroup {
			if _, err := s.groups.RemoveGroup(ctx, g.GroupIdentifier, g.DeactivateMembers); err != nil {
				return err
			}
		}
	}
	if r.cfg.RemoveResource && !explicit.IsZero() {
		if _, err := s.groups.Deactivate(ctx, explicit); err != nil {
			return err
		}
	}
	return nil
}
