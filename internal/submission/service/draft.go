package service

import (
	"context"
	"errors"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

// SaveDraft stores an in-progress response. It reports false without writing
// when no answer carries a value.
func (s *Service) SaveDraft(ctx context.Context, resp *models.FormResponse) (bool, error) {
	if resp == nil {
		return false, dErrors.New(dErrors.CodeBadRequest, "response is required")
	}
	draft, err := cloneResponse(resp)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid response")
	}
	if err := draft.Transition(models.StatusInProgress); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInvalidState, "only in-progress responses can be saved as drafts")
	}
	if !draft.HasAnswers() {
		return false, nil
	}
	if draft.ID == "" {
		draft.Identify(s.newID())
	}

	unlock, err := s.lock(ctx, draft.ID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeTimeout, "failed to acquire submission lock")
	}
	defer unlock()

	now := requestcontext.Now(ctx).UTC()
	draft.Authored = now
	draft.Meta.LastUpdated = now
	if err := s.store.Upsert(ctx, draft); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to save draft")
	}
	resp.ID = draft.ID
	resp.Meta.Version = draft.Meta.Version

	s.emit(ctx, audit.Event{
		Action:     audit.ActionDraftSaved,
		ResponseID: draft.ID,
		TemplateID: draft.Template.ID(),
		Subject:    draft.Subject.String(),
	})
	return true, nil
}

// DiscardDraft stops an in-progress response. Completed and stopped responses
// are rejected.
func (s *Service) DiscardDraft(ctx context.Context, responseID string) error {
	unlock, err := s.lock(ctx, responseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "failed to acquire submission lock")
	}
	defer unlock()

	rec, err := s.store.Load(ctx, models.TypeFormResponse, responseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "response not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	resp, ok := rec.(*models.FormResponse)
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "response not found")
	}
	if resp.Status != models.StatusInProgress {
		return dErrors.New(dErrors.CodeInvalidState, "only in-progress responses can be discarded")
	}
	if err := resp.Transition(models.StatusStopped); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "response cannot be discarded")
	}
	resp.Meta.LastUpdated = requestcontext.Now(ctx).UTC()
	if err := s.store.Upsert(ctx, resp); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to discard draft")
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionDraftDiscarded,
		ResponseID: resp.ID,
		TemplateID: resp.Template.ID(),
		Subject:    resp.Subject.String(),
	})
	return nil
}

// LatestResponse returns the most recently updated completed response of
// templateID for subject.
func (s *Service) LatestResponse(ctx context.Context, subject models.Reference, templateID string) (*models.FormResponse, error) {
	if subject.IsZero() || templateID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "subject and template are required")
	}
	resp, err := s.latestCompleted(ctx, subject, templateID, "")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search responses")
	}
	if resp == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no completed response")
	}
	return resp, nil
}

// latestCompleted returns nil without error when nothing matches. The response
// with id exclude is skipped.
func (s *Service) latestCompleted(ctx context.Context, subject models.Reference, templateID, exclude string) (*models.FormResponse, error) {
	found, err := s.store.Search(ctx, ports.Query{
		Type:     models.TypeFormResponse,
		Subject:  subject,
		Template: models.NewReference(models.TypeFormTemplate, templateID),
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range found {
		resp, ok := rec.(*models.FormResponse)
		if !ok || resp.ID == exclude || resp.Status != models.StatusCompleted {
			continue
		}
		return resp, nil
	}
	return nil, nil
}
