package service

import (
	"intake/internal/submission/models"
	dErrors "intake/pkg/domain-errors"
	audit "intake/pkg/platform/audit"
)

// =============================================================================
// Draft lifecycle
// =============================================================================

func (s *ServiceSuite) TestSaveDraft() {
	s.Run("empty drafts are not stored", func() {
		saved, err := s.svc.SaveDraft(s.ctx, models.NewFormResponse("empty"))
		s.Require().NoError(err)
		s.False(saved)
		s.Zero(s.store.Len())
	})

	s.Run("answered drafts are stored in progress", func() {
		draft := response("", "name", "Ada")
		saved, err := s.svc.SaveDraft(s.ctx, draft)
		s.Require().NoError(err)
		s.True(saved)
		s.NotEmpty(draft.ID)
		s.Equal(int64(1), draft.Meta.Version)

		stored := s.loadResponse(draft.ID)
		s.Equal(models.StatusInProgress, stored.Status)
		s.Equal(s.now, stored.Authored)

		s.Run("and can later be submitted", func() {
			sub, err := s.svc.Submit(s.ctx, registration(), draft, models.SubmissionConfig{}, nil)
			s.Require().NoError(err)
			s.Equal(models.StatusCompleted, s.loadResponse(draft.ID).Status)
			s.Equal(int64(2), sub.Response.Meta.Version)
		})
	})

	s.Run("completed responses are rejected", func() {
		done := response("r-done", "name", "Ada")
		done.Status = models.StatusCompleted
		_, err := s.svc.SaveDraft(s.ctx, done)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestDiscardDraft() {
	draft := response("d1", "name", "Ada")
	_, err := s.svc.SaveDraft(s.ctx, draft)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DiscardDraft(s.ctx, "d1"))
	s.Equal(models.StatusStopped, s.loadResponse("d1").Status)

	s.Run("stopped is terminal", func() {
		err := s.svc.DiscardDraft(s.ctx, "d1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.svc.Submit(s.ctx, registration(), s.loadResponse("d1"), models.SubmissionConfig{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown response", func() {
		err := s.svc.DiscardDraft(s.ctx, "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("lifecycle is audited", func() {
		events, err := s.events.ListByResponse(s.ctx, "d1")
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(audit.ActionDraftSaved, events[0].Action)
		s.Equal(audit.ActionDraftDiscarded, events[1].Action)
	})
}

func (s *ServiceSuite) TestLatestResponseNotFound() {
	_, err := s.svc.LatestResponse(s.ctx, "Person/p1", "registration")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.LatestResponse(s.ctx, "", "registration")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
