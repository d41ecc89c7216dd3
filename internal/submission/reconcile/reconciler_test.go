package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"intake/internal/submission/expression"
	"intake/internal/submission/mocks"
	"intake/internal/submission/models"
	dErrors "intake/pkg/domain-errors"
)

// =============================================================================
// Reconciler Test Suite
// =============================================================================
// Justification for unit tests: identity reconciliation decides update versus
// create for every edited submission. A wrong match duplicates or merges
// people, so matching rules are pinned here case by case.

type ReconcilerSuite struct {
	suite.Suite
	reconciler *Reconciler
	ctx        context.Context
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	var err error
	s.reconciler, err = New(expression.New(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func withNationalID(id, value string) *models.Person {
	return &models.Person{
		Base:        models.Base{Type: models.TypePerson, ID: id},
		Identifiers: []models.Identifier{{System: "national", Value: value}},
	}
}

var nationalID = map[models.ResourceType]string{models.TypePerson: "identifiers.0.value"}

func (s *ReconcilerSuite) TestNew() {
	_, err := New(nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "expression evaluator is required")
}

// =============================================================================
// Matching
// =============================================================================

// TestCaseInsensitiveMatch verifies "abc" and "ABC" identify the same entity.
func (s *ReconcilerSuite) TestCaseInsensitiveMatch() {
	cand := withNationalID("fresh", "abc")
	prior := withNationalID("prior-1", "ABC")

	res := s.reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{cand},
		Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {prior}},
		Expressions: nationalID,
	})

	s.Equal("prior-1", cand.ID)
	s.Equal(1, res.Matched)
	s.Empty(res.Warnings)
}

func (s *ReconcilerSuite) TestKeepsFreshIDs() {
	s.Run("no expression configured", func() {
		cand := withNationalID("fresh", "abc")
		s.reconciler.Reconcile(s.ctx, Input{
			Candidates: []models.Resource{cand},
			Prior:      map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("prior-1", "abc")}},
		})
		s.Equal("fresh", cand.ID)
	})

	s.Run("no prior records of the type", func() {
		cand := withNationalID("fresh", "abc")
		s.reconciler.Reconcile(s.ctx, Input{
			Candidates:  []models.Resource{cand},
			Expressions: nationalID,
		})
		s.Equal("fresh", cand.ID)
	})

	s.Run("values differ", func() {
		cand := withNationalID("fresh", "abc")
		s.reconciler.Reconcile(s.ctx, Input{
			Candidates:  []models.Resource{cand},
			Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("prior-1", "abd")}},
			Expressions: nationalID,
		})
		s.Equal("fresh", cand.ID)
	})

	s.Run("empty identity value never matches", func() {
		cand := withNationalID("fresh", "")
		s.reconciler.Reconcile(s.ctx, Input{
			Candidates:  []models.Resource{cand},
			Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("prior-1", "")}},
			Expressions: nationalID,
		})
		s.Equal("fresh", cand.ID)
	})
}

func (s *ReconcilerSuite) TestPriorIDAdoptedOnce() {
	first := withNationalID("a", "abc")
	second := withNationalID("b", "ABC")

	s.reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{first, second},
		Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("prior-1", "abc")}},
		Expressions: nationalID,
	})

	s.Equal("prior-1", first.ID)
	s.Equal("b", second.ID)
}

func (s *ReconcilerSuite) TestRelatedPersonKeepsPriorIdentifiers() {
	cand := &models.RelatedPerson{Base: models.Base{Type: models.TypeRelatedPerson, ID: "fresh"}, Name: "Bea"}
	prior := &models.RelatedPerson{
		Base:        models.Base{Type: models.TypeRelatedPerson, ID: "rp-1"},
		Name:        "bea",
		Identifiers: []models.Identifier{{System: "household", Value: "H-9"}},
	}

	s.reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{cand},
		Prior:       map[models.ResourceType][]models.Resource{models.TypeRelatedPerson: {prior}},
		Expressions: map[models.ResourceType]string{models.TypeRelatedPerson: "name"},
	})

	s.Equal("rp-1", cand.ID)
	s.Equal([]models.Identifier{{System: "household", Value: "H-9"}}, cand.Identifiers)
}

// TestEditableSubjectReidentified verifies the subject-type record takes the
// response subject's id on edits without consulting expressions.
func (s *ReconcilerSuite) TestEditableSubjectReidentified() {
	cand := withNationalID("fresh", "zzz")
	enc := &models.Encounter{Base: models.Base{Type: models.TypeEncounter, ID: "e-new"}}

	res := s.reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{cand, enc},
		Editable:    true,
		Subject:     "Person/p1",
		SubjectType: models.TypePerson,
	})

	s.Equal("p1", cand.ID)
	s.Equal("e-new", enc.ID)
	s.Equal(1, res.Matched)
}

// TestSubjectIDTakenOnce verifies a second record of the subject type keeps
// its own identity instead of collapsing onto the subject.
func (s *ReconcilerSuite) TestSubjectIDTakenOnce() {
	first := withNationalID("c", "x-1")
	second := withNationalID("d", "b-1")
	third := withNationalID("e", "new-1")

	res := s.reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{first, second, third},
		Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("a", "a-1"), withNationalID("b", "B-1")}},
		Expressions: nationalID,
		Editable:    true,
		Subject:     "Person/a",
		SubjectType: models.TypePerson,
	})

	s.Equal("a", first.ID)
	s.Equal("b", second.ID)
	s.Equal("e", third.ID)
	s.Equal(2, res.Matched)
}

func (s *ReconcilerSuite) TestSurroundingWhitespaceIsSignificant() {
	cand := withNationalID("fresh", " abc")
	s.reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{cand},
		Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("prior-1", "ABC")}},
		Expressions: nationalID,
	})
	s.Equal("fresh", cand.ID)
}

// =============================================================================
// Expression failures
// =============================================================================

func (s *ReconcilerSuite) TestExpressionErrorIsAWarning() {
	ctrl := gomock.NewController(s.T())
	eval := mocks.NewMockExpressionEvaluator(ctrl)
	reconciler, err := New(eval, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	cand := withNationalID("fresh", "abc")
	eval.EXPECT().ExtractValue(cand, "bad(").Return("", errors.New("syntax error"))

	res := reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{cand},
		Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {withNationalID("prior-1", "abc")}},
		Expressions: map[models.ResourceType]string{models.TypePerson: "bad("},
	})

	s.Equal("fresh", cand.ID)
	s.Require().Len(res.Warnings, 1)
	s.Equal(dErrors.CodeReconciliationError, res.Warnings[0].Code)
	s.Equal("Person/fresh", res.Warnings[0].Ref)
}

func (s *ReconcilerSuite) TestFailingPriorIsSkipped() {
	ctrl := gomock.NewController(s.T())
	eval := mocks.NewMockExpressionEvaluator(ctrl)
	reconciler, err := New(eval, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	cand := withNationalID("fresh", "abc")
	broken := withNationalID("broken", "")
	good := withNationalID("good", "abc")

	eval.EXPECT().ExtractValue(cand, "expr").Return("abc", nil)
	eval.EXPECT().ExtractValue(broken, "expr").Return("", errors.New("boom"))
	eval.EXPECT().ExtractValue(good, "expr").Return("ABC", nil)

	res := reconciler.Reconcile(s.ctx, Input{
		Candidates:  []models.Resource{cand},
		Prior:       map[models.ResourceType][]models.Resource{models.TypePerson: {broken, good}},
		Expressions: map[models.ResourceType]string{models.TypePerson: "expr"},
	})

	s.Equal("good", cand.ID)
	s.Empty(res.Warnings)
}
