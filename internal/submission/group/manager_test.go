package group

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"intake/internal/submission/mocks"
	"intake/internal/submission/models"
	"intake/internal/submission/store/memory"
)

// =============================================================================
// Group Manager Test Suite
// =============================================================================
// Justification for unit tests: membership rules (no self-membership, no
// duplicates, allow-listed member kinds) are invariants of the stored group.
// They are checked here against a real in-memory store.

type ManagerSuite struct {
	suite.Suite
	store   *memory.InMemory
	manager *Manager
	ctx     context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	var err error
	s.manager, err = New(s.store)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Upsert(s.ctx, &models.Group{Base: models.Base{Type: models.TypeGroup, ID: "g1"}}))
}

func (s *ManagerSuite) group() *models.Group {
	r, err := s.store.Load(s.ctx, models.TypeGroup, "g1")
	s.Require().NoError(err)
	return r.(*models.Group)
}

func person(id string) *models.Person {
	return &models.Person{Base: models.Base{Type: models.TypePerson, ID: id}}
}

// =============================================================================
// AddMember
// =============================================================================

func (s *ManagerSuite) TestAddMember() {
	s.Run("adds an eligible member once", func() {
		ok, err := s.manager.AddMember(s.ctx, person("p1"), models.TypePerson, "g1")
		s.Require().NoError(err)
		s.True(ok)

		ok, err = s.manager.AddMember(s.ctx, person("p1"), models.TypePerson, "g1")
		s.Require().NoError(err)
		s.False(ok)

		s.Equal([]models.Reference{"Person/p1"}, s.group().ActiveMembers())
	})

	s.Run("own id is a no-op", func() {
		self := &models.Group{Base: models.Base{Type: models.TypeGroup, ID: "g1"}}
		ok, err := s.manager.AddMember(s.ctx, self, models.TypeGroup, "g1")
		s.Require().NoError(err)
		s.False(ok)
		s.False(s.group().HasMember("Group/g1"))

		namesake := person("g1")
		ok, err = s.manager.AddMember(s.ctx, namesake, models.TypePerson, "g1")
		s.Require().NoError(err)
		s.False(ok)
		s.False(s.group().HasMember("Person/g1"))
	})

	s.Run("type must equal the configured member type", func() {
		ok, err := s.manager.AddMember(s.ctx, person("p2"), models.TypeDevice, "g1")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("ineligible kinds are refused", func() {
		rp := &models.RelatedPerson{Base: models.Base{Type: models.TypeRelatedPerson, ID: "rp1"}}
		ok, err := s.manager.AddMember(s.ctx, rp, models.TypeRelatedPerson, "g1")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("missing group is a no-op", func() {
		ok, err := s.manager.AddMember(s.ctx, person("p3"), models.TypePerson, "nope")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *ManagerSuite) TestAddMemberPropagatesStoreErrors() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any(), models.TypeGroup, "g1").Return(nil, errors.New("connection reset"))

	m, err := New(store)
	s.Require().NoError(err)
	ok, err := m.AddMember(s.ctx, person("p1"), models.TypePerson, "g1")
	s.Require().Error(err)
	s.False(ok)
}

// =============================================================================
// Managing entity
// =============================================================================

func (s *ManagerSuite) TestUpdateManagingEntity() {
	head := &models.RelatedPerson{
		Base:          models.Base{Type: models.TypeRelatedPerson, ID: "rp1"},
		Relationships: []models.Coding{{System: "rel", Code: "household-head"}},
	}

	s.Run("matching relationship code sets the managing entity", func() {
		ok, err := s.manager.UpdateManagingEntity(s.ctx, head, "g1", "household-head")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(models.Reference("RelatedPerson/rp1"), s.group().ManagingEntity)
	})

	s.Run("repeat is a no-op", func() {
		ok, err := s.manager.UpdateManagingEntity(s.ctx, head, "g1", "household-head")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("other codes and kinds are ignored", func() {
		ok, err := s.manager.UpdateManagingEntity(s.ctx, head, "g1", "spouse")
		s.Require().NoError(err)
		s.False(ok)

		ok, err = s.manager.UpdateManagingEntity(s.ctx, person("p1"), "g1", "household-head")
		s.Require().NoError(err)
		s.False(ok)
	})
}

// =============================================================================
// Removal
// =============================================================================

func (s *ManagerSuite) TestRemoveMember() {
	s.Require().NoError(s.store.Upsert(s.ctx, person("p1")))
	_, err := s.manager.AddMember(s.ctx, person("p1"), models.TypePerson, "g1")
	s.Require().NoError(err)

	ok, err := s.manager.RemoveMember(s.ctx, "Person/p1", "g1")
	s.Require().NoError(err)
	s.True(ok)

	g := s.group()
	s.True(g.HasMember("Person/p1"))
	s.Empty(g.ActiveMembers())

	r, err := s.store.Load(s.ctx, models.TypePerson, "p1")
	s.Require().NoError(err)
	s.False(r.(*models.Person).IsActive())

	ok, err = s.manager.RemoveMember(s.ctx, "Person/p1", "g1")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ManagerSuite) TestRemoveGroup() {
	for _, id := range []string{"p1", "p2"} {
		s.Require().NoError(s.store.Upsert(s.ctx, person(id)))
		_, err := s.manager.AddMember(s.ctx, person(id), models.TypePerson, "g1")
		s.Require().NoError(err)
	}

	ok, err := s.manager.RemoveGroup(s.ctx, "g1", true)
	s.Require().NoError(err)
	s.True(ok)
	s.False(s.group().IsActive())

	for _, id := range []string{"p1", "p2"} {
		r, err := s.store.Load(s.ctx, models.TypePerson, id)
		s.Require().NoError(err)
		s.False(r.(*models.Person).IsActive(), id)
	}

	ok, err = s.manager.RemoveGroup(s.ctx, "g1", true)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ManagerSuite) TestDeactivate() {
	s.Run("missing record is a no-op", func() {
		ok, err := s.manager.Deactivate(s.ctx, "Person/ghost")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("kinds without an active flag are left alone", func() {
		s.Require().NoError(s.store.Upsert(s.ctx, &models.Record{Base: models.Base{Type: models.TypeObservation, ID: "o1"}}))
		ok, err := s.manager.Deactivate(s.ctx, "Observation/o1")
		s.Require().NoError(err)
		s.False(ok)
	})
}
