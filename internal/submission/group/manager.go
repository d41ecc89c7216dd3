// Package group maintains group membership and managing-entity invariants.
//
// Every operation loads the group fresh and reports whether it changed
// anything. Unmet preconditions are no-ops, not errors: a submission that
// names a missing group or an ineligible member still succeeds.
package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/pkg/platform/sentinel"
)

type Manager struct {
	store  ports.Store
	logger *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func New(store ports.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	m := &Manager{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// UpdateManagingEntity makes record the managing entity of group groupID when
// record is a RelatedPerson holding relationshipCode.
func (m *Manager) UpdateManagingEntity(ctx context.Context, record models.Resource, groupID, relationshipCode string) (bool, error) {
	rp, ok := record.(*models.RelatedPerson)
	if !ok || groupID == "" || !rp.HasRelationship(relationshipCode) {
		return false, nil
	}
	g, err := m.load(ctx, groupID)
	if g == nil || err != nil {
		return false, err
	}
	ref := rp.AsReference()
	if g.ManagingEntity == ref {
		return false, nil
	}
	g.ManagingEntity = ref
	if err := m.store.Upsert(ctx, g); err != nil {
		return false, fmt.Errorf("update managing entity of %s: %w", g.AsReference(), err)
	}
	m.logger.DebugContext(ctx, "group managing entity updated",
		"group", g.AsReference(),
		"managing_entity", ref,
	)
	return true, nil
}

// AddMember lists record in group groupID. A record whose id equals groupID is
// never added, whatever its type. Otherwise the record type must equal
// memberType and be member-eligible, and no member is listed twice.
func (m *Manager) AddMember(ctx context.Context, record models.Resource, memberType models.ResourceType, groupID string) (bool, error) {
	if groupID == "" || record.ResourceID() == groupID {
		return false, nil
	}
	t := record.ResourceType()
	if t != memberType || !t.IsMemberEligible() {
		return false, nil
	}
	g, err := m.load(ctx, groupID)
	if g == nil || err != nil {
		return false, err
	}
	if !g.AddMember(record.AsReference()) {
		return false, nil
	}
	if err := m.store.Upsert(ctx, g); err != nil {
		return false, fmt.Errorf("add member to %s: %w", g.AsReference(), err)
	}
	return true, nil
}

// RemoveMember marks member inactive in group groupID and deactivates the
// member record.
func (m *Manager) RemoveMember(ctx context.Context, member models.Reference, groupID string) (bool, error) {
	if member.IsZero() || groupID == "" {
		return false, nil
	}
	g, err := m.load(ctx, groupID)
	if g == nil || err != nil {
		return false, err
	}
	if !g.RemoveMember(member) {
		return false, nil
	}
	if g.ManagingEntity == member {
		g.ManagingEntity = ""
	}
	if err := m.store.Upsert(ctx, g); err != nil {
		return false, fmt.Errorf("remove member from %s: %w", g.AsReference(), err)
	}
	if _, err := m.Deactivate(ctx, member); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveGroup deactivates group groupID and, with deactivateMembers, every
// active member record.
func (m *Manager) RemoveGroup(ctx context.Context, groupID string, deactivateMembers bool) (bool, error) {
	if groupID == "" {
		return false, nil
	}
	g, err := m.load(ctx, groupID)
	if g == nil || err != nil {
		return false, err
	}
	changed := g.Deactivate()
	if changed {
		if err := m.store.Upsert(ctx, g); err != nil {
			return false, fmt.Errorf("deactivate %s: %w", g.AsReference(), err)
		}
	}
	if !deactivateMembers {
		return changed, nil
	}
	for _, member := range g.ActiveMembers() {
		ok, err := m.Deactivate(ctx, member)
		if err != nil {
			return changed, err
		}
		changed = changed || ok
	}
	return changed, nil
}

// Deactivate soft-deletes the record at ref. Missing records and kinds
// without an active flag are left alone.
func (m *Manager) Deactivate(ctx context.Context, ref models.Reference) (bool, error) {
	if ref.IsZero() {
		return false, nil
	}
	r, err := m.store.Load(ctx, ref.Type(), ref.ID())
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", ref, err)
	}
	d, ok := r.(models.Deactivatable)
	if !ok || !d.Deactivate() {
		return false, nil
	}
	if err := m.store.Upsert(ctx, r); err != nil {
		return false, fmt.Errorf("deactivate %s: %w", ref, err)
	}
	return true, nil
}

// load returns nil without error when the group does not exist.
func (m *Manager) load(ctx context.Context, groupID string) (*models.Group, error) {
	r, err := m.store.Load(ctx, models.TypeGroup, groupID)
	if errors.Is(err, sentinel.ErrNotFound) {
		m.logger.DebugContext(ctx, "group not found", "group_id", groupID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", groupID, err)
	}
	g, ok := r.(*models.Group)
	if !ok {
		return nil, nil
	}
	return g, nil
}
