// Package enrich stamps ownership references and tags onto records.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/pkg/requestcontext"
)

const defaultLinkageDepth = 3

type Enricher struct {
	store    ports.Store
	now      func() time.Time
	newID    func() string
	maxDepth int
}

type Option func(*Enricher)

// WithClock overrides the time source for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		e.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Enricher) {
		e.newID = newID
	}
}

// WithLinkageDepth bounds how many linkage hops RelatedLocationTags follows.
func WithLinkageDepth(depth int) Option {
	return func(e *Enricher) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

func New(store ports.Store, opts ...Option) (*Enricher, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	e := &Enricher{
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
		maxDepth: defaultLinkageDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// At returns a copy of the enricher that stamps t as LastUpdated.
func (e *Enricher) At(t time.Time) *Enricher {
	c := *e
	c.now = func() time.Time { return t }
	return &c
}

// Enrich returns a stamped copy of record; the input is not modified.
// Ownership references are set only on kinds that carry them and only when
// absent. Ownership and location tags are appended once per (system, code).
func (e *Enricher) Enrich(record models.Resource, owner requestcontext.Ownership, locationTags []models.Coding) (models.Resource, error) {
	out, err := models.Clone(record)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", record.AsReference(), err)
	}

	if len(owner.OrganizationIDs) > 0 {
		if o, ok := out.(models.OrganizationOwned); ok {
			o.AssignOrganization(models.NewReference(models.TypeOrganization, owner.OrganizationIDs[0]))
		}
	}
	if owner.PractitionerID != "" {
		if p, ok := out.(models.PractitionerOwned); ok {
			p.AssignPractitioner(models.NewReference(models.TypePractitioner, owner.PractitionerID))
		}
	}

	out.ApplyTags(OwnershipTags(owner)...)
	out.ApplyTags(locationTags...)

	out.Metadata().LastUpdated = e.now().UTC()
	if out.ResourceID() == "" {
		out.Identify(e.newID())
	}
	return out, nil
}

// OwnershipTags lists the organization and practitioner tags for owner.
func OwnershipTags(owner requestcontext.Ownership) []models.Coding {
	tags := make([]models.Coding, 0, len(owner.OrganizationIDs)+1)
	for _, id := range owner.OrganizationIDs {
		if id != "" {
			tags = append(tags, models.OrganizationTag(id))
		}
	}
	if owner.PractitionerID != "" {
		tags = append(tags, models.PractitionerTag(owner.PractitionerID))
	}
	return tags
}

// RelatedLocationTags resolves the related-entity-location tags for a
// submission. A Location subject tags itself. Otherwise tags already carried by
// the subject or the group win. Otherwise records linked to the subject under
// linkageCode are walked transitively and every Location reached contributes a
// tag. Either subject or group may be nil.
func (e *Enricher) RelatedLocationTags(ctx context.Context, subject models.Resource, group *models.Group, linkageCode string) ([]models.Coding, error) {
	if subject != nil && subject.ResourceType() == models.TypeLocation && subject.ResourceID() != "" {
		return []models.Coding{models.RelatedEntityLocationTag(subject.ResourceID())}, nil
	}

	var tags tagSet
	if subject != nil {
		tags.add(subject.Metadata().TagsWithSystem(models.SystemRelatedEntityLocationTag)...)
	}
	if group != nil {
		tags.add(group.Meta.TagsWithSystem(models.SystemRelatedEntityLocationTag)...)
	}
	if len(tags) > 0 || linkageCode == "" || subject == nil || subject.ResourceID() == "" {
		return tags, nil
	}

	visited := map[models.Reference]bool{subject.AsReference(): true}
	frontier := []models.Reference{subject.AsReference()}
	for depth := 0; depth < e.maxDepth && len(frontier) > 0; depth++ {
		var next []models.Reference
		for _, target := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			linked, err := e.store.Search(ctx, ports.Query{Linkage: &models.Link{Code: linkageCode, Target: target}})
			if err != nil {
				return nil, fmt.Errorf("search records linked to %s: %w", target, err)
			}
			for _, r := range linked {
				ref := r.AsReference()
				if visited[ref] {
					continue
				}
				visited[ref] = true
				if r.ResourceType() == models.TypeLocation {
					tags.add(models.RelatedEntityLocationTag(r.ResourceID()))
				}
				next = append(next, ref)
			}
		}
		frontier = next
	}
	return tags, nil
}

type tagSet []models.Coding

func (s *tagSet) add(tags ...models.Coding) {
	for _, t := range tags {
		dup := false
		for _, existing := range *s {
			if existing.Matches(t) {
				dup = true
				break
			}
		}
		if !dup {
			*s = append(*s, t)
		}
	}
}
