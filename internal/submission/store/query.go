// Package store holds what the record store implementations share.
package store

import (
	"sort"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
)

// Matches reports whether r satisfies every non-zero field of q.
func Matches(r models.Resource, q ports.Query) bool {
	if q.Type != "" && r.ResourceType() != q.Type {
		return false
	}
	if !q.Subject.IsZero() {
		sb, ok := r.(models.SubjectBound)
		if !ok || sb.SubjectReference() != q.Subject {
			return false
		}
	}
	if q.Tag != nil && !hasTag(r.Metadata(), *q.Tag) {
		return false
	}
	if !q.Template.IsZero() {
		resp, ok := r.(*models.FormResponse)
		if !ok || resp.Template != q.Template {
			return false
		}
	}
	if q.Linkage != nil && !r.HasLink(q.Linkage.Code, q.Linkage.Target) {
		return false
	}
	return true
}

func hasTag(m *models.Meta, tag models.Coding) bool {
	for _, t := range m.Tags {
		if t.Matches(tag) {
			return true
		}
	}
	return false
}

// SortAndLimit orders results most recently updated first and applies the
// query limit. Ties break on reference for a stable order.
func SortAndLimit(out []models.Resource, limit int) []models.Resource {
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Metadata().LastUpdated, out[j].Metadata().LastUpdated
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].AsReference() < out[j].AsReference()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
