// Package ledger tracks which records each submission of a response produced.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/pkg/platform/sentinel"
)

const (
	statusCurrent = "current"
	modeWorking   = "working"
)

// New builds a ledger enumerating records in order. Records without an id are
// skipped.
func New(id string, at time.Time, records []models.Resource) models.Ledger {
	l := models.Ledger{
		ID:     id,
		Title:  models.LedgerTitle,
		Status: statusCurrent,
		Mode:   modeWorking,
		Date:   at,
	}
	for _, r := range records {
		if r.ResourceID() == "" {
			continue
		}
		l.Entries = append(l.Entries, models.LedgerEntry{Type: r.ResourceType(), ID: r.ResourceID(), Date: at})
	}
	return l
}

// Prior is the set of records a previous submission produced.
type Prior struct {
	Records []models.Resource
	// Missing lists ledger entries whose record no longer exists.
	Missing []models.Reference
}

// ByType groups the prior records by kind.
func (p Prior) ByType() map[models.ResourceType][]models.Resource {
	out := make(map[models.ResourceType][]models.Resource)
	for _, r := range p.Records {
		out[r.ResourceType()] = append(out[r.ResourceType()], r)
	}
	return out
}

// LoadPrior loads the records named by the response's latest ledger. A
// response without a ledger yields an empty Prior.
func LoadPrior(ctx context.Context, store ports.Store, resp *models.FormResponse) (Prior, error) {
	l, ok := resp.LatestLedger()
	if !ok {
		return Prior{}, nil
	}
	return Load(ctx, store, l)
}

// Load resolves every entry of l. Entries whose record is gone are reported
// in Missing rather than failing the load.
func Load(ctx context.Context, store ports.Store, l models.Ledger) (Prior, error) {
	var p Prior
	seen := make(map[models.Reference]bool, l.Len())
	for _, e := range l.Entries {
		ref := e.Reference()
		if ref.IsZero() || seen[ref] {
			continue
		}
		seen[ref] = true
		r, err := store.Load(ctx, e.Type, e.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			p.Missing = append(p.Missing, ref)
			continue
		}
		if err != nil {
			return Prior{}, fmt.Errorf("load ledgered %s: %w", ref, err)
		}
		p.Records = append(p.Records, r)
	}
	return p, nil
}
