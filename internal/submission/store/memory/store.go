// Package memory is an in-process record store with optimistic transactions.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/internal/submission/store"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

type key struct {
	t  models.ResourceType
	id string
}

type entry struct {
	data    []byte
	version int64
}

// InMemory keeps encoded records so callers never share mutable state with
// the store. Transactions buffer writes in an overlay and validate the
// versions they read when committing.
type InMemory struct {
	mu      sync.RWMutex
	records map[key]entry
	timeout time.Duration
}

type Option func(*InMemory)

// WithTxTimeout bounds transactions started without a deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *InMemory) {
		s.timeout = d
	}
}

func New(opts ...Option) *InMemory {
	s := &InMemory{records: make(map[key]entry), timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type txKey struct{}

type memTx struct {
	owner  *InMemory
	writes map[key]entry
	// seen holds the committed version observed when the key was first written.
	seen  map[key]int64
	order []key
}

func (s *InMemory) txFrom(ctx context.Context) *memTx {
	tx, ok := ctx.Value(txKey{}).(*memTx)
	if !ok || tx.owner != s {
		return nil
	}
	return tx
}

func (s *InMemory) Load(ctx context.Context, t models.ResourceType, id string) (models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := key{t: t, id: id}
	if tx := s.txFrom(ctx); tx != nil {
		if e, ok := tx.writes[k]; ok {
			return models.Decode(e.data)
		}
	}
	s.mu.RLock()
	e, ok := s.records[k]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", t, id, sentinel.ErrNotFound)
	}
	return models.Decode(e.data)
}

func (s *InMemory) Upsert(ctx context.Context, r models.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ResourceType() == "" || r.ResourceID() == "" {
		return fmt.Errorf("upsert: record type and id are required")
	}
	k := key{t: r.ResourceType(), id: r.ResourceID()}

	if tx := s.txFrom(ctx); tx != nil {
		current, exists := tx.current(k)
		if err := checkVersion(r, current, exists); err != nil {
			return err
		}
		e, err := encodeNext(r, current)
		if err != nil {
			return err
		}
		tx.put(k, e)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[k]
	if err := checkVersion(r, current.version, exists); err != nil {
		return err
	}
	e, err := encodeNext(r, current.version)
	if err != nil {
		return err
	}
	s.records[k] = e
	return nil
}

func checkVersion(r models.Resource, current int64, exists bool) error {
	want := r.Metadata().Version
	if want == 0 {
		return nil
	}
	if !exists || want != current {
		return fmt.Errorf("%s at version %d, stored %d: %w", r.AsReference(), want, current, sentinel.ErrConflict)
	}
	return nil
}

func encodeNext(r models.Resource, current int64) (entry, error) {
	r.Metadata().Version = current + 1
	data, err := models.Encode(r)
	if err != nil {
		r.Metadata().Version = current
		return entry{}, err
	}
	return entry{data: data, version: current + 1}, nil
}

func (tx *memTx) current(k key) (int64, bool) {
	if e, ok := tx.writes[k]; ok {
		return e.version, true
	}
	tx.owner.mu.RLock()
	defer tx.owner.mu.RUnlock()
	e, ok := tx.owner.records[k]
	return e.version, ok
}

func (tx *memTx) put(k key, e entry) {
	if _, ok := tx.writes[k]; !ok {
		tx.seen[k] = e.version - 1
		tx.order = append(tx.order, k)
	}
	tx.writes[k] = e
}

func (s *InMemory) Search(ctx context.Context, q ports.Query) ([]models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged := make(map[key][]byte)
	s.mu.RLock()
	for k, e := range s.records {
		if q.Type == "" || k.t == q.Type {
			merged[k] = e.data
		}
	}
	s.mu.RUnlock()
	if tx := s.txFrom(ctx); tx != nil {
		for k, e := range tx.writes {
			if q.Type == "" || k.t == q.Type {
				merged[k] = e.data
			}
		}
	}

	var out []models.Resource
	for _, data := range merged {
		r, err := models.Decode(data)
		if err != nil {
			return nil, err
		}
		if store.Matches(r, q) {
			out = append(out, r)
		}
	}
	return store.SortAndLimit(out, q.Limit), nil
}

// RunInTx runs fn against a write overlay and commits it atomically. A nested
// call joins the enclosing transaction.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx := &memTx{owner: s, writes: make(map[key]entry), seen: make(map[key]int64)}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return s.commit(tx)
}

func (s *InMemory) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range tx.order {
		if s.records[k].version != tx.seen[k] {
			return fmt.Errorf("commit %s/%s: %w", k.t, k.id, sentinel.ErrConflict)
		}
	}
	for _, k := range tx.order {
		s.records[k] = tx.writes[k]
	}
	return nil
}

// Ping always succeeds; it lets the memory store stand in for readiness checks.
func (s *InMemory) Ping(context.Context) error {
	return nil
}

// Len counts committed records.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
