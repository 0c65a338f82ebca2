package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/pkg/metrics"
)

// MemoryStore keeps baselines and audit records in process memory.
type MemoryStore struct {
	settings
	mu        sync.RWMutex
	baselines map[string]model.Baseline
	decisions map[string]AuditRecord
	closed    bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		settings:  newSettings(opts),
		baselines: make(map[string]model.Baseline),
		decisions: make(map[string]AuditRecord),
	}
}

// GetBaselines implements BaselineStore.
func (s *MemoryStore) GetBaselines(ctx context.Context, ids []string) (map[string]model.Baseline, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make(map[string]model.Baseline, len(ids))
	for _, id := range ids {
		if b, ok := s.baselines[key(id)]; ok {
			out[key(id)] = fromStore(b)
		}
	}
	return out, nil
}

// GetBaseline implements BaselineStore.
func (s *MemoryStore) GetBaseline(ctx context.Context, id string) (model.Baseline, error) {
	found, err := s.GetBaselines(ctx, []string{id})
	if err != nil {
		return model.Baseline{}, err
	}
	b, ok := found[key(id)]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Baseline{}, ErrNotFound
	}
	return b, nil
}

// PutBaseline implements BaselineStore.
func (s *MemoryStore) PutBaseline(ctx context.Context, id string, b model.Baseline) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(sinceMs(start)) }()

	k := key(id)
	if k == "" {
		return ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.baselines[k] = b
	metrics.UpdateRepositoryRecords("baselines", len(s.baselines))
	return nil
}

// SaveDecision implements AuditStore.
func (s *MemoryStore) SaveDecision(ctx context.Context, rec AuditRecord) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(sinceMs(start)) }()

	if rec.RequestID == "" {
		return ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	rec.Agents = slices.Clone(rec.Agents)
	rec.RulesFired = slices.Clone(rec.RulesFired)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.decisions[rec.RequestID]; ok {
		return ErrDuplicate
	}
	s.decisions[rec.RequestID] = rec
	metrics.UpdateRepositoryRecords("decisions", len(s.decisions))
	return nil
}

// GetDecision implements AuditStore.
func (s *MemoryStore) GetDecision(ctx context.Context, requestID string) (AuditRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return AuditRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return AuditRecord{}, ErrClosed
	}
	rec, ok := s.decisions[requestID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return AuditRecord{}, ErrNotFound
	}
	return rec, nil
}

// CountDecisions implements AuditStore.
func (s *MemoryStore) CountDecisions(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}

// Close releases the store. Later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
