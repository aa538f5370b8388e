package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sevigo/mod-warden/internal/core"
)

// MemoryStore is an in-memory implementation of every store interface. It
// mirrors the Postgres semantics, including expected-status transitions and
// chain-tail append conflicts, and backs the unit tests.
type MemoryStore struct {
	mu         sync.RWMutex
	reviews    map[string]core.Review
	moderators map[string]core.ModeratorProfile
	decisions  map[string]core.Decision
	audits     map[string][]core.AuditRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reviews:    make(map[string]core.Review),
		moderators: make(map[string]core.ModeratorProfile),
		decisions:  make(map[string]core.Decision),
		audits:     make(map[string][]core.AuditRecord),
	}
}

// PutModerator seeds a moderator profile, standing in for the external
// provisioning collaborator.
func (m *MemoryStore) PutModerator(profile core.ModeratorProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moderators[profile.ID] = profile
}

func (m *MemoryStore) Create(_ context.Context, review *core.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[review.ID] = *review
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*core.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) Transition(_ context.Context, review *core.Review, expected core.ReviewStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reviews[review.ID]
	if !ok {
		return core.ErrNotFound
	}
	if stored.Status != expected {
		return core.ErrConflict
	}
	m.reviews[review.ID] = *review
	return nil
}

func (m *MemoryStore) ListTimedOut(_ context.Context, now time.Time) ([]core.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []core.Review
	for _, r := range m.reviews {
		if r.Status.Active() && r.TimeoutAt != nil && !r.TimeoutAt.After(now) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TimeoutAt.Before(*result[j].TimeoutAt) })
	return result, nil
}

func (m *MemoryStore) ListAssignable(_ context.Context) ([]core.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []core.Review
	for _, r := range m.reviews {
		if r.Status.Assignable() {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MemoryStore) CountActive(_ context.Context, moderatorID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.reviews {
		if r.Status.Active() && r.AssignedTo(moderatorID) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) GetModerator(_ context.Context, id string) (*core.ModeratorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.moderators[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListActive(_ context.Context) ([]core.ModeratorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []core.ModeratorProfile
	for _, p := range m.moderators {
		if p.Status == core.ModeratorActive {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) Save(_ context.Context, decision *core.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[decision.ReviewID] = *decision
	return nil
}

func (m *MemoryStore) GetByReview(_ context.Context, reviewID string) (*core.Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.decisions[reviewID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &d, nil
}

func (m *MemoryStore) TailHash(_ context.Context, subjectID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chain := m.audits[subjectID]
	if len(chain) == 0 {
		return core.GenesisHash, nil
	}
	return chain[len(chain)-1].Integrity.CurrentHash, nil
}

func (m *MemoryStore) Append(_ context.Context, record *core.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chain := m.audits[record.SubjectID]
	for _, existing := range chain {
		if existing.Integrity.PreviousHash == record.Integrity.PreviousHash {
			return core.ErrConflict
		}
	}
	m.audits[record.SubjectID] = append(chain, *record)
	return nil
}

func (m *MemoryStore) ListBySubject(_ context.Context, subjectID string) ([]core.AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chain := m.audits[subjectID]
	result := make([]core.AuditRecord, len(chain))
	copy(result, chain)
	return result, nil
}

// TamperPayload rewrites a stored record's payload in place without
// recomputing its hash. Test hook for chain verification.
func (m *MemoryStore) TamperPayload(subjectID string, index int, payload core.Payload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[subjectID][index].Payload = payload
}

// DropRecord removes a stored record in place. Test hook for chain
// verification.
func (m *MemoryStore) DropRecord(subjectID string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chain := m.audits[subjectID]
	m.audits[subjectID] = append(chain[:index:index], chain[index+1:]...)
}

// Reviews, moderator reads, decisions and audit records share the one
// MemoryStore value but satisfy the separate store interfaces.
var (
	_ ReviewStore   = (*MemoryStore)(nil)
	_ DecisionStore = (*MemoryStore)(nil)
	_ AuditStore    = (*MemoryStore)(nil)
)

// moderatorView adapts MemoryStore to ModeratorStore; the method name Get is
// already taken by ReviewStore on the same receiver.
type moderatorView struct{ *MemoryStore }

// Moderators returns the ModeratorStore view of the MemoryStore.
func (m *MemoryStore) Moderators() ModeratorStore { return moderatorView{m} }

func (v moderatorView) Get(ctx context.Context, id string) (*core.ModeratorProfile, error) {
	return v.GetModerator(ctx, id)
}
