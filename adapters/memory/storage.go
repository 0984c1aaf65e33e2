package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"levelkit/core"
	"levelkit/leaderboard"
)

// Store is a concurrent in-memory RecordStore. Suited for tests and
// single-process embeds that do not need persistence.
type Store struct {
	mu      sync.RWMutex
	tenants map[core.TenantID]map[core.MemberID]core.MemberRecord
}

func New() *Store {
	return &Store{tenants: make(map[core.TenantID]map[core.MemberID]core.MemberRecord)}
}

func (s *Store) Get(_ context.Context, tenant core.TenantID, member core.MemberID) (*core.MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tenants[tenant][member]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *Store) Upsert(_ context.Context, rec core.MemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenants[rec.TenantID] == nil {
		s.tenants[rec.TenantID] = make(map[core.MemberID]core.MemberRecord)
	}
	rec.Rank = nil // rank is derived, never stored
	s.tenants[rec.TenantID][rec.MemberID] = rec
	return nil
}

func (s *Store) IncrementXP(_ context.Context, tenant core.TenantID, member core.MemberID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tenants[tenant][member]
	if !ok {
		return fmt.Errorf("memory: no record for member %d in tenant %d", member, tenant)
	}
	rec.XP += amount
	rec.TotalXP += amount
	s.tenants[tenant][member] = rec
	return nil
}

func (s *Store) Delete(_ context.Context, tenant core.TenantID, member core.MemberID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[tenant][member]; !ok {
		return false, nil
	}
	delete(s.tenants[tenant], member)
	return true, nil
}

func (s *Store) Scan(_ context.Context, tenant core.TenantID) ([]core.MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanLocked(tenant), nil
}

func (s *Store) ScanAll(_ context.Context) ([]core.MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenantIDs := make([]core.TenantID, 0, len(s.tenants))
	for id := range s.tenants {
		tenantIDs = append(tenantIDs, id)
	}
	sort.Slice(tenantIDs, func(i, j int) bool { return tenantIDs[i] < tenantIDs[j] })
	var out []core.MemberRecord
	for _, id := range tenantIDs {
		out = append(out, s.scanLocked(id)...)
	}
	return out, nil
}

func (s *Store) scanLocked(tenant core.TenantID) []core.MemberRecord {
	members := s.tenants[tenant]
	out := make([]core.MemberRecord, 0, len(members))
	for _, rec := range members {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

func (s *Store) Rank(_ context.Context, tenant core.TenantID, member core.MemberID) (*int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// scanLocked orders by member ID, so the stable total-XP sort inside
	// RankOf breaks ties in favor of the lower ID
	rank, ok := leaderboard.RankOf(s.scanLocked(tenant), member)
	if !ok {
		return nil, nil
	}
	return &rank, nil
}

func (s *Store) Count(_ context.Context, tenant *core.TenantID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tenant != nil {
		return int64(len(s.tenants[*tenant])), nil
	}
	var n int64
	for _, members := range s.tenants {
		n += int64(len(members))
	}
	return n, nil
}

func (s *Store) Wipe(_ context.Context, tenant *core.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant != nil {
		delete(s.tenants, *tenant)
		return nil
	}
	s.tenants = make(map[core.TenantID]map[core.MemberID]core.MemberRecord)
	return nil
}

func (s *Store) ResetAll(_ context.Context, tenant *core.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, members := range s.tenants {
		if tenant != nil && id != *tenant {
			continue
		}
		for memberID, rec := range members {
			rec.Level = 0
			rec.XP = 0
			rec.TotalXP = 0
			members[memberID] = rec
		}
	}
	return nil
}
