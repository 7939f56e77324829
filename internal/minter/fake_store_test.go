package minter_test

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/store"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

// memStore is an in-memory store.Store with the same eligibility and uniqueness rules as PostgreSQL
type memStore struct {
	mu      sync.Mutex
	goals   []store.EligibleGoal
	records map[uuid.UUID]schema.MintRecord
	kv      map[string]string

	findCalls atomic.Int32
	findErr   error
}

var _ store.Store = (*memStore)(nil)

func newMemStore(goals ...store.EligibleGoal) *memStore {
	return &memStore{
		goals:   goals,
		records: make(map[uuid.UUID]schema.MintRecord),
		kv:      make(map[string]string),
	}
}

func (s *memStore) eligible() []store.EligibleGoal {
	var out []store.EligibleGoal
	for _, g := range s.goals {
		if _, minted := s.records[g.GoalID]; !minted {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return bytes.Compare(out[i].GoalID[:], out[j].GoalID[:]) < 0
	})
	return out
}

func (s *memStore) FindEligibleGoals(_ context.Context, pageSize int, after *store.EligibilityCursor) ([]store.EligibleGoal, error) {
	s.findCalls.Add(1)
	if s.findErr != nil {
		return nil, s.findErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var page []store.EligibleGoal
	for _, g := range s.eligible() {
		if after != nil {
			if g.UpdatedAt.Before(after.UpdatedAt) {
				continue
			}
			if g.UpdatedAt.Equal(after.UpdatedAt) && bytes.Compare(g.GoalID[:], after.GoalID[:]) <= 0 {
				continue
			}
		}
		page = append(page, g)
		if len(page) == pageSize {
			break
		}
	}
	return page, nil
}

func (s *memStore) CountEligibleGoals(_ context.Context) (int64, error) {
	if s.findErr != nil {
		return 0, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.eligible())), nil
}

func (s *memStore) CreateMintRecord(_ context.Context, input store.CreateMintRecordInput) (*schema.MintRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[input.GoalID]; ok {
		return nil, fmt.Errorf("failed to create mint record for goal %s: %w", input.GoalID, domain.ErrMintRecordExists)
	}
	record := schema.MintRecord{
		ID:              uuid.New(),
		UserID:          input.UserID,
		GoalID:          input.GoalID,
		TokenID:         input.TokenID,
		TxHash:          input.TxHash,
		Chain:           input.Chain,
		ContractAddress: input.ContractAddress,
		Description:     input.Description,
		GoalCompletedAt: input.GoalCompletedAt,
		ConfirmedAt:     input.ConfirmedAt,
	}
	s.records[input.GoalID] = record
	return &record, nil
}

func (s *memStore) GetMintRecordByGoalID(_ context.Context, goalID uuid.UUID) (*schema.MintRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[goalID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *memStore) ListMintRecordsByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]schema.MintRecord, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schema.MintRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	total := uint64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *memStore) GetKeyValue(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv[key], nil
}

func (s *memStore) SetKeyValue(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *memStore) Ping(_ context.Context) error {
	return nil
}

func (s *memStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) hasRecord(goalID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[goalID]
	return ok
}
