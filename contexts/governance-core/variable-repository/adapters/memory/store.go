package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/variable-repository/domain/entities"
	domainerrors "agora/contexts/governance-core/variable-repository/domain/errors"
)

// Store backs the variable repository for tests and single-process wiring,
// doubling as whitelist and membership-count source.
type Store struct {
	mu sync.RWMutex

	records map[string]entities.Record
	order   []string

	whitelist map[string]bool
	onboarded uint32

	now time.Time
}

func NewStore() *Store {
	return &Store{
		records:   make(map[string]entities.Record),
		whitelist: make(map[string]bool),
	}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) AdvanceTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now.IsZero() {
		s.now = time.Now().UTC()
	}
	s.now = s.now.Add(d)
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) GetRecord(_ context.Context, key string) (entities.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return entities.Record{}, domainerrors.ErrVariableNotFound
	}
	return record, nil
}

func (s *Store) SaveRecord(_ context.Context, record entities.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Key]; !exists {
		s.order = append(s.order, record.Key)
	}
	s.records[record.Key] = record
	return nil
}

func (s *Store) ListRecords(_ context.Context) ([]entities.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]entities.Record, 0, len(s.order))
	for _, key := range s.order {
		records = append(records, s.records[key])
	}
	return records, nil
}

// SetWhitelisted seeds the update whitelist, a test seam.
func (s *Store) SetWhitelisted(account string, whitelisted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if whitelisted {
		s.whitelist[account] = true
		return
	}
	delete(s.whitelist, account)
}

func (s *Store) IsWhitelisted(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whitelist[strings.TrimSpace(account)], nil
}

// SetTotalOnboarded pins the onboarded-member count, a test seam.
func (s *Store) SetTotalOnboarded(count uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onboarded = count
}

func (s *Store) TotalOnboarded(_ context.Context) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onboarded, nil
}
