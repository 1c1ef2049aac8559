package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
	"agora/contracts/governance"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store backs the voting engine for tests and single-process wiring. It also
// doubles as the membership and configuration source so NewInMemoryModule
// needs no external collaborators.
type Store struct {
	mu sync.RWMutex

	votings   map[uint32]entities.Voting
	order     []uint32
	sequences map[string]uint32

	onboarded map[string]bool
	config    governance.Configuration

	outbox []outboxRecord
	now    time.Time
}

func NewStore() *Store {
	return &Store{
		votings:   make(map[uint32]entities.Voting),
		sequences: make(map[string]uint32),
		onboarded: make(map[string]bool),
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

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) NextID(_ context.Context, namespace string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[namespace]++
	return s.sequences[namespace], nil
}

func (s *Store) GetVoting(_ context.Context, votingID uint32) (entities.Voting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voting, ok := s.votings[votingID]
	if !ok {
		return entities.Voting{}, domainerrors.ErrVotingDoesNotExist
	}
	return voting, nil
}

func (s *Store) SaveVoting(_ context.Context, voting entities.Voting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.votings[voting.ID]; !exists {
		s.order = append(s.order, voting.ID)
	}
	s.votings[voting.ID] = voting
	return nil
}

func (s *Store) ListVotings(_ context.Context) ([]entities.Voting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votings := make([]entities.Voting, 0, len(s.order))
	for _, id := range s.order {
		votings = append(votings, s.votings[id])
	}
	return votings, nil
}

// SetOnboarded seeds the voting-association roster, a test seam.
func (s *Store) SetOnboarded(account string, onboarded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if onboarded {
		s.onboarded[account] = true
		return
	}
	delete(s.onboarded, account)
}

func (s *Store) IsOnboarded(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onboarded[strings.TrimSpace(account)], nil
}

// SetConfiguration pins the snapshot returned by Snapshot.
func (s *Store) SetConfiguration(cfg governance.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

func (s *Store) Snapshot(_ context.Context) (governance.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.TotalOnboarded = uint32(len(s.onboarded))
	return cfg, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

// OutboxEventTypes lists appended event types in order, a test seam.
func (s *Store) OutboxEventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.outbox))
	for _, record := range s.outbox {
		types = append(types, record.message.EventType)
	}
	return types
}
