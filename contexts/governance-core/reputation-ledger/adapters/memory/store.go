package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/reputation-ledger/ports"
	"agora/contracts/governance"

	"github.com/google/uuid"
)

// Balances are stored as decimal strings, mirroring the numeric columns the
// postgres adapter uses.
type amount = governance.Amount

func parseStored(raw string) (amount, error) {
	if raw == "" {
		return governance.ZeroAmount(), nil
	}
	return governance.ParseAmount(raw)
}

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and single-process wiring. It
// implements every ledger port behind one mutex so call-level atomicity holds
// the way the production transaction wrapper guarantees it.
type Store struct {
	mu sync.RWMutex

	balances     map[string]string
	stakes       map[string]string
	passive      map[string]string
	totalSupply  string
	passiveTotal string
	holders      []string

	owner     string
	whitelist map[string]bool

	outbox []outboxRecord
	now    time.Time
}

func NewStore() *Store {
	return &Store{
		balances:     make(map[string]string),
		stakes:       make(map[string]string),
		passive:      make(map[string]string),
		totalSupply:  "0",
		passiveTotal: "0",
		whitelist:    make(map[string]bool),
	}
}

// SetNow pins the clock for deterministic tests; zero means wall clock.
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

func (s *Store) BalanceOf(_ context.Context, account string) (amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parseStored(s.balances[strings.TrimSpace(account)])
}

func (s *Store) SetBalance(_ context.Context, account string, value amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if value.IsZero() {
		delete(s.balances, account)
		s.removeHolder(account)
		return nil
	}
	if _, exists := s.balances[account]; !exists {
		s.holders = append(s.holders, account)
	}
	s.balances[account] = value.String()
	return nil
}

func (s *Store) TotalSupply(_ context.Context) (amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parseStored(s.totalSupply)
}

func (s *Store) SetTotalSupply(_ context.Context, value amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSupply = value.String()
	return nil
}

func (s *Store) Holders(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.holders...), nil
}

func (s *Store) StakeOf(_ context.Context, account string) (amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parseStored(s.stakes[strings.TrimSpace(account)])
}

func (s *Store) SetStake(_ context.Context, account string, value amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if value.IsZero() {
		delete(s.stakes, account)
		return nil
	}
	s.stakes[account] = value.String()
	return nil
}

func (s *Store) PassiveBalanceOf(_ context.Context, account string) (amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parseStored(s.passive[strings.TrimSpace(account)])
}

func (s *Store) SetPassiveBalance(_ context.Context, account string, value amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if value.IsZero() {
		delete(s.passive, account)
		return nil
	}
	s.passive[account] = value.String()
	return nil
}

func (s *Store) PassiveTotalSupply(_ context.Context) (amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parseStored(s.passiveTotal)
}

func (s *Store) SetPassiveTotalSupply(_ context.Context, value amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passiveTotal = value.String()
	return nil
}

func (s *Store) Owner(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, nil
}

func (s *Store) SetOwner(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = strings.TrimSpace(account)
	return nil
}

func (s *Store) IsWhitelisted(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whitelist[strings.TrimSpace(account)], nil
}

func (s *Store) SetWhitelisted(_ context.Context, account string, whitelisted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if whitelisted {
		s.whitelist[account] = true
		return nil
	}
	delete(s.whitelist, account)
	return nil
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

func (s *Store) removeHolder(account string) {
	for i, holder := range s.holders {
		if holder == account {
			s.holders = append(s.holders[:i], s.holders[i+1:]...)
			return
		}
	}
}
