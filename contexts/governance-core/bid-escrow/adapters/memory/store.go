package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/bid-escrow/domain/entities"
	domainerrors "agora/contexts/governance-core/bid-escrow/domain/errors"
	"agora/contexts/governance-core/bid-escrow/ports"
	"agora/contracts/governance"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Transfer is one treasury movement recorded by the in-memory escrow, a test
// seam for asserting payout matrices.
type Transfer struct {
	Account string
	Amount  governance.Amount
	Reason  string
}

// Store backs the bid escrow for tests and single-process wiring. It doubles
// as the membership roster, the kyc registry, the treasury, and the
// configuration source so NewInMemoryModule needs no external collaborators.
type Store struct {
	mu sync.RWMutex

	offers     map[uint32]entities.JobOffer
	offerOrder []uint32
	bids       map[uint32]entities.Bid
	bidOrder   []uint32
	jobs       map[uint32]entities.Job
	jobOrder   []uint32
	sequences  map[string]uint32

	onboarded map[string]bool
	kyc       map[string]bool
	config    governance.Configuration

	escrowed  governance.Amount
	transfers []Transfer

	outbox []outboxRecord
	now    time.Time
}

func NewStore() *Store {
	return &Store{
		offers:    make(map[uint32]entities.JobOffer),
		bids:      make(map[uint32]entities.Bid),
		jobs:      make(map[uint32]entities.Job),
		sequences: make(map[string]uint32),
		onboarded: make(map[string]bool),
		kyc:       make(map[string]bool),
		escrowed:  governance.ZeroAmount(),
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

func (s *Store) GetJobOffer(_ context.Context, offerID uint32) (entities.JobOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offers[offerID]
	if !ok {
		return entities.JobOffer{}, domainerrors.ErrJobOfferDoesNotExist
	}
	return offer, nil
}

func (s *Store) SaveJobOffer(_ context.Context, offer entities.JobOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.offers[offer.ID]; !exists {
		s.offerOrder = append(s.offerOrder, offer.ID)
	}
	s.offers[offer.ID] = offer
	return nil
}

func (s *Store) ListJobOffers(_ context.Context) ([]entities.JobOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offers := make([]entities.JobOffer, 0, len(s.offerOrder))
	for _, id := range s.offerOrder {
		offers = append(offers, s.offers[id])
	}
	return offers, nil
}

func (s *Store) GetBid(_ context.Context, bidID uint32) (entities.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bid, ok := s.bids[bidID]
	if !ok {
		return entities.Bid{}, domainerrors.ErrBidDoesNotExist
	}
	return bid, nil
}

func (s *Store) SaveBid(_ context.Context, bid entities.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bids[bid.ID]; !exists {
		s.bidOrder = append(s.bidOrder, bid.ID)
	}
	s.bids[bid.ID] = bid
	return nil
}

func (s *Store) ListBidsForOffer(_ context.Context, offerID uint32) ([]entities.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bids := make([]entities.Bid, 0, len(s.bidOrder))
	for _, id := range s.bidOrder {
		if s.bids[id].OfferID == offerID {
			bids = append(bids, s.bids[id])
		}
	}
	return bids, nil
}

func (s *Store) ListBids(_ context.Context) ([]entities.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bids := make([]entities.Bid, 0, len(s.bidOrder))
	for _, id := range s.bidOrder {
		bids = append(bids, s.bids[id])
	}
	return bids, nil
}

func (s *Store) GetJob(_ context.Context, jobID uint32) (entities.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return entities.Job{}, domainerrors.ErrJobDoesNotExist
	}
	return job, nil
}

func (s *Store) SaveJob(_ context.Context, job entities.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		s.jobOrder = append(s.jobOrder, job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *Store) ListJobs(_ context.Context) ([]entities.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]entities.Job, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		jobs = append(jobs, s.jobs[id])
	}
	return jobs, nil
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

func (s *Store) Mint(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onboarded[strings.TrimSpace(account)] = true
	return nil
}

func (s *Store) TotalOnboarded(_ context.Context) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint32(len(s.onboarded)), nil
}

// SetKyc seeds the identity registry, a test seam.
func (s *Store) SetKyc(account string, verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	if verified {
		s.kyc[account] = true
		return
	}
	delete(s.kyc, account)
}

func (s *Store) HasKyc(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kyc[strings.TrimSpace(account)], nil
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

func (s *Store) Deposit(_ context.Context, from string, amount governance.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escrowed = s.escrowed.Add(amount)
	s.transfers = append(s.transfers, Transfer{Account: from, Amount: amount, Reason: "deposit"})
	return nil
}

func (s *Store) Withdraw(_ context.Context, to string, amount governance.Amount, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.GT(s.escrowed) {
		return domainerrors.ErrInvalidRequest
	}
	s.escrowed = s.escrowed.Sub(amount)
	s.transfers = append(s.transfers, Transfer{Account: to, Amount: amount, Reason: reason})
	return nil
}

// Escrowed returns the currency currently held, a test seam.
func (s *Store) Escrowed() governance.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.escrowed
}

// Transfers returns every treasury movement in order, a test seam.
func (s *Store) Transfers() []Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transfer(nil), s.transfers...)
}

// WithdrawnTo totals every payout made to the account, a test seam.
func (s *Store) WithdrawnTo(account string) governance.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := governance.ZeroAmount()
	for _, transfer := range s.transfers {
		if transfer.Reason != "deposit" && strings.EqualFold(transfer.Account, account) {
			total = total.Add(transfer.Amount)
		}
	}
	return total
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
