package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/bid-escrow/domain/entities"
	eventsv1 "agora/contracts/events/v1"
	"agora/contracts/governance"
)

// EscrowRepository persists offers, bids, and jobs.
type EscrowRepository interface {
	GetJobOffer(ctx context.Context, offerID uint32) (entities.JobOffer, error)
	SaveJobOffer(ctx context.Context, offer entities.JobOffer) error
	ListJobOffers(ctx context.Context) ([]entities.JobOffer, error)

	GetBid(ctx context.Context, bidID uint32) (entities.Bid, error)
	SaveBid(ctx context.Context, bid entities.Bid) error
	ListBidsForOffer(ctx context.Context, offerID uint32) ([]entities.Bid, error)
	ListBids(ctx context.Context) ([]entities.Bid, error)

	GetJob(ctx context.Context, jobID uint32) (entities.Job, error)
	SaveJob(ctx context.Context, job entities.Job) error
	ListJobs(ctx context.Context) ([]entities.Job, error)
}

// VotingEngine is the slice of the voting engine the escrow adjudicates jobs
// through.
type VotingEngine interface {
	CreateVoting(ctx context.Context, creator string, stake governance.Amount, cfg governance.Configuration) (governance.VotingSummary, error)
	CastBallot(ctx context.Context, votingID uint32, votingType governance.VotingType, voter string, choice governance.Choice, stake governance.Amount, unbound bool) error
	Vote(ctx context.Context, votingID uint32, votingType governance.VotingType, voter string, choice governance.Choice, stake governance.Amount) error
	FinishVoting(ctx context.Context, votingID uint32, votingType governance.VotingType) (governance.VotingSummary, error)
	VotersOf(ctx context.Context, votingID uint32, votingType governance.VotingType) ([]string, error)
	BoundBallotStakes(ctx context.Context, votingID uint32, votingType governance.VotingType) ([]governance.AccountAmount, error)
	SlashVoter(ctx context.Context, voter string) (governance.SlashSummary, error)
}

// ReputationLedger is the slice of the ledger the escrow pays rewards and
// holds bid stakes through.
type ReputationLedger interface {
	Mint(ctx context.Context, recipient string, amount governance.Amount) error
	Burn(ctx context.Context, owner string, amount governance.Amount) error
	MintPassive(ctx context.Context, recipient string, amount governance.Amount) error
	Stake(ctx context.Context, voter string, amount governance.Amount) error
	Unstake(ctx context.Context, voter string, amount governance.Amount) error
	BulkUnstake(ctx context.Context, items []governance.AccountAmount) error
	BalanceOf(ctx context.Context, account string) (governance.Amount, error)
	AllBalances(ctx context.Context) (governance.AggregatedBalances, error)
	PartialBalances(ctx context.Context, accounts []string) (governance.AggregatedBalances, error)
}

// MembershipToken manages voting-association seats.
type MembershipToken interface {
	IsOnboarded(ctx context.Context, account string) (bool, error)
	Mint(ctx context.Context, account string) error
	TotalOnboarded(ctx context.Context) (uint32, error)
}

// KycToken answers whether an account passed identity verification.
type KycToken interface {
	HasKyc(ctx context.Context, account string) (bool, error)
}

// Treasury custodies native currency. Deposit moves funds from an account
// into escrow, Withdraw pays escrowed funds out with a reason tag.
type Treasury interface {
	Deposit(ctx context.Context, from string, amount governance.Amount) error
	Withdraw(ctx context.Context, to string, amount governance.Amount, reason string) error
}

// ConfigurationSource snapshots the governance parameters active right now.
type ConfigurationSource interface {
	Snapshot(ctx context.Context) (governance.Configuration, error)
}

// SequenceGenerator hands out monotonically increasing ids per namespace.
type SequenceGenerator interface {
	NextID(ctx context.Context, namespace string) (uint32, error)
}

type EventEnvelope = eventsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
