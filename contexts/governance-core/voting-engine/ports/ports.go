package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	eventsv1 "agora/contracts/events/v1"
	"agora/contracts/governance"
)

// VotingRepository persists voting aggregates, ballots included.
type VotingRepository interface {
	GetVoting(ctx context.Context, votingID uint32) (entities.Voting, error)
	SaveVoting(ctx context.Context, voting entities.Voting) error
	ListVotings(ctx context.Context) ([]entities.Voting, error)
}

// ReputationLedger is the slice of the ledger the voting engine drives:
// stake holds while votings run, burn/mint pairs when stakes redistribute.
type ReputationLedger interface {
	Stake(ctx context.Context, voter string, amount governance.Amount) error
	Unstake(ctx context.Context, voter string, amount governance.Amount) error
	BulkUnstake(ctx context.Context, items []governance.AccountAmount) error
	Mint(ctx context.Context, recipient string, amount governance.Amount) error
	Burn(ctx context.Context, owner string, amount governance.Amount) error
	BulkMintBurn(ctx context.Context, mints []governance.AccountAmount, burns []governance.AccountAmount) error
}

// MembershipToken answers whether an account holds a voting-association seat.
type MembershipToken interface {
	IsOnboarded(ctx context.Context, account string) (bool, error)
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
