package ports

import (
	"context"
	"time"

	contractsv1 "agora/contracts/events/v1"
	"agora/contracts/governance"
)

// BalanceRepository owns real balances, stakes, and the passive ledger.
// Zero balances and zero stakes are deleted rather than stored so the maps
// stay bounded by the set of live accounts.
type BalanceRepository interface {
	BalanceOf(ctx context.Context, account string) (governance.Amount, error)
	SetBalance(ctx context.Context, account string, amount governance.Amount) error
	TotalSupply(ctx context.Context) (governance.Amount, error)
	SetTotalSupply(ctx context.Context, amount governance.Amount) error
	Holders(ctx context.Context) ([]string, error)

	StakeOf(ctx context.Context, account string) (governance.Amount, error)
	SetStake(ctx context.Context, account string, amount governance.Amount) error

	PassiveBalanceOf(ctx context.Context, account string) (governance.Amount, error)
	SetPassiveBalance(ctx context.Context, account string, amount governance.Amount) error
	PassiveTotalSupply(ctx context.Context) (governance.Amount, error)
	SetPassiveTotalSupply(ctx context.Context, amount governance.Amount) error
}

// AccessControl keeps the owner and whitelist consulted by the administrative
// entry points.
type AccessControl interface {
	Owner(ctx context.Context) (string, error)
	SetOwner(ctx context.Context, account string) error
	IsWhitelisted(ctx context.Context, account string) (bool, error)
	SetWhitelisted(ctx context.Context, account string, whitelisted bool) error
}

type EventEnvelope = contractsv1.Envelope

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
