package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/variable-repository/domain/entities"
)

// RecordRepository persists governance parameter records by key.
type RecordRepository interface {
	GetRecord(ctx context.Context, key string) (entities.Record, error)
	SaveRecord(ctx context.Context, record entities.Record) error
	ListRecords(ctx context.Context) ([]entities.Record, error)
}

// Whitelist gates parameter updates to approved governance callers.
type Whitelist interface {
	IsWhitelisted(ctx context.Context, account string) (bool, error)
}

// MembershipToken exposes the onboarded-member count captured into every
// configuration snapshot.
type MembershipToken interface {
	TotalOnboarded(ctx context.Context) (uint32, error)
}

type Clock interface {
	Now() time.Time
}
