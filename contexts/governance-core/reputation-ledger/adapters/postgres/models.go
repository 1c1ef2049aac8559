package postgresadapter

import "time"

type balanceModel struct {
	Account   string    `gorm:"column:account;primaryKey"`
	Ledger    string    `gorm:"column:ledger;primaryKey"`
	Amount    string    `gorm:"column:amount"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (balanceModel) TableName() string { return "reputation_balances" }

type stakeModel struct {
	Account   string    `gorm:"column:account;primaryKey"`
	Amount    string    `gorm:"column:amount"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (stakeModel) TableName() string { return "reputation_stakes" }

type supplyModel struct {
	Ledger    string    `gorm:"column:ledger;primaryKey"`
	Amount    string    `gorm:"column:amount"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (supplyModel) TableName() string { return "reputation_supply" }

type accessModel struct {
	Account     string    `gorm:"column:account;primaryKey"`
	Whitelisted bool      `gorm:"column:whitelisted"`
	IsOwner     bool      `gorm:"column:is_owner"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (accessModel) TableName() string { return "reputation_access" }

type outboxModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	EventType    string    `gorm:"column:event_type"`
	PartitionKey string    `gorm:"column:partition_key"`
	Payload      []byte    `gorm:"column:payload"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "reputation_outbox" }

const (
	ledgerReal    = "real"
	ledgerPassive = "passive"
)
