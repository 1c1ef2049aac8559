package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/reputation-ledger/ports"
	"agora/contracts/governance"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the gorm-backed implementation of the ledger ports. Amounts
// travel as decimal strings so arbitrary-precision values survive the trip
// through numeric columns.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) BalanceOf(ctx context.Context, account string) (governance.Amount, error) {
	return r.balanceOf(ctx, account, ledgerReal)
}

func (r *Repository) SetBalance(ctx context.Context, account string, amount governance.Amount) error {
	return r.setBalance(ctx, account, ledgerReal, amount)
}

func (r *Repository) PassiveBalanceOf(ctx context.Context, account string) (governance.Amount, error) {
	return r.balanceOf(ctx, account, ledgerPassive)
}

func (r *Repository) SetPassiveBalance(ctx context.Context, account string, amount governance.Amount) error {
	return r.setBalance(ctx, account, ledgerPassive, amount)
}

func (r *Repository) TotalSupply(ctx context.Context) (governance.Amount, error) {
	return r.supply(ctx, ledgerReal)
}

func (r *Repository) SetTotalSupply(ctx context.Context, amount governance.Amount) error {
	return r.setSupply(ctx, ledgerReal, amount)
}

func (r *Repository) PassiveTotalSupply(ctx context.Context) (governance.Amount, error) {
	return r.supply(ctx, ledgerPassive)
}

func (r *Repository) SetPassiveTotalSupply(ctx context.Context, amount governance.Amount) error {
	return r.setSupply(ctx, ledgerPassive, amount)
}

func (r *Repository) Holders(ctx context.Context) ([]string, error) {
	var accounts []string
	err := r.db.WithContext(ctx).
		Model(&balanceModel{}).
		Where("ledger = ?", ledgerReal).
		Order("updated_at ASC").
		Pluck("account", &accounts).
		Error
	if err != nil {
		return nil, r.logError("ledger_repo_holders_failed", err)
	}
	return accounts, nil
}

func (r *Repository) StakeOf(ctx context.Context, account string) (governance.Amount, error) {
	var row stakeModel
	err := r.db.WithContext(ctx).
		Where("account = ?", strings.TrimSpace(account)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return governance.ZeroAmount(), nil
		}
		return governance.ZeroAmount(), r.logError("ledger_repo_stake_of_failed", err, "account", strings.TrimSpace(account))
	}
	return governance.ParseAmount(row.Amount)
}

func (r *Repository) SetStake(ctx context.Context, account string, amount governance.Amount) error {
	account = strings.TrimSpace(account)
	if amount.IsZero() {
		err := r.db.WithContext(ctx).
			Where("account = ?", account).
			Delete(&stakeModel{}).
			Error
		if err != nil {
			return r.logError("ledger_repo_delete_stake_failed", err, "account", account)
		}
		return nil
	}
	row := stakeModel{Account: account, Amount: amount.String(), UpdatedAt: time.Now().UTC()}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     row.Amount,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_set_stake_failed", create.Error, "account", account)
	}
	return nil
}

func (r *Repository) Owner(ctx context.Context) (string, error) {
	var row accessModel
	err := r.db.WithContext(ctx).
		Where("is_owner = TRUE").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", r.logError("ledger_repo_owner_failed", err)
	}
	return row.Account, nil
}

func (r *Repository) SetOwner(ctx context.Context, account string) error {
	account = strings.TrimSpace(account)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&accessModel{}).
			Where("is_owner = TRUE").
			Update("is_owner", false).
			Error; err != nil {
			return r.logError("ledger_repo_clear_owner_failed", err)
		}
		row := accessModel{Account: account, IsOwner: true, UpdatedAt: time.Now().UTC()}
		create := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.Assignments(map[string]any{
				"is_owner":   true,
				"updated_at": row.UpdatedAt,
			}),
		}).Create(&row)
		if create.Error != nil {
			return r.logError("ledger_repo_set_owner_failed", create.Error, "account", account)
		}
		return nil
	})
}

func (r *Repository) IsWhitelisted(ctx context.Context, account string) (bool, error) {
	var row accessModel
	err := r.db.WithContext(ctx).
		Where("account = ?", strings.TrimSpace(account)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, r.logError("ledger_repo_is_whitelisted_failed", err, "account", strings.TrimSpace(account))
	}
	return row.Whitelisted, nil
}

func (r *Repository) SetWhitelisted(ctx context.Context, account string, whitelisted bool) error {
	account = strings.TrimSpace(account)
	row := accessModel{Account: account, Whitelisted: whitelisted, UpdatedAt: time.Now().UTC()}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]any{
			"whitelisted": whitelisted,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_set_whitelisted_failed", create.Error, "account", account)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:           envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Replayed event id; the original row already carries the payload.
			return nil
		}
		return r.logError("ledger_repo_append_outbox_failed", err, "event_id", envelope.EventID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
	if err != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) balanceOf(ctx context.Context, account string, ledger string) (governance.Amount, error) {
	var row balanceModel
	err := r.db.WithContext(ctx).
		Where("account = ?", strings.TrimSpace(account)).
		Where("ledger = ?", ledger).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return governance.ZeroAmount(), nil
		}
		return governance.ZeroAmount(), r.logError("ledger_repo_balance_of_failed", err,
			"account", strings.TrimSpace(account),
			"ledger", ledger,
		)
	}
	return governance.ParseAmount(row.Amount)
}

func (r *Repository) setBalance(ctx context.Context, account string, ledger string, amount governance.Amount) error {
	account = strings.TrimSpace(account)
	if amount.IsZero() {
		// Zero balances are deleted, not stored, to bound the table by live
		// accounts.
		err := r.db.WithContext(ctx).
			Where("account = ?", account).
			Where("ledger = ?", ledger).
			Delete(&balanceModel{}).
			Error
		if err != nil {
			return r.logError("ledger_repo_delete_balance_failed", err, "account", account, "ledger", ledger)
		}
		return nil
	}
	row := balanceModel{Account: account, Ledger: ledger, Amount: amount.String(), UpdatedAt: time.Now().UTC()}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}, {Name: "ledger"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     row.Amount,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_set_balance_failed", create.Error, "account", account, "ledger", ledger)
	}
	return nil
}

func (r *Repository) supply(ctx context.Context, ledger string) (governance.Amount, error) {
	var row supplyModel
	err := r.db.WithContext(ctx).
		Where("ledger = ?", ledger).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return governance.ZeroAmount(), nil
		}
		return governance.ZeroAmount(), r.logError("ledger_repo_supply_failed", err, "ledger", ledger)
	}
	return governance.ParseAmount(row.Amount)
}

func (r *Repository) setSupply(ctx context.Context, ledger string, amount governance.Amount) error {
	row := supplyModel{Ledger: ledger, Amount: amount.String(), UpdatedAt: time.Now().UTC()}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ledger"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     row.Amount,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_set_supply_failed", create.Error, "ledger", ledger)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "governance-core/reputation-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
