package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/reputation-ledger/domain/entities"
	domainerrors "agora/contexts/governance-core/reputation-ledger/domain/errors"
	"agora/contexts/governance-core/reputation-ledger/ports"
	"agora/contracts/governance"
)

// Service owns balance, stake, and passive-balance bookkeeping for the
// reputation currency. Staking is a hold, not a transfer: it reduces the
// spendable balance while leaving the nominal balance untouched. Every
// mutation validates before writing so a failed call leaves the ledger
// unchanged.
type Service struct {
	Repo   ports.BalanceRepository
	Access ports.AccessControl
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (s Service) Mint(ctx context.Context, recipient string, amount governance.Amount) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || amount.IsNil() {
		return domainerrors.ErrInvalidRequest
	}

	total, err := s.Repo.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if governance.AddWouldOverflow(total, amount) {
		return domainerrors.ErrTotalSupplyOverflow
	}
	balance, err := s.Repo.BalanceOf(ctx, recipient)
	if err != nil {
		return err
	}

	if err := s.Repo.SetBalance(ctx, recipient, balance.Add(amount)); err != nil {
		return err
	}
	newTotal := total.Add(amount)
	if err := s.Repo.SetTotalSupply(ctx, newTotal); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, "reputation.minted", recipient, map[string]any{
		"account":      recipient,
		"amount":       amount.String(),
		"total_supply": newTotal.String(),
	}); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("reputation minted",
		"event", "ledger_minted",
		"module", "governance-core/reputation-ledger",
		"layer", "application",
		"account", recipient,
		"amount", amount.String(),
	)
	return nil
}

func (s Service) Burn(ctx context.Context, owner string, amount governance.Amount) error {
	owner = strings.TrimSpace(owner)
	if owner == "" || amount.IsNil() {
		return domainerrors.ErrInvalidRequest
	}

	balance, err := s.Repo.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if amount.GT(balance) {
		return domainerrors.ErrInsufficientBalance
	}
	total, err := s.Repo.TotalSupply(ctx)
	if err != nil {
		return err
	}

	newBalance := balance.Sub(amount)
	if err := s.Repo.SetBalance(ctx, owner, newBalance); err != nil {
		return err
	}
	newTotal := total.Sub(amount)
	if err := s.Repo.SetTotalSupply(ctx, newTotal); err != nil {
		return err
	}

	// Punitive burns may cut under an active stake; the stake is clamped so
	// the stake-never-exceeds-balance bound survives.
	stake, err := s.Repo.StakeOf(ctx, owner)
	if err != nil {
		return err
	}
	if stake.GT(newBalance) {
		if err := s.Repo.SetStake(ctx, owner, newBalance); err != nil {
			return err
		}
	}

	if err := s.appendEvent(ctx, "reputation.burned", owner, map[string]any{
		"account":      owner,
		"amount":       amount.String(),
		"total_supply": newTotal.String(),
	}); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("reputation burned",
		"event", "ledger_burned",
		"module", "governance-core/reputation-ledger",
		"layer", "application",
		"account", owner,
		"amount", amount.String(),
	)
	return nil
}

// BurnAll removes the owner's entire balance, the terminal form of slashing.
func (s Service) BurnAll(ctx context.Context, owner string) error {
	balance, err := s.Repo.BalanceOf(ctx, strings.TrimSpace(owner))
	if err != nil {
		return err
	}
	if balance.IsZero() {
		return nil
	}
	return s.Burn(ctx, owner, balance)
}

func (s Service) Stake(ctx context.Context, voter string, amount governance.Amount) error {
	voter = strings.TrimSpace(voter)
	if voter == "" || amount.IsNil() {
		return domainerrors.ErrInvalidRequest
	}
	if amount.IsZero() {
		return domainerrors.ErrZeroStake
	}

	account, err := s.Account(ctx, voter)
	if err != nil {
		return err
	}
	if amount.GT(account.Free()) {
		return domainerrors.ErrInsufficientBalance
	}
	return s.Repo.SetStake(ctx, voter, account.Stake.Add(amount))
}

func (s Service) Unstake(ctx context.Context, voter string, amount governance.Amount) error {
	voter = strings.TrimSpace(voter)
	if voter == "" || amount.IsNil() {
		return domainerrors.ErrInvalidRequest
	}
	if amount.IsZero() {
		return domainerrors.ErrZeroStake
	}

	stake, err := s.Repo.StakeOf(ctx, voter)
	if err != nil {
		return err
	}
	if amount.GT(stake) {
		return domainerrors.ErrCannotUnstakeMoreThanStaked
	}
	return s.Repo.SetStake(ctx, voter, stake.Sub(amount))
}

// BulkUnstake applies a batch of unstakes, semantically equivalent to
// sequential application. The whole batch is validated first so a bad entry
// leaves every stake untouched.
func (s Service) BulkUnstake(ctx context.Context, items []governance.AccountAmount) error {
	staged := make([]governance.AccountAmount, 0, len(items))
	for _, item := range items {
		account := strings.TrimSpace(item.Account)
		if account == "" || item.Amount.IsNil() {
			return domainerrors.ErrInvalidRequest
		}
		if item.Amount.IsZero() {
			continue
		}
		stake, err := s.Repo.StakeOf(ctx, account)
		if err != nil {
			return err
		}
		if item.Amount.GT(stake) {
			return domainerrors.ErrCannotUnstakeMoreThanStaked
		}
		staged = append(staged, governance.AccountAmount{Account: account, Amount: stake.Sub(item.Amount)})
	}
	for _, item := range staged {
		if err := s.Repo.SetStake(ctx, item.Account, item.Amount); err != nil {
			return err
		}
	}
	return nil
}

// BulkMintBurn is the batched variant the voting redistribution algorithm
// uses: burns from losers and mints to winners in one atomic pass.
func (s Service) BulkMintBurn(ctx context.Context, mints []governance.AccountAmount, burns []governance.AccountAmount) error {
	// Burns are validated against a running balance per account so a batch
	// with repeated accounts either fully applies or fully rejects.
	remaining := make(map[string]governance.Amount)
	for _, item := range burns {
		account := strings.TrimSpace(item.Account)
		if account == "" || item.Amount.IsNil() {
			return domainerrors.ErrInvalidRequest
		}
		balance, seen := remaining[account]
		if !seen {
			current, err := s.Repo.BalanceOf(ctx, account)
			if err != nil {
				return err
			}
			balance = current
		}
		if item.Amount.GT(balance) {
			return domainerrors.ErrInsufficientBalance
		}
		remaining[account] = balance.Sub(item.Amount)
	}
	total, err := s.Repo.TotalSupply(ctx)
	if err != nil {
		return err
	}
	minted := governance.ZeroAmount()
	for _, item := range mints {
		if strings.TrimSpace(item.Account) == "" || item.Amount.IsNil() {
			return domainerrors.ErrInvalidRequest
		}
		if governance.AddWouldOverflow(total.Add(minted), item.Amount) {
			return domainerrors.ErrTotalSupplyOverflow
		}
		minted = minted.Add(item.Amount)
	}

	for _, item := range burns {
		if item.Amount.IsZero() {
			continue
		}
		if err := s.Burn(ctx, item.Account, item.Amount); err != nil {
			return err
		}
	}
	for _, item := range mints {
		if item.Amount.IsZero() {
			continue
		}
		if err := s.Mint(ctx, item.Account, item.Amount); err != nil {
			return err
		}
	}

	ResolveLogger(s.Logger).Debug("bulk mint/burn applied",
		"event", "ledger_bulk_mint_burn_applied",
		"module", "governance-core/reputation-ledger",
		"layer", "application",
		"mint_count", len(mints),
		"burn_count", len(burns),
	)
	return nil
}

// MintPassive credits the passive ledger used for reputation earned by
// external workers. Passive balances never count toward onboarded-member
// quorum math and cannot be staked.
func (s Service) MintPassive(ctx context.Context, recipient string, amount governance.Amount) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || amount.IsNil() {
		return domainerrors.ErrInvalidRequest
	}

	total, err := s.Repo.PassiveTotalSupply(ctx)
	if err != nil {
		return err
	}
	if governance.AddWouldOverflow(total, amount) {
		return domainerrors.ErrTotalSupplyOverflow
	}
	balance, err := s.Repo.PassiveBalanceOf(ctx, recipient)
	if err != nil {
		return err
	}
	if err := s.Repo.SetPassiveBalance(ctx, recipient, balance.Add(amount)); err != nil {
		return err
	}
	if err := s.Repo.SetPassiveTotalSupply(ctx, total.Add(amount)); err != nil {
		return err
	}
	return s.appendEvent(ctx, "reputation.passive_minted", recipient, map[string]any{
		"account": recipient,
		"amount":  amount.String(),
	})
}

func (s Service) BurnPassive(ctx context.Context, owner string, amount governance.Amount) error {
	owner = strings.TrimSpace(owner)
	if owner == "" || amount.IsNil() {
		return domainerrors.ErrInvalidRequest
	}

	balance, err := s.Repo.PassiveBalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if amount.GT(balance) {
		return domainerrors.ErrInsufficientBalance
	}
	total, err := s.Repo.PassiveTotalSupply(ctx)
	if err != nil {
		return err
	}
	if err := s.Repo.SetPassiveBalance(ctx, owner, balance.Sub(amount)); err != nil {
		return err
	}
	if err := s.Repo.SetPassiveTotalSupply(ctx, total.Sub(amount)); err != nil {
		return err
	}
	return s.appendEvent(ctx, "reputation.passive_burned", owner, map[string]any{
		"account": owner,
		"amount":  amount.String(),
	})
}

func (s Service) BalanceOf(ctx context.Context, account string) (governance.Amount, error) {
	return s.Repo.BalanceOf(ctx, strings.TrimSpace(account))
}

func (s Service) StakeOf(ctx context.Context, account string) (governance.Amount, error) {
	return s.Repo.StakeOf(ctx, strings.TrimSpace(account))
}

func (s Service) PassiveBalanceOf(ctx context.Context, account string) (governance.Amount, error) {
	return s.Repo.PassiveBalanceOf(ctx, strings.TrimSpace(account))
}

func (s Service) TotalSupply(ctx context.Context) (governance.Amount, error) {
	return s.Repo.TotalSupply(ctx)
}

func (s Service) PassiveTotalSupply(ctx context.Context) (governance.Amount, error) {
	return s.Repo.PassiveTotalSupply(ctx)
}

func (s Service) Account(ctx context.Context, address string) (entities.Account, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return entities.Account{}, domainerrors.ErrInvalidRequest
	}
	balance, err := s.Repo.BalanceOf(ctx, address)
	if err != nil {
		return entities.Account{}, err
	}
	stake, err := s.Repo.StakeOf(ctx, address)
	if err != nil {
		return entities.Account{}, err
	}
	passive, err := s.Repo.PassiveBalanceOf(ctx, address)
	if err != nil {
		return entities.Account{}, err
	}
	return entities.Account{
		Address:        address,
		Balance:        balance,
		Stake:          stake,
		PassiveBalance: passive,
	}, nil
}

// AllBalances returns every live balance with the full total supply, the
// universe for redistributions that target the whole membership.
func (s Service) AllBalances(ctx context.Context) (governance.AggregatedBalances, error) {
	holders, err := s.Repo.Holders(ctx)
	if err != nil {
		return governance.AggregatedBalances{}, err
	}
	return s.PartialBalances(ctx, holders)
}

// PartialBalances restricts the redistribution universe to a caller-supplied
// address set, e.g. "everyone who voted". Duplicate and unknown addresses are
// skipped.
func (s Service) PartialBalances(ctx context.Context, accounts []string) (governance.AggregatedBalances, error) {
	seen := make(map[string]bool, len(accounts))
	agg := governance.AggregatedBalances{
		Total:    governance.ZeroAmount(),
		Balances: make([]governance.AccountAmount, 0, len(accounts)),
	}
	for _, account := range accounts {
		account = strings.TrimSpace(account)
		if account == "" || seen[account] {
			continue
		}
		seen[account] = true
		balance, err := s.Repo.BalanceOf(ctx, account)
		if err != nil {
			return governance.AggregatedBalances{}, err
		}
		if balance.IsZero() {
			continue
		}
		agg.Total = agg.Total.Add(balance)
		agg.Balances = append(agg.Balances, governance.AccountAmount{Account: account, Amount: balance})
	}
	return agg, nil
}

func (s Service) EnsureWhitelisted(ctx context.Context, caller string) error {
	ok, err := s.Access.IsWhitelisted(ctx, strings.TrimSpace(caller))
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrNotWhitelisted
	}
	return nil
}

func (s Service) Owner(ctx context.Context) (string, error) {
	return s.Access.Owner(ctx)
}

// ChangeOwnership hands the ledger to a new owner and whitelists them in the
// same call so administration never goes dark.
func (s Service) ChangeOwnership(ctx context.Context, caller string, newOwner string) error {
	newOwner = strings.TrimSpace(newOwner)
	if newOwner == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.ensureOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.Access.SetOwner(ctx, newOwner); err != nil {
		return err
	}
	return s.Access.SetWhitelisted(ctx, newOwner, true)
}

func (s Service) AddToWhitelist(ctx context.Context, caller string, account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.ensureOwner(ctx, caller); err != nil {
		return err
	}
	return s.Access.SetWhitelisted(ctx, account, true)
}

func (s Service) RemoveFromWhitelist(ctx context.Context, caller string, account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.ensureOwner(ctx, caller); err != nil {
		return err
	}
	return s.Access.SetWhitelisted(ctx, account, false)
}

func (s Service) ensureOwner(ctx context.Context, caller string) error {
	owner, err := s.Access.Owner(ctx)
	if err != nil {
		return err
	}
	if !strings.EqualFold(owner, strings.TrimSpace(caller)) {
		return domainerrors.ErrNotAnOwner
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) appendEvent(ctx context.Context, eventType string, account string, data map[string]any) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newLedgerEnvelope(eventID, eventType, account, s.now(), data)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, envelope)
}
