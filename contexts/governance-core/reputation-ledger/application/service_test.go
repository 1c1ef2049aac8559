package application

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/governance-core/reputation-ledger/adapters/memory"
	domainerrors "agora/contexts/governance-core/reputation-ledger/domain/errors"
	"agora/contracts/governance"
)

func newTestService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	service := Service{
		Repo:   store,
		Access: store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
	}
	return service, store
}

func amt(value uint64) governance.Amount {
	return governance.NewAmount(value)
}

func TestMintCreditsBalanceAndSupply(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(500)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	balance, err := service.BalanceOf(ctx, "alice")
	if err != nil {
		t.Fatalf("expected balance read to succeed, got %v", err)
	}
	if !balance.Equal(amt(500)) {
		t.Fatalf("expected balance 500, got %s", balance)
	}
	total, err := service.TotalSupply(ctx)
	if err != nil {
		t.Fatalf("expected supply read to succeed, got %v", err)
	}
	if !total.Equal(amt(500)) {
		t.Fatalf("expected total supply 500, got %s", total)
	}
}

func TestMintRejectsSupplyOverflow(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	max := governance.MaxAmount()
	if err := service.Mint(ctx, "alice", max); err != nil {
		t.Fatalf("expected mint up to the cap to succeed, got %v", err)
	}
	err := service.Mint(ctx, "bob", amt(1))
	if !errors.Is(err, domainerrors.ErrTotalSupplyOverflow) {
		t.Fatalf("expected total supply overflow, got %v", err)
	}
	balance, _ := service.BalanceOf(ctx, "bob")
	if !balance.IsZero() {
		t.Fatalf("expected failed mint to leave bob at zero, got %s", balance)
	}
}

func TestBurnRejectsMoreThanBalance(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	err := service.Burn(ctx, "alice", amt(101))
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	balance, _ := service.BalanceOf(ctx, "alice")
	if !balance.Equal(amt(100)) {
		t.Fatalf("expected balance unchanged at 100, got %s", balance)
	}
}

func TestBurnClampsStakeToRemainingBalance(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	if err := service.Stake(ctx, "alice", amt(80)); err != nil {
		t.Fatalf("expected stake to succeed, got %v", err)
	}
	if err := service.Burn(ctx, "alice", amt(50)); err != nil {
		t.Fatalf("expected punitive burn to succeed, got %v", err)
	}
	stake, _ := service.StakeOf(ctx, "alice")
	if !stake.Equal(amt(50)) {
		t.Fatalf("expected stake clamped to 50, got %s", stake)
	}
}

func TestStakeIsBoundedByFreeBalance(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	if err := service.Stake(ctx, "alice", amt(60)); err != nil {
		t.Fatalf("expected first stake to succeed, got %v", err)
	}
	err := service.Stake(ctx, "alice", amt(41))
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance on overstake, got %v", err)
	}
	if err := service.Stake(ctx, "alice", amt(40)); err != nil {
		t.Fatalf("expected stake up to free balance to succeed, got %v", err)
	}
}

func TestStakeRejectsZero(t *testing.T) {
	service, _ := newTestService(t)

	err := service.Stake(context.Background(), "alice", governance.ZeroAmount())
	if !errors.Is(err, domainerrors.ErrZeroStake) {
		t.Fatalf("expected zero stake error, got %v", err)
	}
}

func TestUnstakeRejectsMoreThanStaked(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	if err := service.Stake(ctx, "alice", amt(30)); err != nil {
		t.Fatalf("expected stake to succeed, got %v", err)
	}
	err := service.Unstake(ctx, "alice", amt(31))
	if !errors.Is(err, domainerrors.ErrCannotUnstakeMoreThanStaked) {
		t.Fatalf("expected unstake bound error, got %v", err)
	}
	if err := service.Unstake(ctx, "alice", amt(30)); err != nil {
		t.Fatalf("expected full unstake to succeed, got %v", err)
	}
	stake, _ := service.StakeOf(ctx, "alice")
	if !stake.IsZero() {
		t.Fatalf("expected zero stake after unstake, got %s", stake)
	}
}

func TestBulkUnstakeValidatesWholeBatchFirst(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	for _, account := range []string{"alice", "bob"} {
		if err := service.Mint(ctx, account, amt(100)); err != nil {
			t.Fatalf("expected mint to succeed, got %v", err)
		}
		if err := service.Stake(ctx, account, amt(50)); err != nil {
			t.Fatalf("expected stake to succeed, got %v", err)
		}
	}

	err := service.BulkUnstake(ctx, []governance.AccountAmount{
		{Account: "alice", Amount: amt(50)},
		{Account: "bob", Amount: amt(51)},
	})
	if !errors.Is(err, domainerrors.ErrCannotUnstakeMoreThanStaked) {
		t.Fatalf("expected batch rejection, got %v", err)
	}
	stake, _ := service.StakeOf(ctx, "alice")
	if !stake.Equal(amt(50)) {
		t.Fatalf("expected alice stake untouched after failed batch, got %s", stake)
	}

	if err := service.BulkUnstake(ctx, []governance.AccountAmount{
		{Account: "alice", Amount: amt(50)},
		{Account: "bob", Amount: amt(50)},
	}); err != nil {
		t.Fatalf("expected valid batch to succeed, got %v", err)
	}
}

func TestBulkMintBurnConservesSupplyDelta(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "loser", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	if err := service.BulkMintBurn(ctx,
		[]governance.AccountAmount{
			{Account: "winner_a", Amount: amt(60)},
			{Account: "winner_b", Amount: amt(40)},
		},
		[]governance.AccountAmount{
			{Account: "loser", Amount: amt(100)},
		},
	); err != nil {
		t.Fatalf("expected bulk mint/burn to succeed, got %v", err)
	}

	total, _ := service.TotalSupply(ctx)
	if !total.Equal(amt(100)) {
		t.Fatalf("expected total supply conserved at 100, got %s", total)
	}
	loser, _ := service.BalanceOf(ctx, "loser")
	if !loser.IsZero() {
		t.Fatalf("expected loser drained, got %s", loser)
	}
	winnerA, _ := service.BalanceOf(ctx, "winner_a")
	if !winnerA.Equal(amt(60)) {
		t.Fatalf("expected winner_a at 60, got %s", winnerA)
	}
}

func TestBulkMintBurnRejectsRepeatedOverdraw(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "loser", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	err := service.BulkMintBurn(ctx,
		[]governance.AccountAmount{
			{Account: "winner", Amount: amt(120)},
		},
		[]governance.AccountAmount{
			{Account: "loser", Amount: amt(60)},
			{Account: "loser", Amount: amt(60)},
		},
	)
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected batch rejection, got %v", err)
	}
	loser, _ := service.BalanceOf(ctx, "loser")
	if !loser.Equal(amt(100)) {
		t.Fatalf("expected loser untouched after failed batch, got %s", loser)
	}
	winner, _ := service.BalanceOf(ctx, "winner")
	if !winner.IsZero() {
		t.Fatalf("expected winner untouched after failed batch, got %s", winner)
	}

	if err := service.BulkMintBurn(ctx,
		[]governance.AccountAmount{
			{Account: "winner", Amount: amt(100)},
		},
		[]governance.AccountAmount{
			{Account: "loser", Amount: amt(60)},
			{Account: "loser", Amount: amt(40)},
		},
	); err != nil {
		t.Fatalf("expected valid repeated-account batch to succeed, got %v", err)
	}
}

func TestPassiveLedgerIsIndependent(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.MintPassive(ctx, "external", amt(200)); err != nil {
		t.Fatalf("expected passive mint to succeed, got %v", err)
	}
	total, _ := service.TotalSupply(ctx)
	if !total.IsZero() {
		t.Fatalf("expected real supply untouched by passive mint, got %s", total)
	}
	passive, _ := service.PassiveTotalSupply(ctx)
	if !passive.Equal(amt(200)) {
		t.Fatalf("expected passive supply 200, got %s", passive)
	}
	if err := service.BurnPassive(ctx, "external", amt(150)); err != nil {
		t.Fatalf("expected passive burn to succeed, got %v", err)
	}
	balance, _ := service.PassiveBalanceOf(ctx, "external")
	if !balance.Equal(amt(50)) {
		t.Fatalf("expected passive balance 50, got %s", balance)
	}
}

func TestOwnershipAndWhitelistRules(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	if err := store.SetOwner(ctx, "deployer"); err != nil {
		t.Fatalf("expected owner seed to succeed, got %v", err)
	}
	if err := store.SetWhitelisted(ctx, "deployer", true); err != nil {
		t.Fatalf("expected whitelist seed to succeed, got %v", err)
	}

	err := service.AddToWhitelist(ctx, "stranger", "alice")
	if !errors.Is(err, domainerrors.ErrNotAnOwner) {
		t.Fatalf("expected non-owner rejection, got %v", err)
	}
	if err := service.AddToWhitelist(ctx, "deployer", "alice"); err != nil {
		t.Fatalf("expected owner to whitelist, got %v", err)
	}
	if err := service.EnsureWhitelisted(ctx, "alice"); err != nil {
		t.Fatalf("expected alice whitelisted, got %v", err)
	}

	if err := service.ChangeOwnership(ctx, "deployer", "council"); err != nil {
		t.Fatalf("expected ownership transfer, got %v", err)
	}
	owner, _ := service.Owner(ctx)
	if owner != "council" {
		t.Fatalf("expected council as owner, got %s", owner)
	}
	if err := service.EnsureWhitelisted(ctx, "council"); err != nil {
		t.Fatalf("expected new owner auto-whitelisted, got %v", err)
	}
	err = service.RemoveFromWhitelist(ctx, "deployer", "alice")
	if !errors.Is(err, domainerrors.ErrNotAnOwner) {
		t.Fatalf("expected former owner rejection, got %v", err)
	}
}

func TestPartialBalancesSkipsDuplicatesAndZero(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(100)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	if err := service.Mint(ctx, "bob", amt(50)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}

	agg, err := service.PartialBalances(ctx, []string{"alice", "alice", "bob", "ghost"})
	if err != nil {
		t.Fatalf("expected aggregation to succeed, got %v", err)
	}
	if len(agg.Balances) != 2 {
		t.Fatalf("expected 2 aggregated balances, got %d", len(agg.Balances))
	}
	if !agg.Total.Equal(amt(150)) {
		t.Fatalf("expected aggregated total 150, got %s", agg.Total)
	}
}

func TestMutationsAppendOutboxEvents(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	if err := service.Mint(ctx, "alice", amt(10)); err != nil {
		t.Fatalf("expected mint to succeed, got %v", err)
	}
	if err := service.Burn(ctx, "alice", amt(4)); err != nil {
		t.Fatalf("expected burn to succeed, got %v", err)
	}

	types := store.OutboxEventTypes()
	if len(types) != 2 {
		t.Fatalf("expected 2 outbox events, got %d", len(types))
	}
	if types[0] != "reputation.minted" || types[1] != "reputation.burned" {
		t.Fatalf("unexpected event sequence: %v", types)
	}
}
