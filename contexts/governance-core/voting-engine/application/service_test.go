package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agora/contexts/governance-core/voting-engine/adapters/memory"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contracts/governance"
)

type fakeLedger struct {
	balances map[string]governance.Amount
	stakes   map[string]governance.Amount
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[string]governance.Amount),
		stakes:   make(map[string]governance.Amount),
	}
}

func (f *fakeLedger) balanceOf(account string) governance.Amount {
	if v, ok := f.balances[account]; ok {
		return v
	}
	return governance.ZeroAmount()
}

func (f *fakeLedger) stakeOf(account string) governance.Amount {
	if v, ok := f.stakes[account]; ok {
		return v
	}
	return governance.ZeroAmount()
}

func (f *fakeLedger) Stake(_ context.Context, voter string, amount governance.Amount) error {
	f.stakes[voter] = f.stakeOf(voter).Add(amount)
	return nil
}

func (f *fakeLedger) Unstake(_ context.Context, voter string, amount governance.Amount) error {
	stake := f.stakeOf(voter)
	if amount.GT(stake) {
		return fmt.Errorf("unstake %s exceeds stake %s for %s", amount, stake, voter)
	}
	f.stakes[voter] = stake.Sub(amount)
	return nil
}

func (f *fakeLedger) BulkUnstake(ctx context.Context, items []governance.AccountAmount) error {
	for _, item := range items {
		if err := f.Unstake(ctx, item.Account, item.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLedger) Mint(_ context.Context, recipient string, amount governance.Amount) error {
	f.balances[recipient] = f.balanceOf(recipient).Add(amount)
	return nil
}

func (f *fakeLedger) Burn(_ context.Context, owner string, amount governance.Amount) error {
	balance := f.balanceOf(owner)
	if amount.GT(balance) {
		return fmt.Errorf("burn %s exceeds balance %s for %s", amount, balance, owner)
	}
	f.balances[owner] = balance.Sub(amount)
	return nil
}

func (f *fakeLedger) BulkMintBurn(ctx context.Context, mints []governance.AccountAmount, burns []governance.AccountAmount) error {
	for _, item := range burns {
		if err := f.Burn(ctx, item.Account, item.Amount); err != nil {
			return err
		}
	}
	for _, item := range mints {
		if err := f.Mint(ctx, item.Account, item.Amount); err != nil {
			return err
		}
	}
	return nil
}

func testConfiguration() governance.Configuration {
	return governance.Configuration{
		VotingClearnessDelta:    governance.NewAmount(8),
		InformalQuorumRatio:     governance.NewAmount(500),
		FormalQuorumRatio:       governance.NewAmount(500),
		InformalVotingDuration:  time.Hour,
		FormalVotingDuration:    time.Hour,
		TimeBetweenVotings:      10 * time.Minute,
		InformalStakeReputation: true,
		TotalOnboarded:          4,
	}
}

func newTestEngine(t *testing.T) (Service, *memory.Store, *fakeLedger) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ledger := newFakeLedger()
	for _, account := range []string{"alice", "bob", "carol", "dave"} {
		store.SetOnboarded(account, true)
		ledger.balances[account] = governance.NewAmount(10_000)
	}
	service := Service{
		Repo:       store,
		Sequence:   store,
		Ledger:     ledger,
		Membership: store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
	}
	return service, store, ledger
}

func amt(value uint64) governance.Amount {
	return governance.NewAmount(value)
}

func TestFullVotingLifecycleRedistributesStakes(t *testing.T) {
	service, store, ledger := newTestEngine(t)
	ctx := context.Background()
	cfg := testConfiguration()

	summary, err := service.CreateVoting(ctx, "alice", amt(100), cfg)
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if summary.State != governance.VotingStateInformal {
		t.Fatalf("expected informal state, got %s", summary.State)
	}
	if !ledger.stakeOf("alice").Equal(amt(100)) {
		t.Fatalf("expected creator stake held, got %s", ledger.stakeOf("alice"))
	}

	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(500)); err != nil {
		t.Fatalf("expected bob's informal vote, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "carol", governance.ChoiceInFavor, amt(300)); err != nil {
		t.Fatalf("expected carol's informal vote, got %v", err)
	}

	store.AdvanceTime(time.Hour)
	informal, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal)
	if err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}
	if informal.Result != governance.VotingResultAgainst {
		t.Fatalf("expected informal against, got %s", informal.Result)
	}
	// Quorum was reached, so an against result still proceeds to formal.
	if informal.State == governance.VotingStateFinished {
		t.Fatalf("expected voting to continue past informal")
	}
	if !ledger.stakeOf("bob").IsZero() || !ledger.stakeOf("carol").IsZero() {
		t.Fatalf("expected informal stakes returned")
	}
	if !ledger.stakeOf("alice").Equal(amt(100)) {
		t.Fatalf("expected creator stake carried into formal, got %s", ledger.stakeOf("alice"))
	}

	store.AdvanceTime(10 * time.Minute)
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "bob", governance.ChoiceAgainst, amt(500)); err != nil {
		t.Fatalf("expected bob's formal vote, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "carol", governance.ChoiceInFavor, amt(900)); err != nil {
		t.Fatalf("expected carol's formal vote, got %v", err)
	}

	store.AdvanceTime(time.Hour)
	formal, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeFormal)
	if err != nil {
		t.Fatalf("expected formal finish, got %v", err)
	}
	if formal.Result != governance.VotingResultInFavor {
		t.Fatalf("expected formal in favor, got %s", formal.Result)
	}
	if formal.State != governance.VotingStateFinished {
		t.Fatalf("expected finished voting, got %s", formal.State)
	}

	for _, account := range []string{"alice", "bob", "carol"} {
		if !ledger.stakeOf(account).IsZero() {
			t.Fatalf("expected %s stake released, got %s", account, ledger.stakeOf(account))
		}
	}
	// Bob's 500 burns; alice and carol split it pro rata over 100:900.
	if !ledger.balanceOf("bob").Equal(amt(9_500)) {
		t.Fatalf("expected bob at 9500, got %s", ledger.balanceOf("bob"))
	}
	if !ledger.balanceOf("alice").Equal(amt(10_050)) {
		t.Fatalf("expected alice at 10050, got %s", ledger.balanceOf("alice"))
	}
	if !ledger.balanceOf("carol").Equal(amt(10_450)) {
		t.Fatalf("expected carol at 10450, got %s", ledger.balanceOf("carol"))
	}
}

func TestTieResolvesInFavor(t *testing.T) {
	service, store, _ := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(500), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(500)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}

	store.AdvanceTime(time.Hour)
	informal, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal)
	if err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}
	if informal.Result != governance.VotingResultInFavor {
		t.Fatalf("expected tie to resolve in favor, got %s", informal.Result)
	}
}

func TestCannotVoteTwiceInSamePhase(t *testing.T) {
	service, _, _ := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(100), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceInFavor, amt(100)); err != nil {
		t.Fatalf("expected first vote, got %v", err)
	}
	err = service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(200))
	if !errors.Is(err, domainerrors.ErrCannotVoteTwice) {
		t.Fatalf("expected double-vote rejection, got %v", err)
	}
}

func TestVoteRequiresOnboarding(t *testing.T) {
	service, _, _ := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(100), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	err = service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "stranger", governance.ChoiceInFavor, amt(100))
	if !errors.Is(err, domainerrors.ErrNotOnboarded) {
		t.Fatalf("expected onboarding rejection, got %v", err)
	}
}

func TestFinishBeforeWindowCloses(t *testing.T) {
	service, store, _ := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(100), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	_, err = service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal)
	if !errors.Is(err, domainerrors.ErrInformalVotingTimeNotReached) {
		t.Fatalf("expected informal time guard, got %v", err)
	}

	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceInFavor, amt(100)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}
	store.AdvanceTime(time.Hour)
	if _, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}

	store.AdvanceTime(10 * time.Minute)
	_, err = service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeFormal)
	if !errors.Is(err, domainerrors.ErrFormalVotingTimeNotReached) {
		t.Fatalf("expected formal time guard, got %v", err)
	}
}

func TestFinishingFinishedVotingRejected(t *testing.T) {
	service, store, _ := newTestEngine(t)
	ctx := context.Background()

	cfg := testConfiguration()
	cfg.InformalQuorumRatio = governance.NewAmount(1000)
	summary, err := service.CreateVoting(ctx, "alice", amt(100), cfg)
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	store.AdvanceTime(time.Hour)
	informal, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal)
	if err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}
	if informal.Result != governance.VotingResultQuorumNotReached {
		t.Fatalf("expected quorum miss, got %s", informal.Result)
	}
	if informal.State != governance.VotingStateFinished {
		t.Fatalf("expected quorum miss to finish the voting, got %s", informal.State)
	}

	_, err = service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal)
	if !errors.Is(err, domainerrors.ErrFinishingCompletedVotingNotAllowed) {
		t.Fatalf("expected completed-voting guard, got %v", err)
	}
}

func TestInformalQuorumMissReturnsStakes(t *testing.T) {
	service, store, ledger := newTestEngine(t)
	ctx := context.Background()

	cfg := testConfiguration()
	cfg.InformalQuorumRatio = governance.NewAmount(1000)
	summary, err := service.CreateVoting(ctx, "alice", amt(250), cfg)
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(400)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}

	store.AdvanceTime(time.Hour)
	if _, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}
	if !ledger.stakeOf("alice").IsZero() || !ledger.stakeOf("bob").IsZero() {
		t.Fatalf("expected all stakes returned on quorum miss")
	}
	if !ledger.balanceOf("alice").Equal(amt(10_000)) || !ledger.balanceOf("bob").Equal(amt(10_000)) {
		t.Fatalf("expected balances untouched on quorum miss")
	}
}

func TestCloseInformalResultDoublesTimeBetween(t *testing.T) {
	service, store, _ := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(520), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(480)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}

	store.AdvanceTime(time.Hour)
	if _, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}

	// 520 vs 480 differs by 4% of the total stake, under the clearness delta
	// of 8, so the formal phase opens after twice the configured gap.
	store.AdvanceTime(10 * time.Minute)
	err = service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "bob", governance.ChoiceAgainst, amt(100))
	if !errors.Is(err, domainerrors.ErrVotingWithGivenTypeNotInProgress) {
		t.Fatalf("expected formal window still closed, got %v", err)
	}
	store.AdvanceTime(10 * time.Minute)
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "bob", governance.ChoiceAgainst, amt(100)); err != nil {
		t.Fatalf("expected formal window open after doubled gap, got %v", err)
	}
}

func TestUnboundBallotBindsOnSuccessfulVoting(t *testing.T) {
	service, store, ledger := newTestEngine(t)
	ctx := context.Background()

	cfg := testConfiguration()
	cfg.IsBidEscrow = true
	cfg.BidEscrowInformalQuorumRatio = governance.NewAmount(500)
	cfg.BidEscrowFormalQuorumRatio = governance.NewAmount(500)
	cfg.BidEscrowInformalVotingDuration = time.Hour
	cfg.BidEscrowFormalVotingDuration = time.Hour
	cfg.BindBallotForSuccessfulVoting = true

	summary, err := service.CreateVoting(ctx, "worker", amt(0), cfg)
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.CastBallot(ctx, summary.VotingID, governance.VotingTypeInformal, "worker", governance.ChoiceInFavor, amt(300), true); err != nil {
		t.Fatalf("expected unbound ballot, got %v", err)
	}
	if !ledger.stakeOf("worker").IsZero() {
		t.Fatalf("expected unbound ballot to keep ledger untouched, got %s", ledger.stakeOf("worker"))
	}

	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceInFavor, amt(200)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}
	store.AdvanceTime(time.Hour)
	if _, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}

	store.AdvanceTime(10 * time.Minute)
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "bob", governance.ChoiceInFavor, amt(200)); err != nil {
		t.Fatalf("expected bob's formal vote, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "carol", governance.ChoiceAgainst, amt(100)); err != nil {
		t.Fatalf("expected carol's formal vote, got %v", err)
	}
	store.AdvanceTime(time.Hour)
	formal, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeFormal)
	if err != nil {
		t.Fatalf("expected formal finish, got %v", err)
	}
	if formal.Result != governance.VotingResultInFavor {
		t.Fatalf("expected in favor, got %s", formal.Result)
	}

	// The worker's unbound 300 was minted and bound before redistribution,
	// then joined the winners: carol's 100 splits over 200+300 bound winner
	// stake with truncation (bob 40, worker 60).
	if !ledger.balanceOf("worker").Equal(amt(360)) {
		t.Fatalf("expected worker at 360, got %s", ledger.balanceOf("worker"))
	}
	if !ledger.balanceOf("bob").Equal(amt(10_040)) {
		t.Fatalf("expected bob at 10040, got %s", ledger.balanceOf("bob"))
	}
	if !ledger.balanceOf("carol").Equal(amt(9_900)) {
		t.Fatalf("expected carol at 9900, got %s", ledger.balanceOf("carol"))
	}
	if !ledger.stakeOf("worker").IsZero() {
		t.Fatalf("expected worker stake released, got %s", ledger.stakeOf("worker"))
	}
}

func TestRedistributionDustStaysUnminted(t *testing.T) {
	service, store, ledger := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(300), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceInFavor, amt(100)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}
	store.AdvanceTime(time.Hour)
	if _, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}
	store.AdvanceTime(10 * time.Minute)
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "bob", governance.ChoiceInFavor, amt(100)); err != nil {
		t.Fatalf("expected bob's formal vote, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeFormal, "carol", governance.ChoiceAgainst, amt(7)); err != nil {
		t.Fatalf("expected carol's formal vote, got %v", err)
	}
	store.AdvanceTime(time.Hour)
	if _, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeFormal); err != nil {
		t.Fatalf("expected formal finish, got %v", err)
	}

	// 7 splits over 300:100 winners as 5 and 1; the remaining 1 is dust and
	// stays burned.
	if !ledger.balanceOf("alice").Equal(amt(10_005)) {
		t.Fatalf("expected alice at 10005, got %s", ledger.balanceOf("alice"))
	}
	if !ledger.balanceOf("bob").Equal(amt(10_001)) {
		t.Fatalf("expected bob at 10001, got %s", ledger.balanceOf("bob"))
	}
	if !ledger.balanceOf("carol").Equal(amt(9_993)) {
		t.Fatalf("expected carol at 9993, got %s", ledger.balanceOf("carol"))
	}
}

func TestSlashCreatorCancelsVoting(t *testing.T) {
	service, _, ledger := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(100), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(200)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}

	slash, err := service.SlashVoter(ctx, "alice")
	if err != nil {
		t.Fatalf("expected slash to succeed, got %v", err)
	}
	if len(slash.CanceledVotings) != 1 || slash.CanceledVotings[0] != summary.VotingID {
		t.Fatalf("expected voting canceled, got %+v", slash)
	}
	if !ledger.stakeOf("alice").IsZero() || !ledger.stakeOf("bob").IsZero() {
		t.Fatalf("expected all stakes released on cancel")
	}

	view, err := service.SummaryOf(ctx, summary.VotingID)
	if err != nil {
		t.Fatalf("expected summary, got %v", err)
	}
	if view.State != governance.VotingStateCanceled {
		t.Fatalf("expected canceled state, got %s", view.State)
	}
	err = service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "carol", governance.ChoiceInFavor, amt(100))
	if !errors.Is(err, domainerrors.ErrVotingAlreadyCanceled) {
		t.Fatalf("expected canceled-voting guard, got %v", err)
	}
}

func TestSlashVoterCancelsBallotOnly(t *testing.T) {
	service, store, ledger := newTestEngine(t)
	ctx := context.Background()

	summary, err := service.CreateVoting(ctx, "alice", amt(100), testConfiguration())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := service.Vote(ctx, summary.VotingID, governance.VotingTypeInformal, "bob", governance.ChoiceAgainst, amt(200)); err != nil {
		t.Fatalf("expected bob's vote, got %v", err)
	}

	slash, err := service.SlashVoter(ctx, "bob")
	if err != nil {
		t.Fatalf("expected slash to succeed, got %v", err)
	}
	if len(slash.AffectedVotings) != 1 || len(slash.CanceledVotings) != 0 {
		t.Fatalf("expected ballot-only cancellation, got %+v", slash)
	}
	if !ledger.stakeOf("bob").IsZero() {
		t.Fatalf("expected bob's stake released, got %s", ledger.stakeOf("bob"))
	}

	// The canceled ballot still counts toward the distinct-voter quorum.
	voters, err := service.VotersOf(ctx, summary.VotingID, governance.VotingTypeInformal)
	if err != nil {
		t.Fatalf("expected voters listing, got %v", err)
	}
	if len(voters) != 2 {
		t.Fatalf("expected both voters listed, got %v", voters)
	}

	store.AdvanceTime(time.Hour)
	informal, err := service.FinishVoting(ctx, summary.VotingID, governance.VotingTypeInformal)
	if err != nil {
		t.Fatalf("expected informal finish, got %v", err)
	}
	if informal.Result != governance.VotingResultInFavor {
		t.Fatalf("expected in favor without bob's stake, got %s", informal.Result)
	}
}
