package unit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	bidescrow "agora/contexts/governance-core/bid-escrow"
	escrowentities "agora/contexts/governance-core/bid-escrow/domain/entities"
	reputationledger "agora/contexts/governance-core/reputation-ledger"
	votingengine "agora/contexts/governance-core/voting-engine"
	"agora/contracts/governance"
)

// The flow tests wire the real modules together and walk a job offer from
// posting through both voting phases to settlement.

func flowConfiguration() governance.Configuration {
	return governance.Configuration{
		PostJobDOSFee:       governance.NewAmount(100),
		InternalAuctionTime: time.Hour,
		PublicAuctionTime:   time.Hour,

		DefaultPolicingRate:      governance.NewAmount(300),
		ReputationConversionRate: governance.NewAmount(300),
		DefaultReputationSlash:   governance.NewAmount(100),
		BidEscrowPaymentRatio:    governance.NewAmount(100),
		VotingClearnessDelta:     governance.ZeroAmount(),

		InformalQuorumRatio:          governance.NewAmount(334),
		FormalQuorumRatio:            governance.NewAmount(334),
		BidEscrowInformalQuorumRatio: governance.NewAmount(334),
		BidEscrowFormalQuorumRatio:   governance.NewAmount(334),

		InformalVotingDuration:          2 * time.Hour,
		FormalVotingDuration:            2 * time.Hour,
		BidEscrowInformalVotingDuration: 2 * time.Hour,
		BidEscrowFormalVotingDuration:   2 * time.Hour,
		TimeBetweenVotings:              time.Hour,
		VotingStartAfterJobSubmission:   0,
		VABidAcceptanceTimeout:          30 * time.Minute,

		InformalStakeReputation: true,
		OnlyVACanCreate:         true,

		BidEscrowWalletAddress: "governance-wallet",
	}
}

type governanceStack struct {
	ledger reputationledger.Module
	voting votingengine.Module
	escrow bidescrow.Module
}

func newGovernanceStack(t *testing.T) governanceStack {
	t.Helper()
	ctx := context.Background()

	ledger := reputationledger.NewInMemoryModule(slog.Default())
	voting := votingengine.NewInMemoryModule(ledger.Service, slog.Default())
	escrow := bidescrow.NewInMemoryModule(voting.Service, ledger.Service, slog.Default())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.Store.SetNow(base)
	voting.Store.SetNow(base)
	escrow.Store.SetNow(base)

	escrow.Store.SetConfiguration(flowConfiguration())
	escrow.Store.SetKyc("peter", true)
	escrow.Store.SetKyc("wanda", true)
	escrow.Store.SetKyc("xavier", true)
	for _, account := range []string{"bob", "carol", "wanda"} {
		escrow.Store.SetOnboarded(account, true)
		voting.Store.SetOnboarded(account, true)
	}

	if err := ledger.Store.SetBalance(ctx, "bob", governance.NewAmount(1000)); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	if err := ledger.Store.SetBalance(ctx, "carol", governance.NewAmount(2000)); err != nil {
		t.Fatalf("seed carol: %v", err)
	}
	if err := ledger.Store.SetBalance(ctx, "wanda", governance.NewAmount(1000)); err != nil {
		t.Fatalf("seed wanda: %v", err)
	}
	if err := ledger.Store.SetTotalSupply(ctx, governance.NewAmount(4000)); err != nil {
		t.Fatalf("seed supply: %v", err)
	}

	return governanceStack{ledger: ledger, voting: voting, escrow: escrow}
}

func (g governanceStack) advance(d time.Duration) {
	g.ledger.Store.AdvanceTime(d)
	g.voting.Store.AdvanceTime(d)
	g.escrow.Store.AdvanceTime(d)
}

func (g governanceStack) submittedInternalJob(t *testing.T) escrowentities.Job {
	t.Helper()
	ctx := context.Background()

	offer, err := g.escrow.Service.PostJobOffer(ctx, "peter", governance.NewAmount(1000), 24*time.Hour, governance.NewAmount(100))
	if err != nil {
		t.Fatalf("post job offer: %v", err)
	}
	bid, err := g.escrow.Service.SubmitBid(ctx, offer.ID, "wanda", 7*24*time.Hour, governance.NewAmount(800), governance.NewAmount(200), governance.ZeroAmount(), false)
	if err != nil {
		t.Fatalf("submit bid: %v", err)
	}
	job, err := g.escrow.Service.PickBid(ctx, offer.ID, bid.ID, "peter", governance.NewAmount(800))
	if err != nil {
		t.Fatalf("pick bid: %v", err)
	}
	job, err = g.escrow.Service.SubmitJobProof(ctx, job.ID, "wanda", "proof-of-work")
	if err != nil {
		t.Fatalf("submit proof: %v", err)
	}
	return job
}

func (g governanceStack) balanceOf(t *testing.T, account string) governance.Amount {
	t.Helper()
	balance, err := g.ledger.Service.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("balance of %s: %v", account, err)
	}
	return balance
}

func TestAcceptedJobSettlesAcrossModules(t *testing.T) {
	g := newGovernanceStack(t)
	ctx := context.Background()
	job := g.submittedInternalJob(t)

	// Informal phase: the worker's provisional ballot plus one voter.
	g.advance(10 * time.Minute)
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeInformal, "bob", governance.ChoiceInFavor, governance.NewAmount(100)); err != nil {
		t.Fatalf("informal vote: %v", err)
	}

	g.advance(110 * time.Minute)
	summary, err := g.escrow.Service.FinishVoting(ctx, job.ID, governance.VotingTypeInformal)
	if err != nil {
		t.Fatalf("finish informal: %v", err)
	}
	if summary.Result != governance.VotingResultInFavor {
		t.Fatalf("informal result = %s, want in_favor", summary.Result)
	}

	// Formal phase opens one hour after the informal window closes.
	g.advance(65 * time.Minute)
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeFormal, "bob", governance.ChoiceInFavor, governance.NewAmount(300)); err != nil {
		t.Fatalf("formal vote bob: %v", err)
	}
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeFormal, "carol", governance.ChoiceInFavor, governance.NewAmount(400)); err != nil {
		t.Fatalf("formal vote carol: %v", err)
	}

	g.advance(120 * time.Minute)
	summary, err = g.escrow.Service.FinishVoting(ctx, job.ID, governance.VotingTypeFormal)
	if err != nil {
		t.Fatalf("finish formal: %v", err)
	}
	if summary.Result != governance.VotingResultInFavor {
		t.Fatalf("formal result = %s, want in_favor", summary.Result)
	}

	done, err := g.escrow.Store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if done.Status != escrowentities.JobDone {
		t.Fatalf("job status = %s, want done", done.Status)
	}

	// Payment 800: 80 to the governance wallet, the remaining 720 split
	// among the formal voters by reputation (1000:1000:2000).
	if got := g.escrow.Store.WithdrawnTo("governance-wallet"); !got.Equal(governance.NewAmount(80)) {
		t.Fatalf("governance wallet cut = %s, want 80", got)
	}
	if got := g.escrow.Store.WithdrawnTo("wanda"); !got.Equal(governance.NewAmount(180)) {
		t.Fatalf("wanda payment share = %s, want 180", got)
	}
	if got := g.escrow.Store.WithdrawnTo("bob"); !got.Equal(governance.NewAmount(180)) {
		t.Fatalf("bob payment share = %s, want 180", got)
	}
	if got := g.escrow.Store.WithdrawnTo("carol"); !got.Equal(governance.NewAmount(360)) {
		t.Fatalf("carol payment share = %s, want 360", got)
	}
	if got := g.escrow.Store.WithdrawnTo("peter"); !got.Equal(governance.NewAmount(100)) {
		t.Fatalf("peter dos refund = %s, want 100", got)
	}
	if got := g.escrow.Store.Escrowed(); !got.IsZero() {
		t.Fatalf("escrowed = %s, want 0", got)
	}

	// Reputation: conversion of the payment is 240, policing cut 72 goes to
	// the bound formal ballots (200:300:400), the worker keeps 168.
	if got := g.balanceOf(t, "wanda"); !got.Equal(governance.NewAmount(1184)) {
		t.Fatalf("wanda balance = %s, want 1184", got)
	}
	if got := g.balanceOf(t, "bob"); !got.Equal(governance.NewAmount(1024)) {
		t.Fatalf("bob balance = %s, want 1024", got)
	}
	if got := g.balanceOf(t, "carol"); !got.Equal(governance.NewAmount(2032)) {
		t.Fatalf("carol balance = %s, want 2032", got)
	}
}

func TestPromotedExternalWorkerSettlesAcrossModules(t *testing.T) {
	g := newGovernanceStack(t)
	ctx := context.Background()

	offer, err := g.escrow.Service.PostJobOffer(ctx, "peter", governance.NewAmount(1000), 24*time.Hour, governance.NewAmount(100))
	if err != nil {
		t.Fatalf("post job offer: %v", err)
	}

	// Public auction window; xavier stakes currency and asks to be onboarded.
	g.advance(90 * time.Minute)
	bid, err := g.escrow.Service.SubmitBid(ctx, offer.ID, "xavier", 7*24*time.Hour, governance.NewAmount(800), governance.ZeroAmount(), governance.NewAmount(100), true)
	if err != nil {
		t.Fatalf("submit bid: %v", err)
	}
	job, err := g.escrow.Service.PickBid(ctx, offer.ID, bid.ID, "peter", governance.NewAmount(800))
	if err != nil {
		t.Fatalf("pick bid: %v", err)
	}
	job, err = g.escrow.Service.SubmitJobProof(ctx, job.ID, "xavier", "proof-of-work")
	if err != nil {
		t.Fatalf("submit proof: %v", err)
	}

	// The worker's converted provisional ballot alone reaches quorum.
	g.advance(125 * time.Minute)
	if _, err := g.escrow.Service.FinishVoting(ctx, job.ID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("finish informal: %v", err)
	}

	g.advance(65 * time.Minute)
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeFormal, "bob", governance.ChoiceInFavor, governance.NewAmount(300)); err != nil {
		t.Fatalf("formal vote bob: %v", err)
	}
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeFormal, "carol", governance.ChoiceInFavor, governance.NewAmount(400)); err != nil {
		t.Fatalf("formal vote carol: %v", err)
	}

	g.advance(120 * time.Minute)
	summary, err := g.escrow.Service.FinishVoting(ctx, job.ID, governance.VotingTypeFormal)
	if err != nil {
		t.Fatalf("finish formal: %v", err)
	}
	if summary.Result != governance.VotingResultInFavor {
		t.Fatalf("formal result = %s, want in_favor", summary.Result)
	}

	done, err := g.escrow.Store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if done.Status != escrowentities.JobDone {
		t.Fatalf("job status = %s, want done", done.Status)
	}
	onboarded, err := g.escrow.Store.IsOnboarded(ctx, "xavier")
	if err != nil {
		t.Fatalf("is onboarded: %v", err)
	}
	if !onboarded {
		t.Fatalf("expected xavier onboarded after the accepted job")
	}

	// Payment 800: 80 to the governance wallet, the remaining 720 split among
	// the formal voters by reputation at settlement time (xavier holds the
	// bound 30 then): 720*30/3030=7, 720*1000/3030=237, 720*2000/3030=475.
	// The dust of 1 stays escrowed.
	if got := g.escrow.Store.WithdrawnTo("governance-wallet"); !got.Equal(governance.NewAmount(80)) {
		t.Fatalf("governance wallet cut = %s, want 80", got)
	}
	if got := g.escrow.Store.WithdrawnTo("bob"); !got.Equal(governance.NewAmount(237)) {
		t.Fatalf("bob payment share = %s, want 237", got)
	}
	if got := g.escrow.Store.WithdrawnTo("carol"); !got.Equal(governance.NewAmount(475)) {
		t.Fatalf("carol payment share = %s, want 475", got)
	}
	if got := g.escrow.Store.WithdrawnTo("xavier"); !got.Equal(governance.NewAmount(107)) {
		t.Fatalf("xavier payment share plus stake refund = %s, want 107", got)
	}
	if got := g.escrow.Store.WithdrawnTo("peter"); !got.Equal(governance.NewAmount(100)) {
		t.Fatalf("peter dos refund = %s, want 100", got)
	}
	if got := g.escrow.Store.Escrowed(); !got.Equal(governance.NewAmount(1)) {
		t.Fatalf("escrowed dust = %s, want 1", got)
	}

	// Reputation: the bound-ballot mint of 30 is burned back, the policing 72
	// splits by bound stakes 30:300:400 (2/29/39), the worker share is 168.
	if got := g.balanceOf(t, "xavier"); !got.Equal(governance.NewAmount(170)) {
		t.Fatalf("xavier balance = %s, want 170", got)
	}
	if got := g.balanceOf(t, "bob"); !got.Equal(governance.NewAmount(1029)) {
		t.Fatalf("bob balance = %s, want 1029", got)
	}
	if got := g.balanceOf(t, "carol"); !got.Equal(governance.NewAmount(2039)) {
		t.Fatalf("carol balance = %s, want 2039", got)
	}
}

func TestRejectedJobRefundsPosterAndSlashesWorker(t *testing.T) {
	g := newGovernanceStack(t)
	ctx := context.Background()
	job := g.submittedInternalJob(t)

	g.advance(125 * time.Minute)
	if _, err := g.escrow.Service.FinishVoting(ctx, job.ID, governance.VotingTypeInformal); err != nil {
		t.Fatalf("finish informal: %v", err)
	}

	g.advance(65 * time.Minute)
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeFormal, "bob", governance.ChoiceAgainst, governance.NewAmount(300)); err != nil {
		t.Fatalf("formal vote bob: %v", err)
	}
	if err := g.escrow.Service.Vote(ctx, job.ID, governance.VotingTypeFormal, "carol", governance.ChoiceAgainst, governance.NewAmount(400)); err != nil {
		t.Fatalf("formal vote carol: %v", err)
	}

	g.advance(120 * time.Minute)
	summary, err := g.escrow.Service.FinishVoting(ctx, job.ID, governance.VotingTypeFormal)
	if err != nil {
		t.Fatalf("finish formal: %v", err)
	}
	if summary.Result != governance.VotingResultAgainst {
		t.Fatalf("formal result = %s, want against", summary.Result)
	}

	rejected, err := g.escrow.Store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if rejected.Status != escrowentities.JobRejected {
		t.Fatalf("job status = %s, want rejected", rejected.Status)
	}

	if got := g.escrow.Store.WithdrawnTo("peter"); !got.Equal(governance.NewAmount(900)) {
		t.Fatalf("peter refunds = %s, want 900", got)
	}
	if got := g.escrow.Store.Escrowed(); !got.IsZero() {
		t.Fatalf("escrowed = %s, want 0", got)
	}

	// The worker's losing ballot stake of 200 went to the winners pro rata,
	// then the balance slash of 10 percent took another 80.
	if got := g.balanceOf(t, "wanda"); !got.Equal(governance.NewAmount(720)) {
		t.Fatalf("wanda balance = %s, want 720", got)
	}
	if got := g.balanceOf(t, "bob"); !got.Equal(governance.NewAmount(1085)) {
		t.Fatalf("bob balance = %s, want 1085", got)
	}
	if got := g.balanceOf(t, "carol"); !got.Equal(governance.NewAmount(2114)) {
		t.Fatalf("carol balance = %s, want 2114", got)
	}
}
