package application

import (
	"context"

	"agora/contracts/governance"
)

// forfeitGovernanceCut pays the configured payment-ratio share of total to
// the governance wallet and returns the remainder for further distribution.
func (s Service) forfeitGovernanceCut(ctx context.Context, cfg governance.Configuration, total governance.Amount, reason string) (governance.Amount, error) {
	cut := cfg.ApplyBidEscrowPaymentRatioTo(total)
	if !cut.IsZero() && cfg.BidEscrowWalletAddress != "" {
		if err := s.Treasury.Withdraw(ctx, cfg.BidEscrowWalletAddress, cut, reason); err != nil {
			return governance.ZeroAmount(), err
		}
		return total.Sub(cut), nil
	}
	return total, nil
}

// forfeitToGovernance splits a forfeited currency amount between the
// governance wallet and all onboarded members.
func (s Service) forfeitToGovernance(ctx context.Context, cfg governance.Configuration, total governance.Amount, reason string) error {
	remainder, err := s.forfeitGovernanceCut(ctx, cfg, total, reason)
	if err != nil {
		return err
	}
	return s.redistributeToAllVAs(ctx, remainder, reason)
}

// redistributeToAllVAs pays out currency pro rata to every reputation holder
// by their balance. Integer division truncates; the dust stays escrowed.
func (s Service) redistributeToAllVAs(ctx context.Context, total governance.Amount, reason string) error {
	if total.IsZero() {
		return nil
	}
	aggregated, err := s.Ledger.AllBalances(ctx)
	if err != nil {
		return err
	}
	return s.payProRata(ctx, total, aggregated, reason)
}

// redistributeToVoters pays out currency pro rata to the formal voters by
// their reputation balance.
func (s Service) redistributeToVoters(ctx context.Context, votingID uint32, total governance.Amount, reason string) error {
	if total.IsZero() {
		return nil
	}
	voters, err := s.Voting.VotersOf(ctx, votingID, governance.VotingTypeFormal)
	if err != nil {
		return err
	}
	aggregated, err := s.Ledger.PartialBalances(ctx, voters)
	if err != nil {
		return err
	}
	return s.payProRata(ctx, total, aggregated, reason)
}

func (s Service) payProRata(ctx context.Context, total governance.Amount, aggregated governance.AggregatedBalances, reason string) error {
	if aggregated.Total.IsZero() {
		return nil
	}
	for _, holder := range aggregated.Balances {
		share := governance.ProRata(total, holder.Amount, aggregated.Total)
		if share.IsZero() {
			continue
		}
		if err := s.Treasury.Withdraw(ctx, holder.Account, share, reason); err != nil {
			return err
		}
	}
	return nil
}

// mintToVoters mints the policing cut of a successful job's reputation to the
// formal voters, pro rata to the stake their bound ballots carried.
func (s Service) mintToVoters(ctx context.Context, votingID uint32, total governance.Amount) error {
	if total.IsZero() {
		return nil
	}
	stakes, err := s.Voting.BoundBallotStakes(ctx, votingID, governance.VotingTypeFormal)
	if err != nil {
		return err
	}
	universe := governance.ZeroAmount()
	for _, staked := range stakes {
		universe = universe.Add(staked.Amount)
	}
	if universe.IsZero() {
		return nil
	}
	for _, staked := range stakes {
		share := governance.ProRata(total, staked.Amount, universe)
		if share.IsZero() {
			continue
		}
		if err := s.Ledger.Mint(ctx, staked.Account, share); err != nil {
			return err
		}
	}
	return nil
}
