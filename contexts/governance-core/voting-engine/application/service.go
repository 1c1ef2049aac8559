package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
	"agora/contracts/governance"
)

const votingNamespace = "voting"

// Service orchestrates the two-phase voting lifecycle: create, ballot
// collection, phase settlement with stake redistribution, and voter slashing.
// Each voting carries its own configuration snapshot, so parameter updates
// never touch in-flight votings.
type Service struct {
	Repo       ports.VotingRepository
	Sequence   ports.SequenceGenerator
	Ledger     ports.ReputationLedger
	Membership ports.MembershipToken
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (s Service) CreateVoting(ctx context.Context, creator string, stake governance.Amount, cfg governance.Configuration) (governance.VotingSummary, error) {
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return governance.VotingSummary{}, domainerrors.ErrInvalidRequest
	}
	if cfg.OnlyVACanCreate {
		onboarded, err := s.Membership.IsOnboarded(ctx, creator)
		if err != nil {
			return governance.VotingSummary{}, err
		}
		if !onboarded {
			return governance.VotingSummary{}, domainerrors.ErrNotOnboarded
		}
	}

	votingID, err := s.Sequence.NextID(ctx, votingNamespace)
	if err != nil {
		return governance.VotingSummary{}, err
	}
	now := s.now()
	voting := entities.NewVoting(votingID, creator, now, cfg)

	if cfg.ShouldCastFirstVote() {
		if stake.IsNil() || stake.IsZero() {
			return governance.VotingSummary{}, domainerrors.ErrZeroStake
		}
		if err := s.castBallot(ctx, &voting, governance.VotingTypeInformal, creator, governance.ChoiceInFavor, stake, false); err != nil {
			return governance.VotingSummary{}, err
		}
	}

	if err := s.Repo.SaveVoting(ctx, voting); err != nil {
		return governance.VotingSummary{}, err
	}
	if err := s.appendEvent(ctx, "voting.created", votingID, map[string]any{
		"voting_id": votingID,
		"creator":   creator,
		"stake":     stake.String(),
	}); err != nil {
		return governance.VotingSummary{}, err
	}

	ResolveLogger(s.Logger).Info("voting created",
		"event", "voting_created",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"voting_id", votingID,
		"creator", creator,
	)
	return governance.VotingSummary{
		VotingID:   votingID,
		VotingType: governance.VotingTypeInformal,
		State:      voting.StateAt(now),
	}, nil
}

// Vote records an onboarded member's ballot inside the open phase window.
func (s Service) Vote(ctx context.Context, votingID uint32, votingType governance.VotingType, voter string, choice governance.Choice, stake governance.Amount) error {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return domainerrors.ErrInvalidRequest
	}
	onboarded, err := s.Membership.IsOnboarded(ctx, voter)
	if err != nil {
		return err
	}
	if !onboarded {
		return domainerrors.ErrNotOnboarded
	}
	if stake.IsNil() || stake.IsZero() {
		return domainerrors.ErrZeroStake
	}

	voting, err := s.Repo.GetVoting(ctx, votingID)
	if err != nil {
		return err
	}
	if err := voting.GuardVote(votingType, voter, s.now()); err != nil {
		return err
	}
	if err := s.castBallot(ctx, &voting, votingType, voter, choice, stake, false); err != nil {
		return err
	}
	return s.Repo.SaveVoting(ctx, voting)
}

// CastBallot records a ballot without the phase-window guard. The bid escrow
// uses it to place the worker's provisional ballot before voting opens.
func (s Service) CastBallot(ctx context.Context, votingID uint32, votingType governance.VotingType, voter string, choice governance.Choice, stake governance.Amount, unbound bool) error {
	voter = strings.TrimSpace(voter)
	if voter == "" || stake.IsNil() {
		return domainerrors.ErrInvalidRequest
	}
	voting, err := s.Repo.GetVoting(ctx, votingID)
	if err != nil {
		return err
	}
	if err := voting.GuardCast(votingType, voter); err != nil {
		return err
	}
	if err := s.castBallot(ctx, &voting, votingType, voter, choice, stake, unbound); err != nil {
		return err
	}
	return s.Repo.SaveVoting(ctx, voting)
}

func (s Service) castBallot(ctx context.Context, voting *entities.Voting, votingType governance.VotingType, voter string, choice governance.Choice, stake governance.Amount, unbound bool) error {
	if !unbound && s.stakesLedger(voting.Configuration, votingType) {
		if err := s.Ledger.Stake(ctx, voter, stake); err != nil {
			return err
		}
	}
	voting.AddBallot(entities.Ballot{
		Voter:      voter,
		VotingID:   voting.ID,
		VotingType: votingType,
		Choice:     choice,
		Stake:      stake,
		Unbound:    unbound,
	})
	return s.appendEvent(ctx, "voting.ballot_cast", voting.ID, map[string]any{
		"voting_id":   voting.ID,
		"voting_type": string(votingType),
		"voter":       voter,
		"choice":      string(choice),
		"stake":       stake.String(),
		"unbound":     unbound,
	})
}

// FinishVoting settles one phase. An informal phase that reaches quorum
// proceeds to the formal phase whatever its result; the formal settlement
// redistributes bound stakes from losers to winners pro rata.
func (s Service) FinishVoting(ctx context.Context, votingID uint32, votingType governance.VotingType) (governance.VotingSummary, error) {
	voting, err := s.Repo.GetVoting(ctx, votingID)
	if err != nil {
		return governance.VotingSummary{}, err
	}
	now := s.now()
	if err := voting.GuardFinish(votingType, now); err != nil {
		return governance.VotingSummary{}, err
	}

	var result governance.VotingResult
	transfers := map[string]map[string]string{}
	if votingType == governance.VotingTypeInformal {
		result, transfers, err = s.finishInformal(ctx, &voting)
	} else {
		result, transfers, err = s.finishFormal(ctx, &voting)
	}
	if err != nil {
		return governance.VotingSummary{}, err
	}

	if err := s.Repo.SaveVoting(ctx, voting); err != nil {
		return governance.VotingSummary{}, err
	}
	if err := s.appendEvent(ctx, "voting.finished", votingID, map[string]any{
		"voting_id":   votingID,
		"voting_type": string(votingType),
		"result":      string(result),
		"unstakes":    transfers["unstakes"],
		"burns":       transfers["burns"],
		"mints":       transfers["mints"],
	}); err != nil {
		return governance.VotingSummary{}, err
	}

	ResolveLogger(s.Logger).Info("voting phase settled",
		"event", "voting_phase_settled",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"voting_id", votingID,
		"voting_type", string(votingType),
		"result", string(result),
	)
	return governance.VotingSummary{
		VotingID:   votingID,
		VotingType: votingType,
		State:      voting.StateAt(now),
		Result:     result,
	}, nil
}

func (s Service) finishInformal(ctx context.Context, voting *entities.Voting) (governance.VotingResult, map[string]map[string]string, error) {
	result := voting.Result(governance.VotingTypeInformal)
	voting.InformalResult = result
	unstakes := map[string]string{}

	informalStaked := s.stakesLedger(voting.Configuration, governance.VotingTypeInformal)
	creator := voting.Creator

	if result == governance.VotingResultQuorumNotReached {
		if informalStaked {
			items := ballotAmounts(voting.LiveBoundBallots(governance.VotingTypeInformal))
			if err := s.Ledger.BulkUnstake(ctx, items); err != nil {
				return result, nil, err
			}
			recordAmounts(unstakes, items)
		}
		voting.State = governance.VotingStateFinished
		return result, map[string]map[string]string{"unstakes": unstakes}, nil
	}

	// Quorum reached: informal stakes return to their owners, the creator's
	// ballot carries over into the formal phase with its original choice and
	// stake, and a statistically close result doubles the wait before the
	// formal phase opens.
	if informalStaked {
		items := make([]governance.AccountAmount, 0)
		for _, ballot := range voting.LiveBoundBallots(governance.VotingTypeInformal) {
			if strings.EqualFold(ballot.Voter, creator) {
				continue
			}
			items = append(items, governance.AccountAmount{Account: ballot.Voter, Amount: ballot.Stake})
		}
		if err := s.Ledger.BulkUnstake(ctx, items); err != nil {
			return result, nil, err
		}
		recordAmounts(unstakes, items)
	}

	if ballot, ok := voting.Informal.BallotOf(creator); ok && !ballot.Canceled {
		if !ballot.Unbound && !informalStaked {
			// Formal custody always holds ledger stake, even when informal
			// ballots did not.
			if err := s.Ledger.Stake(ctx, creator, ballot.Stake); err != nil {
				return result, nil, err
			}
		}
		voting.AddBallot(entities.Ballot{
			Voter:      creator,
			VotingID:   voting.ID,
			VotingType: governance.VotingTypeFormal,
			Choice:     ballot.Choice,
			Stake:      ballot.Stake,
			Unbound:    ballot.Unbound,
		})
	}

	if voting.IsResultClose() {
		voting.DoubleTimeBetween()
	}
	voting.State = governance.VotingStateBetweenVotings
	return result, map[string]map[string]string{"unstakes": unstakes}, nil
}

func (s Service) finishFormal(ctx context.Context, voting *entities.Voting) (governance.VotingResult, map[string]map[string]string, error) {
	result := voting.Result(governance.VotingTypeFormal)
	voting.FormalResult = result
	voting.State = governance.VotingStateFinished

	unstakes := map[string]string{}
	burns := map[string]string{}
	mints := map[string]string{}
	transfers := map[string]map[string]string{"unstakes": unstakes, "burns": burns, "mints": mints}

	if result == governance.VotingResultQuorumNotReached {
		items := ballotAmounts(voting.LiveBoundBallots(governance.VotingTypeFormal))
		if err := s.Ledger.BulkUnstake(ctx, items); err != nil {
			return result, nil, err
		}
		recordAmounts(unstakes, items)
		return result, transfers, nil
	}

	if result == governance.VotingResultInFavor && voting.Configuration.BindBallotForSuccessfulVoting {
		for _, ballot := range voting.LiveUnboundBallots(governance.VotingTypeFormal) {
			if err := s.Ledger.Mint(ctx, ballot.Voter, ballot.Stake); err != nil {
				return result, nil, err
			}
			if err := s.Ledger.Stake(ctx, ballot.Voter, ballot.Stake); err != nil {
				return result, nil, err
			}
			if _, err := voting.BindBallot(governance.VotingTypeFormal, ballot.Voter); err != nil {
				return result, nil, err
			}
			mints[ballot.Voter] = ballot.Stake.String()
		}
	}

	if err := s.redistribute(ctx, voting, result, unstakes, burns, mints); err != nil {
		return result, nil, err
	}
	return result, transfers, nil
}

// redistribute returns every bound stake to its owner, then burns the losing
// stakes and mints each winner its pro-rata share of the losing total.
// Truncating division leaves dust smaller than the winner count unminted.
func (s Service) redistribute(ctx context.Context, voting *entities.Voting, result governance.VotingResult, unstakes map[string]string, burns map[string]string, mints map[string]string) error {
	winningChoice := governance.ChoiceInFavor
	if result == governance.VotingResultAgainst {
		winningChoice = governance.ChoiceAgainst
	}

	ballots := voting.LiveBoundBallots(governance.VotingTypeFormal)
	totalWinning := governance.ZeroAmount()
	totalLosing := governance.ZeroAmount()
	for _, ballot := range ballots {
		if ballot.Choice == winningChoice {
			totalWinning = totalWinning.Add(ballot.Stake)
		} else {
			totalLosing = totalLosing.Add(ballot.Stake)
		}
	}

	items := ballotAmounts(ballots)
	if err := s.Ledger.BulkUnstake(ctx, items); err != nil {
		return err
	}
	recordAmounts(unstakes, items)

	mintItems := make([]governance.AccountAmount, 0, len(ballots))
	burnItems := make([]governance.AccountAmount, 0, len(ballots))
	for _, ballot := range ballots {
		if ballot.Choice == winningChoice {
			share := governance.ProRata(totalLosing, ballot.Stake, totalWinning)
			mintItems = append(mintItems, governance.AccountAmount{Account: ballot.Voter, Amount: share})
		} else {
			burnItems = append(burnItems, governance.AccountAmount{Account: ballot.Voter, Amount: ballot.Stake})
		}
	}
	if err := s.Ledger.BulkMintBurn(ctx, mintItems, burnItems); err != nil {
		return err
	}
	for _, item := range mintItems {
		if !item.Amount.IsZero() {
			mints[item.Account] = item.Amount.String()
		}
	}
	recordAmounts(burns, burnItems)
	return nil
}

// SlashVoter removes a malicious voter from every live voting: votings they
// created are canceled outright, their ballots elsewhere are canceled with
// the stake returned.
func (s Service) SlashVoter(ctx context.Context, voter string) (governance.SlashSummary, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return governance.SlashSummary{}, domainerrors.ErrInvalidRequest
	}

	votings, err := s.Repo.ListVotings(ctx)
	if err != nil {
		return governance.SlashSummary{}, err
	}

	summary := governance.SlashSummary{}
	for _, voting := range votings {
		if voting.IsTerminal() {
			continue
		}
		if strings.EqualFold(voting.Creator, voter) {
			if err := s.cancelVoting(ctx, &voting); err != nil {
				return governance.SlashSummary{}, err
			}
			summary.CanceledVotings = append(summary.CanceledVotings, voting.ID)
			continue
		}
		affected, err := s.cancelVoterBallots(ctx, &voting, voter)
		if err != nil {
			return governance.SlashSummary{}, err
		}
		if affected {
			summary.AffectedVotings = append(summary.AffectedVotings, voting.ID)
		}
	}

	ResolveLogger(s.Logger).Info("voter slashed",
		"event", "voter_slashed",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"voter", voter,
		"canceled_votings", len(summary.CanceledVotings),
		"affected_votings", len(summary.AffectedVotings),
	)
	return summary, nil
}

func (s Service) cancelVoting(ctx context.Context, voting *entities.Voting) error {
	phase := s.stakedPhase(*voting)
	if phase != "" {
		items := ballotAmounts(voting.LiveBoundBallots(phase))
		if err := s.Ledger.BulkUnstake(ctx, items); err != nil {
			return err
		}
	}
	voting.State = governance.VotingStateCanceled
	if err := s.Repo.SaveVoting(ctx, *voting); err != nil {
		return err
	}
	return s.appendEvent(ctx, "voting.canceled", voting.ID, map[string]any{
		"voting_id": voting.ID,
		"creator":   voting.Creator,
	})
}

func (s Service) cancelVoterBallots(ctx context.Context, voting *entities.Voting, voter string) (bool, error) {
	stakedPhase := s.stakedPhase(*voting)
	affected := false
	for _, votingType := range []governance.VotingType{governance.VotingTypeInformal, governance.VotingTypeFormal} {
		ballot, err := voting.CancelBallot(votingType, voter)
		if err != nil {
			continue
		}
		affected = true
		if !ballot.Unbound && votingType == stakedPhase {
			if err := s.Ledger.Unstake(ctx, voter, ballot.Stake); err != nil {
				return false, err
			}
		}
		if err := s.appendEvent(ctx, "voting.ballot_canceled", voting.ID, map[string]any{
			"voting_id":   voting.ID,
			"voting_type": string(votingType),
			"voter":       voter,
			"stake":       ballot.Stake.String(),
		}); err != nil {
			return false, err
		}
	}
	if !affected {
		return false, nil
	}
	return true, s.Repo.SaveVoting(ctx, *voting)
}

// stakedPhase names the phase whose bound ballots currently hold ledger
// stake, or empty when none do.
func (s Service) stakedPhase(voting entities.Voting) governance.VotingType {
	switch voting.State {
	case governance.VotingStateCreated, governance.VotingStateInformal:
		if s.stakesLedger(voting.Configuration, governance.VotingTypeInformal) {
			return governance.VotingTypeInformal
		}
		return ""
	case governance.VotingStateBetweenVotings:
		return governance.VotingTypeFormal
	default:
		return ""
	}
}

func (s Service) stakesLedger(cfg governance.Configuration, votingType governance.VotingType) bool {
	if votingType == governance.VotingTypeFormal {
		return true
	}
	return cfg.InformalStakeReputation
}

func (s Service) VotingOf(ctx context.Context, votingID uint32) (entities.Voting, error) {
	return s.Repo.GetVoting(ctx, votingID)
}

func (s Service) SummaryOf(ctx context.Context, votingID uint32) (governance.VotingSummary, error) {
	voting, err := s.Repo.GetVoting(ctx, votingID)
	if err != nil {
		return governance.VotingSummary{}, err
	}
	votingType := governance.VotingTypeInformal
	result := voting.InformalResult
	if voting.InformalResult != "" && voting.State != governance.VotingStateCreated && voting.State != governance.VotingStateInformal {
		votingType = governance.VotingTypeFormal
		if voting.FormalResult != "" {
			result = voting.FormalResult
		}
	}
	if voting.State == governance.VotingStateCanceled {
		result = governance.VotingResultCanceled
	}
	return governance.VotingSummary{
		VotingID:   votingID,
		VotingType: votingType,
		State:      voting.StateAt(s.now()),
		Result:     result,
	}, nil
}

// VotersOf lists every voter of a phase in casting order, canceled ballots
// included.
func (s Service) VotersOf(ctx context.Context, votingID uint32, votingType governance.VotingType) ([]string, error) {
	voting, err := s.Repo.GetVoting(ctx, votingID)
	if err != nil {
		return nil, err
	}
	stats := voting.Informal
	if votingType == governance.VotingTypeFormal {
		stats = voting.Formal
	}
	voters := make([]string, 0, len(stats.Ballots))
	for _, ballot := range stats.Ballots {
		voters = append(voters, ballot.Voter)
	}
	return voters, nil
}

// BoundBallotStakes lists the live bound (voter, stake) pairs of a phase, the
// universe the bid escrow uses for policing-rate mints.
func (s Service) BoundBallotStakes(ctx context.Context, votingID uint32, votingType governance.VotingType) ([]governance.AccountAmount, error) {
	voting, err := s.Repo.GetVoting(ctx, votingID)
	if err != nil {
		return nil, err
	}
	return ballotAmounts(voting.LiveBoundBallots(votingType)), nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) appendEvent(ctx context.Context, eventType string, votingID uint32, data map[string]any) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newVotingEnvelope(eventID, eventType, votingID, s.now(), data)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, envelope)
}

func ballotAmounts(ballots []entities.Ballot) []governance.AccountAmount {
	items := make([]governance.AccountAmount, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, governance.AccountAmount{Account: ballot.Voter, Amount: ballot.Stake})
	}
	return items
}

func recordAmounts(into map[string]string, items []governance.AccountAmount) {
	for _, item := range items {
		if item.Amount.IsZero() {
			continue
		}
		into[item.Account] = item.Amount.String()
	}
}
