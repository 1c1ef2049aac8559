package entities

import (
	"strings"
	"time"

	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contracts/governance"
)

// Ballot is a single cast vote inside one phase of a voting. Unbound ballots
// carry virtual stake that never touches the ledger until the voting passes;
// canceled ballots stay in the list so the distinct-voter count survives.
type Ballot struct {
	Voter      string
	VotingID   uint32
	VotingType governance.VotingType
	Choice     governance.Choice
	Stake      governance.Amount
	Unbound    bool
	Canceled   bool
}

// Stats aggregates one phase of a voting.
type Stats struct {
	Ballots             []Ballot
	StakeInFavor        governance.Amount
	StakeAgainst        governance.Amount
	UnboundStakeInFavor governance.Amount
	UnboundStakeAgainst governance.Amount
}

func NewStats() Stats {
	return Stats{
		StakeInFavor:        governance.ZeroAmount(),
		StakeAgainst:        governance.ZeroAmount(),
		UnboundStakeInFavor: governance.ZeroAmount(),
		UnboundStakeAgainst: governance.ZeroAmount(),
	}
}

// VotersCount counts distinct voters, canceled ballots included.
func (s Stats) VotersCount() uint32 {
	return uint32(len(s.Ballots))
}

func (s Stats) TotalInFavor() governance.Amount {
	return s.StakeInFavor.Add(s.UnboundStakeInFavor)
}

func (s Stats) TotalAgainst() governance.Amount {
	return s.StakeAgainst.Add(s.UnboundStakeAgainst)
}

func (s Stats) TotalStake() governance.Amount {
	return s.TotalInFavor().Add(s.TotalAgainst())
}

func (s Stats) TotalBoundStake() governance.Amount {
	return s.StakeInFavor.Add(s.StakeAgainst)
}

func (s Stats) BallotOf(voter string) (Ballot, bool) {
	for _, ballot := range s.Ballots {
		if strings.EqualFold(ballot.Voter, voter) {
			return ballot, true
		}
	}
	return Ballot{}, false
}

func (s *Stats) add(ballot Ballot) {
	s.Ballots = append(s.Ballots, ballot)
	s.addTotals(ballot)
}

func (s *Stats) addTotals(ballot Ballot) {
	switch {
	case ballot.Unbound && ballot.Choice == governance.ChoiceInFavor:
		s.UnboundStakeInFavor = s.UnboundStakeInFavor.Add(ballot.Stake)
	case ballot.Unbound:
		s.UnboundStakeAgainst = s.UnboundStakeAgainst.Add(ballot.Stake)
	case ballot.Choice == governance.ChoiceInFavor:
		s.StakeInFavor = s.StakeInFavor.Add(ballot.Stake)
	default:
		s.StakeAgainst = s.StakeAgainst.Add(ballot.Stake)
	}
}

func (s *Stats) subtract(ballot Ballot) {
	switch {
	case ballot.Unbound && ballot.Choice == governance.ChoiceInFavor:
		s.UnboundStakeInFavor = s.UnboundStakeInFavor.Sub(ballot.Stake)
	case ballot.Unbound:
		s.UnboundStakeAgainst = s.UnboundStakeAgainst.Sub(ballot.Stake)
	case ballot.Choice == governance.ChoiceInFavor:
		s.StakeInFavor = s.StakeInFavor.Sub(ballot.Stake)
	default:
		s.StakeAgainst = s.StakeAgainst.Sub(ballot.Stake)
	}
}

// Voting is the two-phase voting aggregate. Phase windows are derived from
// CreatedAt and the configuration snapshot, so the stored state only records
// the irreversible transitions: informal finished, voting finished, canceled.
type Voting struct {
	ID             uint32
	Creator        string
	CreatedAt      time.Time
	State          governance.VotingState
	Configuration  governance.Configuration
	Informal       Stats
	Formal         Stats
	InformalResult governance.VotingResult
	FormalResult   governance.VotingResult
}

func NewVoting(id uint32, creator string, createdAt time.Time, cfg governance.Configuration) Voting {
	return Voting{
		ID:            id,
		Creator:       creator,
		CreatedAt:     createdAt.UTC(),
		State:         governance.VotingStateCreated,
		Configuration: cfg,
		Informal:      NewStats(),
		Formal:        NewStats(),
	}
}

func (v Voting) InformalStart() time.Time {
	return v.CreatedAt.Add(v.Configuration.VotingDelay())
}

func (v Voting) InformalEnd() time.Time {
	return v.InformalStart().Add(v.Configuration.InformalVotingTime())
}

func (v Voting) FormalStart() time.Time {
	return v.InformalEnd().Add(v.Configuration.TimeBetween())
}

func (v Voting) FormalEnd() time.Time {
	return v.FormalStart().Add(v.Configuration.FormalVotingTime())
}

func (v Voting) IsTerminal() bool {
	return v.State == governance.VotingStateFinished || v.State == governance.VotingStateCanceled
}

// StateAt derives the externally visible state from the clock. Stored state
// wins for irreversible transitions.
func (v Voting) StateAt(now time.Time) governance.VotingState {
	switch v.State {
	case governance.VotingStateFinished, governance.VotingStateCanceled:
		return v.State
	case governance.VotingStateBetweenVotings:
		if !now.Before(v.FormalStart()) {
			return governance.VotingStateFormal
		}
		return governance.VotingStateBetweenVotings
	default:
		if now.Before(v.InformalStart()) {
			return governance.VotingStateCreated
		}
		return governance.VotingStateInformal
	}
}

func (v *Voting) Stats(votingType governance.VotingType) *Stats {
	if votingType == governance.VotingTypeFormal {
		return &v.Formal
	}
	return &v.Informal
}

// GuardVote checks that a vote of the given type is admissible right now.
func (v Voting) GuardVote(votingType governance.VotingType, voter string, now time.Time) error {
	if v.State == governance.VotingStateCanceled {
		return domainerrors.ErrVotingAlreadyCanceled
	}
	if v.State == governance.VotingStateFinished {
		return domainerrors.ErrVoteOnCompletedVotingNotAllowed
	}
	if err := v.guardNoDoubleVote(votingType, voter); err != nil {
		return err
	}
	switch votingType {
	case governance.VotingTypeInformal:
		if v.State != governance.VotingStateCreated && v.State != governance.VotingStateInformal {
			return domainerrors.ErrVotingWithGivenTypeNotInProgress
		}
		if now.Before(v.InformalStart()) || !now.Before(v.InformalEnd()) {
			return domainerrors.ErrVotingWithGivenTypeNotInProgress
		}
	case governance.VotingTypeFormal:
		if v.State != governance.VotingStateBetweenVotings {
			return domainerrors.ErrVotingWithGivenTypeNotInProgress
		}
		if now.Before(v.FormalStart()) || !now.Before(v.FormalEnd()) {
			return domainerrors.ErrVotingWithGivenTypeNotInProgress
		}
	default:
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

// GuardCast checks ballot admissibility without the phase-window constraint,
// for ballots placed before voting opens.
func (v Voting) GuardCast(votingType governance.VotingType, voter string) error {
	if v.State == governance.VotingStateCanceled {
		return domainerrors.ErrVotingAlreadyCanceled
	}
	if v.State == governance.VotingStateFinished {
		return domainerrors.ErrVoteOnCompletedVotingNotAllowed
	}
	return v.guardNoDoubleVote(votingType, voter)
}

func (v Voting) guardNoDoubleVote(votingType governance.VotingType, voter string) error {
	stats := v.Informal
	if votingType == governance.VotingTypeFormal {
		stats = v.Formal
	}
	if ballot, ok := stats.BallotOf(voter); ok && !ballot.Canceled {
		return domainerrors.ErrCannotVoteTwice
	}
	return nil
}

// GuardFinish checks that the given phase can be settled right now.
func (v Voting) GuardFinish(votingType governance.VotingType, now time.Time) error {
	switch v.State {
	case governance.VotingStateCanceled:
		return domainerrors.ErrVotingAlreadyCanceled
	case governance.VotingStateFinished:
		return domainerrors.ErrFinishingCompletedVotingNotAllowed
	}
	switch votingType {
	case governance.VotingTypeInformal:
		if v.State != governance.VotingStateCreated && v.State != governance.VotingStateInformal {
			return domainerrors.ErrVotingWithGivenTypeNotInProgress
		}
		if now.Before(v.InformalEnd()) {
			return domainerrors.ErrInformalVotingTimeNotReached
		}
	case governance.VotingTypeFormal:
		if v.State != governance.VotingStateBetweenVotings {
			return domainerrors.ErrVotingWithGivenTypeNotInProgress
		}
		if now.Before(v.FormalEnd()) {
			return domainerrors.ErrFormalVotingTimeNotReached
		}
	default:
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

// AddBallot records a ballot and updates the phase totals. Callers guard
// admissibility first.
func (v *Voting) AddBallot(ballot Ballot) {
	v.Stats(ballot.VotingType).add(ballot)
}

// CancelBallot removes a voter's live ballot from the totals while keeping it
// in the voter list.
func (v *Voting) CancelBallot(votingType governance.VotingType, voter string) (Ballot, error) {
	stats := v.Stats(votingType)
	for i := range stats.Ballots {
		if !strings.EqualFold(stats.Ballots[i].Voter, voter) || stats.Ballots[i].Canceled {
			continue
		}
		stats.subtract(stats.Ballots[i])
		stats.Ballots[i].Canceled = true
		return stats.Ballots[i], nil
	}
	return Ballot{}, domainerrors.ErrBallotDoesNotExist
}

// BindBallot converts an unbound ballot into a bound one, moving its stake
// into the bound totals.
func (v *Voting) BindBallot(votingType governance.VotingType, voter string) (Ballot, error) {
	stats := v.Stats(votingType)
	for i := range stats.Ballots {
		if !strings.EqualFold(stats.Ballots[i].Voter, voter) || stats.Ballots[i].Canceled || !stats.Ballots[i].Unbound {
			continue
		}
		stats.subtract(stats.Ballots[i])
		stats.Ballots[i].Unbound = false
		stats.addTotals(stats.Ballots[i])
		return stats.Ballots[i], nil
	}
	return Ballot{}, domainerrors.ErrBallotDoesNotExist
}

// Result settles one phase: quorum by distinct voters, then stake comparison
// with ties resolved in favor.
func (v Voting) Result(votingType governance.VotingType) governance.VotingResult {
	stats := v.Informal
	if votingType == governance.VotingTypeFormal {
		stats = v.Formal
	}
	if stats.VotersCount() < v.Configuration.Quorum(votingType) {
		return governance.VotingResultQuorumNotReached
	}
	if stats.TotalInFavor().GTE(stats.TotalAgainst()) {
		return governance.VotingResultInFavor
	}
	return governance.VotingResultAgainst
}

// IsResultClose reports whether the informal outcome was within the clearness
// delta, expressed as a percentage of the total informal stake.
func (v Voting) IsResultClose() bool {
	stats := v.Informal
	total := stats.TotalStake()
	if total.IsZero() {
		return false
	}
	diff := governance.AbsDiff(stats.TotalInFavor(), stats.TotalAgainst())
	return governance.PercentOf(diff, total).LTE(v.Configuration.VotingClearnessDelta)
}

// DoubleTimeBetween extends the gap before the formal phase. The flag is a
// bool on the captured configuration, so a second call changes nothing.
func (v *Voting) DoubleTimeBetween() {
	v.Configuration.DoubleTimeBetweenVotings = true
}

// LiveBoundBallots lists the non-canceled bound ballots of a phase.
func (v Voting) LiveBoundBallots(votingType governance.VotingType) []Ballot {
	stats := v.Informal
	if votingType == governance.VotingTypeFormal {
		stats = v.Formal
	}
	ballots := make([]Ballot, 0, len(stats.Ballots))
	for _, ballot := range stats.Ballots {
		if ballot.Canceled || ballot.Unbound {
			continue
		}
		ballots = append(ballots, ballot)
	}
	return ballots
}

// LiveUnboundBallots lists the non-canceled unbound ballots of a phase.
func (v Voting) LiveUnboundBallots(votingType governance.VotingType) []Ballot {
	stats := v.Informal
	if votingType == governance.VotingTypeFormal {
		stats = v.Formal
	}
	ballots := make([]Ballot, 0, len(stats.Ballots))
	for _, ballot := range stats.Ballots {
		if ballot.Canceled || !ballot.Unbound {
			continue
		}
		ballots = append(ballots, ballot)
	}
	return ballots
}
