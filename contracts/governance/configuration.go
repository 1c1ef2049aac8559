package governance

import "time"

// Configuration is the immutable snapshot of governance parameters captured
// when a voting or job offer is created. Later variable updates never affect
// in-flight processes. The only post-capture mutation is the one-time
// DoubleTimeBetweenVotings flag set when an informal result is statistically
// close.
type Configuration struct {
	PostJobDOSFee       Amount
	InternalAuctionTime time.Duration
	PublicAuctionTime   time.Duration

	// Per-mille ratios.
	DefaultPolicingRate      Amount
	ReputationConversionRate Amount
	DefaultReputationSlash   Amount
	BidEscrowPaymentRatio    Amount

	// Percentage points; see IsResultClose in the voting engine.
	VotingClearnessDelta Amount

	// Quorum ratios are per-mille of TotalOnboarded.
	InformalQuorumRatio          Amount
	FormalQuorumRatio            Amount
	BidEscrowInformalQuorumRatio Amount
	BidEscrowFormalQuorumRatio   Amount

	InformalVotingDuration          time.Duration
	FormalVotingDuration            time.Duration
	BidEscrowInformalVotingDuration time.Duration
	BidEscrowFormalVotingDuration   time.Duration
	TimeBetweenVotings              time.Duration
	VotingStartAfterJobSubmission   time.Duration
	VABidAcceptanceTimeout          time.Duration

	InformalStakeReputation      bool
	DistributePaymentToNonVoters bool
	VACanBidOnPublicAuction      bool
	OnlyVACanCreate              bool
	IsBidEscrow                  bool
	DoubleTimeBetweenVotings     bool

	// Set transiently by the bid escrow before a formal finish so the voting
	// engine can convert the worker's provisional ballot into custodied stake
	// on success.
	BindBallotForSuccessfulVoting bool
	UnboundBallotAddress          string

	BidEscrowWalletAddress string
	TotalOnboarded         uint32
}

func (c Configuration) InformalVotingTime() time.Duration {
	if c.IsBidEscrow {
		return c.BidEscrowInformalVotingDuration
	}
	return c.InformalVotingDuration
}

func (c Configuration) FormalVotingTime() time.Duration {
	if c.IsBidEscrow {
		return c.BidEscrowFormalVotingDuration
	}
	return c.FormalVotingDuration
}

// InformalQuorum is the minimum number of distinct voters for a binding
// informal result, computed per-mille of the captured onboarded count.
func (c Configuration) InformalQuorum() uint32 {
	if c.IsBidEscrow {
		return quorum(c.TotalOnboarded, c.BidEscrowInformalQuorumRatio)
	}
	return quorum(c.TotalOnboarded, c.InformalQuorumRatio)
}

func (c Configuration) FormalQuorum() uint32 {
	if c.IsBidEscrow {
		return quorum(c.TotalOnboarded, c.BidEscrowFormalQuorumRatio)
	}
	return quorum(c.TotalOnboarded, c.FormalQuorumRatio)
}

func (c Configuration) Quorum(votingType VotingType) uint32 {
	if votingType == VotingTypeFormal {
		return c.FormalQuorum()
	}
	return c.InformalQuorum()
}

// TimeBetween is the wait before the formal phase opens, doubled once when
// the informal result was close.
func (c Configuration) TimeBetween() time.Duration {
	if c.DoubleTimeBetweenVotings {
		return 2 * c.TimeBetweenVotings
	}
	return c.TimeBetweenVotings
}

// VotingDelay postpones the informal phase for escrow votings so ballots can
// be inspected before voting opens; plain votings start immediately.
func (c Configuration) VotingDelay() time.Duration {
	if c.IsBidEscrow {
		return c.VotingStartAfterJobSubmission
	}
	return 0
}

// ShouldCastFirstVote reports whether voting creation also casts the
// creator's in-favor ballot. Escrow votings cast the worker ballot explicitly
// instead.
func (c Configuration) ShouldCastFirstVote() bool {
	return !c.IsBidEscrow
}

func (c Configuration) ApplyDefaultPolicingRateTo(value Amount) Amount {
	return PerMil(value, c.DefaultPolicingRate)
}

func (c Configuration) ApplyReputationConversionRateTo(value Amount) Amount {
	return PerMil(value, c.ReputationConversionRate)
}

func (c Configuration) ApplyDefaultReputationSlashTo(value Amount) Amount {
	return PerMil(value, c.DefaultReputationSlash)
}

func (c Configuration) ApplyBidEscrowPaymentRatioTo(value Amount) Amount {
	return PerMil(value, c.BidEscrowPaymentRatio)
}

func quorum(totalOnboarded uint32, ratio Amount) uint32 {
	return uint32(PerMil(NewAmount(uint64(totalOnboarded)), ratio).Uint64())
}
