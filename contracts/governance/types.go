// Package governance carries the contract vocabulary shared by the
// governance-core contexts: amounts, configuration snapshots, and the
// cross-context views exchanged through ports. Context-private entities stay
// inside their owning service; only types that travel between services live
// here.
package governance

// Choice is a ballot direction.
type Choice string

const (
	ChoiceInFavor Choice = "in_favor"
	ChoiceAgainst Choice = "against"
)

// VotingType names one of the two sequential phases of a voting.
type VotingType string

const (
	VotingTypeInformal VotingType = "informal"
	VotingTypeFormal   VotingType = "formal"
)

// VotingState is the lifecycle position of a voting state machine.
type VotingState string

const (
	VotingStateCreated        VotingState = "created"
	VotingStateInformal       VotingState = "informal"
	VotingStateBetweenVotings VotingState = "between_votings"
	VotingStateFormal         VotingState = "formal"
	VotingStateFinished       VotingState = "finished"
	VotingStateCanceled       VotingState = "canceled"
)

// VotingResult is the outcome of a finished phase.
type VotingResult string

const (
	VotingResultInFavor          VotingResult = "in_favor"
	VotingResultAgainst          VotingResult = "against"
	VotingResultQuorumNotReached VotingResult = "quorum_not_reached"
	VotingResultCanceled         VotingResult = "canceled"
)

// VotingSummary is the cross-context view of a voting returned by the voting
// engine to its consumers.
type VotingSummary struct {
	VotingID   uint32
	VotingType VotingType
	State      VotingState
	Result     VotingResult
}

// SlashSummary reports which votings a slash call touched.
type SlashSummary struct {
	CanceledVotings []uint32
	AffectedVotings []uint32
}

// AccountAmount is a batched (account, amount) pair used by the ledger's bulk
// operations.
type AccountAmount struct {
	Account string
	Amount  Amount
}

// AggregatedBalances pairs a subtotal supply with the balances that produced
// it, the inputs of every pro-rata redistribution.
type AggregatedBalances struct {
	Total    Amount
	Balances []AccountAmount
}
