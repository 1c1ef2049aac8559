package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateVotingRequest struct {
	Stake string `json:"stake"`
}

type VoteRequest struct {
	VotingType string `json:"voting_type"`
	Choice     string `json:"choice"`
	Stake      string `json:"stake"`
}

type FinishVotingRequest struct {
	VotingType string `json:"voting_type"`
}

type VotingSummaryResponse struct {
	VotingID   uint32 `json:"voting_id"`
	VotingType string `json:"voting_type"`
	State      string `json:"state"`
	Result     string `json:"result,omitempty"`
}

type PhaseStatsResponse struct {
	Voters              int    `json:"voters"`
	StakeInFavor        string `json:"stake_in_favor"`
	StakeAgainst        string `json:"stake_against"`
	UnboundStakeInFavor string `json:"unbound_stake_in_favor"`
	UnboundStakeAgainst string `json:"unbound_stake_against"`
}

type VotingResponse struct {
	VotingID    uint32             `json:"voting_id"`
	Creator     string             `json:"creator"`
	State       string             `json:"state"`
	CreatedAt   string             `json:"created_at"`
	InformalEnd string             `json:"informal_end"`
	FormalStart string             `json:"formal_start"`
	FormalEnd   string             `json:"formal_end"`
	Informal    PhaseStatsResponse `json:"informal"`
	Formal      PhaseStatsResponse `json:"formal"`
}

type SlashVoterRequest struct {
	Voter string `json:"voter"`
}

type SlashVoterResponse struct {
	CanceledVotings []uint32 `json:"canceled_votings"`
	AffectedVotings []uint32 `json:"affected_votings"`
}
