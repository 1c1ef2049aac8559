package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PostJobOfferRequest struct {
	MaxBudget         string `json:"max_budget"`
	ExpectedTimeframe string `json:"expected_timeframe"`
	DOSFee            string `json:"dos_fee"`
}

type SubmitBidRequest struct {
	ProposedTimeframe string `json:"proposed_timeframe"`
	ProposedPayment   string `json:"proposed_payment"`
	ReputationStake   string `json:"reputation_stake"`
	CurrencyStake     string `json:"currency_stake"`
	Onboard           bool   `json:"onboard"`
}

type PickBidRequest struct {
	BidID           uint32 `json:"bid_id"`
	AttachedPayment string `json:"attached_payment"`
}

type SubmitJobProofRequest struct {
	Proof string `json:"proof"`
}

type GracePeriodProofRequest struct {
	Proof           string `json:"proof"`
	ReputationStake string `json:"reputation_stake"`
	CurrencyStake   string `json:"currency_stake"`
	Onboard         bool   `json:"onboard"`
}

type VoteRequest struct {
	VotingType string `json:"voting_type"`
	Choice     string `json:"choice"`
	Stake      string `json:"stake"`
}

type FinishVotingRequest struct {
	VotingType string `json:"voting_type"`
}

type SlashVoterRequest struct {
	Voter string `json:"voter"`
}

type JobOfferResponse struct {
	JobOfferID        uint32 `json:"job_offer_id"`
	Poster            string `json:"poster"`
	MaxBudget         string `json:"max_budget"`
	ExpectedTimeframe string `json:"expected_timeframe"`
	DOSFee            string `json:"dos_fee"`
	StartTime         string `json:"start_time"`
	AuctionPhase      string `json:"auction_phase"`
	Status            string `json:"status"`
}

type BidResponse struct {
	BidID             uint32 `json:"bid_id"`
	JobOfferID        uint32 `json:"job_offer_id"`
	Worker            string `json:"worker"`
	ProposedTimeframe string `json:"proposed_timeframe"`
	ProposedPayment   string `json:"proposed_payment"`
	ReputationStake   string `json:"reputation_stake"`
	CurrencyStake     string `json:"currency_stake"`
	Onboard           bool   `json:"onboard"`
	Status            string `json:"status"`
}

type JobResponse struct {
	JobID               uint32 `json:"job_id"`
	BidID               uint32 `json:"bid_id"`
	JobOfferID          uint32 `json:"job_offer_id"`
	VotingID            uint32 `json:"voting_id,omitempty"`
	Poster              string `json:"poster"`
	Worker              string `json:"worker"`
	WorkerType          string `json:"worker_type"`
	Payment             string `json:"payment"`
	Stake               string `json:"stake"`
	ExternalWorkerStake string `json:"external_worker_stake"`
	FinishTime          string `json:"finish_time"`
	Status              string `json:"status"`
	FollowedBy          uint32 `json:"followed_by,omitempty"`
}

type VotingSummaryResponse struct {
	VotingID   uint32 `json:"voting_id"`
	VotingType string `json:"voting_type"`
	State      string `json:"state"`
	Result     string `json:"result,omitempty"`
}

type SlashVoterResponse struct {
	CanceledVotings []uint32 `json:"canceled_votings"`
	AffectedVotings []uint32 `json:"affected_votings"`
}
