package application

// Keys of the governance parameters the configuration snapshot reads.
// Amounts are decimal strings, durations Go duration strings, flags
// strconv-parsable bools.
const (
	KeyPostJobDOSFee                 = "PostJobDOSFee"
	KeyInternalAuctionTime           = "InternalAuctionTime"
	KeyPublicAuctionTime             = "PublicAuctionTime"
	KeyDefaultPolicingRate           = "DefaultPolicingRate"
	KeyReputationConversionRate      = "ReputationConversionRate"
	KeyDefaultReputationSlash        = "DefaultReputationSlash"
	KeyBidEscrowPaymentRatio         = "BidEscrowPaymentRatio"
	KeyVotingClearnessDelta          = "VotingClearnessDelta"
	KeyInformalQuorumRatio           = "GovernanceInformalQuorumRatio"
	KeyFormalQuorumRatio             = "GovernanceFormalQuorumRatio"
	KeyBidEscrowInformalQuorumRatio  = "BidEscrowInformalQuorumRatio"
	KeyBidEscrowFormalQuorumRatio    = "BidEscrowFormalQuorumRatio"
	KeyInformalVotingTime            = "GovernanceInformalVotingTime"
	KeyFormalVotingTime              = "GovernanceFormalVotingTime"
	KeyBidEscrowInformalVotingTime   = "BidEscrowInformalVotingTime"
	KeyBidEscrowFormalVotingTime     = "BidEscrowFormalVotingTime"
	KeyTimeBetweenVotings            = "TimeBetweenInformalAndFormalVoting"
	KeyVotingStartAfterJobSubmission = "VotingStartAfterJobSubmission"
	KeyVABidAcceptanceTimeout        = "VABidAcceptanceTimeout"
	KeyInformalStakeReputation       = "InformalStakeReputation"
	KeyDistributePaymentToNonVoters  = "DistributePaymentToNonVoters"
	KeyVACanBidOnPublicAuction       = "VACanBidOnPublicAuction"
	KeyOnlyVACanCreate               = "OnlyVACanCreate"
	KeyBidEscrowWalletAddress        = "BidEscrowWalletAddress"
)

// defaults apply when a variable was never set.
var defaults = map[string]string{
	KeyPostJobDOSFee:                 "10000",
	KeyInternalAuctionTime:           "168h",
	KeyPublicAuctionTime:             "240h",
	KeyDefaultPolicingRate:           "300",
	KeyReputationConversionRate:      "100",
	KeyDefaultReputationSlash:        "100",
	KeyBidEscrowPaymentRatio:         "100",
	KeyVotingClearnessDelta:          "8",
	KeyInformalQuorumRatio:           "500",
	KeyFormalQuorumRatio:             "500",
	KeyBidEscrowInformalQuorumRatio:  "500",
	KeyBidEscrowFormalQuorumRatio:    "500",
	KeyInformalVotingTime:            "120h",
	KeyFormalVotingTime:              "120h",
	KeyBidEscrowInformalVotingTime:   "120h",
	KeyBidEscrowFormalVotingTime:     "120h",
	KeyTimeBetweenVotings:            "48h",
	KeyVotingStartAfterJobSubmission: "72h",
	KeyVABidAcceptanceTimeout:        "48h",
	KeyInformalStakeReputation:       "true",
	KeyDistributePaymentToNonVoters:  "true",
	KeyVACanBidOnPublicAuction:       "false",
	KeyOnlyVACanCreate:               "true",
	KeyBidEscrowWalletAddress:        "",
}
