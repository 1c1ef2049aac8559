package entities

import (
	"time"

	"agora/contracts/governance"
)

// WorkerType classifies the picked worker and drives the payout matrix.
type WorkerType string

const (
	// WorkerInternal is an onboarded voting-association member staking
	// reputation.
	WorkerInternal WorkerType = "internal"
	// WorkerExternalToVA is an external worker who requested onboarding on a
	// successful job.
	WorkerExternalToVA WorkerType = "external_to_va"
	// WorkerExternal is an external worker staying external.
	WorkerExternal WorkerType = "external"
)

type JobOfferStatus string

const (
	JobOfferCreated   JobOfferStatus = "created"
	JobOfferSelected  JobOfferStatus = "selected"
	JobOfferCancelled JobOfferStatus = "cancelled"
)

type BidStatus string

const (
	BidCreated   BidStatus = "created"
	BidPicked    BidStatus = "picked"
	BidCancelled BidStatus = "cancelled"
	BidRejected  BidStatus = "rejected"
	// BidReclaimed marks the original bid after a grace-period takeover.
	BidReclaimed BidStatus = "reclaimed"
)

type JobStatus string

const (
	JobCreated   JobStatus = "created"
	JobSubmitted JobStatus = "submitted"
	JobDone      JobStatus = "done"
	JobRejected  JobStatus = "rejected"
	JobCancelled JobStatus = "cancelled"
)

// AuctionPhase is the bidding window a job offer is currently in.
type AuctionPhase string

const (
	AuctionInternal AuctionPhase = "internal"
	AuctionPublic   AuctionPhase = "public"
	AuctionClosed   AuctionPhase = "closed"
)

// JobOffer is a posted piece of work with its captured configuration. The
// snapshot pins auction windows and the whole payout matrix for the offer's
// entire lifetime.
type JobOffer struct {
	ID                uint32
	Poster            string
	MaxBudget         governance.Amount
	ExpectedTimeframe time.Duration
	DOSFee            governance.Amount
	StartTime         time.Time
	Status            JobOfferStatus
	Configuration     governance.Configuration
}

// AuctionPhaseAt places the clock inside the offer's bidding windows: first
// the internal window for onboarded workers, then the public one.
func (o JobOffer) AuctionPhaseAt(now time.Time) AuctionPhase {
	internalEnd := o.StartTime.Add(o.Configuration.InternalAuctionTime)
	publicEnd := internalEnd.Add(o.Configuration.PublicAuctionTime)
	switch {
	case now.Before(o.StartTime):
		return AuctionClosed
	case now.Before(internalEnd):
		return AuctionInternal
	case now.Before(publicEnd):
		return AuctionPublic
	default:
		return AuctionClosed
	}
}

// Bid is a worker's offer to do the job. Exactly one of ReputationStake and
// CurrencyStake is non-zero, depending on whether the worker is onboarded.
type Bid struct {
	ID                uint32
	OfferID           uint32
	Worker            string
	ProposedTimeframe time.Duration
	ProposedPayment   governance.Amount
	ReputationStake   governance.Amount
	CurrencyStake     governance.Amount
	Onboard           bool
	Status            BidStatus
	CreatedAt         time.Time
}

// Job is the picked work in flight. FollowedBy links to the replacement job
// created by a grace-period takeover.
type Job struct {
	ID                  uint32
	BidID               uint32
	OfferID             uint32
	VotingID            uint32
	Proof               string
	Poster              string
	Worker              string
	WorkerType          WorkerType
	Payment             governance.Amount
	Stake               governance.Amount
	ExternalWorkerStake governance.Amount
	TimeForJob          time.Duration
	StartTime           time.Time
	Status              JobStatus
	FollowedBy          uint32
}

// FinishTime is the proof-submission deadline.
func (j Job) FinishTime() time.Time {
	return j.StartTime.Add(j.TimeForJob)
}

// IsGracePeriod reports whether another worker may take the job over: one
// TimeForJob-sized window after the missed deadline.
func (j Job) IsGracePeriod(now time.Time) bool {
	graceEnd := j.FinishTime().Add(j.TimeForJob)
	return !now.Before(j.FinishTime()) && now.Before(graceEnd)
}

// GraceOver reports whether the takeover window has also expired.
func (j Job) GraceOver(now time.Time) bool {
	return !now.Before(j.FinishTime().Add(j.TimeForJob))
}
