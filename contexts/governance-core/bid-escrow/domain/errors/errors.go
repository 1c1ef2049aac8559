package errors

import "errors"

var (
	ErrJobOfferDoesNotExist = errors.New("job offer does not exist")
	ErrBidDoesNotExist      = errors.New("bid does not exist")
	ErrJobDoesNotExist      = errors.New("job does not exist")

	ErrNotKycd         = errors.New("caller has not passed kyc")
	ErrDOSFeeTooLow    = errors.New("dos fee below the configured minimum")
	ErrPosterCannotBid = errors.New("job poster cannot bid on own offer")

	ErrAuctionNotRunning          = errors.New("auction is not running")
	ErrOnlyOnboardedWorkerCanBid  = errors.New("only onboarded workers can bid during the internal auction")
	ErrVACannotBidOnPublicAuction = errors.New("onboarded workers cannot bid on the public auction")
	ErrWorkerAlreadyOnboarded     = errors.New("worker is already onboarded")
	ErrPaymentExceedsMaxBudget    = errors.New("proposed payment exceeds the offer's max budget")

	ErrZeroStake                            = errors.New("stake must be greater than zero")
	ErrNotOnboardedWorkerMustStakeCurrency  = errors.New("external workers must stake currency")
	ErrOnboardedWorkerCannotStakeCurrency   = errors.New("onboarded workers cannot stake currency")
	ErrCannotStakeBothCurrencyAndReputation = errors.New("cannot stake both currency and reputation")
	ErrAttachedValueMismatch                = errors.New("attached value does not match the proposed payment")

	ErrCannotCancelNotOwnedBid                = errors.New("only the bid creator can cancel it")
	ErrCannotCancelBidBeforeAcceptanceTimeout = errors.New("cannot cancel bid before the acceptance timeout")
	ErrCannotCancelBidOnCompletedJobOffer     = errors.New("cannot cancel bid on a completed job offer")
	ErrOnlyJobPosterCanPickABid               = errors.New("only the job poster can pick a bid")
	ErrJobOfferCannotBeYetCanceled            = errors.New("job offer cannot be canceled while the auction runs")
	ErrOnlyJobPosterCanCancelJobOffer         = errors.New("only the job poster can cancel the offer")

	ErrOnlyWorkerCanSubmitProof  = errors.New("only the picked worker can submit proof")
	ErrJobAlreadySubmitted       = errors.New("job proof already submitted")
	ErrJobProofNotSubmitted      = errors.New("job proof not submitted yet")
	ErrNotInGracePeriod          = errors.New("job is not in its grace period")
	ErrCannotCancelJob           = errors.New("job cannot be canceled before the grace period ends")
	ErrOnlyJobPosterCanCancelJob = errors.New("only the job poster can cancel the job")

	ErrCannotVoteOnOwnJob = errors.New("job poster and worker cannot vote on the job")
	ErrInvalidRequest     = errors.New("invalid request")
)
