package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/bid-escrow/domain/entities"
	domainerrors "agora/contexts/governance-core/bid-escrow/domain/errors"
	"agora/contexts/governance-core/bid-escrow/ports"
	"agora/contracts/governance"
)

const (
	jobOfferNamespace = "job_offer"
	bidNamespace      = "bid"
	jobNamespace      = "job"
)

// Service runs the job marketplace: offers with two-window auctions, escrowed
// bids, and jobs adjudicated through the voting engine. Every offer captures
// a configuration snapshot at posting time; all of its bids, jobs, and
// votings settle under that snapshot.
type Service struct {
	Repo       ports.EscrowRepository
	Voting     ports.VotingEngine
	Ledger     ports.ReputationLedger
	Membership ports.MembershipToken
	Kyc        ports.KycToken
	Treasury   ports.Treasury
	Config     ports.ConfigurationSource
	Sequence   ports.SequenceGenerator
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// PostJobOffer escrows the poster's dos fee and opens the internal auction.
func (s Service) PostJobOffer(ctx context.Context, poster string, maxBudget governance.Amount, expectedTimeframe time.Duration, dosFee governance.Amount) (entities.JobOffer, error) {
	poster = strings.TrimSpace(poster)
	if poster == "" || maxBudget.IsNil() || dosFee.IsNil() {
		return entities.JobOffer{}, domainerrors.ErrInvalidRequest
	}
	hasKyc, err := s.Kyc.HasKyc(ctx, poster)
	if err != nil {
		return entities.JobOffer{}, err
	}
	if !hasKyc {
		return entities.JobOffer{}, domainerrors.ErrNotKycd
	}

	cfg, err := s.Config.Snapshot(ctx)
	if err != nil {
		return entities.JobOffer{}, err
	}
	cfg.IsBidEscrow = true
	// Job votings are created by the worker, who may not be onboarded yet.
	cfg.OnlyVACanCreate = false
	if dosFee.LT(cfg.PostJobDOSFee) {
		return entities.JobOffer{}, domainerrors.ErrDOSFeeTooLow
	}
	if err := s.Treasury.Deposit(ctx, poster, dosFee); err != nil {
		return entities.JobOffer{}, err
	}

	offerID, err := s.Sequence.NextID(ctx, jobOfferNamespace)
	if err != nil {
		return entities.JobOffer{}, err
	}
	offer := entities.JobOffer{
		ID:                offerID,
		Poster:            poster,
		MaxBudget:         maxBudget,
		ExpectedTimeframe: expectedTimeframe,
		DOSFee:            dosFee,
		StartTime:         s.now(),
		Status:            entities.JobOfferCreated,
		Configuration:     cfg,
	}
	if err := s.Repo.SaveJobOffer(ctx, offer); err != nil {
		return entities.JobOffer{}, err
	}
	if err := s.appendEvent(ctx, "bid_escrow.job_offer_created", offerID, map[string]any{
		"job_offer_id": offerID,
		"poster":       poster,
		"max_budget":   maxBudget.String(),
		"dos_fee":      dosFee.String(),
	}); err != nil {
		return entities.JobOffer{}, err
	}

	ResolveLogger(s.Logger).Info("job offer posted",
		"event", "job_offer_posted",
		"module", "governance-core/bid-escrow",
		"layer", "application",
		"job_offer_id", offerID,
		"poster", poster,
	)
	return offer, nil
}

// SubmitBid escrows the worker's stake: reputation for onboarded workers,
// native currency for external ones, never both.
func (s Service) SubmitBid(ctx context.Context, offerID uint32, worker string, proposedTimeframe time.Duration, proposedPayment governance.Amount, reputationStake governance.Amount, currencyStake governance.Amount, onboard bool) (entities.Bid, error) {
	worker = strings.TrimSpace(worker)
	if worker == "" || proposedPayment.IsNil() || reputationStake.IsNil() || currencyStake.IsNil() {
		return entities.Bid{}, domainerrors.ErrInvalidRequest
	}
	offer, err := s.Repo.GetJobOffer(ctx, offerID)
	if err != nil {
		return entities.Bid{}, err
	}
	if offer.Status != entities.JobOfferCreated {
		return entities.Bid{}, domainerrors.ErrAuctionNotRunning
	}
	if strings.EqualFold(worker, offer.Poster) {
		return entities.Bid{}, domainerrors.ErrPosterCannotBid
	}
	hasKyc, err := s.Kyc.HasKyc(ctx, worker)
	if err != nil {
		return entities.Bid{}, err
	}
	if !hasKyc {
		return entities.Bid{}, domainerrors.ErrNotKycd
	}
	if proposedPayment.GT(offer.MaxBudget) {
		return entities.Bid{}, domainerrors.ErrPaymentExceedsMaxBudget
	}

	onboarded, err := s.Membership.IsOnboarded(ctx, worker)
	if err != nil {
		return entities.Bid{}, err
	}
	if onboarded && onboard {
		return entities.Bid{}, domainerrors.ErrWorkerAlreadyOnboarded
	}

	now := s.now()
	switch offer.AuctionPhaseAt(now) {
	case entities.AuctionInternal:
		if !onboarded {
			return entities.Bid{}, domainerrors.ErrOnlyOnboardedWorkerCanBid
		}
	case entities.AuctionPublic:
		if onboarded && !offer.Configuration.VACanBidOnPublicAuction {
			return entities.Bid{}, domainerrors.ErrVACannotBidOnPublicAuction
		}
	default:
		return entities.Bid{}, domainerrors.ErrAuctionNotRunning
	}

	if err := guardStakeExclusivity(onboarded, reputationStake, currencyStake); err != nil {
		return entities.Bid{}, err
	}
	if onboarded {
		if err := s.Ledger.Stake(ctx, worker, reputationStake); err != nil {
			return entities.Bid{}, err
		}
	} else {
		if err := s.Treasury.Deposit(ctx, worker, currencyStake); err != nil {
			return entities.Bid{}, err
		}
	}

	bidID, err := s.Sequence.NextID(ctx, bidNamespace)
	if err != nil {
		return entities.Bid{}, err
	}
	bid := entities.Bid{
		ID:                bidID,
		OfferID:           offerID,
		Worker:            worker,
		ProposedTimeframe: proposedTimeframe,
		ProposedPayment:   proposedPayment,
		ReputationStake:   reputationStake,
		CurrencyStake:     currencyStake,
		Onboard:           onboard,
		Status:            entities.BidCreated,
		CreatedAt:         now,
	}
	if err := s.Repo.SaveBid(ctx, bid); err != nil {
		return entities.Bid{}, err
	}
	if err := s.appendEvent(ctx, "bid_escrow.bid_submitted", offerID, map[string]any{
		"job_offer_id":     offerID,
		"bid_id":           bidID,
		"worker":           worker,
		"proposed_payment": proposedPayment.String(),
	}); err != nil {
		return entities.Bid{}, err
	}
	return bid, nil
}

// CancelBid returns the worker's stake once the poster's acceptance window
// has lapsed without a pick.
func (s Service) CancelBid(ctx context.Context, bidID uint32, worker string) error {
	bid, err := s.Repo.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(bid.Worker, strings.TrimSpace(worker)) {
		return domainerrors.ErrCannotCancelNotOwnedBid
	}
	if bid.Status != entities.BidCreated {
		return domainerrors.ErrBidDoesNotExist
	}
	offer, err := s.Repo.GetJobOffer(ctx, bid.OfferID)
	if err != nil {
		return err
	}
	if offer.Status != entities.JobOfferCreated {
		return domainerrors.ErrCannotCancelBidOnCompletedJobOffer
	}
	if s.now().Before(bid.CreatedAt.Add(offer.Configuration.VABidAcceptanceTimeout)) {
		return domainerrors.ErrCannotCancelBidBeforeAcceptanceTimeout
	}

	if err := s.refundBid(ctx, bid, "bid_cancelled"); err != nil {
		return err
	}
	bid.Status = entities.BidCancelled
	if err := s.Repo.SaveBid(ctx, bid); err != nil {
		return err
	}
	return s.appendEvent(ctx, "bid_escrow.bid_cancelled", bid.OfferID, map[string]any{
		"job_offer_id": bid.OfferID,
		"bid_id":       bid.ID,
		"worker":       bid.Worker,
	})
}

// CancelJobOffer refunds every live bid and the poster's dos fee once the
// auction windows have closed without a pick.
func (s Service) CancelJobOffer(ctx context.Context, offerID uint32, poster string) error {
	offer, err := s.Repo.GetJobOffer(ctx, offerID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(offer.Poster, strings.TrimSpace(poster)) {
		return domainerrors.ErrOnlyJobPosterCanCancelJobOffer
	}
	if offer.Status != entities.JobOfferCreated {
		return domainerrors.ErrJobOfferDoesNotExist
	}
	if offer.AuctionPhaseAt(s.now()) != entities.AuctionClosed {
		return domainerrors.ErrJobOfferCannotBeYetCanceled
	}

	if err := s.releaseLiveBids(ctx, offerID, entities.BidCancelled, "job_offer_cancelled", 0); err != nil {
		return err
	}
	if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
		return err
	}
	offer.Status = entities.JobOfferCancelled
	if err := s.Repo.SaveJobOffer(ctx, offer); err != nil {
		return err
	}
	return s.appendEvent(ctx, "bid_escrow.job_offer_cancelled", offerID, map[string]any{
		"job_offer_id": offerID,
		"poster":       offer.Poster,
	})
}

// PickBid escrows the poster's payment, refunds every losing bid, and opens
// the job.
func (s Service) PickBid(ctx context.Context, offerID uint32, bidID uint32, caller string, attachedPayment governance.Amount) (entities.Job, error) {
	offer, err := s.Repo.GetJobOffer(ctx, offerID)
	if err != nil {
		return entities.Job{}, err
	}
	if !strings.EqualFold(offer.Poster, strings.TrimSpace(caller)) {
		return entities.Job{}, domainerrors.ErrOnlyJobPosterCanPickABid
	}
	if offer.Status != entities.JobOfferCreated {
		return entities.Job{}, domainerrors.ErrJobOfferDoesNotExist
	}
	bid, err := s.Repo.GetBid(ctx, bidID)
	if err != nil {
		return entities.Job{}, err
	}
	if bid.OfferID != offerID || bid.Status != entities.BidCreated {
		return entities.Job{}, domainerrors.ErrBidDoesNotExist
	}
	if attachedPayment.IsNil() || !attachedPayment.Equal(bid.ProposedPayment) {
		return entities.Job{}, domainerrors.ErrAttachedValueMismatch
	}

	if err := s.Treasury.Deposit(ctx, offer.Poster, attachedPayment); err != nil {
		return entities.Job{}, err
	}
	if err := s.releaseLiveBids(ctx, offerID, entities.BidRejected, "bid_not_picked", bid.ID); err != nil {
		return entities.Job{}, err
	}

	onboarded, err := s.Membership.IsOnboarded(ctx, bid.Worker)
	if err != nil {
		return entities.Job{}, err
	}
	workerType := entities.WorkerExternal
	switch {
	case onboarded:
		workerType = entities.WorkerInternal
	case bid.Onboard:
		workerType = entities.WorkerExternalToVA
	}

	jobID, err := s.Sequence.NextID(ctx, jobNamespace)
	if err != nil {
		return entities.Job{}, err
	}
	job := entities.Job{
		ID:                  jobID,
		BidID:               bid.ID,
		OfferID:             offerID,
		Poster:              offer.Poster,
		Worker:              bid.Worker,
		WorkerType:          workerType,
		Payment:             bid.ProposedPayment,
		Stake:               bid.ReputationStake,
		ExternalWorkerStake: bid.CurrencyStake,
		TimeForJob:          bid.ProposedTimeframe,
		StartTime:           s.now(),
		Status:              entities.JobCreated,
	}
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return entities.Job{}, err
	}

	bid.Status = entities.BidPicked
	if err := s.Repo.SaveBid(ctx, bid); err != nil {
		return entities.Job{}, err
	}
	offer.Status = entities.JobOfferSelected
	if err := s.Repo.SaveJobOffer(ctx, offer); err != nil {
		return entities.Job{}, err
	}

	if err := s.appendEvent(ctx, "bid_escrow.job_created", offerID, map[string]any{
		"job_offer_id": offerID,
		"job_id":       jobID,
		"bid_id":       bid.ID,
		"worker":       bid.Worker,
		"worker_type":  string(workerType),
		"payment":      bid.ProposedPayment.String(),
	}); err != nil {
		return entities.Job{}, err
	}

	ResolveLogger(s.Logger).Info("bid picked",
		"event", "bid_picked",
		"module", "governance-core/bid-escrow",
		"layer", "application",
		"job_offer_id", offerID,
		"job_id", jobID,
		"worker", bid.Worker,
	)
	return job, nil
}

// releaseLiveBids refunds every still-live bid of an offer except the spared
// one and moves them to the given terminal status.
func (s Service) releaseLiveBids(ctx context.Context, offerID uint32, status entities.BidStatus, reason string, sparedBidID uint32) error {
	bids, err := s.Repo.ListBidsForOffer(ctx, offerID)
	if err != nil {
		return err
	}
	unstakes := make([]governance.AccountAmount, 0, len(bids))
	for _, bid := range bids {
		if bid.ID == sparedBidID || bid.Status != entities.BidCreated {
			continue
		}
		if !bid.ReputationStake.IsZero() {
			unstakes = append(unstakes, governance.AccountAmount{Account: bid.Worker, Amount: bid.ReputationStake})
		} else if !bid.CurrencyStake.IsZero() {
			if err := s.Treasury.Withdraw(ctx, bid.Worker, bid.CurrencyStake, reason); err != nil {
				return err
			}
		}
		bid.Status = status
		if err := s.Repo.SaveBid(ctx, bid); err != nil {
			return err
		}
	}
	return s.Ledger.BulkUnstake(ctx, unstakes)
}

func (s Service) refundBid(ctx context.Context, bid entities.Bid, reason string) error {
	if !bid.ReputationStake.IsZero() {
		return s.Ledger.Unstake(ctx, bid.Worker, bid.ReputationStake)
	}
	if !bid.CurrencyStake.IsZero() {
		return s.Treasury.Withdraw(ctx, bid.Worker, bid.CurrencyStake, reason)
	}
	return nil
}

func guardStakeExclusivity(onboarded bool, reputationStake governance.Amount, currencyStake governance.Amount) error {
	if !reputationStake.IsZero() && !currencyStake.IsZero() {
		return domainerrors.ErrCannotStakeBothCurrencyAndReputation
	}
	if onboarded {
		if !currencyStake.IsZero() {
			return domainerrors.ErrOnboardedWorkerCannotStakeCurrency
		}
		if reputationStake.IsZero() {
			return domainerrors.ErrZeroStake
		}
		return nil
	}
	if !reputationStake.IsZero() {
		return domainerrors.ErrNotOnboardedWorkerMustStakeCurrency
	}
	if currencyStake.IsZero() {
		return domainerrors.ErrZeroStake
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) appendEvent(ctx context.Context, eventType string, offerID uint32, data map[string]any) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEscrowEnvelope(eventID, eventType, offerID, s.now(), data)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, envelope)
}
