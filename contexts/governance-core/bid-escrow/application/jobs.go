package application

import (
	"context"
	"strings"

	"agora/contexts/governance-core/bid-escrow/domain/entities"
	domainerrors "agora/contexts/governance-core/bid-escrow/domain/errors"
	"agora/contracts/governance"
)

// SubmitJobProof records the worker's proof and opens the adjudicating
// voting. The worker's bid stake is converted to voting weight: reputation
// stakes are reused directly, currency stakes through the configured
// conversion rate.
func (s Service) SubmitJobProof(ctx context.Context, jobID uint32, worker string, proof string) (entities.Job, error) {
	job, err := s.Repo.GetJob(ctx, jobID)
	if err != nil {
		return entities.Job{}, err
	}
	if !strings.EqualFold(job.Worker, strings.TrimSpace(worker)) {
		return entities.Job{}, domainerrors.ErrOnlyWorkerCanSubmitProof
	}
	if job.Status != entities.JobCreated {
		return entities.Job{}, domainerrors.ErrJobAlreadySubmitted
	}
	offer, err := s.Repo.GetJobOffer(ctx, job.OfferID)
	if err != nil {
		return entities.Job{}, err
	}
	return s.openJobVoting(ctx, offer, job, proof)
}

// SubmitJobProofDuringGracePeriod lets a new KYC'd worker take over a job
// whose original worker missed the deadline. The original worker's stake is
// forfeited and, if they are onboarded, their balance is slashed on top.
func (s Service) SubmitJobProofDuringGracePeriod(ctx context.Context, jobID uint32, newWorker string, proof string, reputationStake governance.Amount, currencyStake governance.Amount, onboard bool) (entities.Job, error) {
	newWorker = strings.TrimSpace(newWorker)
	if newWorker == "" || reputationStake.IsNil() || currencyStake.IsNil() {
		return entities.Job{}, domainerrors.ErrInvalidRequest
	}
	job, err := s.Repo.GetJob(ctx, jobID)
	if err != nil {
		return entities.Job{}, err
	}
	if job.Status != entities.JobCreated {
		return entities.Job{}, domainerrors.ErrJobAlreadySubmitted
	}
	if !job.IsGracePeriod(s.now()) {
		return entities.Job{}, domainerrors.ErrNotInGracePeriod
	}
	hasKyc, err := s.Kyc.HasKyc(ctx, newWorker)
	if err != nil {
		return entities.Job{}, err
	}
	if !hasKyc {
		return entities.Job{}, domainerrors.ErrNotKycd
	}
	offer, err := s.Repo.GetJobOffer(ctx, job.OfferID)
	if err != nil {
		return entities.Job{}, err
	}

	onboarded, err := s.Membership.IsOnboarded(ctx, newWorker)
	if err != nil {
		return entities.Job{}, err
	}
	if onboarded && onboard {
		return entities.Job{}, domainerrors.ErrWorkerAlreadyOnboarded
	}
	if err := guardStakeExclusivity(onboarded, reputationStake, currencyStake); err != nil {
		return entities.Job{}, err
	}

	if err := s.punishAbandoningWorker(ctx, offer, job); err != nil {
		return entities.Job{}, err
	}

	oldBid, err := s.Repo.GetBid(ctx, job.BidID)
	if err != nil {
		return entities.Job{}, err
	}
	oldBid.Status = entities.BidReclaimed
	if err := s.Repo.SaveBid(ctx, oldBid); err != nil {
		return entities.Job{}, err
	}

	if onboarded {
		if err := s.Ledger.Stake(ctx, newWorker, reputationStake); err != nil {
			return entities.Job{}, err
		}
	} else {
		if err := s.Treasury.Deposit(ctx, newWorker, currencyStake); err != nil {
			return entities.Job{}, err
		}
	}

	bidID, err := s.Sequence.NextID(ctx, bidNamespace)
	if err != nil {
		return entities.Job{}, err
	}
	newBid := entities.Bid{
		ID:                bidID,
		OfferID:           job.OfferID,
		Worker:            newWorker,
		ProposedTimeframe: job.TimeForJob,
		ProposedPayment:   job.Payment,
		ReputationStake:   reputationStake,
		CurrencyStake:     currencyStake,
		Onboard:           onboard,
		Status:            entities.BidPicked,
		CreatedAt:         s.now(),
	}
	if err := s.Repo.SaveBid(ctx, newBid); err != nil {
		return entities.Job{}, err
	}

	workerType := entities.WorkerExternal
	switch {
	case onboarded:
		workerType = entities.WorkerInternal
	case onboard:
		workerType = entities.WorkerExternalToVA
	}
	newJobID, err := s.Sequence.NextID(ctx, jobNamespace)
	if err != nil {
		return entities.Job{}, err
	}
	newJob := entities.Job{
		ID:                  newJobID,
		BidID:               newBid.ID,
		OfferID:             job.OfferID,
		Poster:              job.Poster,
		Worker:              newWorker,
		WorkerType:          workerType,
		Payment:             job.Payment,
		Stake:               reputationStake,
		ExternalWorkerStake: currencyStake,
		TimeForJob:          job.TimeForJob,
		StartTime:           s.now(),
		Status:              entities.JobCreated,
	}
	if err := s.Repo.SaveJob(ctx, newJob); err != nil {
		return entities.Job{}, err
	}

	job.Status = entities.JobCancelled
	job.FollowedBy = newJob.ID
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return entities.Job{}, err
	}
	if err := s.appendEvent(ctx, "bid_escrow.job_reclaimed", job.OfferID, map[string]any{
		"job_offer_id": job.OfferID,
		"job_id":       job.ID,
		"new_job_id":   newJob.ID,
		"old_worker":   job.Worker,
		"new_worker":   newWorker,
	}); err != nil {
		return entities.Job{}, err
	}

	return s.openJobVoting(ctx, offer, newJob, proof)
}

// punishAbandoningWorker forfeits the abandoning worker's stake and applies
// the punitive balance slash to onboarded workers.
func (s Service) punishAbandoningWorker(ctx context.Context, offer entities.JobOffer, job entities.Job) error {
	cfg := offer.Configuration
	if job.WorkerType == entities.WorkerInternal {
		if err := s.Ledger.Unstake(ctx, job.Worker, job.Stake); err != nil {
			return err
		}
		if err := s.Ledger.Burn(ctx, job.Worker, job.Stake); err != nil {
			return err
		}
	} else if !job.ExternalWorkerStake.IsZero() {
		if err := s.forfeitToGovernance(ctx, cfg, job.ExternalWorkerStake, "abandoned_job_stake"); err != nil {
			return err
		}
	}

	onboarded, err := s.Membership.IsOnboarded(ctx, job.Worker)
	if err != nil {
		return err
	}
	if onboarded {
		balance, err := s.Ledger.BalanceOf(ctx, job.Worker)
		if err != nil {
			return err
		}
		slash := cfg.ApplyDefaultReputationSlashTo(balance)
		if !slash.IsZero() {
			if err := s.Ledger.Burn(ctx, job.Worker, slash); err != nil {
				return err
			}
		}
	}
	return nil
}

// openJobVoting releases the bid's reputation hold, derives the worker's
// voting weight, and creates the two-phase voting with the worker's in-favor
// ballot cast.
func (s Service) openJobVoting(ctx context.Context, offer entities.JobOffer, job entities.Job, proof string) (entities.Job, error) {
	cfg := offer.Configuration
	stakeForVoting := job.Stake
	unbound := job.WorkerType != entities.WorkerInternal
	if job.WorkerType == entities.WorkerInternal {
		if err := s.Ledger.Unstake(ctx, job.Worker, job.Stake); err != nil {
			return entities.Job{}, err
		}
	} else {
		stakeForVoting = cfg.ApplyReputationConversionRateTo(job.ExternalWorkerStake)
	}
	if stakeForVoting.IsZero() {
		return entities.Job{}, domainerrors.ErrZeroStake
	}

	cfg.BindBallotForSuccessfulVoting = unbound
	cfg.UnboundBallotAddress = job.Worker
	summary, err := s.Voting.CreateVoting(ctx, job.Worker, governance.ZeroAmount(), cfg)
	if err != nil {
		return entities.Job{}, err
	}
	if err := s.Voting.CastBallot(ctx, summary.VotingID, governance.VotingTypeInformal, job.Worker, governance.ChoiceInFavor, stakeForVoting, unbound); err != nil {
		return entities.Job{}, err
	}

	job.VotingID = summary.VotingID
	job.Proof = proof
	job.Status = entities.JobSubmitted
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return entities.Job{}, err
	}
	if err := s.appendEvent(ctx, "bid_escrow.job_proof_submitted", job.OfferID, map[string]any{
		"job_offer_id": job.OfferID,
		"job_id":       job.ID,
		"voting_id":    summary.VotingID,
		"worker":       job.Worker,
	}); err != nil {
		return entities.Job{}, err
	}

	ResolveLogger(s.Logger).Info("job proof submitted",
		"event", "job_proof_submitted",
		"module", "governance-core/bid-escrow",
		"layer", "application",
		"job_id", job.ID,
		"voting_id", summary.VotingID,
	)
	return job, nil
}

// Vote forwards a ballot to the job's voting. The poster and the worker are
// excluded; everything else is guarded by the voting engine.
func (s Service) Vote(ctx context.Context, jobID uint32, votingType governance.VotingType, voter string, choice governance.Choice, stake governance.Amount) error {
	voter = strings.TrimSpace(voter)
	job, err := s.Repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != entities.JobSubmitted {
		return domainerrors.ErrJobProofNotSubmitted
	}
	if strings.EqualFold(voter, job.Poster) || strings.EqualFold(voter, job.Worker) {
		return domainerrors.ErrCannotVoteOnOwnJob
	}
	return s.Voting.Vote(ctx, job.VotingID, votingType, voter, choice, stake)
}

// FinishVoting closes the requested phase of the job's voting and settles the
// escrowed currency according to the phase, result, and worker type.
func (s Service) FinishVoting(ctx context.Context, jobID uint32, votingType governance.VotingType) (governance.VotingSummary, error) {
	job, err := s.Repo.GetJob(ctx, jobID)
	if err != nil {
		return governance.VotingSummary{}, err
	}
	if job.Status != entities.JobSubmitted {
		return governance.VotingSummary{}, domainerrors.ErrJobProofNotSubmitted
	}
	offer, err := s.Repo.GetJobOffer(ctx, job.OfferID)
	if err != nil {
		return governance.VotingSummary{}, err
	}
	summary, err := s.Voting.FinishVoting(ctx, job.VotingID, votingType)
	if err != nil {
		return governance.VotingSummary{}, err
	}

	if votingType == governance.VotingTypeInformal {
		if summary.Result == governance.VotingResultQuorumNotReached {
			if err := s.settleAbortedJob(ctx, offer, job); err != nil {
				return governance.VotingSummary{}, err
			}
		}
		return summary, nil
	}

	switch summary.Result {
	case governance.VotingResultInFavor:
		if err := s.settleAcceptedJob(ctx, offer, job); err != nil {
			return governance.VotingSummary{}, err
		}
	case governance.VotingResultAgainst:
		if err := s.settleRejectedJob(ctx, offer, job); err != nil {
			return governance.VotingSummary{}, err
		}
	case governance.VotingResultQuorumNotReached:
		if err := s.settleAbortedJob(ctx, offer, job); err != nil {
			return governance.VotingSummary{}, err
		}
	}
	return summary, nil
}

// settleAcceptedJob pays everyone out after a formal in-favor result: the
// governance wallet takes its payment cut, the remaining currency goes to the
// worker and the voters according to worker type, the worker earns converted
// reputation less the policing cut paid to voters, and external stakes plus
// the poster's dos fee come back.
func (s Service) settleAcceptedJob(ctx context.Context, offer entities.JobOffer, job entities.Job) error {
	cfg := offer.Configuration

	remainder, err := s.forfeitGovernanceCut(ctx, cfg, job.Payment, "job_payment_governance_share")
	if err != nil {
		return err
	}
	sharedCurrency := remainder
	if job.WorkerType == entities.WorkerExternal {
		// External workers stay outside the reputation economy and take their
		// payment share in currency; only the policing cut is shared out.
		sharedCurrency = cfg.ApplyDefaultPolicingRateTo(remainder)
		workerCurrency := remainder.Sub(sharedCurrency)
		if !workerCurrency.IsZero() {
			if err := s.Treasury.Withdraw(ctx, job.Worker, workerCurrency, "job_payment_worker_share"); err != nil {
				return err
			}
		}
	}
	if cfg.DistributePaymentToNonVoters {
		err = s.redistributeToAllVAs(ctx, sharedCurrency, "job_payment_share")
	} else {
		err = s.redistributeToVoters(ctx, job.VotingID, sharedCurrency, "job_payment_share")
	}
	if err != nil {
		return err
	}

	if job.WorkerType == entities.WorkerExternalToVA {
		// The formal win bound the worker's provisional ballot, minting the
		// converted stake; the currency stake is refunded below, so the mint
		// is burned back.
		converted := cfg.ApplyReputationConversionRateTo(job.ExternalWorkerStake)
		if !converted.IsZero() {
			if err := s.Ledger.Burn(ctx, job.Worker, converted); err != nil {
				return err
			}
		}
	}

	repTotal := cfg.ApplyReputationConversionRateTo(job.Payment)
	policing := cfg.ApplyDefaultPolicingRateTo(repTotal)
	workerShare := repTotal.Sub(policing)
	if err := s.mintToVoters(ctx, job.VotingID, policing); err != nil {
		return err
	}
	if !workerShare.IsZero() {
		if job.WorkerType == entities.WorkerExternal {
			err = s.Ledger.MintPassive(ctx, job.Worker, workerShare)
		} else {
			err = s.Ledger.Mint(ctx, job.Worker, workerShare)
		}
		if err != nil {
			return err
		}
	}

	if !job.ExternalWorkerStake.IsZero() {
		if err := s.Treasury.Withdraw(ctx, job.Worker, job.ExternalWorkerStake, "worker_stake_refund"); err != nil {
			return err
		}
	}
	if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
		return err
	}
	if job.WorkerType == entities.WorkerExternalToVA {
		if err := s.Membership.Mint(ctx, job.Worker); err != nil {
			return err
		}
	}

	job.Status = entities.JobDone
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return err
	}
	return s.appendEvent(ctx, "bid_escrow.job_done", job.OfferID, map[string]any{
		"job_offer_id": job.OfferID,
		"job_id":       job.ID,
		"worker":       job.Worker,
		"payment":      job.Payment.String(),
	})
}

// settleRejectedJob returns the poster's funds after a formal against result.
// Internal workers take the punitive balance slash on top of the stake the
// voting engine already burned; external stakes are forfeited to governance
// and the onboarded members.
func (s Service) settleRejectedJob(ctx context.Context, offer entities.JobOffer, job entities.Job) error {
	cfg := offer.Configuration

	if err := s.Treasury.Withdraw(ctx, offer.Poster, job.Payment, "job_payment_refund"); err != nil {
		return err
	}
	if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
		return err
	}

	if job.WorkerType == entities.WorkerInternal {
		balance, err := s.Ledger.BalanceOf(ctx, job.Worker)
		if err != nil {
			return err
		}
		slash := cfg.ApplyDefaultReputationSlashTo(balance)
		if !slash.IsZero() {
			if err := s.Ledger.Burn(ctx, job.Worker, slash); err != nil {
				return err
			}
		}
	} else if !job.ExternalWorkerStake.IsZero() {
		if err := s.forfeitToGovernance(ctx, cfg, job.ExternalWorkerStake, "forfeited_worker_stake"); err != nil {
			return err
		}
	}

	job.Status = entities.JobRejected
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return err
	}
	return s.appendEvent(ctx, "bid_escrow.job_rejected", job.OfferID, map[string]any{
		"job_offer_id": job.OfferID,
		"job_id":       job.ID,
		"worker":       job.Worker,
	})
}

// settleAbortedJob unwinds a voting that never reached quorum: poster funds
// and the external worker stake come back, nobody is rewarded or punished.
func (s Service) settleAbortedJob(ctx context.Context, offer entities.JobOffer, job entities.Job) error {
	if err := s.Treasury.Withdraw(ctx, offer.Poster, job.Payment, "job_payment_refund"); err != nil {
		return err
	}
	if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
		return err
	}
	if !job.ExternalWorkerStake.IsZero() {
		if err := s.Treasury.Withdraw(ctx, job.Worker, job.ExternalWorkerStake, "worker_stake_refund"); err != nil {
			return err
		}
	}
	job.Status = entities.JobCancelled
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return err
	}
	return s.appendEvent(ctx, "bid_escrow.job_cancelled", job.OfferID, map[string]any{
		"job_offer_id": job.OfferID,
		"job_id":       job.ID,
		"reason":       "quorum_not_reached",
	})
}

// CancelJob lets the poster reclaim funds once both the work deadline and the
// grace-period takeover window have expired without a proof.
func (s Service) CancelJob(ctx context.Context, jobID uint32, caller string) error {
	job, err := s.Repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(job.Poster, strings.TrimSpace(caller)) {
		return domainerrors.ErrOnlyJobPosterCanCancelJob
	}
	if job.Status != entities.JobCreated {
		return domainerrors.ErrJobAlreadySubmitted
	}
	if !job.GraceOver(s.now()) {
		return domainerrors.ErrCannotCancelJob
	}
	offer, err := s.Repo.GetJobOffer(ctx, job.OfferID)
	if err != nil {
		return err
	}

	if err := s.punishAbandoningWorker(ctx, offer, job); err != nil {
		return err
	}
	if err := s.Treasury.Withdraw(ctx, offer.Poster, job.Payment, "job_payment_refund"); err != nil {
		return err
	}
	if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
		return err
	}

	job.Status = entities.JobCancelled
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return err
	}
	return s.appendEvent(ctx, "bid_escrow.job_cancelled", job.OfferID, map[string]any{
		"job_offer_id": job.OfferID,
		"job_id":       job.ID,
		"reason":       "deadline_missed",
	})
}

// SlashVoter removes a misbehaving member's footprint from the whole escrow:
// their open offers and bids are unwound, their in-flight jobs cancelled with
// poster refunds, and their ballots handed to the voting engine's slash.
func (s Service) SlashVoter(ctx context.Context, voter string) (governance.SlashSummary, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return governance.SlashSummary{}, domainerrors.ErrInvalidRequest
	}

	offers, err := s.Repo.ListJobOffers(ctx)
	if err != nil {
		return governance.SlashSummary{}, err
	}
	for _, offer := range offers {
		if offer.Status != entities.JobOfferCreated || !strings.EqualFold(offer.Poster, voter) {
			continue
		}
		if err := s.releaseLiveBids(ctx, offer.ID, entities.BidCancelled, "job_offer_cancelled", 0); err != nil {
			return governance.SlashSummary{}, err
		}
		if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
			return governance.SlashSummary{}, err
		}
		offer.Status = entities.JobOfferCancelled
		if err := s.Repo.SaveJobOffer(ctx, offer); err != nil {
			return governance.SlashSummary{}, err
		}
	}

	bids, err := s.Repo.ListBids(ctx)
	if err != nil {
		return governance.SlashSummary{}, err
	}
	for _, bid := range bids {
		if bid.Status != entities.BidCreated || !strings.EqualFold(bid.Worker, voter) {
			continue
		}
		if err := s.refundBid(ctx, bid, "bid_cancelled"); err != nil {
			return governance.SlashSummary{}, err
		}
		bid.Status = entities.BidCancelled
		if err := s.Repo.SaveBid(ctx, bid); err != nil {
			return governance.SlashSummary{}, err
		}
	}

	jobs, err := s.Repo.ListJobs(ctx)
	if err != nil {
		return governance.SlashSummary{}, err
	}
	for _, job := range jobs {
		if !strings.EqualFold(job.Worker, voter) {
			continue
		}
		if job.Status != entities.JobCreated && job.Status != entities.JobSubmitted {
			continue
		}
		offer, err := s.Repo.GetJobOffer(ctx, job.OfferID)
		if err != nil {
			return governance.SlashSummary{}, err
		}
		if job.Status == entities.JobCreated && job.WorkerType == entities.WorkerInternal {
			if err := s.Ledger.Unstake(ctx, job.Worker, job.Stake); err != nil {
				return governance.SlashSummary{}, err
			}
		}
		if err := s.Treasury.Withdraw(ctx, offer.Poster, job.Payment, "job_payment_refund"); err != nil {
			return governance.SlashSummary{}, err
		}
		if err := s.Treasury.Withdraw(ctx, offer.Poster, offer.DOSFee, "dos_fee_refund"); err != nil {
			return governance.SlashSummary{}, err
		}
		if !job.ExternalWorkerStake.IsZero() {
			if err := s.Treasury.Withdraw(ctx, job.Worker, job.ExternalWorkerStake, "worker_stake_refund"); err != nil {
				return governance.SlashSummary{}, err
			}
		}
		job.Status = entities.JobCancelled
		if err := s.Repo.SaveJob(ctx, job); err != nil {
			return governance.SlashSummary{}, err
		}
		if err := s.appendEvent(ctx, "bid_escrow.job_cancelled", job.OfferID, map[string]any{
			"job_offer_id": job.OfferID,
			"job_id":       job.ID,
			"reason":       "worker_slashed",
		}); err != nil {
			return governance.SlashSummary{}, err
		}
	}

	return s.Voting.SlashVoter(ctx, voter)
}
