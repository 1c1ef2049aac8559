package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance-core/bid-escrow/application"
	"agora/contexts/governance-core/bid-escrow/domain/entities"
	domainerrors "agora/contexts/governance-core/bid-escrow/domain/errors"
	httptransport "agora/contexts/governance-core/bid-escrow/transport/http"
	"agora/contracts/governance"
)

type Handler struct {
	Escrow application.Service
	Logger *slog.Logger
}

func (h Handler) PostJobOfferHandler(ctx context.Context, caller string, req httptransport.PostJobOfferRequest) (httptransport.JobOfferResponse, error) {
	maxBudget, err := governance.ParseAmount(req.MaxBudget)
	if err != nil {
		return httptransport.JobOfferResponse{}, err
	}
	dosFee, err := governance.ParseAmount(req.DOSFee)
	if err != nil {
		return httptransport.JobOfferResponse{}, err
	}
	timeframe, err := time.ParseDuration(req.ExpectedTimeframe)
	if err != nil {
		return httptransport.JobOfferResponse{}, domainerrors.ErrInvalidRequest
	}
	offer, err := h.Escrow.PostJobOffer(ctx, caller, maxBudget, timeframe, dosFee)
	if err != nil {
		return httptransport.JobOfferResponse{}, err
	}
	return h.mapJobOffer(offer), nil
}

func (h Handler) SubmitBidHandler(ctx context.Context, offerID uint32, caller string, req httptransport.SubmitBidRequest) (httptransport.BidResponse, error) {
	payment, err := governance.ParseAmount(req.ProposedPayment)
	if err != nil {
		return httptransport.BidResponse{}, err
	}
	reputationStake, err := governance.ParseAmount(req.ReputationStake)
	if err != nil {
		return httptransport.BidResponse{}, err
	}
	currencyStake, err := governance.ParseAmount(req.CurrencyStake)
	if err != nil {
		return httptransport.BidResponse{}, err
	}
	timeframe, err := time.ParseDuration(req.ProposedTimeframe)
	if err != nil {
		return httptransport.BidResponse{}, domainerrors.ErrInvalidRequest
	}
	bid, err := h.Escrow.SubmitBid(ctx, offerID, caller, timeframe, payment, reputationStake, currencyStake, req.Onboard)
	if err != nil {
		return httptransport.BidResponse{}, err
	}
	return mapBid(bid), nil
}

func (h Handler) CancelBidHandler(ctx context.Context, bidID uint32, caller string) error {
	return h.Escrow.CancelBid(ctx, bidID, caller)
}

func (h Handler) CancelJobOfferHandler(ctx context.Context, offerID uint32, caller string) error {
	return h.Escrow.CancelJobOffer(ctx, offerID, caller)
}

func (h Handler) PickBidHandler(ctx context.Context, offerID uint32, caller string, req httptransport.PickBidRequest) (httptransport.JobResponse, error) {
	payment, err := governance.ParseAmount(req.AttachedPayment)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	job, err := h.Escrow.PickBid(ctx, offerID, req.BidID, caller, payment)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return mapJob(job), nil
}

func (h Handler) SubmitJobProofHandler(ctx context.Context, jobID uint32, caller string, req httptransport.SubmitJobProofRequest) (httptransport.JobResponse, error) {
	job, err := h.Escrow.SubmitJobProof(ctx, jobID, caller, req.Proof)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return mapJob(job), nil
}

func (h Handler) GracePeriodProofHandler(ctx context.Context, jobID uint32, caller string, req httptransport.GracePeriodProofRequest) (httptransport.JobResponse, error) {
	reputationStake, err := governance.ParseAmount(req.ReputationStake)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	currencyStake, err := governance.ParseAmount(req.CurrencyStake)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	job, err := h.Escrow.SubmitJobProofDuringGracePeriod(ctx, jobID, caller, req.Proof, reputationStake, currencyStake, req.Onboard)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return mapJob(job), nil
}

func (h Handler) VoteHandler(ctx context.Context, jobID uint32, caller string, req httptransport.VoteRequest) error {
	stake, err := governance.ParseAmount(req.Stake)
	if err != nil {
		return err
	}
	return h.Escrow.Vote(ctx, jobID,
		governance.VotingType(req.VotingType),
		caller,
		governance.Choice(req.Choice),
		stake,
	)
}

func (h Handler) FinishVotingHandler(ctx context.Context, jobID uint32, req httptransport.FinishVotingRequest) (httptransport.VotingSummaryResponse, error) {
	summary, err := h.Escrow.FinishVoting(ctx, jobID, governance.VotingType(req.VotingType))
	if err != nil {
		return httptransport.VotingSummaryResponse{}, err
	}
	return httptransport.VotingSummaryResponse{
		VotingID:   summary.VotingID,
		VotingType: string(summary.VotingType),
		State:      string(summary.State),
		Result:     string(summary.Result),
	}, nil
}

func (h Handler) CancelJobHandler(ctx context.Context, jobID uint32, caller string) error {
	return h.Escrow.CancelJob(ctx, jobID, caller)
}

func (h Handler) JobOfferHandler(ctx context.Context, offerID uint32) (httptransport.JobOfferResponse, error) {
	offer, err := h.Escrow.Repo.GetJobOffer(ctx, offerID)
	if err != nil {
		return httptransport.JobOfferResponse{}, err
	}
	return h.mapJobOffer(offer), nil
}

func (h Handler) JobHandler(ctx context.Context, jobID uint32) (httptransport.JobResponse, error) {
	job, err := h.Escrow.Repo.GetJob(ctx, jobID)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return mapJob(job), nil
}

func (h Handler) BidsHandler(ctx context.Context, offerID uint32) ([]httptransport.BidResponse, error) {
	bids, err := h.Escrow.Repo.ListBidsForOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	responses := make([]httptransport.BidResponse, 0, len(bids))
	for _, bid := range bids {
		responses = append(responses, mapBid(bid))
	}
	return responses, nil
}

func (h Handler) SlashVoterHandler(ctx context.Context, req httptransport.SlashVoterRequest) (httptransport.SlashVoterResponse, error) {
	summary, err := h.Escrow.SlashVoter(ctx, req.Voter)
	if err != nil {
		return httptransport.SlashVoterResponse{}, err
	}
	return httptransport.SlashVoterResponse{
		CanceledVotings: summary.CanceledVotings,
		AffectedVotings: summary.AffectedVotings,
	}, nil
}

func (h Handler) mapJobOffer(offer entities.JobOffer) httptransport.JobOfferResponse {
	now := time.Now().UTC()
	if h.Escrow.Clock != nil {
		now = h.Escrow.Clock.Now().UTC()
	}
	return httptransport.JobOfferResponse{
		JobOfferID:        offer.ID,
		Poster:            offer.Poster,
		MaxBudget:         offer.MaxBudget.String(),
		ExpectedTimeframe: offer.ExpectedTimeframe.String(),
		DOSFee:            offer.DOSFee.String(),
		StartTime:         offer.StartTime.Format(time.RFC3339),
		AuctionPhase:      string(offer.AuctionPhaseAt(now)),
		Status:            string(offer.Status),
	}
}

func mapBid(bid entities.Bid) httptransport.BidResponse {
	return httptransport.BidResponse{
		BidID:             bid.ID,
		JobOfferID:        bid.OfferID,
		Worker:            bid.Worker,
		ProposedTimeframe: bid.ProposedTimeframe.String(),
		ProposedPayment:   bid.ProposedPayment.String(),
		ReputationStake:   bid.ReputationStake.String(),
		CurrencyStake:     bid.CurrencyStake.String(),
		Onboard:           bid.Onboard,
		Status:            string(bid.Status),
	}
}

func mapJob(job entities.Job) httptransport.JobResponse {
	return httptransport.JobResponse{
		JobID:               job.ID,
		BidID:               job.BidID,
		JobOfferID:          job.OfferID,
		VotingID:            job.VotingID,
		Poster:              job.Poster,
		Worker:              job.Worker,
		WorkerType:          string(job.WorkerType),
		Payment:             job.Payment.String(),
		Stake:               job.Stake.String(),
		ExternalWorkerStake: job.ExternalWorkerStake.String(),
		FinishTime:          job.FinishTime().Format(time.RFC3339),
		Status:              string(job.Status),
		FollowedBy:          job.FollowedBy,
	}
}
