package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance-core/voting-engine/application"
	"agora/contexts/governance-core/voting-engine/domain/entities"
	"agora/contexts/governance-core/voting-engine/ports"
	httptransport "agora/contexts/governance-core/voting-engine/transport/http"
	"agora/contracts/governance"
)

type Handler struct {
	Votings application.Service
	Config  ports.ConfigurationSource
	Logger  *slog.Logger
}

func (h Handler) CreateVotingHandler(ctx context.Context, caller string, req httptransport.CreateVotingRequest) (httptransport.VotingSummaryResponse, error) {
	cfg, err := h.Config.Snapshot(ctx)
	if err != nil {
		return httptransport.VotingSummaryResponse{}, err
	}
	stake, err := governance.ParseAmount(req.Stake)
	if err != nil {
		return httptransport.VotingSummaryResponse{}, err
	}
	summary, err := h.Votings.CreateVoting(ctx, caller, stake, cfg)
	if err != nil {
		return httptransport.VotingSummaryResponse{}, err
	}
	return mapSummary(summary), nil
}

func (h Handler) VoteHandler(ctx context.Context, votingID uint32, caller string, req httptransport.VoteRequest) error {
	stake, err := governance.ParseAmount(req.Stake)
	if err != nil {
		return err
	}
	return h.Votings.Vote(ctx, votingID,
		governance.VotingType(req.VotingType),
		caller,
		governance.Choice(req.Choice),
		stake,
	)
}

func (h Handler) FinishVotingHandler(ctx context.Context, votingID uint32, req httptransport.FinishVotingRequest) (httptransport.VotingSummaryResponse, error) {
	summary, err := h.Votings.FinishVoting(ctx, votingID, governance.VotingType(req.VotingType))
	if err != nil {
		return httptransport.VotingSummaryResponse{}, err
	}
	return mapSummary(summary), nil
}

func (h Handler) VotingHandler(ctx context.Context, votingID uint32) (httptransport.VotingResponse, error) {
	voting, err := h.Votings.VotingOf(ctx, votingID)
	if err != nil {
		return httptransport.VotingResponse{}, err
	}
	summary, err := h.Votings.SummaryOf(ctx, votingID)
	if err != nil {
		return httptransport.VotingResponse{}, err
	}
	return httptransport.VotingResponse{
		VotingID:    voting.ID,
		Creator:     voting.Creator,
		State:       string(summary.State),
		CreatedAt:   voting.CreatedAt.Format(time.RFC3339),
		InformalEnd: voting.InformalEnd().Format(time.RFC3339),
		FormalStart: voting.FormalStart().Format(time.RFC3339),
		FormalEnd:   voting.FormalEnd().Format(time.RFC3339),
		Informal:    mapStats(voting.Informal),
		Formal:      mapStats(voting.Formal),
	}, nil
}

func (h Handler) SlashVoterHandler(ctx context.Context, req httptransport.SlashVoterRequest) (httptransport.SlashVoterResponse, error) {
	summary, err := h.Votings.SlashVoter(ctx, req.Voter)
	if err != nil {
		return httptransport.SlashVoterResponse{}, err
	}
	return httptransport.SlashVoterResponse{
		CanceledVotings: summary.CanceledVotings,
		AffectedVotings: summary.AffectedVotings,
	}, nil
}

func mapSummary(summary governance.VotingSummary) httptransport.VotingSummaryResponse {
	return httptransport.VotingSummaryResponse{
		VotingID:   summary.VotingID,
		VotingType: string(summary.VotingType),
		State:      string(summary.State),
		Result:     string(summary.Result),
	}
}

func mapStats(stats entities.Stats) httptransport.PhaseStatsResponse {
	return httptransport.PhaseStatsResponse{
		Voters:              len(stats.Ballots),
		StakeInFavor:        stats.StakeInFavor.String(),
		StakeAgainst:        stats.StakeAgainst.String(),
		UnboundStakeInFavor: stats.UnboundStakeInFavor.String(),
		UnboundStakeAgainst: stats.UnboundStakeAgainst.String(),
	}
}
