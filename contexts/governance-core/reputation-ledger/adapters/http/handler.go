package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/governance-core/reputation-ledger/application"
	httptransport "agora/contexts/governance-core/reputation-ledger/transport/http"
	"agora/contracts/governance"
)

// Handler adapts the ledger service to transport DTOs. Mutations require a
// whitelisted caller; reads are open.
type Handler struct {
	Ledger application.Service
	Logger *slog.Logger
}

func (h Handler) MintHandler(ctx context.Context, caller string, req httptransport.MintRequest) error {
	if err := h.Ledger.EnsureWhitelisted(ctx, caller); err != nil {
		return err
	}
	amount, err := governance.ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	return h.Ledger.Mint(ctx, req.Account, amount)
}

func (h Handler) BurnHandler(ctx context.Context, caller string, req httptransport.BurnRequest) error {
	if err := h.Ledger.EnsureWhitelisted(ctx, caller); err != nil {
		return err
	}
	amount, err := governance.ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	return h.Ledger.Burn(ctx, req.Account, amount)
}

func (h Handler) StakeHandler(ctx context.Context, caller string, req httptransport.StakeRequest) error {
	if err := h.Ledger.EnsureWhitelisted(ctx, caller); err != nil {
		return err
	}
	amount, err := governance.ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	return h.Ledger.Stake(ctx, req.Account, amount)
}

func (h Handler) UnstakeHandler(ctx context.Context, caller string, req httptransport.StakeRequest) error {
	if err := h.Ledger.EnsureWhitelisted(ctx, caller); err != nil {
		return err
	}
	amount, err := governance.ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	return h.Ledger.Unstake(ctx, req.Account, amount)
}

func (h Handler) AccountHandler(ctx context.Context, address string) (httptransport.AccountResponse, error) {
	account, err := h.Ledger.Account(ctx, address)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return httptransport.AccountResponse{
		Address:        account.Address,
		Balance:        account.Balance.String(),
		Stake:          account.Stake.String(),
		Free:           account.Free().String(),
		PassiveBalance: account.PassiveBalance.String(),
	}, nil
}

func (h Handler) SupplyHandler(ctx context.Context) (httptransport.SupplyResponse, error) {
	total, err := h.Ledger.TotalSupply(ctx)
	if err != nil {
		return httptransport.SupplyResponse{}, err
	}
	passive, err := h.Ledger.PassiveTotalSupply(ctx)
	if err != nil {
		return httptransport.SupplyResponse{}, err
	}
	return httptransport.SupplyResponse{
		TotalSupply:        total.String(),
		PassiveTotalSupply: passive.String(),
	}, nil
}

func (h Handler) OwnerHandler(ctx context.Context) (httptransport.OwnerResponse, error) {
	owner, err := h.Ledger.Owner(ctx)
	if err != nil {
		return httptransport.OwnerResponse{}, err
	}
	return httptransport.OwnerResponse{Owner: owner}, nil
}

func (h Handler) ChangeOwnershipHandler(ctx context.Context, caller string, req httptransport.OwnershipRequest) error {
	return h.Ledger.ChangeOwnership(ctx, caller, req.NewOwner)
}

func (h Handler) AddToWhitelistHandler(ctx context.Context, caller string, req httptransport.WhitelistRequest) error {
	return h.Ledger.AddToWhitelist(ctx, caller, req.Account)
}

func (h Handler) RemoveFromWhitelistHandler(ctx context.Context, caller string, req httptransport.WhitelistRequest) error {
	return h.Ledger.RemoveFromWhitelist(ctx, caller, req.Account)
}
