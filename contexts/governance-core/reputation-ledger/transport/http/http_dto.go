package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MintRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type BurnRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type StakeRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type AccountResponse struct {
	Address        string `json:"address"`
	Balance        string `json:"balance"`
	Stake          string `json:"stake"`
	Free           string `json:"free"`
	PassiveBalance string `json:"passive_balance"`
}

type SupplyResponse struct {
	TotalSupply        string `json:"total_supply"`
	PassiveTotalSupply string `json:"passive_total_supply"`
}

type WhitelistRequest struct {
	Account string `json:"account"`
}

type OwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

type OwnerResponse struct {
	Owner string `json:"owner"`
}
