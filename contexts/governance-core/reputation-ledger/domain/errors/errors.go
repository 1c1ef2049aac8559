package errors

import "errors"

var (
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrTotalSupplyOverflow         = errors.New("total supply overflow")
	ErrZeroStake                   = errors.New("stake cannot be zero")
	ErrCannotUnstakeMoreThanStaked = errors.New("cannot unstake more than staked")
	ErrNotWhitelisted              = errors.New("caller is not whitelisted")
	ErrNotAnOwner                  = errors.New("caller is not the owner")
	ErrInvalidRequest              = errors.New("invalid ledger request")
)
