package errors

import "errors"

var (
	ErrVotingDoesNotExist                 = errors.New("voting does not exist")
	ErrConfigurationNotFound              = errors.New("configuration not found")
	ErrFinishingCompletedVotingNotAllowed = errors.New("finishing completed voting not allowed")
	ErrVotingWithGivenTypeNotInProgress   = errors.New("voting with given type not in progress")
	ErrVoteOnCompletedVotingNotAllowed    = errors.New("vote on completed voting not allowed")
	ErrCannotVoteTwice                    = errors.New("cannot vote twice")
	ErrInformalVotingTimeNotReached       = errors.New("informal voting time not reached")
	ErrFormalVotingTimeNotReached         = errors.New("formal voting time not reached")
	ErrNotOnboarded                       = errors.New("account is not onboarded")
	ErrVotingAlreadyCanceled              = errors.New("voting already canceled")
	ErrBallotDoesNotExist                 = errors.New("ballot does not exist")
	ErrZeroStake                          = errors.New("stake must be greater than zero")
	ErrInvalidRequest                     = errors.New("invalid request")
)
