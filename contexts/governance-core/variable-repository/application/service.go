package application

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"agora/contexts/governance-core/variable-repository/domain/entities"
	domainerrors "agora/contexts/governance-core/variable-repository/domain/errors"
	"agora/contexts/governance-core/variable-repository/ports"
	"agora/contracts/governance"
)

// Service keeps the named governance parameters and builds the immutable
// configuration snapshots the voting engine and bid escrow capture at
// creation time.
type Service struct {
	Repo       ports.RecordRepository
	Access     ports.Whitelist
	Membership ports.MembershipToken
	Clock      ports.Clock
	Logger     *slog.Logger
}

// Update sets a variable, either immediately or at a future activation time.
func (s Service) Update(ctx context.Context, caller string, key string, value string, activationTime *time.Time) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domainerrors.ErrInvalidRequest
	}
	whitelisted, err := s.Access.IsWhitelisted(ctx, strings.TrimSpace(caller))
	if err != nil {
		return err
	}
	if !whitelisted {
		return domainerrors.ErrNotWhitelisted
	}

	now := s.now()
	if activationTime != nil && activationTime.Before(now) {
		return domainerrors.ErrActivationTimeInPast
	}

	record, err := s.Repo.GetRecord(ctx, key)
	if err != nil && !errors.Is(err, domainerrors.ErrVariableNotFound) {
		return err
	}
	record = record.Settle(now)
	record.Key = key
	record.UpdatedAt = now
	if activationTime == nil {
		record.Value = value
		record.FutureValue = ""
		record.ActivationTime = nil
	} else {
		at := activationTime.UTC()
		record.FutureValue = value
		record.ActivationTime = &at
	}
	if err := s.Repo.SaveRecord(ctx, record); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("governance variable updated",
		"event", "variable_updated",
		"module", "governance-core/variable-repository",
		"layer", "application",
		"key", key,
		"scheduled", activationTime != nil,
	)
	return nil
}

// Get resolves the currently active value of a variable, falling back to the
// built-in default when it was never set.
func (s Service) Get(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	record, err := s.Repo.GetRecord(ctx, key)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVariableNotFound) {
			if value, ok := defaults[key]; ok {
				return value, nil
			}
		}
		return "", err
	}
	return record.ValueAt(s.now()), nil
}

func (s Service) List(ctx context.Context) ([]entities.Record, error) {
	return s.Repo.ListRecords(ctx)
}

// Snapshot captures the active parameter set plus the current onboarded
// count into an immutable configuration. Consumers flip the escrow-specific
// fields themselves.
func (s Service) Snapshot(ctx context.Context) (governance.Configuration, error) {
	totalOnboarded, err := s.Membership.TotalOnboarded(ctx)
	if err != nil {
		return governance.Configuration{}, err
	}

	reader := snapshotReader{ctx: ctx, service: s}
	cfg := governance.Configuration{
		PostJobDOSFee:       reader.amount(KeyPostJobDOSFee),
		InternalAuctionTime: reader.duration(KeyInternalAuctionTime),
		PublicAuctionTime:   reader.duration(KeyPublicAuctionTime),

		DefaultPolicingRate:      reader.amount(KeyDefaultPolicingRate),
		ReputationConversionRate: reader.amount(KeyReputationConversionRate),
		DefaultReputationSlash:   reader.amount(KeyDefaultReputationSlash),
		BidEscrowPaymentRatio:    reader.amount(KeyBidEscrowPaymentRatio),
		VotingClearnessDelta:     reader.amount(KeyVotingClearnessDelta),

		InformalQuorumRatio:          reader.amount(KeyInformalQuorumRatio),
		FormalQuorumRatio:            reader.amount(KeyFormalQuorumRatio),
		BidEscrowInformalQuorumRatio: reader.amount(KeyBidEscrowInformalQuorumRatio),
		BidEscrowFormalQuorumRatio:   reader.amount(KeyBidEscrowFormalQuorumRatio),

		InformalVotingDuration:          reader.duration(KeyInformalVotingTime),
		FormalVotingDuration:            reader.duration(KeyFormalVotingTime),
		BidEscrowInformalVotingDuration: reader.duration(KeyBidEscrowInformalVotingTime),
		BidEscrowFormalVotingDuration:   reader.duration(KeyBidEscrowFormalVotingTime),
		TimeBetweenVotings:              reader.duration(KeyTimeBetweenVotings),
		VotingStartAfterJobSubmission:   reader.duration(KeyVotingStartAfterJobSubmission),
		VABidAcceptanceTimeout:          reader.duration(KeyVABidAcceptanceTimeout),

		InformalStakeReputation:      reader.flag(KeyInformalStakeReputation),
		DistributePaymentToNonVoters: reader.flag(KeyDistributePaymentToNonVoters),
		VACanBidOnPublicAuction:      reader.flag(KeyVACanBidOnPublicAuction),
		OnlyVACanCreate:              reader.flag(KeyOnlyVACanCreate),

		BidEscrowWalletAddress: reader.raw(KeyBidEscrowWalletAddress),
		TotalOnboarded:         totalOnboarded,
	}
	if reader.err != nil {
		return governance.Configuration{}, reader.err
	}
	return cfg, nil
}

// snapshotReader folds per-key parse errors so Snapshot reads linearly.
type snapshotReader struct {
	ctx     context.Context
	service Service
	err     error
}

func (r *snapshotReader) raw(key string) string {
	if r.err != nil {
		return ""
	}
	value, err := r.service.Get(r.ctx, key)
	if err != nil {
		r.err = err
		return ""
	}
	return value
}

func (r *snapshotReader) amount(key string) governance.Amount {
	raw := r.raw(key)
	if r.err != nil {
		return governance.ZeroAmount()
	}
	amount, err := governance.ParseAmount(raw)
	if err != nil {
		r.err = domainerrors.ErrInvalidValue
		return governance.ZeroAmount()
	}
	return amount
}

func (r *snapshotReader) duration(key string) time.Duration {
	raw := r.raw(key)
	if r.err != nil {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.err = domainerrors.ErrInvalidValue
		return 0
	}
	return d
}

func (r *snapshotReader) flag(key string) bool {
	raw := r.raw(key)
	if r.err != nil {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		r.err = domainerrors.ErrInvalidValue
		return false
	}
	return value
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
