package governance

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Amount is the unsigned arbitrary-precision quantity shared by the
// governance contexts for reputation, native currency, and per-mille ratios.
type Amount = sdkmath.Uint

var (
	perMilleDenominator = sdkmath.NewUint(1000)
	percentDenominator  = sdkmath.NewUint(100)
	maxAmount           = sdkmath.NewUintFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
)

func ZeroAmount() Amount {
	return sdkmath.ZeroUint()
}

func NewAmount(value uint64) Amount {
	return sdkmath.NewUint(value)
}

// ParseAmount parses a base-10 amount string.
func ParseAmount(raw string) (Amount, error) {
	return sdkmath.ParseUint(raw)
}

// MaxAmount returns the largest representable Amount, 2^256-1.
func MaxAmount() Amount {
	return maxAmount
}

// PerMil computes value*ratio/1000 with truncating division. When the direct
// product would not fit the 256-bit range, the value is divided first; the
// lost precision is bounded by the ratio.
func PerMil(value Amount, ratio Amount) Amount {
	if value.IsZero() || ratio.IsZero() {
		return sdkmath.ZeroUint()
	}
	if value.GT(maxAmount.Quo(ratio)) {
		return value.Quo(perMilleDenominator).Mul(ratio)
	}
	return value.Mul(ratio).Quo(perMilleDenominator)
}

// ProRata computes total*share/universe with truncating division, the split
// rule used by every proportional redistribution. A zero universe yields zero.
func ProRata(total Amount, share Amount, universe Amount) Amount {
	if universe.IsZero() || total.IsZero() || share.IsZero() {
		return sdkmath.ZeroUint()
	}
	if total.GT(maxAmount.Quo(share)) {
		return total.Quo(universe).Mul(share)
	}
	return total.Mul(share).Quo(universe)
}

// PercentOf computes value*100/universe, used by the close-result heuristic.
func PercentOf(value Amount, universe Amount) Amount {
	if universe.IsZero() || value.IsZero() {
		return sdkmath.ZeroUint()
	}
	if value.GT(maxAmount.Quo(percentDenominator)) {
		return value.Quo(universe).Mul(percentDenominator)
	}
	return value.Mul(percentDenominator).Quo(universe)
}

// AddWouldOverflow reports whether a+b exceeds the 256-bit Amount range.
func AddWouldOverflow(a Amount, b Amount) bool {
	return a.GT(maxAmount.Sub(b))
}

// AbsDiff returns |a-b| without underflowing.
func AbsDiff(a Amount, b Amount) Amount {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}
