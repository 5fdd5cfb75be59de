package domain

import (
	"math"
	"math/bits"
	"strconv"

	dErrors "policyregistry/pkg/domain-errors"
)

// Amount is a quantity of value in the smallest currency unit.
type Amount uint64

// MaxAmount bounds every amount accepted at the boundary so it fits a signed
// 64-bit column.
const MaxAmount Amount = math.MaxInt64

// Common unit multipliers.
const (
	Wei   Amount = 1
	Gwei  Amount = 1_000_000_000
	Ether Amount = 1_000_000_000_000_000_000
)

// ParseAmount parses a base-10 amount string.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "amount must be a base-10 unsigned integer")
	}
	return NewAmount(v)
}

// NewAmount validates a raw value against MaxAmount.
func NewAmount(v uint64) (Amount, error) {
	if Amount(v) > MaxAmount {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "amount exceeds maximum")
	}
	return Amount(v), nil
}

// Add returns a+b, failing when the result would exceed MaxAmount.
func (a Amount) Add(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || Amount(sum) > MaxAmount {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "amount overflow")
	}
	return Amount(sum), nil
}

// Sub returns a-b, failing on underflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "amount underflow")
	}
	return a - b, nil
}

// Half returns floor(a/2).
func (a Amount) Half() Amount {
	return a / 2
}

func (a Amount) IsZero() bool {
	return a == 0
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// MarshalText renders amounts as decimal strings so JSON clients never lose
// precision on values above 2^53.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
