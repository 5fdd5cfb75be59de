package domain

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "policyregistry/pkg/domain-errors"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address identifies an account that opens policies, receives refunds or
// configures the registry. It is a 20-byte value rendered as 0x-prefixed hex.
type Address [AddressLength]byte

// ZeroAddress is the unset address. It never owns a policy.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed, 40 hex digit address. Mixed-case input
// must carry a valid EIP-55 checksum; all-lower and all-upper input is accepted
// as-is.
func ParseAddress(s string) (Address, error) {
	var a Address
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	digits := s[2:]
	if len(digits) != 2*AddressLength {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes")
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address must be hex encoded")
	}
	copy(a[:], b)
	if isMixedCase(digits) && a.String()[2:] != digits {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address checksum mismatch")
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(fmt.Sprintf("domain: invalid address %q: %v", s, err))
	}
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the EIP-55 checksummed hex form.
func (a Address) String() string {
	lower := hex.EncodeToString(a[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, 2+len(lower))
	out[0], out[1] = '0', 'x'
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c -= 'a' - 'A'
			}
		}
		out[i+2] = c
	}
	return string(out)
}

// Hex returns the lower-case hex form, used as a storage and cache key.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the address as its lower-case hex form.
func (a Address) Value() (driver.Value, error) {
	return a.Hex(), nil
}

func (a *Address) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into Address", src)
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
