package domain

import (
	"strconv"

	dErrors "policyregistry/pkg/domain-errors"
)

// PolicyID identifies a policy. Ids start at 1; zero is never assigned.
type PolicyID uint64

// ParsePolicyID parses a decimal policy id from a path segment. Zero parses:
// it names a policy that was never created, which lookups answer with zero
// values rather than an error.
func ParsePolicyID(s string) (PolicyID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "policy id must be an unsigned integer")
	}
	return PolicyID(v), nil
}

func (id PolicyID) IsZero() bool {
	return id == 0
}

func (id PolicyID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
