package domain

import (
	"regexp"
	"strings"
)

// Address is an EOA-style account identifier as used by the ledger.
// Comparison is case-insensitive; the ledger returns checksummed casing.
type Address string

// ZeroAddress is the unset placeholder the contract stores for role slots
// that were never configured.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// Default role accounts used when a registration or transfer does not name
// an explicit destination. These mirror the well-known test EOAs the
// contract was deployed with.
const (
	DefaultFarmer      Address = "0x1111111111111111111111111111111111111111"
	DefaultDistributor Address = "0x2222222222222222222222222222222222222222"
	DefaultRetailer    Address = "0x3333333333333333333333333333333333333333"
	DefaultConsumer    Address = "0x4444444444444444444444444444444444444444"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Valid reports whether a is a well-formed account address.
func (a Address) Valid() bool {
	return addressRe.MatchString(string(a))
}

// Equal compares two addresses ignoring case. Empty addresses never match.
func (a Address) Equal(b Address) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(string(a), string(b))
}

// IsZero reports whether a is empty or the zero placeholder.
func (a Address) IsZero() bool {
	return a == "" || a.Equal(ZeroAddress)
}
