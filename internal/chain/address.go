// Package chain holds the small address/identifier vocabulary shared
// by every component, adapted from the teacher's sdk/address.go.
package chain

import "strings"

// Address is an opaque account/contract identifier. The teacher's
// Address distinguishes user/contract/system domains by string
// prefix (contract:..., system:...) because it addresses accounts on
// a chain with several namespaces (Hive, EVM-bridged, key-based). This
// core only ever needs to tell "a contract-owned component" apart
// from "an externally owned account", so the prefix vocabulary is
// trimmed to that distinction and kept as a string type for the same
// reason the teacher keeps Address a string: it round-trips through
// storage keys and JSON without a custom codec.
type Address string

// Domain classifies the address the same way sdk.Address.Domain does.
type Domain string

const (
	DomainAccount  Domain = "account"
	DomainContract Domain = "contract"
	DomainZero     Domain = "zero"
)

// Zero is the sentinel "no address" value, used the way a zero EVM
// address signals "unset" in the original chain_service.py contracts
// (createSoulToken wiring, protocol_wallet defaults).
const Zero Address = ""

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == Zero }

func (a Address) Domain() Domain {
	switch {
	case a.IsZero():
		return DomainZero
	case strings.HasPrefix(string(a), "contract:"):
		return DomainContract
	default:
		return DomainAccount
	}
}
