package store

import "github.com/google/uuid"

// Storage key prefixes, one byte per logical record kind, mirroring
// the teacher's contract/keys.go + contract/constants.go layout
// (kProjectMeta, kProjectTreasury, ...) so records from different
// components never collide inside a single flat key space.
const (
	PrefixTokenPair      byte = 0x01
	PrefixPersonIDList   byte = 0x02
	PrefixTokenBalance   byte = 0x11
	PrefixTokenAllowance byte = 0x12
	PrefixPermitNonce    byte = 0x13
	PrefixCurveState     byte = 0x20
	PrefixTreasuryLedger byte = 0x30
	PrefixCreatorBalance byte = 0x31
	PrefixOracleAgent    byte = 0x40
	PrefixOracleReport   byte = 0x41
	PrefixOracleVote     byte = 0x42
	PrefixCounter        byte = 0x50
)

// packU64LE appends x to dst in little-endian order, matching the
// teacher's packU64LE so keys stay compact and fixed-width. Byte order
// of the resulting keys does not follow numeric order of x.
func packU64LE(x uint64, dst []byte) []byte {
	return append(dst,
		byte(x), byte(x>>8), byte(x>>16), byte(x>>24),
		byte(x>>32), byte(x>>40), byte(x>>48), byte(x>>56),
	)
}

// PersonKey builds the storage key for a prefix scoped by person_id.
func PersonKey(prefix byte, personID uuid.UUID) string {
	buf := make([]byte, 0, 1+16)
	buf = append(buf, prefix)
	idBytes := personID
	buf = append(buf, idBytes[:]...)
	return string(buf)
}

// AddrKey builds a storage key for a prefix scoped by an address string.
func AddrKey(prefix byte, addr string) string {
	buf := make([]byte, 0, 1+len(addr))
	buf = append(buf, prefix)
	buf = append(buf, addr...)
	return string(buf)
}

// PairKey builds a storage key for a prefix scoped by two address
// strings (e.g. an allowance owner/spender pair, or a report/agent
// vote receipt).
func PairKey(prefix byte, a, b string) string {
	buf := make([]byte, 0, 1+4+len(a)+len(b))
	buf = append(buf, prefix)
	buf = packU64LE(uint64(len(a)), buf)
	buf = append(buf, a...)
	buf = append(buf, b...)
	return string(buf)
}

// IDKey builds a storage key for a prefix scoped by a numeric id,
// mirroring the teacher's proposalKey/projectKey shape.
func IDKey(prefix byte, id uint64) string {
	buf := make([]byte, 0, 9)
	buf = append(buf, prefix)
	buf = packU64LE(id, buf)
	return string(buf)
}

// CounterKey names a monotonic-id counter, mirroring the teacher's
// VotesCount/ProposalsCount/ProjectsCount string constants.
func CounterKey(name string) string {
	buf := make([]byte, 0, 1+len(name))
	buf = append(buf, PrefixCounter)
	buf = append(buf, name...)
	return string(buf)
}
