package block

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySize is the size in bytes of a miner public key.
const KeySize = 32

// AddressPrefix is the human-readable prefix of a miner address.
const AddressPrefix = "fer1"

// PublicKey identifies the wallet that receives rewards for mined blocks.
type PublicKey [KeySize]byte

// Address is a parsed miner identity: the AddressPrefix followed by the
// hex encoding of a 32-byte public key.
type Address struct {
	key PublicKey
}

// ParseAddress validates and parses a miner address string. An invalid
// address is the only startup-fatal error in the miner, so validation
// happens before any worker or connection is started.
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, AddressPrefix) {
		return Address{}, fmt.Errorf("address %q missing %q prefix", s, AddressPrefix)
	}

	encoded := s[len(AddressPrefix):]
	if len(encoded) != KeySize*2 {
		return Address{}, fmt.Errorf("address key part must be %d hex characters, got %d", KeySize*2, len(encoded))
	}

	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return Address{}, fmt.Errorf("address key part is not valid hex: %w", err)
	}

	var addr Address
	copy(addr.key[:], raw)
	return addr, nil
}

// PublicKey returns the key the address encodes.
func (a Address) PublicKey() PublicKey {
	return a.key
}

// String reassembles the canonical textual form of the address.
func (a Address) String() string {
	return AddressPrefix + hex.EncodeToString(a.key[:])
}
