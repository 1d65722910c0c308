// Package crypto provides cryptographic primitives for the Tessera client.
package crypto

import (
	"github.com/tessera-net/tessera-cli/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// ScriptHash computes the hash of a script's canonical serialization.
// The cell index keys its script-reverse lookups on this value.
func ScriptHash(s types.Script) types.Hash {
	return Hash(s.Serialize())
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
