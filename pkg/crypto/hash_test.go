package crypto

import (
	"testing"

	"github.com/tessera-net/tessera-cli/pkg/types"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("tessera"))
	b := Hash([]byte("tessera"))
	if a != b {
		t.Error("same input should produce same hash")
	}

	c := Hash([]byte("tessera2"))
	if a == c {
		t.Error("different input should produce different hash")
	}
}

func TestHash_EmptyInput(t *testing.T) {
	h := Hash(nil)
	if h.IsZero() {
		t.Error("empty input should not hash to zero")
	}
	if h != Hash([]byte{}) {
		t.Error("nil and empty slice should hash identically")
	}
}

func TestScriptHash(t *testing.T) {
	s := types.Script{HashType: types.HashTypeType, Args: []byte{0x01}}
	h1 := ScriptHash(s)

	s2 := s
	s2.Args = []byte{0x02}
	h2 := ScriptHash(s2)

	if h1 == h2 {
		t.Error("different args should produce different script hashes")
	}
	if h1 != ScriptHash(s) {
		t.Error("script hash should be deterministic")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	addr := AddressFromPubKey(key.PublicKey())
	if addr.IsZero() {
		t.Error("derived address should not be zero")
	}

	// Address is the hash truncated to 20 bytes.
	full := Hash(key.PublicKey())
	var want types.Address
	copy(want[:], full[:types.AddressSize])
	if addr != want {
		t.Error("address should be truncated pubkey hash")
	}
}
