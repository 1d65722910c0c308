package script

import (
	"errors"
	"testing"

	"github.com/tessera-net/tessera-cli/config"
	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

func signedWitness(t *testing.T, key *crypto.PrivateKey, msgHash types.Hash) []byte {
	t.Helper()
	sig, err := key.Sign(msgHash[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	witness := make([]byte, 0, crypto.SignatureSize+crypto.CompressedPubKeySize)
	witness = append(witness, sig...)
	witness = append(witness, key.PublicKey()...)
	return witness
}

func TestSecp256k1Verify(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	addr := crypto.AddressFromPubKey(key.PublicKey())
	lock := config.DefaultLock(addr)
	msgHash := crypto.Hash([]byte("tx signing bytes"))

	v := Secp256k1Verifier{}
	witness := signedWitness(t, key, msgHash)
	if err := v.Verify(lock, witness, msgHash); err != nil {
		t.Fatalf("valid witness rejected: %v", err)
	}

	// Wrong message.
	if err := v.Verify(lock, witness, crypto.Hash([]byte("other"))); err == nil {
		t.Fatal("witness accepted for a different message")
	}

	// Truncated witness.
	if err := v.Verify(lock, witness[:40], msgHash); !errors.Is(err, ErrWitnessFormat) {
		t.Fatalf("truncated witness error = %v, want ErrWitnessFormat", err)
	}

	// A different key's witness must not satisfy the lock.
	otherKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	other := signedWitness(t, otherKey, msgHash)
	if err := v.Verify(lock, other, msgHash); !errors.Is(err, ErrLockMismatch) {
		t.Fatalf("foreign witness error = %v, want ErrLockMismatch", err)
	}

	// Corrupted signature with the right pubkey.
	bad := append([]byte{}, witness...)
	bad[5] ^= 0xff
	err = v.Verify(lock, bad, msgHash)
	if !errors.Is(err, ErrBadSignature) && !errors.Is(err, ErrLockMismatch) {
		t.Fatalf("corrupt witness error = %v", err)
	}

	// A lock with a foreign code hash is not this verifier's to judge.
	foreign := lock
	foreign.CodeHash = crypto.Hash([]byte("some other interpreter"))
	if err := v.Verify(foreign, witness, msgHash); !errors.Is(err, ErrUnknownLock) {
		t.Fatalf("foreign lock error = %v, want ErrUnknownLock", err)
	}
}
