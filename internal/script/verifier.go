// Package script verifies lock scripts against transaction witnesses. The
// client treats script execution as opaque; the only interpreter it carries
// is the default secp256k1 lock, used to sanity-check a transaction's own
// witnesses before submission.
package script

import (
	"bytes"
	"errors"

	"github.com/tessera-net/tessera-cli/config"
	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

var (
	// ErrWitnessFormat means the witness does not parse as sig || pubkey.
	ErrWitnessFormat = errors.New("malformed witness")
	// ErrLockMismatch means the witness pubkey does not hash to the lock args.
	ErrLockMismatch = errors.New("witness does not satisfy lock")
	// ErrBadSignature means the signature fails verification.
	ErrBadSignature = errors.New("invalid signature")
	// ErrUnknownLock means no verifier handles the lock's code hash.
	ErrUnknownLock = errors.New("unknown lock script")
)

// Verifier checks one witness against one lock script for a message hash.
type Verifier interface {
	Verify(lock types.Script, witness []byte, msgHash types.Hash) error
}

// Secp256k1Verifier implements the default lock: args hold a 20-byte
// pubkey hash, the witness holds a 65-byte recoverable signature followed
// by the 33-byte compressed pubkey.
type Secp256k1Verifier struct{}

// Verify checks the witness signature and that its pubkey hashes to the
// lock's args.
func (Secp256k1Verifier) Verify(lock types.Script, witness []byte, msgHash types.Hash) error {
	if lock.CodeHash != config.SecpLockCodeHash {
		return ErrUnknownLock
	}
	if len(witness) != crypto.SignatureSize+crypto.CompressedPubKeySize {
		return ErrWitnessFormat
	}
	sig := witness[:crypto.SignatureSize]
	pubKey := witness[crypto.SignatureSize:]

	if len(lock.Args) != types.AddressSize {
		return ErrLockMismatch
	}
	addr := crypto.AddressFromPubKey(pubKey)
	if !bytes.Equal(addr[:], lock.Args) {
		return ErrLockMismatch
	}

	if !crypto.VerifySignature(msgHash[:], sig, pubKey) {
		return ErrBadSignature
	}
	return nil
}
