package crypto

import (
	"bytes"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SignatureSize is the length of a recoverable signature:
// recovery id(1) + r(32) + s(32).
const SignatureSize = 65

// CompressedPubKeySize is the length of a compressed secp256k1 public key.
const CompressedPubKeySize = 33

// Signer signs 32-byte message hashes with a secp256k1 private key.
type Signer interface {
	// Sign produces a 65-byte recoverable ECDSA signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// PrivateKey wraps a secp256k1 private key for recoverable ECDSA signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// Sign produces a 65-byte recoverable ECDSA signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	// SignCompact output: header(1) + r(32) + s(32), header carries the
	// recovery id.
	return ecdsa.SignCompact(pk.key, hash, true), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// RecoverPubKey recovers the compressed public key from a 65-byte recoverable
// signature and the 32-byte hash it signed.
func RecoverPubKey(hash, signature []byte) ([]byte, error) {
	if len(signature) != SignatureSize {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(signature))
	}
	pub, _, err := ecdsa.RecoverCompact(signature, hash)
	if err != nil {
		return nil, fmt.Errorf("recover pubkey: %w", err)
	}
	return pub.SerializeCompressed(), nil
}

// VerifySignature checks a recoverable ECDSA signature against a 32-byte hash
// and a compressed public key. Returns false on any error.
func VerifySignature(hash, signature, publicKey []byte) bool {
	recovered, err := RecoverPubKey(hash, signature)
	if err != nil {
		return false
	}
	return bytes.Equal(recovered, publicKey)
}
