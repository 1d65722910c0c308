package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the length of the random Argon2 salt.
const SaltSize = 32

// Sealed layout: salt(32) | memory(4 LE) | iterations(4 LE) | parallelism(1)
// | nonce(24) | ciphertext. The KDF parameters ride along with the blob so
// old keystore files stay readable after the defaults change.
const sealHeaderSize = SaltSize + 4 + 4 + 1

// ErrWrongPassword is returned when a sealed blob fails authentication.
var ErrWrongPassword = errors.New("wallet: wrong password or corrupt keystore")

// EncryptionParams tunes the Argon2id key derivation.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id cost used for new keystore files.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func (p EncryptionParams) key(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Encrypt seals data under password with Argon2id + XChaCha20-Poly1305.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := params.key(password, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, 0, sealHeaderSize+len(nonce)+len(data)+chacha20poly1305.Overhead)
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, nil), nil
}

// Decrypt opens a blob produced by Encrypt. A wrong password and a tampered
// blob are indistinguishable; both return ErrWrongPassword.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	minSize := sealHeaderSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("sealed blob too short: %d bytes, need at least %d", len(encrypted), minSize)
	}

	salt := encrypted[:SaltSize]
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[SaltSize+4:]),
		Parallelism: encrypted[SaltSize+8],
	}
	nonce := encrypted[sealHeaderSize : sealHeaderSize+chacha20poly1305.NonceSizeX]
	ciphertext := encrypted[sealHeaderSize+chacha20poly1305.NonceSizeX:]

	key := params.key(password, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
