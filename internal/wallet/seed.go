package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the byte length of a BIP-39 seed.
const SeedSize = 64

// SeedFromMnemonic stretches a recovery phrase and optional passphrase into
// a 64-byte seed (PBKDF2-SHA512, per BIP-39). The phrase is checksum-checked
// first so a typo fails here instead of deriving a wrong wallet.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}
