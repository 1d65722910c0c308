// Package wallet implements HD key derivation, the encrypted keystore and
// transfer construction for the Tessera CLI.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// mnemonicEntropyBits selects 24-word recovery phrases.
const mnemonicEntropyBits = 256

// ErrInvalidMnemonic is returned when a recovery phrase fails BIP-39 checks.
var ErrInvalidMnemonic = errors.New("wallet: invalid mnemonic")

// GenerateMnemonic returns a fresh 24-word BIP-39 recovery phrase.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encode mnemonic: %w", err)
	}
	return phrase, nil
}

// ValidateMnemonic reports whether the phrase has a known word list, a
// supported word count and a correct checksum. Surrounding whitespace is
// ignored.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}
