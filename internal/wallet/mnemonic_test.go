package wallet

import (
	"strings"
	"testing"
)

const vector24 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"
const vector12 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	phrase, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if got := len(strings.Fields(phrase)); got != 24 {
		t.Errorf("word count = %d, want 24", got)
	}
	if !ValidateMnemonic(phrase) {
		t.Error("generated mnemonic should validate")
	}
}

func TestGenerateMnemonic_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		phrase, err := GenerateMnemonic()
		if err != nil {
			t.Fatalf("GenerateMnemonic() error: %v", err)
		}
		if seen[phrase] {
			t.Fatal("generated the same mnemonic twice")
		}
		seen[phrase] = true
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 24-word", vector24, true},
		{"valid 12-word", vector12, true},
		{"surrounding whitespace", "  " + vector12 + "\n", true},
		{"empty string", "", false},
		{"non-wordlist words", "not a valid mnemonic phrase at all", false},
		{"bad checksum", strings.TrimSpace(strings.Repeat("abandon ", 24)), false},
		{"single word", "abandon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.mnemonic); got != tt.valid {
				t.Errorf("ValidateMnemonic(%q) = %v, want %v", tt.mnemonic, got, tt.valid)
			}
		})
	}
}
