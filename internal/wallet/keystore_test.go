package wallet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(t.TempDir())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func TestKeystoreCreateLoad(t *testing.T) {
	ks := testKeystore(t)
	seed := bytes.Repeat([]byte{0x42}, SeedSize)

	if err := ks.Create("main", seed, []byte("pass"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := ks.Load("main", []byte("pass"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Error("loaded seed differs from stored seed")
	}
}

func TestKeystoreCreate_DuplicateName(t *testing.T) {
	ks := testKeystore(t)
	seed := bytes.Repeat([]byte{1}, SeedSize)

	if err := ks.Create("main", seed, []byte("pass"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := ks.Create("main", seed, []byte("pass"), fastParams()); !errors.Is(err, ErrWalletExists) {
		t.Errorf("second Create error = %v, want ErrWalletExists", err)
	}
}

func TestKeystoreLoad_WrongPassword(t *testing.T) {
	ks := testKeystore(t)
	seed := bytes.Repeat([]byte{1}, SeedSize)

	if err := ks.Create("main", seed, []byte("correct"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := ks.Load("main", []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Load with wrong password: error = %v, want ErrWrongPassword", err)
	}
}

func TestKeystoreLoad_Missing(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Load("ghost", []byte("pass")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Load of missing wallet: error = %v, want ErrWalletNotFound", err)
	}
}

func TestKeystoreFilePermissions(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewKeystore(dir)
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	seed := bytes.Repeat([]byte{1}, SeedSize)
	if err := ks.Create("main", seed, []byte("pass"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "main.wallet"))
	if err != nil {
		t.Fatalf("stat wallet file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("wallet file mode = %o, want 0600", perm)
	}
}

func TestKeystoreAddAccount(t *testing.T) {
	ks := testKeystore(t)
	seed := bytes.Repeat([]byte{1}, SeedSize)
	if err := ks.Create("main", seed, []byte("pass"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	entry := AccountEntry{Index: 0, Name: "Default", Address: "tsa1qexample0"}
	if err := ks.AddAccount("main", entry); err != nil {
		t.Fatalf("AddAccount() error: %v", err)
	}
	// Re-adding the same path with the same address is idempotent.
	if err := ks.AddAccount("main", entry); err != nil {
		t.Fatalf("idempotent AddAccount() error: %v", err)
	}
	// Same path bound to a different address is a conflict.
	conflict := AccountEntry{Index: 0, Name: "Other", Address: "tsa1qdifferent"}
	if err := ks.AddAccount("main", conflict); err == nil {
		t.Error("AddAccount with conflicting address should fail")
	}

	entries, err := ks.ListAccounts("main")
	if err != nil {
		t.Fatalf("ListAccounts() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("account count = %d, want 1", len(entries))
	}
	if entries[0].Address != entry.Address {
		t.Errorf("stored address = %q, want %q", entries[0].Address, entry.Address)
	}
}

func TestKeystoreListAndDelete(t *testing.T) {
	ks := testKeystore(t)
	seed := bytes.Repeat([]byte{1}, SeedSize)

	for _, name := range []string{"alpha", "beta"} {
		if err := ks.Create(name, seed, []byte("pass"), fastParams()); err != nil {
			t.Fatalf("Create(%q) error: %v", name, err)
		}
	}

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if got := strings.Join(names, ","); got != "alpha,beta" {
		t.Errorf("List() = %q, want %q", got, "alpha,beta")
	}

	if err := ks.Delete("alpha"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := ks.Delete("alpha"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("second Delete error = %v, want ErrWalletNotFound", err)
	}

	names, err = ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("List() after delete = %v, want [beta]", names)
	}
}

func TestKeystoreRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewKeystore(dir)
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	path := filepath.Join(dir, "odd.wallet")
	if err := os.WriteFile(path, []byte(`{"version":9}`), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ks.Load("odd", []byte("pass")); err == nil {
		t.Error("Load of unsupported version should fail")
	}
}
