package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func testAddr() Address {
	var a Address
	for i := range a {
		a[i] = byte(i + 1)
	}
	return a
}

func TestAddress_StringRoundtrip(t *testing.T) {
	a := testAddr()
	s := a.String()
	if !strings.HasPrefix(s, MainnetHRP+"1") {
		t.Fatalf("address %q missing %q prefix", s, MainnetHRP+"1")
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != a {
		t.Errorf("roundtrip mismatch")
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	a := testAddr()
	parsed, err := ParseAddress(a.Hex())
	if err != nil {
		t.Fatalf("ParseAddress hex: %v", err)
	}
	if parsed != a {
		t.Errorf("hex roundtrip mismatch")
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := []string{"", "tsa1qqqq", "zzzz", "tsa:" + strings.Repeat("ab", 10)}
	for _, s := range cases {
		if _, err := ParseAddress(s); err == nil {
			t.Errorf("ParseAddress(%q) should fail", s)
		}
	}
}

func TestAddress_JSONRoundtrip(t *testing.T) {
	a := testAddr()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("roundtrip mismatch")
	}
}

func TestSetAddressHRP(t *testing.T) {
	defer SetAddressHRP(MainnetHRP)

	SetAddressHRP(TestnetHRP)
	a := testAddr()
	if !strings.HasPrefix(a.String(), TestnetHRP+"1") {
		t.Errorf("testnet address %q missing %q prefix", a.String(), TestnetHRP+"1")
	}
}
