package types

import (
	"bytes"
	"encoding/json"
	"testing"
)

func testScript(args ...byte) Script {
	var code Hash
	code[0] = 0x55
	return Script{CodeHash: code, HashType: HashTypeType, Args: args}
}

func TestScript_JSONRoundtrip(t *testing.T) {
	s := testScript(0x01, 0x02, 0x03)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Script
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(s) {
		t.Errorf("roundtrip mismatch: %+v != %+v", back, s)
	}
}

func TestScript_Equal(t *testing.T) {
	a := testScript(0x01)
	b := testScript(0x01)
	if !a.Equal(b) {
		t.Error("identical scripts should be equal")
	}

	c := testScript(0x02)
	if a.Equal(c) {
		t.Error("different args should not be equal")
	}

	d := a
	d.HashType = HashTypeData
	if a.Equal(d) {
		t.Error("different hash types should not be equal")
	}
}

func TestScript_SerializeDistinguishesArgs(t *testing.T) {
	// args [0x01, 0x00] and [0x01] must serialize differently; the length
	// prefix prevents ambiguity.
	a := testScript(0x01, 0x00).Serialize()
	b := testScript(0x01).Serialize()
	if bytes.Equal(a, b) {
		t.Error("serialization must be unambiguous")
	}
}

func TestHashType_String(t *testing.T) {
	if HashTypeData.String() != "data" || HashTypeType.String() != "type" {
		t.Error("unexpected hash type names")
	}
	if HashType(9).String() != "unknown" {
		t.Error("unknown hash type should stringify as unknown")
	}
}
