package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashType selects how a script's CodeHash is matched against on-chain code.
type HashType uint8

const (
	// HashTypeData matches the hash of the code cell's data.
	HashTypeData HashType = 0x00
	// HashTypeType matches the hash of the code cell's type script.
	HashTypeType HashType = 0x01
)

// String returns a human-readable name for the hash type.
func (ht HashType) String() string {
	switch ht {
	case HashTypeData:
		return "data"
	case HashTypeType:
		return "type"
	default:
		return "unknown"
	}
}

// Script is the predicate guarding a cell: CodeHash identifies the verifying
// code, Args parameterize it (for the default lock, Args is the 20-byte
// public key hash).
type Script struct {
	CodeHash Hash     `json:"code_hash"`
	HashType HashType `json:"hash_type"`
	Args     []byte   `json:"args"`
}

// scriptJSON is the JSON representation of a Script with hex-encoded args.
type scriptJSON struct {
	CodeHash Hash     `json:"code_hash"`
	HashType HashType `json:"hash_type"`
	Args     string   `json:"args"`
}

// MarshalJSON encodes the script with hex-encoded args.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(scriptJSON{
		CodeHash: s.CodeHash,
		HashType: s.HashType,
		Args:     hex.EncodeToString(s.Args),
	})
}

// UnmarshalJSON decodes a script with hex-encoded args.
func (s *Script) UnmarshalJSON(data []byte) error {
	var j scriptJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.CodeHash = j.CodeHash
	s.HashType = j.HashType
	s.Args = nil
	if j.Args != "" {
		b, err := hex.DecodeString(j.Args)
		if err != nil {
			return fmt.Errorf("invalid script args hex: %w", err)
		}
		s.Args = b
	}
	return nil
}

// Equal reports whether two scripts are identical.
func (s Script) Equal(other Script) bool {
	return s.CodeHash == other.CodeHash &&
		s.HashType == other.HashType &&
		bytes.Equal(s.Args, other.Args)
}

// Serialize returns the canonical encoding used for script hashing:
// code_hash(32) | hash_type(1) | args_len(4) | args.
func (s Script) Serialize() []byte {
	b := make([]byte, 0, HashSize+1+4+len(s.Args))
	b = append(b, s.CodeHash[:]...)
	b = append(b, byte(s.HashType))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s.Args)))
	b = append(b, s.Args...)
	return b
}
