package tx

import (
	"encoding/json"
	"testing"

	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

func testLock(arg byte) types.Script {
	return types.Script{
		CodeHash: crypto.Hash([]byte("default-lock")),
		HashType: types.HashTypeType,
		Args:     []byte{arg},
	}
}

func testOutPoint(seed string, index uint32) types.OutPoint {
	return types.OutPoint{TxHash: crypto.Hash([]byte(seed)), Index: index}
}

func TestTransaction_HashExcludesWitnesses(t *testing.T) {
	txn := NewBuilder().
		AddInput(testOutPoint("prev", 0)).
		AddOutput(500, testLock(1)).
		Build()

	before := txn.Hash()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	b := &Builder{tx: txn}
	if err := b.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if txn.Hash() != before {
		t.Error("signing must not change the transaction hash")
	}
}

func TestTransaction_HashCoversOutputs(t *testing.T) {
	a := NewBuilder().AddInput(testOutPoint("p", 0)).AddOutput(500, testLock(1)).Build()
	b := NewBuilder().AddInput(testOutPoint("p", 0)).AddOutput(501, testLock(1)).Build()
	if a.Hash() == b.Hash() {
		t.Error("different capacity should change the hash")
	}

	c := NewBuilder().AddInput(testOutPoint("p", 0)).
		AddOutputWithData(500, testLock(1), nil, []byte("data")).Build()
	if a.Hash() == c.Hash() {
		t.Error("different output data should change the hash")
	}
}

func TestTransaction_IsCellbase(t *testing.T) {
	cellbase := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.OutPoint{}}},
		Outputs: []Output{{Capacity: 100, Lock: testLock(1)}},
	}
	if !cellbase.IsCellbase() {
		t.Error("zero-prevout single-input tx should be cellbase")
	}

	regular := NewBuilder().AddInput(testOutPoint("p", 0)).AddOutput(1, testLock(1)).Build()
	if regular.IsCellbase() {
		t.Error("regular tx should not be cellbase")
	}
}

func TestTransaction_TotalOutputCapacity(t *testing.T) {
	txn := NewBuilder().
		AddOutput(300, testLock(1)).
		AddOutput(200, testLock(2)).
		Build()

	total, err := txn.TotalOutputCapacity()
	if err != nil {
		t.Fatalf("TotalOutputCapacity: %v", err)
	}
	if total != 500 {
		t.Errorf("total = %d, want 500", total)
	}
}

func TestTransaction_TotalOutputCapacityOverflow(t *testing.T) {
	txn := &Transaction{
		Outputs: []Output{
			{Capacity: ^uint64(0), Lock: testLock(1)},
			{Capacity: 1, Lock: testLock(1)},
		},
	}
	if _, err := txn.TotalOutputCapacity(); err == nil {
		t.Error("overflow should be detected")
	}
}

func TestTransaction_JSONRoundtrip(t *testing.T) {
	typ := testLock(9)
	txn := NewBuilder().
		AddInput(testOutPoint("prev", 2)).
		AddOutputWithData(500, testLock(1), &typ, []byte{0xde, 0xad}).
		Build()

	data, err := json.Marshal(txn)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Hash() != txn.Hash() {
		t.Error("JSON roundtrip should preserve the transaction hash")
	}
}
