package index

import (
	"encoding/binary"
	"fmt"

	"github.com/tessera-net/tessera-cli/internal/storage"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Key prefixes for the index store. All values are JSON unless noted.
var (
	prefixCell    = []byte("c/") // c/<outpoint(36)> -> Cell
	prefixLock    = []byte("l/") // l/<scripthash(32)><outpoint(36)> -> empty, present iff live
	prefixType    = []byte("y/") // y/<scripthash(32)><outpoint(36)> -> empty, present iff live
	prefixBalance = []byte("b/") // b/<scripthash(32)> -> capacity total (8 bytes BE)
	prefixHeight  = []byte("h/") // h/<height(8)> -> block hash (32 bytes)
	prefixUndo    = []byte("u/") // u/<height(8)> -> undo record
	prefixTx      = []byte("t/") // t/<txhash(32)> -> TransactionRecord
	prefixHistory = []byte("r/") // r/<scripthash(32)><height(8)><txhash(32)> -> empty
	keyCheckpoint = []byte("s/checkpoint")
)

// cellKey builds the primary cell key: "c/" + outpoint(36).
func cellKey(op types.OutPoint) []byte {
	key := make([]byte, 0, len(prefixCell)+types.OutPointSize)
	key = append(key, prefixCell...)
	key = append(key, op.Serialize()...)
	return key
}

// scriptKey builds a script reverse-lookup key under the given prefix:
// prefix + scripthash(32) + outpoint(36).
func scriptKey(prefix []byte, scriptHash types.Hash, op types.OutPoint) []byte {
	key := make([]byte, 0, len(prefix)+types.HashSize+types.OutPointSize)
	key = append(key, prefix...)
	key = append(key, scriptHash[:]...)
	key = append(key, op.Serialize()...)
	return key
}

// scriptPrefix builds the scan prefix for all cells under a script hash.
func scriptPrefix(prefix []byte, scriptHash types.Hash) []byte {
	key := make([]byte, 0, len(prefix)+types.HashSize)
	key = append(key, prefix...)
	key = append(key, scriptHash[:]...)
	return key
}

// balanceKey builds the running-total key: "b/" + scripthash(32).
func balanceKey(scriptHash types.Hash) []byte {
	key := make([]byte, 0, len(prefixBalance)+types.HashSize)
	key = append(key, prefixBalance...)
	key = append(key, scriptHash[:]...)
	return key
}

// scriptHashFromBalanceKey extracts the script hash from a running-total key.
func scriptHashFromBalanceKey(key []byte) (types.Hash, error) {
	if len(key) != len(prefixBalance)+types.HashSize {
		return types.Hash{}, fmt.Errorf("%w: balance key has %d bytes", storage.ErrCorrupt, len(key))
	}
	var h types.Hash
	copy(h[:], key[len(prefixBalance):])
	return h, nil
}

// heightKey builds the height-to-hash key: "h/" + height(8) big-endian.
func heightKey(height uint64) []byte {
	key := make([]byte, len(prefixHeight)+8)
	copy(key, prefixHeight)
	binary.BigEndian.PutUint64(key[len(prefixHeight):], height)
	return key
}

// heightFromKey extracts the height from a height-to-hash key.
func heightFromKey(key []byte) (uint64, error) {
	if len(key) != len(prefixHeight)+8 {
		return 0, fmt.Errorf("%w: height key has %d bytes", storage.ErrCorrupt, len(key))
	}
	return binary.BigEndian.Uint64(key[len(prefixHeight):]), nil
}

// undoKey builds the per-height undo key: "u/" + height(8) big-endian.
func undoKey(height uint64) []byte {
	key := make([]byte, len(prefixUndo)+8)
	copy(key, prefixUndo)
	binary.BigEndian.PutUint64(key[len(prefixUndo):], height)
	return key
}

// txKey builds the transaction record key: "t/" + txhash(32).
func txKey(txHash types.Hash) []byte {
	key := make([]byte, 0, len(prefixTx)+types.HashSize)
	key = append(key, prefixTx...)
	key = append(key, txHash[:]...)
	return key
}

// historyKey builds the per-script history key:
// "r/" + scripthash(32) + height(8) + txhash(32).
func historyKey(scriptHash types.Hash, height uint64, txHash types.Hash) []byte {
	key := make([]byte, 0, len(prefixHistory)+types.HashSize+8+types.HashSize)
	key = append(key, prefixHistory...)
	key = append(key, scriptHash[:]...)
	key = binary.BigEndian.AppendUint64(key, height)
	key = append(key, txHash[:]...)
	return key
}

// historyPrefix builds the scan prefix for a script's history.
func historyPrefix(scriptHash types.Hash) []byte {
	key := make([]byte, 0, len(prefixHistory)+types.HashSize)
	key = append(key, prefixHistory...)
	key = append(key, scriptHash[:]...)
	return key
}

// outPointFromScriptKey extracts the out point from a script key's tail.
func outPointFromScriptKey(key []byte) (types.OutPoint, error) {
	off := 2 + types.HashSize
	if len(key) != off+types.OutPointSize {
		return types.OutPoint{}, fmt.Errorf("%w: script key has %d bytes", storage.ErrCorrupt, len(key))
	}
	return types.DeserializeOutPoint(key[off:])
}

// txHashFromHistoryKey extracts the transaction hash from a history key's tail.
func txHashFromHistoryKey(key []byte) (types.Hash, error) {
	off := len(prefixHistory) + types.HashSize + 8
	if len(key) != off+types.HashSize {
		return types.Hash{}, fmt.Errorf("%w: history key has %d bytes", storage.ErrCorrupt, len(key))
	}
	var h types.Hash
	copy(h[:], key[off:])
	return h, nil
}
