package config

import (
	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Capacity denominations. Capacities are uint64 grains.
const (
	Grain = uint64(1)
	TSA   = 100_000_000 * Grain

	// Decimals is the number of fractional digits in a TSA amount.
	Decimals = 8
)

// SecpLockCodeHash identifies the default secp256k1 lock script. Lock args
// hold the 20-byte blake3 pubkey hash.
var SecpLockCodeHash = crypto.Hash([]byte("secp256k1_blake3_sighash_all"))

// MinCellCapacity is the smallest capacity a bare cell may carry; smaller
// change is folded into the fee instead of creating dust.
const MinCellCapacity = 61 * Grain

// DefaultFeeRate is the fee rate in grains per transaction byte used when
// the caller does not specify one.
const DefaultFeeRate = uint64(1000)

// Params holds per-network chain parameters.
type Params struct {
	Network    NetworkType
	AddressHRP string
}

var (
	mainnetParams = Params{Network: Mainnet, AddressHRP: "tsa"}
	testnetParams = Params{Network: Testnet, AddressHRP: "ttsa"}
)

// NetworkParams returns the chain parameters for the given network.
// Unknown networks fall back to mainnet.
func NetworkParams(network NetworkType) Params {
	if network == Testnet {
		return testnetParams
	}
	return mainnetParams
}

// DefaultLock builds the default lock script paying to the given address.
func DefaultLock(addr types.Address) types.Script {
	return types.Script{
		CodeHash: SecpLockCodeHash,
		HashType: types.HashTypeType,
		Args:     addr.Bytes(),
	}
}
