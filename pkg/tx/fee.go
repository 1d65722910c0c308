package tx

import "github.com/tessera-net/tessera-cli/pkg/crypto"

// EstimateTxFee returns the expected fee for a transaction with the given
// number of inputs and outputs at the given fee rate (grains per byte).
//
// The estimate covers the SigningBytes layout plus one default-lock witness
// per input:
//
//	version(4) + inputCount(4) + inputs(44*n) + outputCount(4) +
//	outputs(perOut*m) + witnesses(98*n)
//
// perOutput assumes a default lock (20-byte args) and no type script.
func EstimateTxFee(numInputs, numOutputs int, feeRate uint64) uint64 {
	const overhead = 4 + 4 + 4                       // version + inputCount + outputCount
	const perInput = 36 + 8 + 98                     // prevout + since + witness(sig 65 + pubkey 33)
	const perOutput = 8 + (32 + 1 + 4 + 20) + 1 + 32 // capacity + lock + type flag + data hash

	size := overhead + perInput*numInputs + perOutput*numOutputs
	return uint64(size) * feeRate
}

// RequiredFee returns the exact fee for a fully built transaction at the
// given fee rate. More accurate than EstimateTxFee for transactions with
// type scripts or long lock args.
func RequiredFee(transaction *Transaction, feeRate uint64) uint64 {
	size := len(transaction.SigningBytes())
	for range transaction.Witnesses {
		size += crypto.SignatureSize + crypto.CompressedPubKeySize
	}
	return uint64(size) * feeRate
}
