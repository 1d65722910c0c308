package wallet

import (
	"errors"
	"fmt"

	"github.com/tessera-net/tessera-cli/config"
	"github.com/tessera-net/tessera-cli/internal/script"
	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/tx"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// ErrDustAmount means the payment is below the minimum cell capacity.
var ErrDustAmount = errors.New("amount below minimum cell capacity")

// TransferParams describes a simple capacity payment.
type TransferParams struct {
	To         types.Address
	Amount     uint64
	ChangeAddr types.Address
	// FeeRate in grains per byte; zero selects the default.
	FeeRate uint64
}

// Transfer is a built, signed payment ready for submission.
type Transfer struct {
	Tx     *tx.Transaction
	Fee    uint64
	Change uint64
}

// BuildTransfer selects inputs from the owner's live cells, builds a payment
// to params.To, signs every input with key, and sanity-checks the witnesses
// against the default lock before returning. cells must all be locked by
// key's address.
func BuildTransfer(cells []types.Cell, params TransferParams, key *crypto.PrivateKey) (*Transfer, error) {
	if params.Amount < config.MinCellCapacity {
		return nil, fmt.Errorf("%w: %d < %d", ErrDustAmount, params.Amount, config.MinCellCapacity)
	}
	feeRate := params.FeeRate
	if feeRate == 0 {
		feeRate = config.DefaultFeeRate
	}

	ownerAddr := crypto.AddressFromPubKey(key.PublicKey())
	ownerLock := config.DefaultLock(ownerAddr)
	ownerLockHash := crypto.ScriptHash(ownerLock)
	for _, c := range cells {
		if crypto.ScriptHash(c.Lock) != ownerLockHash {
			return nil, fmt.Errorf("cell %s is not locked by this key", c.OutPoint)
		}
	}

	changeAddr := params.ChangeAddr
	if changeAddr.IsZero() {
		changeAddr = ownerAddr
	}

	// Fee depends on input count; reselect until the estimate is covered.
	var sel *CellSelection
	fee := tx.EstimateTxFee(1, 2, feeRate)
	for i := 0; i < 10; i++ {
		s, err := SelectCells(cells, params.Amount+fee)
		if err != nil {
			return nil, err
		}
		next := tx.EstimateTxFee(len(s.Inputs), 2, feeRate)
		if next <= fee {
			sel = s
			break
		}
		fee = next
	}
	if sel == nil {
		return nil, fmt.Errorf("%w: fee estimate did not converge", ErrInsufficientFunds)
	}

	builder := tx.NewBuilder()
	for _, in := range sel.Inputs {
		builder.AddInput(in.OutPoint)
	}
	builder.AddOutput(params.Amount, config.DefaultLock(params.To))

	change := sel.Total - params.Amount - fee
	if change >= config.MinCellCapacity {
		builder.AddOutput(change, config.DefaultLock(changeAddr))
	} else {
		// Sub-minimum change would be dust; let it ride as extra fee.
		fee += change
		change = 0
	}

	if err := builder.Sign(key); err != nil {
		return nil, err
	}
	txn := builder.Build()

	// A malformed witness is a bug worth catching before submission.
	v := script.Secp256k1Verifier{}
	msgHash := txn.Hash()
	for i := range txn.Inputs {
		if err := v.Verify(ownerLock, txn.Witnesses[i], msgHash); err != nil {
			return nil, fmt.Errorf("self-check witness %d: %w", i, err)
		}
	}

	return &Transfer{Tx: txn, Fee: fee, Change: change}, nil
}
