package market

import (
	"fmt"

	"github.com/ordmarket-labs/ordmarket/common"
)

const (
	// DustLimit is the smallest output value the network treats as spendable.
	DustLimit = 546

	// FundingFeeBuffer is added on top of the listing's total price when
	// selecting funding, so the buyer always covers the miner fee.
	FundingFeeBuffer = 1000
)

// SelectFunding picks funding outputs for a purchase. Candidates are taken in
// the order received, dust is skipped, and selection stops at the first output
// that brings the running total to the required amount. First-fit is good
// enough here: the candidate set is small and already confirmed-spendable.
func SelectFunding(utxos []*BuyerUtxo, required int64) ([]*BuyerUtxo, int64, error) {
	selected := make([]*BuyerUtxo, 0, len(utxos))
	total := int64(0)
	for _, utxo := range utxos {
		if utxo.Value < DustLimit {
			continue
		}
		selected = append(selected, utxo)
		total += utxo.Value
		if total >= required {
			return selected, total, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: required %d sats, available %d sats",
		common.ErrInsufficientFunds, required, total)
}
