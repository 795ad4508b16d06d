package market

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/ordmarket-labs/ordmarket/common"
)

// UtxoSource supplies a buyer's spendable outputs. Backed by the external
// ordinals indexer; results are not assumed dust-filtered.
type UtxoSource interface {
	GetAddressOutputs(ctx context.Context, address string) ([]*BuyerUtxo, error)
}

// Broadcaster submits a signed transaction to the network and returns its
// txid, or an error carrying the node's rejection reason.
type Broadcaster interface {
	SubmitTx(signedTxHex string) (string, error)
}

// Settlement drives a purchase from prepared transaction to sold listing.
type Settlement struct {
	store       *Store
	assembler   *Assembler
	utxos       UtxoSource
	broadcaster Broadcaster
	chain       string
}

func NewSettlement(store *Store, assembler *Assembler, utxos UtxoSource,
	broadcaster Broadcaster, chain string) *Settlement {
	return &Settlement{
		store:       store,
		assembler:   assembler,
		utxos:       utxos,
		broadcaster: broadcaster,
		chain:       chain,
	}
}

// PreparePurchase assembles the unsigned settlement transaction for a listing.
// Read-only: nothing in the store changes until the signed transaction is
// accepted by the network.
func (p *Settlement) PreparePurchase(ctx context.Context, listingId,
	buyerOrdAddress, buyerPaymentAddress string) (*UnsignedSettlement, error) {

	listing, err := p.activeListing(listingId)
	if err != nil {
		return nil, err
	}

	utxos, err := p.utxos.GetAddressOutputs(ctx, buyerPaymentAddress)
	if err != nil {
		return nil, err
	}

	required := listing.Fees.TotalPrice + FundingFeeBuffer
	selected, total, err := SelectFunding(utxos, required)
	if err != nil {
		return nil, err
	}
	common.Log.Debugf("selected %d funding outputs (%d sats) for listing %s",
		len(selected), total, listingId)

	return p.assembler.Assemble(listing, buyerOrdAddress, buyerPaymentAddress, selected)
}

// FinalizePurchase broadcasts the signed settlement transaction and, only on
// acceptance, marks the listing sold in a single store update. A rejected
// broadcast leaves the listing untouched.
func (p *Settlement) FinalizePurchase(ctx context.Context, listingId, signedTxHex string) (string, error) {
	listing, err := p.activeListing(listingId)
	if err != nil {
		return "", err
	}

	rawTx, err := hex.DecodeString(signedTxHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMalformedTx, err)
	}
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMalformedTx, err)
	}
	if len(tx.TxOut) == 0 {
		return "", fmt.Errorf("%w: no outputs", common.ErrMalformedTx)
	}

	txid := tx.TxHash().String()

	// Output 0 re-locks the ordinal to the buyer.
	buyerAddress, err := common.PkScriptToAddr(tx.TxOut[0].PkScript, p.chain)
	if err != nil {
		return "", fmt.Errorf("%w: output 0: %v", common.ErrMalformedTx, err)
	}

	if _, err := p.broadcaster.SubmitTx(signedTxHex); err != nil {
		return "", err
	}

	if _, err := p.store.MarkSold(listing.Id, buyerAddress, txid); err != nil {
		return "", err
	}
	return txid, nil
}

func (p *Settlement) activeListing(listingId string) (*Listing, error) {
	listing, err := p.store.Get(listingId)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: listing %s", common.ErrNotFound, listingId)
	}
	if listing.Status != StatusActive {
		return nil, common.ErrInvalidState
	}
	return listing, nil
}
