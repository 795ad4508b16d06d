package market

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ordmarket-labs/ordmarket/common"
)

// EstimatedMinerFee is the conservative flat miner fee subtracted from the
// buyer's change. Distinct from FundingFeeBuffer, which only pads selection.
const EstimatedMinerFee = 300

// Assembler builds unsigned settlement transactions for one chain and one
// marketplace fee recipient.
type Assembler struct {
	chain      string
	feeAddress string
}

func NewAssembler(chain, feeAddress string) *Assembler {
	return &Assembler{chain: chain, feeAddress: feeAddress}
}

// Assemble lays out the settlement transaction deterministically:
//
//	input  0     the listed ordinal utxo, unsigned at this stage
//	inputs 1..N  the selected funding outputs, in selection order
//	output 0     the ordinal, 1 sat, to the buyer's ordinal address
//	output 1     seller's full ask to the seller's payment address
//	output 2     marketplace fee + tip, only when > 0
//	change       to the buyer, only when it clears the dust limit
//
// Change below dust is forfeited to the miner fee instead of creating an
// unspendable output. Sufficient funding is the selector's job, but inputs
// that cannot even cover the fixed outputs fail with ErrUnderfunded rather
// than producing negative values.
func (p *Assembler) Assemble(listing *Listing, buyerOrdAddress, buyerChangeAddress string,
	funding []*BuyerUtxo) (*UnsignedSettlement, error) {

	tx := wire.NewMsgTx(wire.TxVersion)

	ordinalHash, err := chainhash.NewHashFromStr(listing.OrdinalUtxo.Txid)
	if err != nil {
		return nil, fmt.Errorf("%w: ordinal txid %s", common.ErrInvalidArgument, listing.OrdinalUtxo.Txid)
	}
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(ordinalHash, listing.OrdinalUtxo.Vout), nil, nil))

	totalInput := listing.OrdinalUtxo.Value
	for _, utxo := range funding {
		hash, err := chainhash.NewHashFromStr(utxo.Txid)
		if err != nil {
			return nil, fmt.Errorf("%w: funding txid %s", common.ErrInvalidArgument, utxo.Txid)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, utxo.Vout), nil, nil))
		totalInput += utxo.Value
	}

	buyerOrdScript, err := common.AddrToPkScript(buyerOrdAddress, p.chain)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(1, buyerOrdScript))

	sellerScript, err := common.AddrToPkScript(listing.SellerAddress, p.chain)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(listing.Fees.SellerReceives, sellerScript))

	marketplaceAmount := listing.Fees.MarketplaceFee + listing.Fees.TipAmount
	if marketplaceAmount > 0 {
		feeScript, err := common.AddrToPkScript(p.feeAddress, p.chain)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(marketplaceAmount, feeScript))
	}

	totalFixed := 1 + listing.Fees.SellerReceives + marketplaceAmount
	if totalInput < totalFixed {
		return nil, fmt.Errorf("%w: inputs %d sats, outputs %d sats",
			common.ErrUnderfunded, totalInput, totalFixed)
	}
	change := totalInput - totalFixed - EstimatedMinerFee
	if change >= DustLimit {
		changeScript, err := common.AddrToPkScript(buyerChangeAddress, p.chain)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(change, changeScript))
	}

	sigRequests := make([]*SigRequest, 0, len(funding))
	for i, utxo := range funding {
		sigRequests = append(sigRequests, &SigRequest{
			InputIndex: uint32(i + 1), // input 0 is the ordinal
			PrevTxid:   utxo.Txid,
			PrevVout:   utxo.Vout,
			Value:      utxo.Value,
			PkScript:   utxo.PkScript,
		})
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}

	return &UnsignedSettlement{
		RawTxHex:    hex.EncodeToString(buf.Bytes()),
		Txid:        tx.TxHash().String(),
		SigRequests: sigRequests,
	}, nil
}
