package market

import (
	"fmt"
	"time"
)

type ListingStatus string

const (
	StatusActive    ListingStatus = "active"
	StatusSold      ListingStatus = "sold"
	StatusCancelled ListingStatus = "cancelled"
)

// OrdinalUtxoRef points at the on-chain output holding the listed ordinal. It
// is fixed at creation; the settlement transaction spends exactly this output.
type OrdinalUtxoRef struct {
	Txid     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Value    int64  `json:"value"`
	PkScript string `json:"pkScript"` // hex
}

func (p *OrdinalUtxoRef) OutPointStr() string {
	return outPointStr(p.Txid, p.Vout)
}

// Listing is one sale offer, from creation through sale or cancellation.
type Listing struct {
	Id     string        `json:"id"`
	Origin string        `json:"origin"` // txid_vout of the ordinal's first appearance
	Status ListingStatus `json:"status"`

	SellerAddress    string `json:"sellerAddress"`    // receives payment
	SellerOrdAddress string `json:"sellerOrdAddress"` // authorizes cancellation

	Fees        ListingFees    `json:"fees"`
	OrdinalUtxo OrdinalUtxoRef `json:"ordinalUtxo"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	SoldAt    *time.Time `json:"soldAt,omitempty"`

	BuyerAddress string `json:"buyerAddress,omitempty"`
	PurchaseTxid string `json:"purchaseTxid,omitempty"`
}

// CreateListingRequest carries everything needed to open a listing.
type CreateListingRequest struct {
	Origin           string         `json:"origin"`
	OrdinalUtxo      OrdinalUtxoRef `json:"ordinalUtxo"`
	SellerWants      int64          `json:"sellerWantsSatoshis"`
	TipPercent       float64        `json:"tipPercent"`
	SellerAddress    string         `json:"sellerAddress"`
	SellerOrdAddress string         `json:"sellerOrdAddress"`
}

// BuyerUtxo is a candidate funding output for a purchase. Fetched fresh from
// the indexer per attempt, never persisted.
type BuyerUtxo struct {
	Txid     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Value    int64  `json:"value"`
	PkScript string `json:"pkScript"` // hex
}

// SigRequest identifies one settlement input the buyer's wallet must sign.
type SigRequest struct {
	InputIndex uint32 `json:"inputIndex"`
	PrevTxid   string `json:"prevTxid"`
	PrevVout   uint32 `json:"prevVout"`
	Value      int64  `json:"value"`
	PkScript   string `json:"pkScript"` // hex
}

// UnsignedSettlement is the assembled settlement transaction before signing.
// Input 0 (the ordinal) carries no SigRequest; it is satisfied by the listing
// authorization, not a buyer signature.
type UnsignedSettlement struct {
	RawTxHex    string        `json:"rawTxHex"`
	Txid        string        `json:"txid"`
	SigRequests []*SigRequest `json:"sigRequests"`
}

func outPointStr(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}
