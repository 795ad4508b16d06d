package market

import (
	"math"

	"github.com/ordmarket-labs/ordmarket/common"
)

// Marketplace takes 1% of the seller's ask; the optional tip is one of the
// fixed tiers below. Both are rounded up so fractional sats never short the
// platform.
const MarketplaceFeeRate = 0.01

var tipTiers = []float64{0, 2.5, 5}

// ListingFees is computed once at listing creation and never recomputed.
// TotalPrice is the single source of truth for what the buyer's funding must
// cover, excluding miner fee.
type ListingFees struct {
	SellerReceives int64   `json:"sellerReceives"`
	MarketplaceFee int64   `json:"marketplaceFee"`
	TipAmount      int64   `json:"tipAmount"`
	TipPercent     float64 `json:"tipPercent"`
	TotalPrice     int64   `json:"totalPrice"`
}

// CalcFees breaks a seller ask into the payout the buyer must fund. A tip
// outside the supported tiers is rejected here, so every path that builds fees
// applies the same policy.
func CalcFees(sellerWants int64, tipPercent float64) (*ListingFees, error) {
	if sellerWants <= 0 {
		return nil, common.ErrInvalidArgument
	}
	if !validTipPercent(tipPercent) {
		return nil, common.ErrInvalidTip
	}

	marketplaceFee := int64(math.Ceil(float64(sellerWants) * MarketplaceFeeRate))
	tipAmount := int64(math.Ceil(float64(sellerWants) * tipPercent / 100.0))

	return &ListingFees{
		SellerReceives: sellerWants,
		MarketplaceFee: marketplaceFee,
		TipAmount:      tipAmount,
		TipPercent:     tipPercent,
		TotalPrice:     sellerWants + marketplaceFee + tipAmount,
	}, nil
}

func validTipPercent(p float64) bool {
	for _, tier := range tipTiers {
		if p == tier {
			return true
		}
	}
	return false
}
