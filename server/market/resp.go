package market

import (
	"time"

	"github.com/ordmarket-labs/ordmarket/market"
	"github.com/ordmarket-labs/ordmarket/ordinals"
	"github.com/ordmarket-labs/ordmarket/server/define"
)

type ListingResp struct {
	define.BaseResp
	Data *market.Listing `json:"data"`
}

type ListingsResp struct {
	define.BaseResp
	define.ListResp
	Data []*market.Listing `json:"data"`
}

type FeesResp struct {
	define.BaseResp
	Data *market.ListingFees `json:"data"`
}

type PrepareResp struct {
	define.BaseResp
	Data *market.UnsignedSettlement `json:"data"`
}

type PurchaseResult struct {
	ListingId string `json:"listingId"`
	Txid      string `json:"txid"`
	Status    string `json:"status"`
}

type PurchaseResp struct {
	define.BaseResp
	Data *PurchaseResult `json:"data"`
}

type WalletResp struct {
	define.BaseResp
	Data *ordinals.WalletOrdinals `json:"data"`
}

type OrdinalResp struct {
	define.BaseResp
	Data *ordinals.OrdinalDetails `json:"data"`
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Chain          string    `json:"chain"`
	BlockHeight    uint64    `json:"blockHeight,omitempty"`
	ActiveListings int       `json:"activeListings"`
	StartTime      time.Time `json:"startTime"`
	UptimeSecond   int64     `json:"uptimeSecond"`
}

type StatsData struct {
	ActiveListings int                 `json:"activeListings"`
	Cache          ordinals.CacheStats `json:"cache"`
}

type StatsResp struct {
	define.BaseResp
	Data *StatsData `json:"data"`
}
