package market

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ordmarket-labs/ordmarket/market"
	"github.com/ordmarket-labs/ordmarket/ordinals"
	"github.com/ordmarket-labs/ordmarket/share/bitcoin_rpc"
)

type Service struct {
	store      *market.Store
	settlement *market.Settlement
	ordinals   *ordinals.Service
	rpc        bitcoin_rpc.BitcoinRPC
	chain      string
	startTime  time.Time
}

func NewService(store *market.Store, settlement *market.Settlement,
	ordSvc *ordinals.Service, rpc bitcoin_rpc.BitcoinRPC, chain string) *Service {
	return &Service{
		store:      store,
		settlement: settlement,
		ordinals:   ordSvc,
		rpc:        rpc,
		chain:      chain,
		startTime:  time.Now(),
	}
}

func (s *Service) InitRouter(r *gin.Engine, basePath string) {
	// 心跳
	r.GET(basePath+"/health", s.getHealth)
	r.GET(basePath+"/stats", s.getStats)

	// listing lifecycle
	r.POST(basePath+"/listings", s.createListing)
	r.GET(basePath+"/listings", s.getListings)
	r.GET(basePath+"/listings/:id", s.getListing)
	r.POST(basePath+"/listings/:id/cancel", s.cancelListing)
	r.GET(basePath+"/sellers/:address/listings", s.getSellerListings)

	// settlement
	r.POST(basePath+"/listings/:id/prepare-purchase", s.preparePurchase)
	r.POST(basePath+"/listings/:id/purchase", s.finalizePurchase)

	// fee preview
	r.GET(basePath+"/fees/calculate", s.calcFees)

	// ordinals read side
	r.GET(basePath+"/wallet/:address", s.getWalletOrdinals)
	r.POST(basePath+"/wallet/:address/refresh", s.refreshWallet)
	r.GET(basePath+"/ordinal/:origin", s.getOrdinal)
	r.GET(basePath+"/ordinal/:origin/content", s.getOrdinalContent)
	r.GET(basePath+"/ordinal/:origin/listing", s.getOrdinalListing)
}
