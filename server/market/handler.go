package market

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ordmarket-labs/ordmarket/common"
	"github.com/ordmarket-labs/ordmarket/market"
	"github.com/ordmarket-labs/ordmarket/server/define"
)

// @Summary Health Check
// @Description Check the health status of the service
// @Tags market
// @Produce json
// @Success 200 {object} HealthStatus "Successful response"
// @Router /health [get]
func (s *Service) getHealth(c *gin.Context) {
	rsp := &HealthStatus{
		Status:         "ok",
		Chain:          s.chain,
		ActiveListings: s.store.CountActive(),
		StartTime:      s.startTime.UTC(),
		UptimeSecond:   int64(time.Since(s.startTime).Seconds()),
	}

	if s.rpc != nil {
		height, err := s.rpc.GetBlockCount()
		if err != nil {
			rsp.Status = "degraded"
		} else {
			rsp.BlockHeight = height
		}
	}

	c.JSON(http.StatusOK, rsp)
}

func (s *Service) getStats(c *gin.Context) {
	resp := &StatsResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
		Data: &StatsData{
			ActiveListings: s.store.CountActive(),
			Cache:          s.ordinals.Stats(),
		},
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Create a listing
// @Description Open a listing for an ordinal at a fixed price
// @Tags market
// @Accept json
// @Produce json
// @Param request body market.CreateListingRequest true "listing request"
// @Success 200 {object} ListingResp "Successful response"
// @Router /listings [post]
func (s *Service) createListing(c *gin.Context) {
	resp := &ListingResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	var req market.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	if !common.IsValidAddr(req.SellerAddress, s.chain) ||
		!common.IsValidAddr(req.SellerOrdAddress, s.chain) {
		resp.Code = -1
		resp.Msg = common.ErrInvalidAddress.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	listing, err := s.store.Create(&req)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = listing
	c.JSON(http.StatusOK, resp)
}

// @Summary List active listings
// @Description Page through active listings, newest first
// @Tags market
// @Produce json
// @Param page query int false "page, 1-based"
// @Param limit query int false "page size"
// @Success 200 {object} ListingsResp "Successful response"
// @Router /listings [get]
func (s *Service) getListings(c *gin.Context) {
	resp := &ListingsResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	listings, total, err := s.store.ListActive(page, limit)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Start = int64((page - 1) * limit)
	resp.Total = uint64(total)
	resp.Data = listings
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getListing(c *gin.Context) {
	resp := &ListingResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	listing, err := s.store.Get(c.Param("id"))
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	if listing == nil {
		resp.Code = -1
		resp.Msg = common.ErrNotFound.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = listing
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getSellerListings(c *gin.Context) {
	resp := &ListingsResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	listings, err := s.store.ListBySeller(c.Param("address"))
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Total = uint64(len(listings))
	resp.Data = listings
	c.JSON(http.StatusOK, resp)
}

type cancelReq struct {
	ListingId        string `json:"listingId"`
	SellerOrdAddress string `json:"sellerOrdAddress" binding:"required"`
}

// @Summary Cancel a listing
// @Description Cancel an active listing; only the seller's ordinal address may cancel
// @Tags market
// @Accept json
// @Produce json
// @Param id path string true "listing id"
// @Param request body cancelReq true "cancel request"
// @Success 200 {object} ListingResp "Successful response"
// @Router /listings/{id}/cancel [post]
func (s *Service) cancelListing(c *gin.Context) {
	resp := &ListingResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	id := c.Param("id")
	if req.ListingId != "" && req.ListingId != id {
		resp.Code = -1
		resp.Msg = "listing id mismatch"
		c.JSON(http.StatusOK, resp)
		return
	}

	listing, err := s.store.Cancel(id, req.SellerOrdAddress)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = listing
	c.JSON(http.StatusOK, resp)
}

type prepareReq struct {
	BuyerOrdAddress     string `json:"buyerOrdAddress" binding:"required"`
	BuyerPaymentAddress string `json:"buyerPaymentAddress" binding:"required"`
}

// @Summary Prepare a purchase
// @Description Assemble the unsigned settlement transaction for a listing
// @Tags market
// @Accept json
// @Produce json
// @Param id path string true "listing id"
// @Param request body prepareReq true "buyer addresses"
// @Success 200 {object} PrepareResp "Successful response"
// @Router /listings/{id}/prepare-purchase [post]
func (s *Service) preparePurchase(c *gin.Context) {
	resp := &PrepareResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	var req prepareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	if !common.IsValidAddr(req.BuyerOrdAddress, s.chain) ||
		!common.IsValidAddr(req.BuyerPaymentAddress, s.chain) {
		resp.Code = -1
		resp.Msg = common.ErrInvalidAddress.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	settlement, err := s.settlement.PreparePurchase(c.Request.Context(),
		c.Param("id"), req.BuyerOrdAddress, req.BuyerPaymentAddress)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = settlement
	c.JSON(http.StatusOK, resp)
}

type purchaseReq struct {
	ListingId   string `json:"listingId"`
	SignedTxHex string `json:"signedTxHex" binding:"required"`
}

// @Summary Finalize a purchase
// @Description Broadcast the signed settlement transaction and mark the listing sold
// @Tags market
// @Accept json
// @Produce json
// @Param id path string true "listing id"
// @Param request body purchaseReq true "signed transaction"
// @Success 200 {object} PurchaseResp "Successful response"
// @Router /listings/{id}/purchase [post]
func (s *Service) finalizePurchase(c *gin.Context) {
	resp := &PurchaseResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	var req purchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	id := c.Param("id")
	if req.ListingId != "" && req.ListingId != id {
		resp.Code = -1
		resp.Msg = "listing id mismatch"
		c.JSON(http.StatusOK, resp)
		return
	}

	txid, err := s.settlement.FinalizePurchase(c.Request.Context(), id, req.SignedTxHex)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = &PurchaseResult{
		ListingId: id,
		Txid:      txid,
		Status:    string(market.StatusSold),
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Fee preview
// @Description Compute marketplace fee, tip and total price for an ask
// @Tags market
// @Produce json
// @Param price query int true "seller wants, satoshis"
// @Param tip query number false "tip percent, one of 0, 2.5, 5"
// @Success 200 {object} FeesResp "Successful response"
// @Router /fees/calculate [get]
func (s *Service) calcFees(c *gin.Context) {
	resp := &FeesResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	price, err := strconv.ParseInt(c.Query("price"), 10, 64)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	tip, err := strconv.ParseFloat(c.DefaultQuery("tip", "0"), 64)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	fees, err := market.CalcFees(price, tip)
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = fees
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getWalletOrdinals(c *gin.Context) {
	resp := &WalletResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	wallet, err := s.ordinals.GetWalletOrdinals(c.Request.Context(), c.Param("address"))
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = wallet
	c.JSON(http.StatusOK, resp)
}

func (s *Service) refreshWallet(c *gin.Context) {
	resp := &WalletResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	wallet, err := s.ordinals.RefreshWallet(c.Request.Context(), c.Param("address"))
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = wallet
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getOrdinal(c *gin.Context) {
	resp := &OrdinalResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	details, err := s.ordinals.GetOrdinalDetails(c.Request.Context(), c.Param("origin"))
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	if details == nil {
		resp.Code = -1
		resp.Msg = common.ErrNotFound.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = details
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getOrdinalContent(c *gin.Context) {
	data, contentType, err := s.ordinals.GetOrdinalContent(c.Request.Context(), c.Param("origin"))
	if err != nil {
		resp := &define.BaseResp{Code: -1, Msg: err.Error()}
		c.JSON(http.StatusOK, resp)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}

func (s *Service) getOrdinalListing(c *gin.Context) {
	resp := &ListingResp{
		BaseResp: define.BaseResp{Code: 0, Msg: "ok"},
	}

	listing, err := s.store.GetByOrigin(c.Param("origin"))
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	if listing == nil {
		resp.Code = -1
		resp.Msg = common.ErrNotFound.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Data = listing
	c.JSON(http.StatusOK, resp)
}
