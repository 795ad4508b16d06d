package market

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ordmarket-labs/ordmarket/common"
	"github.com/ordmarket-labs/ordmarket/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	kvdb := db.NewKVDB(t.TempDir() + "/market")
	require.NotNil(t, kvdb)
	t.Cleanup(func() { kvdb.Close() })
	return NewStore(kvdb)
}

func testCreateReq(origin, seller string) *CreateListingRequest {
	return &CreateListingRequest{
		Origin: origin,
		OrdinalUtxo: OrdinalUtxoRef{
			Txid:  "9f2d5e1a0b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6",
			Vout:  0,
			Value: 546,
		},
		SellerWants:      10000,
		TipPercent:       2.5,
		SellerAddress:    seller,
		SellerOrdAddress: seller + "_ord",
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	listing, err := store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)
	require.NotEmpty(t, listing.Id)
	assert.Equal(t, StatusActive, listing.Status)
	assert.Equal(t, int64(10000), listing.Fees.SellerReceives)
	assert.Equal(t, int64(100), listing.Fees.MarketplaceFee)
	assert.Equal(t, int64(250), listing.Fees.TipAmount)
	assert.Equal(t, int64(10350), listing.Fees.TotalPrice)

	got, err := store.Get(listing.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, listing.Id, got.Id)
	assert.Equal(t, "origin_0", got.Origin)

	byOrigin, err := store.GetByOrigin("origin_0")
	require.NoError(t, err)
	require.NotNil(t, byOrigin)
	assert.Equal(t, listing.Id, byOrigin.Id)

	missing, err := store.Get("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreCreateRejectsDuplicateOrigin(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)

	_, err = store.Create(testCreateReq("origin_0", "seller2"))
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestStoreCreateRejectsBadRequest(t *testing.T) {
	store := newTestStore(t)

	req := testCreateReq("origin_0", "seller1")
	req.TipPercent = 3
	_, err := store.Create(req)
	assert.ErrorIs(t, err, common.ErrInvalidTip)

	req = testCreateReq("origin_0", "seller1")
	req.SellerWants = 0
	_, err = store.Create(req)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	req = testCreateReq("", "seller1")
	_, err = store.Create(req)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestStoreCancel(t *testing.T) {
	store := newTestStore(t)

	listing, err := store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)

	_, err = store.Cancel(listing.Id, "someone-else")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = store.Cancel("no-such-id", "seller1_ord")
	assert.ErrorIs(t, err, common.ErrNotFound)

	cancelled, err := store.Cancel(listing.Id, "seller1_ord")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// terminal state
	_, err = store.Cancel(listing.Id, "seller1_ord")
	assert.ErrorIs(t, err, common.ErrInvalidState)

	// origin is free again
	listed, err := store.IsOriginListed("origin_0")
	require.NoError(t, err)
	assert.False(t, listed)

	_, err = store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)
}

func TestStoreMarkSold(t *testing.T) {
	store := newTestStore(t)

	listing, err := store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)

	sold, err := store.MarkSold(listing.Id, "buyer1", "txid1")
	require.NoError(t, err)
	assert.Equal(t, StatusSold, sold.Status)
	assert.Equal(t, "buyer1", sold.BuyerAddress)
	assert.Equal(t, "txid1", sold.PurchaseTxid)
	require.NotNil(t, sold.SoldAt)

	// selling twice must not overwrite the first sale
	_, err = store.MarkSold(listing.Id, "buyer2", "txid2")
	assert.ErrorIs(t, err, common.ErrInvalidState)

	got, err := store.Get(listing.Id)
	require.NoError(t, err)
	assert.Equal(t, "buyer1", got.BuyerAddress)
	assert.Equal(t, "txid1", got.PurchaseTxid)

	// a sold origin stays off the index forever
	listed, err := store.IsOriginListed("origin_0")
	require.NoError(t, err)
	assert.False(t, listed)

	_, err = store.Cancel(listing.Id, "seller1_ord")
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestStoreListActivePagination(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := store.Create(testCreateReq(fmt.Sprintf("origin_%d", i), "seller1"))
		require.NoError(t, err)
	}
	sold, err := store.Create(testCreateReq("origin_sold", "seller1"))
	require.NoError(t, err)
	_, err = store.MarkSold(sold.Id, "buyer1", "txid1")
	require.NoError(t, err)

	page, total, err := store.ListActive(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	page, total, err = store.ListActive(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 1)

	page, total, err = store.ListActive(4, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 0)

	_, _, err = store.ListActive(0, 2)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, _, err = store.ListActive(1, 0)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, _, err = store.ListActive(1, -1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, _, err = store.ListActive(-3, -7)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	assert.Equal(t, 5, store.CountActive())
}

func TestStoreListBySeller(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)
	_, err = store.Create(testCreateReq("origin_1", "seller2"))
	require.NoError(t, err)
	_, err = store.Cancel(a.Id, "seller1_ord")
	require.NoError(t, err)

	listings, err := store.ListBySeller("seller1")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, StatusCancelled, listings[0].Status)

	listings, err = store.ListBySeller("nobody")
	require.NoError(t, err)
	assert.Len(t, listings, 0)
}

func TestCountActiveStorageFailure(t *testing.T) {
	kvdb := db.NewKVDB(t.TempDir() + "/market")
	require.NotNil(t, kvdb)
	store := NewStore(kvdb)

	_, err := store.Create(testCreateReq("origin_0", "seller1"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.CountActive())

	// a failed scan reports zero instead of panicking
	require.NoError(t, kvdb.Close())
	assert.Equal(t, 0, store.CountActive())
}

func TestStoreConcurrentCreateSameOrigin(t *testing.T) {
	store := newTestStore(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = store.Create(testCreateReq("origin_hot", fmt.Sprintf("seller%d", n)))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, common.ErrConflict)
		}
	}
	assert.Equal(t, 1, created)

	listing, err := store.GetByOrigin("origin_hot")
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, StatusActive, listing.Status)
}
