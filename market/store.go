package market

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ordmarket-labs/ordmarket/common"
	"github.com/ordmarket-labs/ordmarket/db"
)

const (
	listingKeyPrefix = "listing:"
	originKeyPrefix  = "listing_by_origin:"
	sellerKeyPrefix  = "listing_by_seller:"
)

// Store keeps listings in a KVDB under three key spaces: the record itself,
// an origin index present only while the listing is active, and a seller
// index present for every listing. A status transition and its index change
// always flush through one write batch, and all mutations are serialized by
// the store mutex, so the origin check-and-insert in Create is atomic.
type Store struct {
	db  db.KVDB
	mtx sync.Mutex
}

func NewStore(kvdb db.KVDB) *Store {
	return &Store{db: kvdb}
}

func listingKey(id string) []byte {
	return []byte(listingKeyPrefix + id)
}

func originKey(origin string) []byte {
	return []byte(originKeyPrefix + origin)
}

func sellerKey(seller, id string) []byte {
	return []byte(sellerKeyPrefix + seller + ":" + id)
}

// Create opens a new listing. Fails with ErrConflict while another active
// listing holds the same origin, and with ErrInvalidTip/ErrInvalidArgument on
// a bad request.
func (p *Store) Create(req *CreateListingRequest) (*Listing, error) {
	fees, err := CalcFees(req.SellerWants, req.TipPercent)
	if err != nil {
		return nil, err
	}
	if req.Origin == "" || req.SellerAddress == "" || req.SellerOrdAddress == "" {
		return nil, common.ErrInvalidArgument
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	_, err = p.db.Read(originKey(req.Origin))
	if err == nil {
		return nil, fmt.Errorf("%w: origin %s", common.ErrConflict, req.Origin)
	}
	if err != db.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	now := time.Now().UTC()
	listing := &Listing{
		Id:               uuid.NewString(),
		Origin:           req.Origin,
		Status:           StatusActive,
		SellerAddress:    req.SellerAddress,
		SellerOrdAddress: req.SellerOrdAddress,
		Fees:             *fees,
		OrdinalUtxo:      req.OrdinalUtxo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	value, err := json.Marshal(listing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	wb := p.db.NewWriteBatch()
	defer wb.Close()
	wb.Put(listingKey(listing.Id), value)
	wb.Put(originKey(listing.Origin), []byte(listing.Id))
	wb.Put(sellerKey(listing.SellerAddress, listing.Id), []byte(listing.Id))
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	common.Log.Infof("created listing %s for origin %s at %d sats",
		listing.Id, listing.Origin, listing.Fees.TotalPrice)
	return listing, nil
}

// Get returns nil without error when the listing does not exist.
func (p *Store) Get(id string) (*Listing, error) {
	value, err := p.db.Read(listingKey(id))
	if err == db.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	var listing Listing
	if err := json.Unmarshal(value, &listing); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return &listing, nil
}

func (p *Store) GetByOrigin(origin string) (*Listing, error) {
	id, err := p.db.Read(originKey(origin))
	if err == db.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return p.Get(string(id))
}

// Cancel moves an active listing to cancelled and frees its origin for
// relisting. Only the seller's ordinal address may cancel.
func (p *Store) Cancel(id, sellerOrdAddress string) (*Listing, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	listing, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: listing %s", common.ErrNotFound, id)
	}
	if listing.SellerOrdAddress != sellerOrdAddress {
		return nil, common.ErrUnauthorized
	}
	if listing.Status != StatusActive {
		return nil, common.ErrInvalidState
	}

	listing.Status = StatusCancelled
	listing.UpdatedAt = time.Now().UTC()

	if err := p.flushStatusChange(listing); err != nil {
		return nil, err
	}
	common.Log.Infof("cancelled listing %s", id)
	return listing, nil
}

// MarkSold finalizes the sale. Status, buyer, txid and timestamps land in one
// batch together with the origin index removal; calling it twice fails with
// ErrInvalidState.
func (p *Store) MarkSold(id, buyerAddress, purchaseTxid string) (*Listing, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	listing, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: listing %s", common.ErrNotFound, id)
	}
	if listing.Status != StatusActive {
		return nil, common.ErrInvalidState
	}

	now := time.Now().UTC()
	listing.Status = StatusSold
	listing.SoldAt = &now
	listing.BuyerAddress = buyerAddress
	listing.PurchaseTxid = purchaseTxid
	listing.UpdatedAt = now

	if err := p.flushStatusChange(listing); err != nil {
		return nil, err
	}
	common.Log.Infof("listing %s sold to %s in tx %s", id, buyerAddress, purchaseTxid)
	return listing, nil
}

// Update overwrites a listing record. The stored record must still be active;
// leaving the active status drops the origin index in the same batch.
func (p *Store) Update(listing *Listing) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	current, err := p.Get(listing.Id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: listing %s", common.ErrNotFound, listing.Id)
	}
	if current.Status != StatusActive {
		return common.ErrInvalidState
	}

	listing.UpdatedAt = time.Now().UTC()
	if listing.Status != StatusActive {
		return p.flushStatusChange(listing)
	}

	value, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if err := p.db.Write(listingKey(listing.Id), value); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

// flushStatusChange persists a listing that just left the active status and
// removes its origin index entry as one unit.
func (p *Store) flushStatusChange(listing *Listing) error {
	value, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	wb := p.db.NewWriteBatch()
	defer wb.Close()
	wb.Put(listingKey(listing.Id), value)
	wb.Delete(originKey(listing.Origin))
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

// ListActive returns one page of active listings, newest first, with the
// total count of active listings. Pages are 1-indexed.
func (p *Store) ListActive(page, perPage int) ([]*Listing, int, error) {
	if page < 1 || perPage <= 0 {
		return nil, 0, common.ErrInvalidArgument
	}

	listings, err := p.scanWithStatus(StatusActive)
	if err != nil {
		return nil, 0, err
	}
	total := len(listings)

	start := (page - 1) * perPage
	if start >= total {
		return []*Listing{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return listings[start:end], total, nil
}

// ListBySeller returns every listing of a seller regardless of status,
// newest first.
func (p *Store) ListBySeller(sellerAddress string) ([]*Listing, error) {
	prefix := []byte(sellerKeyPrefix + sellerAddress + ":")
	listings := make([]*Listing, 0)
	err := p.db.BatchRead(prefix, false, func(k, v []byte) error {
		listing, err := p.Get(string(v))
		if err != nil {
			return err
		}
		if listing != nil {
			listings = append(listings, listing)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	sortNewestFirst(listings)
	return listings, nil
}

func (p *Store) CountActive() int {
	listings, err := p.scanWithStatus(StatusActive)
	if err != nil {
		common.Log.Errorf("failed to count active listings: %v", err)
		return 0
	}
	return len(listings)
}

func (p *Store) IsOriginListed(origin string) (bool, error) {
	listing, err := p.GetByOrigin(origin)
	if err != nil {
		return false, err
	}
	return listing != nil, nil
}

func (p *Store) scanWithStatus(status ListingStatus) ([]*Listing, error) {
	listings := make([]*Listing, 0)
	err := p.db.BatchRead([]byte(listingKeyPrefix), false, func(k, v []byte) error {
		var listing Listing
		if err := json.Unmarshal(v, &listing); err != nil {
			common.Log.Errorf("bad listing record %s: %v", string(k), err)
			return nil
		}
		if listing.Status == status {
			listings = append(listings, &listing)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	sortNewestFirst(listings)
	return listings, nil
}

func sortNewestFirst(listings []*Listing) {
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
}
