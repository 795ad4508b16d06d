package ordinals

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ordmarket-labs/ordmarket/common"
	"github.com/ordmarket-labs/ordmarket/market"
)

var log = common.GetLoggerEntry("ordinals")

type contentEntry struct {
	data        []byte
	contentType string
}

// Service caches indexer lookups with per-kind TTLs: ownership changes fast,
// metadata slower, content never. Funding outputs are always fetched fresh.
type Service struct {
	client *Client

	walletCache  *gocache.Cache
	detailCache  *gocache.Cache
	contentCache *gocache.Cache

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewService(client *Client, ownershipTtl, metadataTtl, contentTtl time.Duration) *Service {
	return &Service{
		client:       client,
		walletCache:  gocache.New(ownershipTtl, 2*ownershipTtl),
		detailCache:  gocache.New(metadataTtl, 2*metadataTtl),
		contentCache: gocache.New(contentTtl, time.Hour),
	}
}

// GetWalletOrdinals returns every inscription held by an address, enriched
// with file metadata from the origin record.
func (p *Service) GetWalletOrdinals(ctx context.Context, address string) (*WalletOrdinals, error) {
	if cached, ok := p.walletCache.Get(address); ok {
		p.hits.Add(1)
		return cached.(*WalletOrdinals), nil
	}
	p.misses.Add(1)

	start := time.Now()
	utxos, err := p.client.GetAddressUtxos(ctx, address)
	if err != nil {
		return nil, err
	}

	ordinals := make([]*OrdinalDetails, 0)
	for _, utxo := range utxos {
		if !utxo.IsInscription() {
			continue
		}
		details := p.newOrdinalDetails(utxo, address)
		p.detailCache.SetDefault(details.Origin, details)
		ordinals = append(ordinals, details)
	}

	wallet := &WalletOrdinals{
		Address:     address,
		TotalCount:  len(ordinals),
		Ordinals:    ordinals,
		FetchedAt:   time.Now().UTC(),
		FetchTimeMs: time.Since(start).Milliseconds(),
	}
	p.walletCache.SetDefault(address, wallet)

	log.Infof("fetched %d ordinals for %s in %dms", wallet.TotalCount, address, wallet.FetchTimeMs)
	return wallet, nil
}

// GetOrdinalDetails serves from the metadata cache, falling back to an origin
// lookup at the indexer. Returns nil without error when the origin is unknown.
func (p *Service) GetOrdinalDetails(ctx context.Context, origin string) (*OrdinalDetails, error) {
	if cached, ok := p.detailCache.Get(origin); ok {
		p.hits.Add(1)
		return cached.(*OrdinalDetails), nil
	}
	p.misses.Add(1)

	utxo, err := p.client.GetOriginUtxo(ctx, origin)
	if err != nil {
		return nil, err
	}
	if utxo == nil || !utxo.IsInscription() {
		return nil, nil
	}

	// owner unknown on this path, the origin endpoint carries no address
	details := p.newOrdinalDetails(utxo, "")
	p.detailCache.SetDefault(origin, details)
	return details, nil
}

// GetOrdinalContent fetches the inscribed file, caching it long: content is
// immutable once inscribed.
func (p *Service) GetOrdinalContent(ctx context.Context, origin string) ([]byte, string, error) {
	if cached, ok := p.contentCache.Get(origin); ok {
		p.hits.Add(1)
		entry := cached.(*contentEntry)
		return entry.data, entry.contentType, nil
	}
	p.misses.Add(1)

	data, contentType, err := p.client.GetInscriptionContent(ctx, origin)
	if err != nil {
		return nil, "", err
	}
	p.contentCache.SetDefault(origin, &contentEntry{data: data, contentType: contentType})
	return data, contentType, nil
}

// RefreshWallet drops the cached summary and refetches.
func (p *Service) RefreshWallet(ctx context.Context, address string) (*WalletOrdinals, error) {
	p.walletCache.Delete(address)
	return p.GetWalletOrdinals(ctx, address)
}

// GetAddressOutputs returns the buyer's plain payment outputs for funding a
// purchase: unspent, not carrying an inscription. Never cached; stale funding
// data produces doomed settlement transactions.
func (p *Service) GetAddressOutputs(ctx context.Context, address string) ([]*market.BuyerUtxo, error) {
	utxos, err := p.client.GetAddressUtxos(ctx, address)
	if err != nil {
		return nil, err
	}

	outputs := make([]*market.BuyerUtxo, 0, len(utxos))
	for _, utxo := range utxos {
		if utxo.IsInscription() || utxo.Spend != "" {
			continue
		}
		script, err := base64.StdEncoding.DecodeString(utxo.Script)
		if err != nil {
			log.Warnf("skipping utxo %s:%d with bad script: %v", utxo.Txid, utxo.Vout, err)
			continue
		}
		outputs = append(outputs, &market.BuyerUtxo{
			Txid:     utxo.Txid,
			Vout:     utxo.Vout,
			Value:    utxo.Satoshis,
			PkScript: hex.EncodeToString(script),
		})
	}
	return outputs, nil
}

func (p *Service) Stats() CacheStats {
	hits := p.hits.Load()
	misses := p.misses.Load()
	rate := float64(0)
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses) * 100
	}
	return CacheStats{
		OwnershipEntries: p.walletCache.ItemCount(),
		ContentEntries:   p.contentCache.ItemCount(),
		HitRatePercent:   rate,
	}
}

func (p *Service) newOrdinalDetails(utxo *TxOutput, owner string) *OrdinalDetails {
	origin := utxo.Origin
	details := &OrdinalDetails{
		Origin:       origin.Outpoint,
		Txid:         utxo.Txid,
		Vout:         utxo.Vout,
		OwnerAddress: owner,
		Satoshis:     utxo.Satoshis,
		BlockHeight:  utxo.Height,
		ContentUrl:   p.client.ContentUrl(origin.Outpoint),
		PreviewUrl:   p.client.ContentUrl(origin.Outpoint),
		FetchedAt:    time.Now().UTC(),
	}
	if details.Origin == "" {
		details.Origin = utxo.Outpoint
	}

	if origin.Data != nil {
		if origin.Data.Insc != nil && origin.Data.Insc.File != nil {
			file := origin.Data.Insc.File
			details.ContentType = file.Type
			details.ContentSize = file.Size
			details.ContentHash = file.Hash
		}
		details.Metadata = origin.Data.Map
		details.CollectionId = collectionId(origin.Data.Map)
	}

	// origin num is "height:idx:vout"; the first field is the inscription number
	if origin.Num != "" {
		if n, err := strconv.ParseInt(strings.SplitN(origin.Num, ":", 2)[0], 10, 64); err == nil {
			details.InscriptionNumber = n
		}
	}
	return details
}

func collectionId(metadata map[string]interface{}) string {
	if metadata == nil {
		return ""
	}
	sub, ok := metadata["subTypeData"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := sub["collectionId"].(string)
	return id
}
