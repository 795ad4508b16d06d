package ordinals

import "time"

// Typed view of the 1Sat-style indexer responses. Parsed and validated once at
// this boundary; nothing downstream re-reads raw JSON.

type TxOutput struct {
	Txid     string  `json:"txid"`
	Vout     uint32  `json:"vout"`
	Outpoint string  `json:"outpoint"`
	Satoshis int64   `json:"satoshis"`
	Script   string  `json:"script"` // base64
	Height   *int64  `json:"height"`
	Spend    string  `json:"spend"`
	Origin   *Origin `json:"origin"`
}

// IsInscription reports whether the output carries inscribed data. Plain
// payment outputs have no origin record.
func (p *TxOutput) IsInscription() bool {
	return p.Origin != nil
}

type Origin struct {
	Outpoint string      `json:"outpoint"`
	Num      string      `json:"num"` // "height:idx:vout"
	Data     *OriginData `json:"data"`
}

type OriginData struct {
	Insc *InscriptionData       `json:"insc"`
	Map  map[string]interface{} `json:"map"`
}

type InscriptionData struct {
	File *InscriptionFile `json:"file"`
}

type InscriptionFile struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// OrdinalDetails combines utxo and inscription data for API consumers.
type OrdinalDetails struct {
	Origin            string                 `json:"origin"`
	Txid              string                 `json:"txid"`
	Vout              uint32                 `json:"vout"`
	OwnerAddress      string                 `json:"ownerAddress"`
	Satoshis          int64                  `json:"satoshis"`
	ContentType       string                 `json:"contentType,omitempty"`
	ContentSize       int64                  `json:"contentSize,omitempty"`
	ContentHash       string                 `json:"contentHash,omitempty"`
	BlockHeight       *int64                 `json:"blockHeight,omitempty"`
	InscriptionNumber int64                  `json:"inscriptionNumber,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CollectionId      string                 `json:"collectionId,omitempty"`
	ContentUrl        string                 `json:"contentUrl"`
	PreviewUrl        string                 `json:"previewUrl"`
	FetchedAt         time.Time              `json:"fetchedAt"`
}

type WalletOrdinals struct {
	Address     string            `json:"address"`
	TotalCount  int               `json:"totalCount"`
	Ordinals    []*OrdinalDetails `json:"ordinals"`
	FetchedAt   time.Time         `json:"fetchedAt"`
	FetchTimeMs int64             `json:"fetchTimeMs"`
}

type CacheStats struct {
	OwnershipEntries int     `json:"ownershipEntries"`
	ContentEntries   int     `json:"contentEntries"`
	HitRatePercent   float64 `json:"hitRatePercent"`
}
