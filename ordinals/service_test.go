package ordinals

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ordmarket-labs/ordmarket/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScriptHex = "0014aabbccddeeff00112233445566778899aabbccdd"

func testScriptBase64(t *testing.T) string {
	raw, err := hex.DecodeString(testScriptHex)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func newIndexerStub(t *testing.T, utxos []*TxOutput, requests *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		switch {
		case r.URL.Path == "/txos/address/addr1/unspent":
			json.NewEncoder(w).Encode(utxos)
		case r.URL.Path == "/txos/address/empty/unspent":
			http.NotFound(w, r)
		case r.URL.Path == "/files/inscriptions/itx_0":
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprint(w, "png-bytes")
		default:
			http.NotFound(w, r)
		}
	}))
}

func testUtxos(t *testing.T) []*TxOutput {
	height := int64(850000)
	script := testScriptBase64(t)
	return []*TxOutput{
		{
			Txid: "itx", Vout: 0, Outpoint: "itx_0", Satoshis: 1,
			Script: script, Height: &height,
			Origin: &Origin{
				Outpoint: "itx_0",
				Num:      "777:0:0",
				Data: &OriginData{
					Insc: &InscriptionData{File: &InscriptionFile{
						Hash: "h1", Size: 1234, Type: "image/png",
					}},
					Map: map[string]interface{}{
						"subTypeData": map[string]interface{}{"collectionId": "col1"},
					},
				},
			},
		},
		{Txid: "ptx", Vout: 1, Outpoint: "ptx_1", Satoshis: 60000, Script: script},
		{Txid: "stx", Vout: 0, Outpoint: "stx_0", Satoshis: 5000, Script: script, Spend: "spent_by"},
	}
}

func newTestService(baseUrl string) *Service {
	client := NewClient(baseUrl, 2, 5*time.Second)
	return NewService(client, time.Minute, time.Minute, time.Minute)
}

func TestGetWalletOrdinals(t *testing.T) {
	var requests atomic.Int64
	server := newIndexerStub(t, testUtxos(t), &requests)
	defer server.Close()

	svc := newTestService(server.URL)

	wallet, err := svc.GetWalletOrdinals(context.Background(), "addr1")
	require.NoError(t, err)
	require.Equal(t, 1, wallet.TotalCount)

	details := wallet.Ordinals[0]
	assert.Equal(t, "itx_0", details.Origin)
	assert.Equal(t, "image/png", details.ContentType)
	assert.Equal(t, int64(1234), details.ContentSize)
	assert.Equal(t, int64(777), details.InscriptionNumber)
	assert.Equal(t, "col1", details.CollectionId)
	assert.Equal(t, "addr1", details.OwnerAddress)

	// second call served from cache
	_, err = svc.GetWalletOrdinals(context.Background(), "addr1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests.Load())

	// wallet fetch also primes the detail cache
	details, err = svc.GetOrdinalDetails(context.Background(), "itx_0")
	require.NoError(t, err)
	assert.NotNil(t, details)

	// a miss falls through to the origin endpoint, which the stub 404s
	details, err = svc.GetOrdinalDetails(context.Background(), "unknown_0")
	require.NoError(t, err)
	assert.Nil(t, details)

	// refresh bypasses the cache
	_, err = svc.RefreshWallet(context.Background(), "addr1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), requests.Load())

	stats := svc.Stats()
	assert.Equal(t, 1, stats.OwnershipEntries)
	assert.Greater(t, stats.HitRatePercent, float64(0))
}

func TestGetWalletOrdinalsEmptyAddress(t *testing.T) {
	server := newIndexerStub(t, nil, nil)
	defer server.Close()

	svc := newTestService(server.URL)
	wallet, err := svc.GetWalletOrdinals(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, wallet.TotalCount)
}

func TestGetAddressOutputs(t *testing.T) {
	var requests atomic.Int64
	server := newIndexerStub(t, testUtxos(t), &requests)
	defer server.Close()

	svc := newTestService(server.URL)

	outputs, err := svc.GetAddressOutputs(context.Background(), "addr1")
	require.NoError(t, err)

	// the inscription and the spent output are filtered out
	require.Len(t, outputs, 1)
	assert.Equal(t, "ptx", outputs[0].Txid)
	assert.Equal(t, uint32(1), outputs[0].Vout)
	assert.Equal(t, int64(60000), outputs[0].Value)
	assert.Equal(t, testScriptHex, outputs[0].PkScript)

	// funding outputs are never cached
	_, err = svc.GetAddressOutputs(context.Background(), "addr1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), requests.Load())
}

func TestGetOrdinalContent(t *testing.T) {
	var requests atomic.Int64
	server := newIndexerStub(t, nil, &requests)
	defer server.Close()

	svc := newTestService(server.URL)

	data, contentType, err := svc.GetOrdinalContent(context.Background(), "itx_0")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	// content is immutable, the second read is a cache hit
	_, _, err = svc.GetOrdinalContent(context.Background(), "itx_0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests.Load())
}

func TestClientUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2, time.Second)
	_, err := client.GetAddressUtxos(context.Background(), "addr1")
	assert.ErrorIs(t, err, common.ErrExternalUnavailable)
}
