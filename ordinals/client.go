package ordinals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/ordmarket-labs/ordmarket/common"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 5
	retryAttempts        = 3
)

// Client talks to the external ordinals indexer. Concurrent calls are capped
// by a semaphore and transient failures retried; a request that still fails
// surfaces as ErrExternalUnavailable.
type Client struct {
	baseUrl string
	client  *http.Client
	sem     *semaphore.Weighted
}

func NewClient(baseUrl string, maxConcurrent int64, timeout time.Duration) *Client {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseUrl: baseUrl,
		client:  &http.Client{Timeout: timeout},
		sem:     semaphore.NewWeighted(maxConcurrent),
	}
}

// GetAddressUtxos returns every unspent output of an address, inscriptions
// included. A 404 from the indexer means no outputs, not a failure.
func (p *Client) GetAddressUtxos(ctx context.Context, address string) ([]*TxOutput, error) {
	url := fmt.Sprintf("%s/txos/address/%s/unspent", p.baseUrl, address)

	body, status, err := p.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []*TxOutput{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", common.ErrExternalUnavailable, url, status)
	}

	var utxos []*TxOutput
	if err := json.Unmarshal(body, &utxos); err != nil {
		return nil, fmt.Errorf("failed to decode JSON response for %s, error: %v", url, err)
	}
	return utxos, nil
}

// GetOriginUtxo returns the output currently holding an origin, or nil when
// the indexer does not know it.
func (p *Client) GetOriginUtxo(ctx context.Context, origin string) (*TxOutput, error) {
	url := fmt.Sprintf("%s/inscriptions/origin/%s", p.baseUrl, origin)

	body, status, err := p.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", common.ErrExternalUnavailable, url, status)
	}

	var utxo TxOutput
	if err := json.Unmarshal(body, &utxo); err != nil {
		return nil, fmt.Errorf("failed to decode JSON response for %s, error: %v", url, err)
	}
	return &utxo, nil
}

// GetInscriptionContent fetches the inscribed file and its content type.
func (p *Client) GetInscriptionContent(ctx context.Context, origin string) ([]byte, string, error) {
	url := p.ContentUrl(origin)

	var body []byte
	var contentType string
	err := p.withPermit(ctx, func() error {
		return retry.Do(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			response, err := p.client.Do(req)
			if err != nil {
				return err
			}
			defer response.Body.Close()
			if response.StatusCode != http.StatusOK {
				return fmt.Errorf("%s returned %d", url, response.StatusCode)
			}
			contentType = response.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			body, err = io.ReadAll(response.Body)
			return err
		}, retry.Attempts(retryAttempts), retry.LastErrorOnly(true))
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrExternalUnavailable, err)
	}
	return body, contentType, nil
}

func (p *Client) ContentUrl(origin string) string {
	return fmt.Sprintf("%s/files/inscriptions/%s", p.baseUrl, origin)
}

// fetch runs a GET under the concurrency cap with retries on transport
// failure. A 404 is returned to the caller, not retried.
func (p *Client) fetch(ctx context.Context, url string) ([]byte, int, error) {
	var body []byte
	var status int
	err := p.withPermit(ctx, func() error {
		return retry.Do(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			response, err := p.client.Do(req)
			if err != nil {
				return err
			}
			defer response.Body.Close()

			status = response.StatusCode
			if status >= http.StatusInternalServerError {
				return fmt.Errorf("%s returned %d", url, status)
			}
			body, err = io.ReadAll(response.Body)
			return err
		}, retry.Attempts(retryAttempts), retry.LastErrorOnly(true))
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrExternalUnavailable, err)
	}
	return body, status, nil
}

func (p *Client) withPermit(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
