// ABOUTME: Address index gateway for postcode and UPRN lookups
// ABOUTME: Caches results and dedupes concurrent identical lookups

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/censusops/respondent-home/cache"
	"github.com/censusops/respondent-home/models"
)

// ErrAddressIndexUnavailable wraps transport failures and unexpected
// statuses from the address index.
var ErrAddressIndexUnavailable = errors.New("address index unavailable")

// AddressIndex is the outbound client for the address lookup service.
type AddressIndex struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
	group   singleflight.Group
}

func NewAddressIndex(baseURL string, c *cache.Cache) *AddressIndex {
	return &AddressIndex{
		baseURL: baseURL,
		cache:   c,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type addressSearchResponse struct {
	Addresses []models.AddressCandidate `json:"addresses"`
	Total     int                       `json:"total"`
}

// SearchPostcode returns every candidate address for a normalized
// postcode. Identical concurrent lookups share one backend call.
func (a *AddressIndex) SearchPostcode(ctx context.Context, postcode string) ([]models.AddressCandidate, error) {
	key := "postcode:" + postcode
	if cached, ok := a.cache.Get(key); ok {
		return cached.([]models.AddressCandidate), nil
	}

	result, err, _ := a.group.Do(key, func() (any, error) {
		var resp addressSearchResponse
		if err := a.getJSON(ctx, a.baseURL+"/addresses/postcode/"+url.PathEscape(postcode), &resp); err != nil {
			return nil, err
		}
		a.cache.Set(key, resp.Addresses)
		return resp.Addresses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.AddressCandidate), nil
}

// GetUPRN resolves one property record.
func (a *AddressIndex) GetUPRN(ctx context.Context, uprn string) (models.AddressCandidate, error) {
	var candidate models.AddressCandidate
	if err := a.getJSON(ctx, a.baseURL+"/addresses/uprn/"+url.PathEscape(uprn), &candidate); err != nil {
		return models.AddressCandidate{}, err
	}
	return candidate, nil
}

func (a *AddressIndex) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if requestID := RequestIDFrom(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAddressIndexUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
