package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/reconcile"
	"catalog-harvester/core/utils"
	"catalog-harvester/feature/harvest/source"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig configures the catalog client.
type ClientConfig struct {
	// Timeout bounds one fetch, including waiting on the rate limiter.
	Timeout time.Duration
	// RequestsPerSecond throttles outbound requests. Zero means unlimited.
	RequestsPerSecond float64
	// Burst is the token bucket size (default: 1).
	Burst int
	// Transport allows injecting a custom HTTP transport for tests.
	Transport http.RoundTripper
	// Observer receives the duration of every request. Optional.
	Observer FetchObserver
	// MaxResponseBytes caps the size of a catalog response (default: DefaultMaxResponseBytes).
	MaxResponseBytes int64
}

// DefaultMaxResponseBytes is the response size cap when none is configured.
const DefaultMaxResponseBytes int64 = 64 << 20

// FetchObserver records catalog request latency by outcome ("ok" or "error").
type FetchObserver interface {
	ObserveFetch(outcome string, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveFetch(string, time.Duration) {}

// Client fetches (identifier, metadata) pairs from a Dataverse search endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	observer   FetchObserver
	maxBytes   int64
	logger     *zap.Logger
}

// NewClient creates a new catalog client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		httpClient: &http.Client{Transport: cfg.Transport},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		timeout:    cfg.Timeout,
		observer:   cfg.Observer,
		maxBytes:   cfg.MaxResponseBytes,
		logger:     logger,
	}
}

// SearchURL builds the search query URL for a base URL and filter.
func SearchURL(baseURL, filter string) string {
	if filter == "" {
		filter = source.DefaultFilter
	}
	return strings.TrimSuffix(baseURL, "/") + "/api/search?q=" + url.QueryEscape(filter)
}

type searchResponse struct {
	Items *[]map[string]any `json:"items"`
}

type dataEnvelope struct {
	Data *searchResponse `json:"data"`
}

// Fetch retrieves the catalog at baseURL and extracts one record per item
// keyed by idField. Items with an empty or repeated identifier are dropped
// and reported in FetchResult.Dropped; an item without idField at all is a
// configuration error and fails the whole fetch.
func (c *Client) Fetch(ctx context.Context, baseURL, filter, idField string) (*source.FetchResult, error) {
	endpoint := SearchURL(baseURL, filter)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, harvesterrors.NewFetchError(endpoint, fmt.Errorf("rate limiter: %w", err))
	}

	started := time.Now()
	body, err := c.get(ctx, endpoint)
	if err != nil {
		c.observer.ObserveFetch("error", time.Since(started))
		return nil, harvesterrors.NewFetchError(endpoint, err)
	}
	c.observer.ObserveFetch("ok", time.Since(started))

	items, err := decodeItems(body)
	if err != nil {
		return nil, harvesterrors.NewFetchError(endpoint, err)
	}

	result := &source.FetchResult{
		Identifiers: reconcile.NewSet(),
		Records:     make([]source.RemoteRecord, 0, len(items)),
		ItemCount:   len(items),
		Raw:         body,
	}

	for i, item := range items {
		raw, ok := item[idField]
		if !ok {
			return nil, harvesterrors.NewConfigError("id_field_name", fmt.Sprintf("item %d has no field %q", i, idField))
		}

		id := utils.ToString(raw)
		if strings.TrimSpace(id) == "" {
			result.Dropped = append(result.Dropped, &harvesterrors.DataIntegrityError{Index: i, Reason: "empty identifier"})
			continue
		}
		if result.Identifiers.Has(id) {
			result.Dropped = append(result.Dropped, &harvesterrors.DataIntegrityError{Identifier: id, Index: i, Reason: "duplicate identifier"})
			continue
		}

		result.Identifiers.Add(id)
		result.Records = append(result.Records, toRecord(id, item))
	}

	c.logger.Info("Fetched remote catalog",
		zap.String("url", endpoint),
		zap.Int("items", result.ItemCount),
		zap.Int("records", len(result.Records)),
		zap.Int("dropped", len(result.Dropped)),
	)
	return result, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// One byte over the cap tells a full read from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", c.maxBytes)
	}
	return body, nil
}

// decodeItems accepts both a top-level items array and the native Dataverse
// envelope {"status": ..., "data": {"items": [...]}}.
func decodeItems(body []byte) ([]map[string]any, error) {
	var top searchResponse
	if err := decodeJSON(body, &top); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	if top.Items != nil {
		return *top.Items, nil
	}

	var env dataEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	if env.Data != nil && env.Data.Items != nil {
		return *env.Data.Items, nil
	}
	return nil, fmt.Errorf("response has no items")
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func toRecord(id string, item map[string]any) source.RemoteRecord {
	rec := source.RemoteRecord{
		Identifier:  id,
		Name:        utils.ToString(item["name"]),
		Description: utils.ToString(item["description"]),
		Subjects:    utils.ToStringSlice(item["subjects"]),
	}

	payload := map[string]any{
		"guid": id,
	}
	for _, key := range payloadKeys {
		if v, ok := item[key]; ok && v != nil {
			payload[key] = v
		}
	}
	rec.Payload = payload
	return rec
}

// payloadKeys are the item fields kept in the staged payload. Volatile
// search fields such as scores are left out so they never register as changes.
var payloadKeys = []string{
	"name",
	"description",
	"subjects",
	"url",
	"type",
	"published_at",
	"authors",
	"keywords",
	"publisher",
	"citation",
}
