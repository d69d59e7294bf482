package customerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dgraph-io/ristretto"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/monitor"
	"github.com/stellar/customer-intake-backend/internal/serve/httpclient"
)

const (
	customerPath = "/api/customer"

	customersEndpoint = customerPath
	customerEndpoint  = customerPath + "/{id}"

	DefaultLoadCacheTTL  = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 200 * time.Millisecond
)

// Client talks to a remote customer records API and implements intake.Gateway over it.
type Client struct {
	BaseURL        string
	httpClient     httpclient.HTTPClientInterface
	monitorService monitor.MonitorServiceInterface
	cache          *ristretto.Cache
	cacheTTL       time.Duration
	retryAttempts  uint
	retryDelay     time.Duration
}

var _ intake.Gateway = (*Client)(nil)

type ClientOptions struct {
	BaseURL    string
	HTTPClient httpclient.HTTPClientInterface
	// MonitorService is optional. When set, every request is measured.
	MonitorService monitor.MonitorServiceInterface
	// LoadCacheTTL is how long a loaded record is served from memory. A negative value disables the cache.
	LoadCacheTTL  time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

func (o ClientOptions) Validate() error {
	if o.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.ParseRequestURI(o.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing base URL %q: %w", o.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL %q must use http or https", o.BaseURL)
	}
	return nil
}

// NewClient creates a customer API client, filling unset options with defaults.
func NewClient(opts ClientOptions) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating client options: %w", err)
	}

	c := &Client{
		BaseURL:        opts.BaseURL,
		httpClient:     opts.HTTPClient,
		monitorService: opts.MonitorService,
		cacheTTL:       opts.LoadCacheTTL,
		retryAttempts:  opts.RetryAttempts,
		retryDelay:     opts.RetryDelay,
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.DefaultClient()
	}
	if c.retryAttempts == 0 {
		c.retryAttempts = DefaultRetryAttempts
	}
	if c.retryDelay == 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.cacheTTL == 0 {
		c.cacheTTL = DefaultLoadCacheTTL
	}

	if c.cacheTTL > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     1_000,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("creating load cache: %w", err)
		}
		c.cache = cache
	}

	return c, nil
}

// List returns every record, normalized.
func (c *Client) List(ctx context.Context) ([]intake.CustomerRecord, error) {
	u, err := url.JoinPath(c.BaseURL, customerPath)
	if err != nil {
		return nil, fmt.Errorf("building path: %w", err)
	}

	var raws []intake.RawRecord
	err = c.read(ctx, u, customersEndpoint, &raws)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}

	return intake.NormalizeAll(ctx, raws), nil
}

// Load returns the record stored under id, normalized. Recently loaded records are served from the cache.
func (c *Client) Load(ctx context.Context, id string) (intake.CustomerRecord, error) {
	if id == "" {
		return intake.CustomerRecord{}, intake.ErrMissingID
	}

	if cached, ok := c.cached(id); ok {
		return cached, nil
	}

	u, err := url.JoinPath(c.BaseURL, customerPath, id)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("building path: %w", err)
	}

	var raw intake.RawRecord
	err = c.read(ctx, u, customerEndpoint, &raw)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("loading customer %s: %w", id, err)
	}

	record := intake.NormalizeWithContext(ctx, raw)
	c.remember(id, record)
	return record, nil
}

// Save creates record and returns it with the id the API assigned.
func (c *Client) Save(ctx context.Context, record intake.CustomerRecord) (intake.CustomerRecord, error) {
	u, err := url.JoinPath(c.BaseURL, customerPath)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("building path: %w", err)
	}

	record.ID = ""
	saved, err := c.write(ctx, http.MethodPost, u, customersEndpoint, record)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("creating customer: %w", err)
	}
	return saved, nil
}

// Update replaces the record stored under id and caches the stored result.
func (c *Client) Update(ctx context.Context, id string, record intake.CustomerRecord) (intake.CustomerRecord, error) {
	if id == "" {
		return intake.CustomerRecord{}, intake.ErrMissingID
	}

	u, err := url.JoinPath(c.BaseURL, customerPath, id)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("building path: %w", err)
	}

	// A Load racing the PUT can cache the previous record.
	c.forget(id)
	saved, err := c.write(ctx, http.MethodPut, u, customerEndpoint, record)
	if err != nil {
		c.forget(id)
		return intake.CustomerRecord{}, fmt.Errorf("updating customer %s: %w", id, err)
	}
	c.remember(id, saved)
	return saved, nil
}

// Delete removes the record stored under id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return intake.ErrMissingID
	}

	u, err := url.JoinPath(c.BaseURL, customerPath, id)
	if err != nil {
		return fmt.Errorf("building path: %w", err)
	}

	c.forget(id)
	resp, err := c.request(ctx, u, http.MethodDelete, customerEndpoint, nil)
	if err != nil {
		return fmt.Errorf("deleting customer %s: %w", id, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("deleting customer %s: %w", id, parseStatusError(resp))
	}
	return nil
}

// read GETs u and decodes the body into dst, retrying server errors and transport failures.
func (c *Client) read(ctx context.Context, u, endpoint string, dst any) error {
	return retry.Do(
		func() error {
			resp, err := c.request(ctx, u, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if !isSuccess(resp.StatusCode) {
				statusErr := parseStatusError(resp)
				if statusErr.IsClientError() {
					return retry.Unrecoverable(statusErr)
				}
				return statusErr
			}

			if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decoding response body: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("customer API GET %s failed on attempt %d: %v", u, n+1, err)
		}),
	)
}

// write sends record and decodes the stored record from the response. Writes are never retried.
func (c *Client) write(ctx context.Context, method, u, endpoint string, record intake.CustomerRecord) (intake.CustomerRecord, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("marshalling customer record: %w", err)
	}

	resp, err := c.request(ctx, u, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return intake.CustomerRecord{}, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return intake.CustomerRecord{}, parseStatusError(resp)
	}

	var raw intake.RawRecord
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("decoding response body: %w", err)
	}
	return intake.NormalizeWithContext(ctx, raw), nil
}

// request makes an HTTP request to the customer API and records its metrics.
func (c *Client) request(ctx context.Context, u, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recordMetrics(ctx, method, endpoint, time.Since(start), resp, err)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	return resp, nil
}

func (c *Client) recordMetrics(ctx context.Context, method, endpoint string, duration time.Duration, resp *http.Response, reqErr error) {
	if c.monitorService == nil {
		return
	}

	status, statusCode := monitor.ParseHTTPResponseStatus(resp, reqErr)
	labels := monitor.CustomerAPILabels{
		Method:     method,
		Endpoint:   endpoint,
		Status:     status,
		StatusCode: statusCode,
	}.ToMap()

	if err := c.monitorService.MonitorCounters(monitor.CustomerAPIRequestsTotalTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring customer API request counter: %v", err)
	}
	if err := c.monitorService.MonitorHistogram(duration.Seconds(), monitor.CustomerAPIRequestDurationTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring customer API request duration: %v", err)
	}
}

func (c *Client) cached(id string) (intake.CustomerRecord, bool) {
	if c.cache == nil {
		return intake.CustomerRecord{}, false
	}
	value, found := c.cache.Get(id)
	if !found {
		return intake.CustomerRecord{}, false
	}
	record, ok := value.(intake.CustomerRecord)
	if !ok {
		c.cache.Del(id)
		return intake.CustomerRecord{}, false
	}
	return record.Clone(), true
}

func (c *Client) remember(id string, record intake.CustomerRecord) {
	if c.cache == nil {
		return
	}
	c.cache.SetWithTTL(id, record.Clone(), 1, c.cacheTTL)
	c.cache.Wait()
}

func (c *Client) forget(id string) {
	if c.cache == nil {
		return
	}
	c.cache.Del(id)
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
