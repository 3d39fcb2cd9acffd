package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ReferencePrice captures a conversion rate reported by an external price
// feed, together with the observation timestamp and the feed identifier. The
// ledger treats reference prices as informational only; they never gate a
// mutation and are never assumed synchronously fresh.
type ReferencePrice struct {
	Price     *big.Rat
	Timestamp time.Time
	Source    string
}

// Clone returns a deep copy of the quote to prevent accidental mutations.
func (q ReferencePrice) Clone() ReferencePrice {
	clone := ReferencePrice{Timestamp: q.Timestamp, Source: q.Source}
	if q.Price != nil {
		clone.Price = new(big.Rat).Set(q.Price)
	}
	return clone
}

// RateString renders the price using the supplied precision.
func (q ReferencePrice) RateString(precision int) string {
	if q.Price == nil {
		return ""
	}
	if precision < 0 {
		precision = 18
	}
	return q.Price.FloatString(precision)
}

// Status classifies the health of a reference price observation.
type Status string

const (
	// StatusOK indicates the observation is within the freshness window.
	StatusOK Status = "ok"
	// StatusStale indicates the observation exceeded the freshness window.
	StatusStale Status = "stale"
)

// Classify evaluates the observation age against the supplied freshness
// window. A zero window disables the staleness check.
func Classify(q ReferencePrice, now time.Time, maxAge time.Duration) Status {
	if maxAge <= 0 {
		return StatusOK
	}
	if q.Timestamp.IsZero() || now.Sub(q.Timestamp) > maxAge {
		return StatusStale
	}
	return StatusOK
}

// ErrNoQuote indicates the client could not produce a reference price.
var ErrNoQuote = errors.New("oracle: no reference price available")

// ErrStaleQuote indicates the feed answered with an observation older than the
// configured freshness window.
var ErrStaleQuote = errors.New("oracle: reference price is stale")

// Client resolves the current reference price. Implementations are fallible
// and best-effort; callers must never hold the ledger's exclusive-access
// scope while awaiting a response.
type Client interface {
	GetReferencePrice() (ReferencePrice, error)
}

// ManualClient provides an in-memory client implementation used for tests and
// manual overrides during incident response.
type ManualClient struct {
	mu    sync.RWMutex
	quote *ReferencePrice
}

// NewManualClient constructs an empty manual client.
func NewManualClient() *ManualClient {
	return &ManualClient{}
}

// SetDecimal records the supplied decimal rate with the provided timestamp.
func (m *ManualClient) SetDecimal(rate string, ts time.Time) error {
	if m == nil {
		return fmt.Errorf("manual oracle not configured")
	}
	trimmed := strings.TrimSpace(rate)
	if trimmed == "" {
		return fmt.Errorf("manual oracle: rate required")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return fmt.Errorf("manual oracle: invalid rate %q", rate)
	}
	if rat.Sign() <= 0 {
		return fmt.Errorf("manual oracle: rate must be positive")
	}
	m.Set(rat, ts)
	return nil
}

// Set stores the provided rational rate.
func (m *ManualClient) Set(rate *big.Rat, ts time.Time) {
	if m == nil || rate == nil {
		return
	}
	m.mu.Lock()
	m.quote = &ReferencePrice{Price: new(big.Rat).Set(rate), Timestamp: ts, Source: "manual"}
	m.mu.Unlock()
}

// GetReferencePrice retrieves the stored rate.
func (m *ManualClient) GetReferencePrice() (ReferencePrice, error) {
	if m == nil {
		return ReferencePrice{}, fmt.Errorf("manual oracle not configured")
	}
	m.mu.RLock()
	stored := m.quote
	m.mu.RUnlock()
	if stored == nil {
		return ReferencePrice{}, ErrNoQuote
	}
	return stored.Clone(), nil
}

// FreshnessClient wraps another client and rejects observations older than
// MaxAge with ErrStaleQuote. A zero MaxAge passes everything through.
type FreshnessClient struct {
	Client Client
	MaxAge time.Duration

	nowFn func() time.Time
}

// NewFreshnessClient decorates client with the supplied freshness window.
func NewFreshnessClient(client Client, maxAge time.Duration) *FreshnessClient {
	return &FreshnessClient{Client: client, MaxAge: maxAge}
}

// SetNowFunc overrides the clock used for staleness checks in tests.
func (c *FreshnessClient) SetNowFunc(now func() time.Time) { c.nowFn = now }

func (c *FreshnessClient) now() time.Time {
	if c == nil || c.nowFn == nil {
		return time.Now()
	}
	return c.nowFn()
}

func (c *FreshnessClient) GetReferencePrice() (ReferencePrice, error) {
	if c == nil || c.Client == nil {
		return ReferencePrice{}, ErrNoQuote
	}
	quote, err := c.Client.GetReferencePrice()
	if err != nil {
		return ReferencePrice{}, err
	}
	if Classify(quote, c.now(), c.MaxAge) == StatusStale {
		return ReferencePrice{}, ErrStaleQuote
	}
	return quote, nil
}

// HTTPDoer abstracts http.Client for ease of testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient fetches the reference price from a feed endpoint returning a
// JSON body of the form {"price": "<decimal>", "timestamp": <unix>}.
type HTTPClient struct {
	client   HTTPDoer
	endpoint string
	pair     string
}

// NewHTTPClient constructs a feed adapter. When client is nil
// http.DefaultClient is used. The pair is forwarded as a query parameter so
// one endpoint can serve multiple markets.
func NewHTTPClient(client HTTPDoer, endpoint, pair string) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{
		client:   client,
		endpoint: strings.TrimSpace(endpoint),
		pair:     strings.TrimSpace(pair),
	}
}

func (c *HTTPClient) GetReferencePrice() (ReferencePrice, error) {
	if c == nil || c.endpoint == "" {
		return ReferencePrice{}, fmt.Errorf("price feed not configured")
	}
	req, err := http.NewRequest(http.MethodGet, c.endpoint, nil)
	if err != nil {
		return ReferencePrice{}, err
	}
	if c.pair != "" {
		values := url.Values{}
		values.Set("pair", c.pair)
		req.URL.RawQuery = values.Encode()
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return ReferencePrice{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ReferencePrice{}, fmt.Errorf("price feed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		Price     string `json:"price"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ReferencePrice{}, fmt.Errorf("price feed: decode: %w", err)
	}
	rate := strings.TrimSpace(payload.Price)
	if rate == "" {
		return ReferencePrice{}, ErrNoQuote
	}
	rat, ok := new(big.Rat).SetString(rate)
	if !ok || rat.Sign() <= 0 {
		return ReferencePrice{}, fmt.Errorf("price feed: invalid rate %q", payload.Price)
	}
	return ReferencePrice{
		Price:     rat,
		Timestamp: time.Unix(payload.Timestamp, 0).UTC(),
		Source:    "feed",
	}, nil
}
