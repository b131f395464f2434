package guildapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/guildsync/internal/domain/snapshot"
	"github.com/riskibarqy/guildsync/internal/metrics"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
	"github.com/riskibarqy/guildsync/internal/platform/resilience"
	"github.com/riskibarqy/guildsync/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL      = "https://wowaudit.com/v1"
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = time.Second
	maxBodyBytes        = 6 << 20
	bodyPreviewLen      = 240
)

var errTransient = crerr.New("guild api transient failure")

// ErrResponseTooLarge is returned when a 2xx body exceeds maxBodyBytes. It is
// never retried.
var ErrResponseTooLarge = crerr.New("guild api response too large")

var _ usecase.GuildDataSource = (*Client)(nil)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("guild api endpoint=%s status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
}

// IsTransient reports whether err is worth retrying: network failures, 429
// and 5xx responses.
func IsTransient(err error) bool {
	return crerr.Is(err, errTransient)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	RatePerSecond  float64
	RateBurst      int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the guild API and hands back raw bodies. It never decodes.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}

	limit := rate.Inf
	burst := cfg.RateBurst
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	client := &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: retryBackoff,
		limiter:      rate.NewLimiter(limit, burst),
		logger:       logger.Named("guildapi"),
		breaker:      resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
	client.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		metrics.SetCircuitOpen(to == resilience.CircuitStateOpen)
		client.logger.Warn("guild api circuit breaker changed state", "from", from.String(), "to", to.String())
	})
	return client
}

func (c *Client) FetchRoster(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/characters", nil)
}

func (c *Client) FetchTeam(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/team", nil)
}

func (c *Client) FetchPeriod(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/period", nil)
}

func (c *Client) FetchLootHistory(ctx context.Context, seasonID int64) ([]byte, error) {
	if seasonID <= 0 {
		return nil, fmt.Errorf("%w: season id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.get(ctx, "/loot_history/"+strconv.FormatInt(seasonID, 10), nil)
}

func (c *Client) FetchWishlists(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/wishlists", nil)
}

func (c *Client) FetchWishlist(ctx context.Context, characterID int64) ([]byte, error) {
	if characterID <= 0 {
		return nil, fmt.Errorf("%w: character id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.get(ctx, "/wishlists/"+strconv.FormatInt(characterID, 10), nil)
}

func (c *Client) FetchAttendance(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/attendance", nil)
}

func (c *Client) FetchRaids(ctx context.Context, includePast bool) ([]byte, error) {
	var query url.Values
	if includePast {
		query = url.Values{"include_past": []string{"true"}}
	}
	return c.get(ctx, "/raids", query)
}

func (c *Client) FetchRaid(ctx context.Context, raidID int64) ([]byte, error) {
	if raidID <= 0 {
		return nil, fmt.Errorf("%w: raid id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.get(ctx, "/raids/"+strconv.FormatInt(raidID, 10), nil)
}

func (c *Client) FetchHistoricalData(ctx context.Context, periodID int64) ([]byte, error) {
	if periodID <= 0 {
		return nil, fmt.Errorf("%w: period id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.get(ctx, "/historical_data", url.Values{"period": []string{strconv.FormatInt(periodID, 10)}})
}

func (c *Client) FetchCharacterHistory(ctx context.Context, characterID int64) ([]byte, error) {
	if characterID <= 0 {
		return nil, fmt.Errorf("%w: character id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.get(ctx, "/historical_data/"+strconv.FormatInt(characterID, 10), nil)
}

func (c *Client) FetchGuests(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/guests", nil)
}

func (c *Client) FetchApplications(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/applications", nil)
}

func (c *Client) FetchApplication(ctx context.Context, applicationID int64) ([]byte, error) {
	if applicationID <= 0 {
		return nil, fmt.Errorf("%w: application id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.get(ctx, "/applications/"+strconv.FormatInt(applicationID, 10), nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	family := snapshot.Family(path)
	if err := c.breaker.Allow(); err != nil {
		metrics.UpstreamRequest(family, "rejected")
		c.logger.WarnContext(ctx, "guild api circuit breaker rejected request", "path", path, "state", c.breaker.State().String())
		return nil, fmt.Errorf("%w: guild api is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	fullURL := c.buildURL(path, query)
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, path, fullURL)
		c.breaker.Report(reqErr != nil && IsTransient(reqErr))
		return raw, reqErr
	})
	if err != nil {
		metrics.UpstreamRequest(family, "error")
		return nil, err
	}
	metrics.UpstreamRequest(family, "ok")

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, crerr.Wrapf(err, "wait for rate limiter endpoint=%s", endpoint)
		}

		raw, err := c.do(ctx, endpoint, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * c.retryBackoff
		c.logger.DebugContext(ctx, "retrying guild api request", "endpoint", endpoint, "attempt", attempt+1, "backoff_ms", backoff.Milliseconds())
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "guild api request failed", "endpoint", endpoint, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrapf(err, "build request endpoint=%s", endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Mark(crerr.Wrapf(err, "send request endpoint=%s", endpoint), errTransient)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes+1)); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "read response body endpoint=%s", endpoint), errTransient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       abbreviateBody(buf.B),
		}
		if isRetryableStatus(resp.StatusCode) {
			return nil, crerr.Mark(statusErr, errTransient)
		}
		return nil, statusErr
	}

	if buf.Len() > maxBodyBytes {
		return nil, crerr.Wrapf(ErrResponseTooLarge, "endpoint=%s limit=%d", endpoint, maxBodyBytes)
	}

	raw := make([]byte, buf.Len())
	copy(raw, buf.B)
	return raw, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(path)
	if encoded := query.Encode(); encoded != "" {
		_ = buf.WriteByte('?')
		_, _ = buf.WriteString(encoded)
	}
	return buf.String()
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= bodyPreviewLen {
		return text
	}
	cut := bodyPreviewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
