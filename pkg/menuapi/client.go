package menuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/menumail/pkg/menu"
)

// Client fetches raw menu payloads from the vendor API.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	clock   Clock
	logger  *slog.Logger
	policy  Policy
	cfg     Config
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy overrides the retry policy derived from Config.
func WithPolicy(p Policy) Option {
	return func(c *Client) {
		c.policy = p.withDefaults()
	}
}

// WithClock replaces the clock used for backoff waits.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.http.SetTransport(rt)
		}
	}
}

// WithLogger sets the logger for attempt logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Client. It returns ErrInvalidConfig when cfg is incomplete.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rc := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "br, gzip").
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader(cfg.APIKeyHeader, cfg.APIKey)
	rc.OnAfterResponse(decompress)

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
		clock:   SystemClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:  cfg.Policy(),
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LocationID returns the configured venue identifier.
func (c *Client) LocationID() string {
	return c.cfg.LocationID
}

// DayListField returns the configured vendor field holding the list of days.
func (c *Client) DayListField() string {
	return c.cfg.DayListField
}

// FetchRequest identifies one vendor lookup.
type FetchRequest struct {
	DateKey    string
	LocationID string
}

// Request builds a FetchRequest for dateKey (YYYY-MM-DD) at the configured location.
func (c *Client) Request(dateKey string) FetchRequest {
	return FetchRequest{DateKey: dateKey, LocationID: c.cfg.LocationID}
}

// Fetch requests the raw payload for req. An empty LocationID falls back to the
// configured one. Transient failures are retried per the policy; errors are
// always *FetchError.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*menu.RawPayload, error) {
	if req.LocationID == "" {
		req.LocationID = c.cfg.LocationID
	}
	if req.DateKey == "" {
		return nil, &FetchError{Kind: KindClientError, Err: errors.New("date key is required")}
	}
	dateKey, locationID := req.DateKey, req.LocationID

	log := c.logger.With(
		slog.String("date", dateKey),
		slog.String("location_id", locationID),
	)

	delays := c.policy.delays()
	start := c.clock.Now()
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Kind: KindTimeout, Attempts: attempts, Err: err}
		}

		attempts++
		payload, err := c.attempt(ctx, locationID, dateKey)
		if err == nil {
			log.InfoContext(ctx, "menu payload fetched",
				slog.Int("attempts", attempts),
				slog.Duration("elapsed", c.clock.Now().Sub(start)),
				slog.Int("menus", len(payload.Menus)),
			)
			return payload, nil
		}

		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = &FetchError{Kind: KindTransient, Err: err}
		}
		fe.Attempts = attempts

		if !c.policy.retryable(fe) {
			log.ErrorContext(ctx, "menu fetch failed",
				slog.String("kind", fe.Kind.String()),
				slog.Int("status", fe.StatusCode),
				slog.Int("attempts", attempts),
				slog.Any("error", fe.Err),
			)
			return nil, fe
		}

		delay, stop := delays.Next()
		elapsed := c.clock.Now().Sub(start)
		if stop || elapsed+delay > c.policy.MaxElapsed {
			log.ErrorContext(ctx, "menu fetch retry budget exhausted",
				slog.Int("attempts", attempts),
				slog.Duration("elapsed", elapsed),
				slog.Int("status", fe.StatusCode),
				slog.Any("error", fe.Err),
			)
			return nil, &FetchError{Kind: KindTimeout, StatusCode: fe.StatusCode, Attempts: attempts, Err: fe.Err}
		}

		log.WarnContext(ctx, "menu fetch attempt failed, retrying",
			slog.Int("attempt", attempts),
			slog.Duration("delay", delay),
			slog.Duration("elapsed", elapsed),
			slog.Int("status", fe.StatusCode),
			slog.Any("error", fe.Err),
		)

		if err := c.clock.Sleep(ctx, delay); err != nil {
			return nil, &FetchError{Kind: KindTimeout, StatusCode: fe.StatusCode, Attempts: attempts, Err: err}
		}
	}
}

// attempt performs a single request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, locationID, dateKey string) (*menu.RawPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: KindTransient, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"date":       dateKey,
			"locationid": locationID,
		}).
		Get(c.cfg.BaseURL)

	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}

	if err != nil {
		// A response with a status means the transport succeeded and the body could not be decoded.
		if status != 0 && status < http.StatusInternalServerError {
			return nil, &FetchError{Kind: KindClientError, StatusCode: status, Err: err}
		}
		return nil, &FetchError{Kind: KindTransient, StatusCode: status, Err: err}
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, &FetchError{Kind: KindTransient, StatusCode: status, Err: fmt.Errorf("server responded %s", resp.Status())}
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return nil, &FetchError{Kind: KindClientError, StatusCode: status, Err: fmt.Errorf("server responded %s", resp.Status())}
	}

	var payload menu.RawPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &FetchError{Kind: KindClientError, StatusCode: status, Err: fmt.Errorf("decode payload: %w", err)}
	}
	if len(payload.Menus) == 0 {
		return nil, &FetchError{Kind: KindClientError, StatusCode: status, Err: ErrNoMenus}
	}
	return &payload, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}
