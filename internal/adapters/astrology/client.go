// Package astrology looks up sun, moon and rising signs from an external
// planets API.
package astrology

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/pkg/logger"
	"github.com/okian/blueprint/pkg/metrics"
)

// DefaultEndpoint is the planets endpoint of astroapi.dev.
const DefaultEndpoint = "https://api.astroapi.dev/api/v1/planets"

// timezoneAuto asks the provider to resolve the timezone from the location.
const timezoneAuto = "auto"

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 512

// ErrMissingAPIKey is returned by New when no credential is configured.
var ErrMissingAPIKey = errors.New("astrology api key is required")

// genericFailure is the only detail callers get for provider failures.
const genericFailure = "failed to fetch astrology data"

// Client calls the astrology provider.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	timeout  time.Duration
	logger   logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the provider URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each lookup. Zero means no bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		http:     newHTTPClient(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClient keeps dial and handshake bounded; the overall request is only
// bounded when a timeout is configured.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}

type lookupRequest struct {
	BirthDate string `json:"birth_date"`
	BirthTime string `json:"birth_time"`
	Location  string `json:"location"`
	Timezone  string `json:"timezone"`
}

type placement struct {
	Sign string `json:"sign"`
}

type lookupResponse struct {
	Sun       *placement `json:"sun"`
	Moon      *placement `json:"moon"`
	Ascendant *placement `json:"ascendant"`
}

// Lookup fetches the signs for a birth moment. Missing signs come back as
// model.UnknownSign. Every failure is a failure.KindProvider error carrying a
// generic message; the specifics are logged only.
func (c *Client) Lookup(ctx context.Context, birthDate, birthTime, birthPlace string) (model.AstrologyResult, error) {
	const op = "astrology.lookup"

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(lookupRequest{
		BirthDate: birthDate,
		BirthTime: birthTime,
		Location:  birthPlace,
		Timezone:  timezoneAuto,
	})
	if err != nil {
		return model.AstrologyResult{}, failure.Wrap(op, failure.KindInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.AstrologyResult{}, failure.Wrap(op, failure.KindInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "astrology request failed",
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return model.AstrologyResult{}, failure.New(op, failure.KindProvider, genericFailure)
	}
	defer resp.Body.Close()

	metrics.RecordAstrologyResponse(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn(ctx, "astrology provider returned non-200",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(snippet)),
			logger.Duration("elapsed", time.Since(start)),
		)
		return model.AstrologyResult{}, failure.New(op, failure.KindProvider, genericFailure)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn(ctx, "astrology response undecodable", logger.Error(err))
		return model.AstrologyResult{}, failure.Wrap(op, failure.KindProvider, fmt.Errorf("%s: %w", genericFailure, err))
	}

	result := model.AstrologyResult{
		SunSign:    signOrUnknown(decoded.Sun),
		MoonSign:   signOrUnknown(decoded.Moon),
		RisingSign: signOrUnknown(decoded.Ascendant),
	}
	c.logger.Debug(ctx, "astrology lookup complete",
		logger.String("sun", result.SunSign),
		logger.String("moon", result.MoonSign),
		logger.String("rising", result.RisingSign),
		logger.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func signOrUnknown(b *placement) string {
	if b == nil || strings.TrimSpace(b.Sign) == "" {
		return model.UnknownSign
	}
	return b.Sign
}
