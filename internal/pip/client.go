package pip

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"povcli/internal/config"
	apperrors "povcli/internal/errors"
	"povcli/internal/infrastructure"
	"povcli/internal/retry"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Querier fetches one table from the statistical API
type Querier interface {
	Query(ctx context.Context, q Query) (*table.Frame, error)
}

// Client is a paced, cached and retrying PIP API client. It is safe for
// concurrent use.
type Client struct {
	baseURL        string
	versions       map[int]string
	httpClient     *http.Client
	requestTimeout time.Duration
	limiter        *rate.Limiter
	cache          *lru.Cache
	retry          retry.Config
	minRegionYear  int
	validate       *validator.Validate
	metrics        *infrastructure.PipelineMetrics
	logger         *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records request metrics on m
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client from the API configuration
func NewClient(cfg config.APIConfig, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		versions:       cfg.Versions,
		httpClient:     &http.Client{},
		requestTimeout: cfg.RequestTimeout,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		retry: retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialBackoff,
			MaxDelay:      cfg.MaxBackoff,
			Multiplier:    2.0,
			JitterEnabled: true,
		},
		minRegionYear: cfg.MinRegionYear,
		validate:      validator.New(),
		logger:        slog.Default(),
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
		c.cache = cache
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = infrastructure.WithComponent(c.logger, "pip_client")

	return c, nil
}

// Query fetches the rows matching q. Region results exclude years before
// the configured minimum region year.
func (c *Client) Query(ctx context.Context, q Query) (*table.Frame, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	params, err := q.values(c.versions[q.PPPVersion])
	if err != nil {
		return nil, err
	}
	endpoint := q.endpoint()
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	if c.cache != nil {
		if cached, ok := c.cache.Get(reqURL); ok {
			c.metrics.RecordCacheHit(ctx, endpoint)
			return cached.(*table.Frame).Clone(), nil
		}
	}

	ctx, span := infrastructure.Tracer().Start(ctx, "pip.query",
		trace.WithAttributes(
			attribute.String("pip.endpoint", endpoint),
			attribute.String("pip.scope", string(q.Scope)),
			attribute.Int("pip.ppp_version", q.PPPVersion),
		))
	defer span.End()

	var frame *table.Frame
	err = retry.WithBackoff(ctx, c.retry, c.logger, "pip_query", func(ctx context.Context) error {
		f, err := c.fetch(ctx, endpoint, reqURL)
		if err != nil {
			return err
		}
		frame = f
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		c.metrics.RecordAPIRetry(ctx, endpoint)
		c.logger.WarnContext(ctx, "api_request_retry",
			slog.String("url", reqURL),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay))
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("pip %s query failed: %w", endpoint, err)
	}

	if q.Scope == domain.ScopeRegion && c.minRegionYear > 0 {
		frame = frame.Filter(func(r table.Row) bool {
			year, ok := r.Float("reporting_year")
			return ok && int(year) >= c.minRegionYear
		})
	}

	if c.cache != nil {
		c.cache.Add(reqURL, frame.Clone())
	}
	return frame, nil
}

// fetch performs one paced HTTP round trip
func (c *Client) fetch(ctx context.Context, endpoint, reqURL string) (*table.Frame, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}

	reqCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordAPIRequest(ctx, endpoint, 0, time.Since(start))
		return nil, apperrors.NewNetworkError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordAPIRequest(ctx, endpoint, resp.StatusCode, time.Since(start))
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &apperrors.StatusError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Body:       strings.TrimSpace(string(body)),
		}
		if !statusErr.Temporary() {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}

	frame, err := ParseCSV(resp.Body)
	c.metrics.RecordAPIRequest(ctx, endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		// A truncated body is worth another attempt
		return nil, apperrors.NewParsingError("decode csv response", err)
	}

	c.logger.DebugContext(ctx, "api request completed",
		slog.String("endpoint", endpoint),
		slog.Int("rows", frame.Len()),
		slog.Duration("duration", time.Since(start)))
	return frame, nil
}

// ParseCSV reads a headered CSV body into a table. Empty and NA cells become
// null and numeric cells become numbers.
func ParseCSV(r io.Reader) (*table.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return table.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	frame := table.New(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("record has %d fields, header has %d", len(record), len(header))
		}

		row := make(table.Row, len(header))
		for i, col := range header {
			row[col] = table.Parse(record[i])
		}
		frame.Append(row)
	}
	return frame, nil
}
