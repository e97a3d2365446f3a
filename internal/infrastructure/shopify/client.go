// Package shopify implements rto.Platform over the Shopify Admin GraphQL API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"rtoflow/internal/core/apperror"
	"rtoflow/pkg/logger"
)

var tracer = otel.Tracer("rtoflow/shopify")

const maxResponseBytes = 8 << 20 // 8 MiB

// CallHook observes every platform call (metrics).
type CallHook func(operation string, elapsed time.Duration, err error)

// Config holds client configuration.
type Config struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string

	// CallTimeout bounds each GraphQL round trip, including the rate limiter wait.
	CallTimeout time.Duration

	// RateLimit is requests per second shared by all callers of the client.
	RateLimit float64
	RateBurst int

	// Endpoint overrides the URL derived from ShopDomain and APIVersion.
	Endpoint string

	// HTTPClient overrides the default gzip-aware client.
	HTTPClient *http.Client

	OnCall CallHook
}

// DefaultConfig returns production defaults for the given shop.
func DefaultConfig(shopDomain, accessToken string) Config {
	return Config{
		ShopDomain:  shopDomain,
		AccessToken: accessToken,
		APIVersion:  "2025-01",
		CallTimeout: 20 * time.Second,
		RateLimit:   2,
		RateBurst:   4,
	}
}

// Client is a minimal Shopify Admin GraphQL client. Safe for concurrent use.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	timeout  time.Duration
	onCall   CallHook
}

// NewClient creates a new client.
func NewClient(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.ShopDomain), "https://"), "/")
		if domain == "" {
			return nil, errors.New("shopify: shop domain is required")
		}
		if cfg.APIVersion == "" {
			return nil, errors.New("shopify: api version is required")
		}
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, cfg.APIVersion)
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("shopify: access token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: gzhttp.Transport(http.DefaultTransport)}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		token:    cfg.AccessToken,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		timeout:  timeout,
		onCall:   cfg.OnCall,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// do executes one GraphQL operation and decodes data into out.
// No retries: mutations are not idempotent.
func (c *Client) do(ctx context.Context, operation, query string, variables map[string]any, out any) (err error) {
	ctx, span := tracer.Start(ctx, "shopify."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("shopify.operation", operation)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if c.onCall != nil {
			c.onCall(operation, time.Since(started), err)
		}
		logger.Debug(ctx, "shopify call",
			"operation", operation,
			"elapsed_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return c.transportError(ctx, operation, fmt.Errorf("rate limiter: %w", err))
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.transportError(ctx, operation, fmt.Errorf("read response: %w", err))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.NewPlatform(operation, fmt.Sprintf("%s: HTTP %d: %s", operation, resp.StatusCode, snippet(raw))).
			WithDetail("status", resp.StatusCode)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperror.NewPlatform(operation, fmt.Sprintf("%s: malformed response: %v", operation, err))
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		appErr := apperror.NewPlatform(operation, fmt.Sprintf("%s: %s", operation, strings.Join(msgs, "; ")))
		if code := envelope.Errors[0].Extensions.Code; code != "" {
			appErr.WithDetail("code", code)
		}
		return appErr
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return apperror.NewPlatform(operation, fmt.Sprintf("%s: response without data", operation))
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperror.NewPlatform(operation, fmt.Sprintf("%s: unexpected response shape: %v", operation, err))
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, operation string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeout("shopify."+operation, err)
	}
	return fmt.Errorf("shopify %s: %w", operation, err)
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// userErrorsToError converts mutation userErrors into a platform error.
func userErrorsToError(operation string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
		if len(e.Field) > 0 {
			fields = append(fields, strings.Join(e.Field, "."))
		}
	}
	appErr := apperror.NewPlatform(operation, strings.Join(msgs, "; "))
	if len(fields) > 0 {
		appErr.WithDetail("fields", fields)
	}
	return appErr
}
