// Package supabase provides a client for Supabase (PostgREST + GoTrue).
// It is the only persistence layer: every table access is a thin HTTP call
// with query-string filters, and every tenant-scoped query carries a
// store_id filter.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/observability"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase PostgREST and GoTrue APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		metrics:        metrics,
		logger:         logger,
	}
}

func (c *Client) restHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
}

// execute runs fn through the circuit breaker, mapping the open-breaker
// error to the domain taxonomy. No retries: a failure is terminal for the
// attempt.
func (c *Client) execute(fn func() ([]byte, error)) ([]byte, error) {
	body, err := c.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return nil, err
	}
	b, _ := body.([]byte)
	return b, nil
}

// doGet executes an authenticated GET against PostgREST. A 404/204 answer is
// returned as nil bytes, not an error.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	return c.execute(func() ([]byte, error) {
		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		c.restHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("supabase: GET failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.logger.Warn("supabase: GET non-2xx",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("supabase GET %s returned %d: %s", path, resp.StatusCode, string(body))
		}

		c.logger.Debug("supabase: GET OK", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return body, nil
	})
}

// doCount executes a HEAD-style count query and parses the Content-Range
// header (e.g. "0-0/42").
func (c *Client) doCount(ctx context.Context, path string) (int64, error) {
	var total int64
	_, err := c.execute(func() ([]byte, error) {
		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, err
		}
		c.restHeaders(req)
		req.Header.Set("Prefer", "count=exact")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("supabase: HEAD failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("supabase HEAD %s returned %d", path, resp.StatusCode)
		}

		cr := resp.Header.Get("Content-Range")
		idx := strings.LastIndex(cr, "/")
		if idx < 0 {
			return nil, fmt.Errorf("supabase HEAD %s: missing Content-Range", path)
		}
		n, err := strconv.ParseInt(cr[idx+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("supabase HEAD %s: bad Content-Range %q", path, cr)
		}
		total = n
		return nil, nil
	})
	return total, err
}

// doPost inserts a row and returns the representation. extraPrefer lets
// upserts request merge-duplicates resolution.
func (c *Client) doPost(ctx context.Context, path string, data map[string]any, extraPrefer string) ([]byte, error) {
	return c.execute(func() ([]byte, error) {
		jsonBody, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		c.restHeaders(req)
		prefer := "return=representation"
		if extraPrefer != "" {
			prefer += "," + extraPrefer
		}
		req.Header.Set("Prefer", prefer)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("supabase: POST failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.logger.Warn("supabase: POST non-2xx",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("supabase POST %s returned %d: %s", path, resp.StatusCode, string(body))
		}

		c.logger.Debug("supabase: POST OK", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return body, nil
	})
}

func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) error {
	_, err := c.execute(func() ([]byte, error) {
		jsonBody, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		c.restHeaders(req)
		req.Header.Set("Prefer", "return=minimal")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("supabase: PATCH failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			c.logger.Warn("supabase: PATCH non-2xx",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("supabase PATCH %s returned %d: %s", path, resp.StatusCode, string(body))
		}

		c.logger.Debug("supabase: PATCH OK", zap.String("path", path))
		return nil, nil
	})
	return err
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.execute(func() ([]byte, error) {
		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return nil, err
		}
		c.restHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("supabase: DELETE failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			c.logger.Warn("supabase: DELETE non-2xx",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("supabase DELETE %s returned %d: %s", path, resp.StatusCode, string(body))
		}

		c.logger.Debug("supabase: DELETE OK", zap.String("path", path))
		return nil, nil
	})
	return err
}

// decodeRows unmarshals a PostgREST array response. nil/empty body decodes
// to an empty slice.
func decodeRows[T any](body []byte, table string) ([]T, error) {
	if len(body) == 0 || string(body) == "[]" {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	return rows, nil
}

func (c *Client) external(err error) error {
	if err == nil {
		return nil
	}
	c.metrics.IncrExternalError("supabase")
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return err
	}
	return &domain.ErrExternalService{Service: "supabase", Err: err}
}
