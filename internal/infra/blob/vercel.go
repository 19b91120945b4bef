// Package blob provides a client for Vercel Blob, the hosted object storage
// used for category and product imagery. Uploads go through a bulkhead so a
// burst of image-heavy admin sessions cannot monopolize the HTTP client.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("blob")

const apiBase = "https://blob.vercel-storage.com"

// Client wraps the Vercel Blob REST API.
type Client struct {
	httpClient *http.Client
	token      string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a blob client. maxConcurrency bounds in-flight uploads.
func NewClient(httpClient *http.Client, token string, cb *gobreaker.CircuitBreaker, maxConcurrency int, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		token:      token,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(maxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

type uploadResponse struct {
	URL      string `json:"url"`
	Pathname string `json:"pathname"`
}

// Upload stores the object under folder with a collision-proof name and
// returns its public URL.
func (c *Client) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	ctx, span := tracer.Start(ctx, "Blob.Upload")
	defer span.End()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return "", &domain.ErrTimeout{Operation: "blob upload"}
	}
	defer c.bulkhead.Release()

	pathname := fmt.Sprintf("%s/%s_%s", folder, uuid.NewString(), sanitizeName(filename))

	result, err := c.cb.Execute(func() (any, error) {
		u := fmt.Sprintf("%s/%s", apiBase, escapePath(pathname))
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
		req.Header.Set("x-api-version", "7")
		req.Header.Set("x-vercel-blob-access", "public")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("blob: upload failed", zap.String("pathname", pathname), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.logger.Warn("blob: upload non-2xx",
				zap.String("pathname", pathname),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(respBody)),
			)
			return nil, fmt.Errorf("blob PUT %s returned %d", pathname, resp.StatusCode)
		}

		var up uploadResponse
		if err := json.Unmarshal(respBody, &up); err != nil {
			return nil, fmt.Errorf("decode upload response: %w", err)
		}
		if up.URL == "" {
			return nil, fmt.Errorf("upload response missing url")
		}
		return up.URL, nil
	})
	if err != nil {
		return "", c.external(err)
	}

	publicURL, _ := result.(string)
	c.logger.Info("blob: uploaded", zap.String("pathname", pathname), zap.String("url", publicURL))
	return publicURL, nil
}

// Delete removes the object behind a public URL. Callers treat failure as
// advisory: an orphaned blob costs storage, not correctness.
func (c *Client) Delete(ctx context.Context, blobURL string) error {
	ctx, span := tracer.Start(ctx, "Blob.Delete")
	defer span.End()

	payload, err := json.Marshal(map[string][]string{"urls": {blobURL}})
	if err != nil {
		return err
	}

	_, err = c.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/delete", strings.NewReader(string(payload)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
		req.Header.Set("x-api-version", "7")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("blob: delete failed", zap.String("url", blobURL), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("blob delete returned %d", resp.StatusCode)
		}
		return nil, nil
	})
	return c.external(err)
}

func (c *Client) external(err error) error {
	if err == nil {
		return nil
	}
	c.metrics.IncrExternalError("blob")
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "blob"}
	}
	return &domain.ErrExternalService{Service: "blob", Err: err}
}

// sanitizeName strips path separators and whitespace from an uploaded
// filename so it cannot escape its folder.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "file"
	}
	return name
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
