package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pharmatrace/gateway/internal/models"
)

// HTTPClientConfig configures the chain-node HTTP client.
type HTTPClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	ScanLimit  int
	HTTPClient *http.Client
}

// HTTPClient talks to the contract gateway node over its JSON API. Reads
// retry on transient failure; writes are submitted exactly once since the
// node handles nonce assignment and a blind resubmit could double-spend.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	retries   int
	scanLimit int
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ledger base url required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	scanLimit := cfg.ScanLimit
	if scanLimit <= 0 {
		scanLimit = 100
	}
	return &HTTPClient{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		client:    client,
		timeout:   timeout,
		retries:   retries,
		scanLimit: scanLimit,
	}, nil
}

func (c *HTTPClient) GetWorker(ctx context.Context, id int) (models.Worker, error) {
	var w models.Worker
	if err := c.getJSON(ctx, fmt.Sprintf("/contract/workers/%d", id), &w); err != nil {
		return models.Worker{}, err
	}
	if w.Name == "" {
		// Unregistered slots come back as zero-value structs from the
		// contract's public mapping.
		return models.Worker{}, ErrNotFound
	}
	return w, nil
}

func (c *HTTPClient) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	var workers []models.Worker
	if err := c.getJSON(ctx, "/contract/workers", &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

func (c *HTTPClient) ProductCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	err := c.getJSON(ctx, "/contract/products/count", &resp)
	if err == nil {
		return resp.Count, nil
	}
	if errors.Is(err, ErrUnavailable) {
		return 0, err
	}
	// Older node builds do not expose the counter. Degraded mode: scan
	// ascending until the first unregistered slot. Best-effort only — a
	// product registered after a gap is missed.
	return c.scanProductCount(ctx)
}

func (c *HTTPClient) scanProductCount(ctx context.Context) (int, error) {
	for i := 0; i < c.scanLimit; i++ {
		p, err := c.GetProduct(ctx, i)
		if errors.Is(err, ErrNotFound) {
			return i, nil
		}
		if err != nil {
			return 0, err
		}
		if strings.TrimSpace(p.Name) == "" {
			return i, nil
		}
	}
	return c.scanLimit, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id int) (models.Product, error) {
	var p models.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/contract/products/%d", id), &p); err != nil {
		return models.Product{}, err
	}
	if p.Name == "" {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (c *HTTPClient) ProductHistory(ctx context.Context, id int) ([]models.StatusEvent, error) {
	var history []models.StatusEvent
	if err := c.getJSON(ctx, fmt.Sprintf("/contract/products/%d/history", id), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *HTTPClient) RegisterWorker(ctx context.Context, in WorkerInput) (TxResult, error) {
	return c.submit(ctx, "/contract/workers", in)
}

func (c *HTTPClient) RegisterProduct(ctx context.Context, in ProductInput) (TxResult, error) {
	return c.submit(ctx, "/contract/products", in)
}

func (c *HTTPClient) SubmitStatus(ctx context.Context, in StatusInput) (TxResult, error) {
	return c.submit(ctx, "/contract/status", in)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	attempts := c.retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			cancel()
			return fmt.Errorf("ledger build request: %w", err)
		}
		resp, err := c.client.Do(req)
		cancel()
		if err != nil {
			lastErr = err
		} else {
			err = decodeResponse(resp, out)
			resp.Body.Close()
			if err == nil || errors.Is(err, ErrNotFound) {
				return err
			}
			lastErr = err
		}
		if i < attempts-1 {
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}
	if errors.Is(lastErr, ErrUnavailable) {
		return lastErr
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *HTTPClient) submit(ctx context.Context, path string, payload interface{}) (TxResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return TxResult{}, fmt.Errorf("ledger marshal request: %w", err)
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return TxResult{}, fmt.Errorf("ledger build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return TxResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	result := TxResult{AssignedID: -1}
	if err := decodeResponse(resp, &result); err != nil {
		return TxResult{}, err
	}
	return result, nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("ledger rejected request: %s", apiErr.Error)
		}
		return fmt.Errorf("ledger rejected request: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ledger decode response: %w", err)
	}
	return nil
}
