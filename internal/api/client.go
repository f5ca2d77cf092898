// Package api talks to the finance backend's REST endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"cashboard/internal/core"
)

// DefaultBaseURL is the backend used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api"

const userAgent = "cashboard/1.0"

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// createdResponse is what the backend returns for a successful POST.
type createdResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Internal helpers

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &core.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: readError(resp.Body)}
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readError extracts the backend's {"error": "..."} message when present.
func readError(r io.Reader) error {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read error body: %w", err)
	}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		return errors.New(er.Error)
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return errors.New(text)
	}
	return errors.New("empty response")
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(body), "application/json", target)
}

// Endpoints

// ListTransactions fetches every transaction.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.do(ctx, "list transactions", http.MethodGet, "/transactions", nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

// ListCategories fetches every active category with its spending.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.do(ctx, "list categories", http.MethodGet, "/categories", nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Category{}
	}
	return out, nil
}

// Summary fetches the dashboard digest.
func (c *Client) Summary(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	err := c.do(ctx, "dashboard summary", http.MethodGet, "/dashboard/summary", nil, "", &s)
	return s, err
}

// CreateCategory posts a new category. The backend only echoes the ID, so
// the returned category carries the draft fields and zero spending.
func (c *Client) CreateCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error) {
	var created createdResponse
	if err := c.postJSON(ctx, "create category", "/categories", d, &created); err != nil {
		return core.Category{}, err
	}
	return core.Category{
		ID:           created.ID,
		BigCategory:  d.BigCategory,
		SubCategory:  d.SubCategory,
		ItemCategory: d.ItemCategory,
	}, nil
}

// CreateTransaction posts a new transaction.
func (c *Client) CreateTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if d.Type == "" {
		d.Type = core.TypeFromAmount(d.Amount)
	}
	var created createdResponse
	if err := c.postJSON(ctx, "create transaction", "/transactions", d, &created); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          created.ID,
		Date:        d.Date,
		Description: d.Description,
		Amount:      d.Amount,
		Type:        d.Type,
	}, nil
}

// Upload sends f as multipart form data with fields "file" and "user_id".
// A 2xx response whose status is "error" is reported as a failure.
func (c *Client) Upload(ctx context.Context, f core.File, ownerID string) (core.UploadResult, error) {
	const op = "upload file"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return core.UploadResult{}, &core.TransportError{Op: op, Err: err}
	}
	if _, err := part.Write(f.Data); err != nil {
		return core.UploadResult{}, &core.TransportError{Op: op, Err: err}
	}
	if err := mw.WriteField("user_id", ownerID); err != nil {
		return core.UploadResult{}, &core.TransportError{Op: op, Err: err}
	}
	if err := mw.Close(); err != nil {
		return core.UploadResult{}, &core.TransportError{Op: op, Err: err}
	}

	var res core.UploadResult
	if err := c.do(ctx, op, http.MethodPost, "/upload", &buf, mw.FormDataContentType(), &res); err != nil {
		return core.UploadResult{}, err
	}
	if res.Status == "error" {
		msg := res.Message
		if msg == "" {
			msg = "backend could not process the file"
		}
		return res, &core.TransportError{Op: op, StatusCode: http.StatusOK, Err: errors.New(msg)}
	}
	return res, nil
}

// Ping checks that the backend answers, for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/health", nil, "", nil)
}
