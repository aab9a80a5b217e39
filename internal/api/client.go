// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api is the client for the agent REST backend. Every content type
// is served by the same list/create/update/delete contract under
// /api/<resource>. Calls are not retried, deduplicated or cached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/version"
)

// Client configuration constants
const (
	RequestTimeout = 15 * time.Second
	MaxResponseLen = 4 << 20
)

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend origin, e.g. https://api.example.com.
	BaseURL string
	// HTTPClient overrides the shared client.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the backend on behalf of the logged-in agent.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("API base URL must be an absolute http(s) URL, got %q", cfg.BaseURL)
	}
	c := &Client{base: u, http: cfg.HTTPClient, logger: cfg.Logger}
	if c.http == nil {
		c.http = httpClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.base.String() }

// envelope is the response wrapper used by most endpoints.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// message prefers the message field and falls back to error.
func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// List returns all records of type t owned by agentID.
// A null or missing data field is an empty list.
func (c *Client) List(ctx context.Context, t model.EntityType, agentID int64) ([]model.Record, error) {
	d, err := descriptor(t)
	if err != nil {
		return nil, err
	}
	op := "list " + string(t)

	body, err := c.do(ctx, op, http.MethodGet, nil, "api", d.Path, "agent", strconv.FormatInt(agentID, 10))
	if err != nil {
		return nil, err
	}

	items, err := dataArray(body)
	if err != nil {
		return nil, &Error{Kind: KindServer, Op: op, Message: "unexpected response", Err: err}
	}
	records := make([]model.Record, 0, len(items))
	for i, raw := range items {
		rec := d.New()
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, &Error{Kind: KindServer, Op: op, Message: fmt.Sprintf("decoding item %d", i), Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Create posts a new record.
func (c *Client) Create(ctx context.Context, rec model.Record) error {
	d, err := descriptor(rec.EntityType())
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "create "+string(d.Type), http.MethodPost, rec, "api", d.Path)
	return err
}

// Update replaces the record with the given id.
func (c *Client) Update(ctx context.Context, t model.EntityType, id int64, rec model.Record) error {
	d, err := descriptor(t)
	if err != nil {
		return err
	}
	if rec.EntityType() != t {
		return fmt.Errorf("update %s: record is a %s", t, rec.EntityType())
	}
	_, err = c.do(ctx, "update "+string(t), http.MethodPut, rec, "api", d.Path, strconv.FormatInt(id, 10))
	return err
}

// Remove deletes the record with the given id.
func (c *Client) Remove(ctx context.Context, t model.EntityType, id int64) error {
	d, err := descriptor(t)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "remove "+string(t), http.MethodDelete, nil, "api", d.Path, strconv.FormatInt(id, 10))
	return err
}

// PatchStatus changes the status of a contact inquiry or policy holder.
func (c *Client) PatchStatus(ctx context.Context, t model.EntityType, id int64, status string) error {
	d, err := descriptor(t)
	if err != nil {
		return err
	}
	op := "status " + string(t)
	idStr := strconv.FormatInt(id, 10)

	switch t {
	case model.TypeContactInquiry:
		_, err = c.do(ctx, op, http.MethodPut, map[string]string{"status": status}, "api", d.Path, idStr)
	case model.TypePolicyHolder:
		_, err = c.do(ctx, op, http.MethodPatch, map[string]string{"Status": status}, "api", d.Path, idStr, "status")
	default:
		return fmt.Errorf("%s: %w", op, ErrNoStatus)
	}
	return err
}

// Plans returns the plan catalogue available to agentID.
func (c *Client) Plans(ctx context.Context, agentID int64) ([]model.PlanCategory, error) {
	const op = "plans"
	body, err := c.do(ctx, op, http.MethodGet, nil, "api", "Plans", "planList", strconv.FormatInt(agentID, 10))
	if err != nil {
		return nil, err
	}
	items, err := dataArray(body)
	if err != nil {
		return nil, &Error{Kind: KindServer, Op: op, Message: "unexpected response", Err: err}
	}
	plans := make([]model.PlanCategory, 0, len(items))
	for _, raw := range items {
		var p model.PlanCategory
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &Error{Kind: KindServer, Op: op, Message: "decoding plan", Err: err}
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// Ping reports whether the backend answers at all. Any HTTP response below
// 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent())
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: "ping", Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &Error{Kind: KindServer, Op: "ping", Status: resp.StatusCode}
	}
	return nil
}

// do performs a request against base/segments and returns the response
// body for 2xx responses. Non-2xx responses and envelopes reporting a
// failure status are returned as *Error.
func (c *Client) do(ctx context.Context, op, method string, payload any, segments ...string) ([]byte, error) {
	body, err := c.send(ctx, op, method, payload, segments...)
	if err != nil {
		return nil, err
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Status >= 400 {
		return nil, &Error{Kind: classify(env.Status), Op: op, AppStatus: env.Status, Message: env.message()}
	}
	return body, nil
}

// send is do without the envelope check: only the HTTP status is
// classified and the body is returned as is.
func (c *Client) send(ctx context.Context, op, method string, payload any, segments ...string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding payload: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(segments...).String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "op", op, "url", req.URL.Path, "error", err)
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Err: err}
	}
	c.logger.Debug("backend request",
		"op", op,
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if kind := classify(resp.StatusCode); kind != 0 {
		return nil, &Error{Kind: kind, Op: op, Status: resp.StatusCode, Message: messageOf(body)}
	}
	return body, nil
}

// dataArray extracts the list payload from an envelope or a bare array.
func dataArray(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	raw := json.RawMessage(body)
	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		raw = env.Data
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// messageOf returns the message of a JSON error body, if any.
func messageOf(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.message()
}

func descriptor(t model.EntityType) (model.Descriptor, error) {
	d, ok := model.Lookup(t)
	if !ok {
		return model.Descriptor{}, fmt.Errorf("unknown entity type %q", t)
	}
	return d, nil
}

func userAgent() string {
	return "agentdesk/" + version.Short()
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
