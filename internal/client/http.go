// Package client talks to the simulation backend over HTTP and, optionally,
// a WebSocket snapshot stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/spacehole-rogue/orbitview/internal/poll"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// SessionHeader identifies one viewer session to the backend.
const SessionHeader = "X-Viewer-Session"

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// ErrStatus is wrapped by every StatusError.
var ErrStatus = errors.New("unexpected status")

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// HTTPClient abstracts the transport for testability. *http.Client
// satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource implements poll.Source against the REST endpoints.
type HTTPSource struct {
	base    string
	c       HTTPClient
	session string
}

var _ poll.Source = (*HTTPSource)(nil)

// NewHTTPSource creates a source for the backend at baseURL. A nil c uses
// http.DefaultClient; an empty session gets a fresh random id.
func NewHTTPSource(baseURL string, c HTTPClient, session string) *HTTPSource {
	if c == nil {
		c = http.DefaultClient
	}
	if session == "" {
		session = uuid.NewString()
	}
	return &HTTPSource{base: strings.TrimRight(baseURL, "/"), c: c, session: session}
}

// Session returns the id sent with every request.
func (s *HTTPSource) Session() string { return s.session }

// Fetch performs GET /api/simulation.
func (s *HTTPSource) Fetch(ctx context.Context, q poll.Query) (world.Snapshot, error) {
	var snap world.Snapshot
	data, err := s.do(ctx, http.MethodGet, "/api/simulation?"+q.Values().Encode(), nil)
	if err != nil {
		return snap, fmt.Errorf("fetch snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("fetch snapshot: decode: %w", err)
	}
	return snap, nil
}

// Start performs POST /api/simulation/start with the ordered names.
func (s *HTTPSource) Start(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("start: encode: %w", err)
	}
	if _, err := s.do(ctx, http.MethodPost, "/api/simulation/start", payload); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// Reset performs POST /api/simulation/reset. A response that is not a
// body list is treated as a bare acknowledgement.
func (s *HTTPSource) Reset(ctx context.Context) ([]world.Body, error) {
	data, err := s.do(ctx, http.MethodPost, "/api/simulation/reset", nil)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	var bodies []world.Body
	if json.Unmarshal(data, &bodies) != nil {
		return nil, nil
	}
	return bodies, nil
}

// Catalog performs GET /api/bodies.
func (s *HTTPSource) Catalog(ctx context.Context) ([]world.CatalogEntry, error) {
	data, err := s.do(ctx, http.MethodGet, "/api/bodies", nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	var entries []world.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return entries, nil
}

func (s *HTTPSource) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(SessionHeader, s.session)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: errorMessage(data)}
	}
	return data, nil
}

// errorMessage extracts {"error": msg} bodies and falls back to the raw text.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
