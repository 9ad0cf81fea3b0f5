package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spacehole-rogue/orbitview/internal/monitoring"
	"github.com/spacehole-rogue/orbitview/internal/poll"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 10 * time.Second
)

// scaleMessage changes the stream's time scale.
type scaleMessage struct {
	Scale float64 `json:"scale"`
}

// StreamSource reads snapshots from the WebSocket stream and sends
// viewport and lifecycle commands over HTTP. Run must be running for Fetch
// to return snapshots.
type StreamSource struct {
	*HTTPSource
	dialer *websocket.Dialer
	frames chan world.Snapshot

	mu    sync.Mutex // guards conn writes and scale
	conn  *websocket.Conn
	scale float64
}

var _ poll.Source = (*StreamSource)(nil)

// NewStreamSource layers a snapshot stream over h.
func NewStreamSource(h *HTTPSource) *StreamSource {
	return &StreamSource{
		HTTPSource: h,
		dialer:     websocket.DefaultDialer,
		frames:     make(chan world.Snapshot, 1),
		scale:      1,
	}
}

// Fetch returns the newest streamed snapshot, waiting for one if none has
// arrived since the last call. Queries that carry a viewport command go
// over HTTP.
func (s *StreamSource) Fetch(ctx context.Context, q poll.Query) (world.Snapshot, error) {
	if q.Move || q.Zoom != "" || q.ResetViewport {
		return s.HTTPSource.Fetch(ctx, q)
	}
	s.setScale(q.TimeScale)
	select {
	case snap := <-s.frames:
		return snap, nil
	case <-ctx.Done():
		return world.Snapshot{}, fmt.Errorf("fetch snapshot: stream: %w", ctx.Err())
	}
}

// Run keeps the stream connected until ctx is done, reconnecting with
// exponential backoff.
func (s *StreamSource) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		conn, _, err := s.dialer.DialContext(ctx, s.streamURL(), s.header())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			monitoring.Logf("stream: dial: %v, retrying in %v", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = minBackoff

		err = s.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		monitoring.Logf("stream: %v, reconnecting", err)
	}
}

func (s *StreamSource) serve(ctx context.Context, conn *websocket.Conn) error {
	s.mu.Lock()
	s.conn = conn
	scale := s.scale
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	s.mu.Lock()
	err := conn.WriteJSON(scaleMessage{Scale: scale})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("send scale: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var snap world.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			monitoring.Logf("stream: bad frame: %v", err)
			continue
		}
		s.offer(snap)
	}
}

// offer replaces any unread frame with snap. Only serve writes frames.
func (s *StreamSource) offer(snap world.Snapshot) {
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- snap:
	default:
	}
}

func (s *StreamSource) setScale(scale float64) {
	if scale <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if scale == s.scale {
		return
	}
	s.scale = scale
	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(scaleMessage{Scale: scale}); err != nil {
		monitoring.Logf("stream: send scale: %v", err)
	}
}

func (s *StreamSource) streamURL() string {
	u := s.base
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	s.mu.Lock()
	scale := s.scale
	s.mu.Unlock()
	v := url.Values{}
	v.Set("scale", strconv.FormatFloat(scale, 'g', -1, 64))
	return u + "/api/simulation/stream?" + v.Encode()
}

func (s *StreamSource) header() http.Header {
	h := http.Header{}
	h.Set(SessionHeader, s.session)
	return h
}
