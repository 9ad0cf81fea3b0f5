package simserver

import (
	"encoding/json"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spacehole-rogue/orbitview/internal/monitoring"
)

const streamWriteWait = 2 * time.Second

// scaleMessage is the only message a stream client sends.
type scaleMessage struct {
	Scale float64 `json:"scale"`
}

// handleStream upgrades to a WebSocket and pushes one stepped snapshot per
// stream interval at the client's current time scale.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	timeScale, _, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, "stream", http.StatusBadRequest, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("stream: upgrade: %v", err)
		s.metrics.Request("stream", http.StatusBadRequest)
		return
	}
	defer conn.Close()
	s.metrics.Request("stream", http.StatusSwitchingProtocols)
	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	var scale atomic.Uint64
	scale.Store(math.Float64bits(timeScale))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m scaleMessage
			if err := json.Unmarshal(data, &m); err != nil || !(m.Scale > 0) || math.IsInf(m.Scale, 0) {
				monitoring.Logf("stream: ignoring message %q", data)
				continue
			}
			ts := math.Max(MinTimeScale, math.Min(m.Scale, MaxTimeScale))
			scale.Store(math.Float64bits(ts))
		}
	}()

	tk := s.cfg.Clock.NewTicker(s.cfg.StreamInterval)
	defer tk.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-tk.C():
		}
		state := s.sim.Step(math.Float64frombits(scale.Load()), ViewQuery{})
		s.metrics.Step()
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(state); err != nil {
			monitoring.Logf("stream %s: %v", sessionOf(r), err)
			return
		}
	}
}
