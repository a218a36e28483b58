package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// StreamHandler handles GET /v1/stream. It upgrades to WebSocket and pushes
// simulation snapshots and alerts as they are published. Snapshots are
// coalesced to at most 4 per second per client so a fast runner cannot
// saturate slow consumers; alerts are never dropped by the limiter.
func (s *Server) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	snaps := s.Broker.Subscribe(TopicSnapshot)
	alertCh := s.Broker.Subscribe(TopicAlert)
	defer s.Broker.Unsubscribe(TopicSnapshot, snaps)
	defer s.Broker.Unsubscribe(TopicAlert, alertCh)

	limiter := rate.NewLimiter(rate.Limit(4), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case evt, ok := <-snaps:
			if !ok {
				return
			}
			if !limiter.Allow() {
				continue
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case evt, ok := <-alertCh:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}
