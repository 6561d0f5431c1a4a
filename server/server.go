// Package server exposes the viewer WebSocket endpoint and a small
// stats endpoint over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"linkrank/delivery"
	"linkrank/index"
	"linkrank/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingEvery      = (pongWait * 9) / 10
	viewerBuffer   = 256
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Server serves live index updates to WebSocket viewers.
type Server struct {
	hub   *delivery.Hub
	index *index.Index
	http  *http.Server
}

func New(addr string, hub *delivery.Hub, idx *index.Index) *Server {
	s := &Server{hub: hub, index: idx}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleViewer)
	mux.HandleFunc("/stats", s.handleStats)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// returned on graceful shutdown.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleViewer upgrades the connection, registers it with the hub (which
// replays the current graph), and pumps delivery events out until the
// viewer goes away.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan models.DeliveryEvent, viewerBuffer)
	s.hub.Register(events)
	defer s.hub.Unregister(events)

	// Reader exists only to notice the close handshake.
	go func() {
		defer cancel()
		conn.SetReadLimit(maxInboundSize)
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		Pages      int `json:"pages"`
		QueueDepth int `json:"queueDepth"`
		Viewers    int `json:"viewers"`
	}{
		Pages:      s.index.Len(),
		QueueDepth: s.hub.QueueDepth(),
		Viewers:    s.hub.ViewerCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Warn("write stats failed", "err", err)
	}
}
