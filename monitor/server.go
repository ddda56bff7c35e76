package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/user/blesniffer/logger"
	"github.com/user/blesniffer/scanner"
	"github.com/user/blesniffer/sniffer"
	"github.com/user/blesniffer/tracker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Read-only diagnostics, no cross-origin restriction
	CheckOrigin: func(*http.Request) bool { return true },
}

// Server exposes read-only diagnostics over HTTP: counters, the device
// registry and a live websocket feed of canonical capture lines. It
// never feeds anything back into the capture pipeline.
type Server struct {
	addr    string
	session uuid.UUID
	started time.Time

	buf  *sniffer.Buffer
	reg  *tracker.Registry
	scan *scanner.Scanner // optional, nil without a simulated radio

	hub        *Hub
	listener   net.Listener
	httpServer *http.Server
}

// NewServer wires the diagnostics surface. Each server gets a fresh
// session UUID so restarts are tellable apart in scraped stats.
func NewServer(addr string, buf *sniffer.Buffer, reg *tracker.Registry, scan *scanner.Scanner) *Server {
	return &Server{
		addr:    addr,
		session: uuid.New(),
		buf:     buf,
		reg:     reg,
		scan:    scan,
		hub:     NewHub(),
	}
}

// Hub returns the feed hub, which plugs into the consumer as a Reporter.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the bound listen address once Start succeeded; before
// that, the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listener and serves in the background. A failure to
// bind is returned synchronously.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("monitor listen on %s: %w", s.addr, err)
	}
	s.listener = l
	s.started = time.Now()

	s.hub.Start()
	s.httpServer = &http.Server{Handler: s.routes()}
	go func() {
		if err := s.httpServer.Serve(l); err != nil && err != http.ErrServerClosed {
			logger.Error("MONITOR", "HTTP server failed: %v", err)
		}
	}()

	logger.Info("MONITOR", "Diagnostics listening on http://%s (session %s)", l.Addr(), s.session)
	return nil
}

// Stop shuts the HTTP server down and disconnects all feed clients.
func (s *Server) Stop() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
	s.hub.Stop()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	// chi's request logger writes to stdout, which belongs to the
	// capture stream; Recoverer alone is enough here
	r.Use(middleware.Recoverer)

	r.Get("/stats", s.handleStats)
	r.Get("/devices", s.handleDevices)
	r.Get("/devices/{mac}", s.handleDevice)
	r.Get("/feed", s.handleFeed)

	return r
}

type bufferStats struct {
	Enqueued   uint64 `json:"enqueued"`
	Overflowed uint64 `json:"overflowed"`
	Occupancy  int    `json:"occupancy"`
	Capacity   int    `json:"capacity"`
}

type scannerStats struct {
	Advertisements uint64 `json:"advertisements"`
	ScanResponses  uint64 `json:"scan_responses"`
}

type statsResponse struct {
	Session       string        `json:"session"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Buffer        bufferStats   `json:"buffer"`
	Scanner       *scannerStats `json:"scanner,omitempty"`
	Devices       int           `json:"devices"`
	FeedClients   int           `json:"feed_clients"`
	FeedDropped   uint64        `json:"feed_dropped"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.buf.Stats()
	resp := statsResponse{
		Session:       s.session.String(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Buffer: bufferStats{
			Enqueued:   stats.Enqueued,
			Overflowed: stats.Overflowed,
			Occupancy:  stats.Occupancy,
			Capacity:   s.buf.Cap(),
		},
		FeedClients: s.hub.ClientCount(),
		FeedDropped: s.hub.Dropped(),
	}
	if s.reg != nil {
		resp.Devices = s.reg.Len()
	}
	if s.scan != nil {
		sc := s.scan.Stats()
		resp.Scanner = &scannerStats{
			Advertisements: sc.Advertisements,
			ScanResponses:  sc.ScanResponses,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if s.reg == nil {
		writeJSON(w, http.StatusOK, []tracker.Device{})
		return
	}
	writeJSON(w, http.StatusOK, s.reg.Snapshot())
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	mac := strings.ToLower(chi.URLParam(r, "mac"))

	if s.reg != nil {
		if dev, ok := s.reg.Lookup(mac); ok {
			writeJSON(w, http.StatusOK, dev)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown device"})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("MONITOR", "Feed upgrade failed: %v", err)
		return
	}

	c := newClient(s.hub, conn)
	if !s.hub.add(c) {
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("MONITOR", "Response write failed: %v", err)
	}
}
