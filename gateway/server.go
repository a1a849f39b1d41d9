// Package gateway is the WebSocket transport in front of the chat
// core. Each connection gets a generated connection id, a buffered
// event sink registered with the dispatcher, and a pair of pumps. The
// chat core never touches a socket directly.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/process"

	"github.com/swizkhalifaa/Distributed-System-Project-C/dispatch"
	"github.com/swizkhalifaa/Distributed-System-Project-C/services"
)

type Server struct {
	addr        string
	bufferSize  int
	adminSecret []byte
	upgrader    websocket.Upgrader
	registry    *dispatch.Registry
	chat        services.IChatService
	log         *slog.Logger
	httpServer  *http.Server
	clients     sync.WaitGroup
}

type ServerConfig struct {
	Host                 string
	Port                 int
	ConnectionBufferSize int
	AdminSecret          []byte
	Registry             *dispatch.Registry
	Chat                 services.IChatService
	Log                  *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Registry == nil || cfg.Chat == nil {
		return nil, fmt.Errorf("registry and chat service are required")
	}
	if cfg.ConnectionBufferSize <= 0 {
		cfg.ConnectionBufferSize = 256
	}

	return &Server{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		bufferSize:  cfg.ConnectionBufferSize,
		adminSecret: cfg.AdminSecret,
		registry:    cfg.Registry,
		chat:        cfg.Chat,
		log:         cfg.Log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Start runs the HTTP listener until the context is canceled. The
// returned channel reports a listener failure.
func (s *Server) Start(ctx context.Context) <-chan error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWebSocket(ctx, w, r)
	})
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting gateway", "address", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()
	return errChan
}

// Stop drains the HTTP server and waits for client pumps to exit.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.clients.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("Gateway stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("Gateway stop timed out, pumps may still be running")
		return ctx.Err()
	}
}

func (s *Server) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	connectionID := uuid.NewString()
	sink := dispatch.NewChannelSink(s.bufferSize)
	client := NewClient(connectionID, conn, sink, s.chat, s.adminSecret, s.log)

	s.registry.Subscribe(connectionID, sink)
	s.log.Info("Client connected", "connection", connectionID, "remote", r.RemoteAddr, "total", s.registry.Count())

	s.clients.Add(1)
	go func() {
		defer s.clients.Done()
		client.writePump(ctx)
	}()

	client.readPump(ctx)

	// The connection table entry dies with the connection; the session
	// record does not.
	s.registry.Unsubscribe(connectionID)
	s.log.Info("Client disconnected", "connection", connectionID, "total", s.registry.Count())
}

// handleHealth reports liveness plus process usage and the connected
// client count.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"clients": s.registry.Count(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := p.CPUPercent(); err == nil {
			status["cpu_percent"] = cpu
		}
		if ram, err := p.MemoryPercent(); err == nil {
			status["memory_percent"] = ram
		}
		if created, err := p.CreateTime(); err == nil {
			status["uptime_seconds"] = time.Since(time.UnixMilli(created)).Seconds()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(status)
}
