// Package server is the transport collaborator: it runs the tick loop on a
// wall-clock interval, broadcasts sanitized engine snapshots to websocket
// subscribers, and exposes the HTTP control surface (user CRUD, disruptor
// control, band switching). It never reaches into engine internals — it only
// consumes snapshots and the engine's control methods.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	sim "github.com/wlan-sim/wlan-sim/sim"
)

// Config holds the transport settings.
type Config struct {
	Addr         string
	TickInterval time.Duration
}

// Server coordinates websocket subscribers and drives the simulation loop.
type Server struct {
	engine *sim.Engine
	cfg    Config

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// New wires a server to an engine. The engine must not be stepped by anyone
// else while the server runs.
func New(engine *sim.Engine, cfg Config) *Server {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 200 * time.Millisecond
	}
	return &Server{
		engine: engine,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			// observers may be served from any origin; state is read-only
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// Run starts the simulation loop and serves HTTP until the listener fails.
func (s *Server) Run() error {
	go s.loop()
	logrus.Infof("listening on %s", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.Routes())
}

// Routes builds the HTTP handler. Exposed for tests.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("POST /floor/{floor}/add_user", s.handleAddUser)
	mux.HandleFunc("POST /floor/{floor}/remove_user", s.handleRemoveUser)
	mux.HandleFunc("POST /apkiller/deploy", s.handleDisruptorDeploy)
	mux.HandleFunc("POST /apkiller/withdraw", s.handleDisruptorWithdraw)
	mux.HandleFunc("POST /apkiller/floor/{floor}", s.handleDisruptorFloor)
	mux.HandleFunc("POST /apkiller/move", s.handleDisruptorMove)
	mux.HandleFunc("POST /setband", s.handleSetBand)
	return mux
}

// loop advances the engine on the configured cadence and pushes a snapshot
// to every subscriber after each tick.
func (s *Server) loop() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.engine.Step()

		snap := s.engine.Snapshot()
		payload, err := json.Marshal(map[string]any{"type": "state", "data": snap})
		if err != nil {
			logrus.Errorf("snapshot marshal failed: %v", err)
			continue
		}
		s.broadcast(payload)
	}
}

// broadcast sends the payload to all subscribers, silently discarding any
// connection whose write fails.
func (s *Server) broadcast(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.conns, conn)
			logrus.Debugf("subscriber dropped; total=%d", len(s.conns))
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Debugf("websocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	total := len(s.conns)
	s.mu.Unlock()
	logrus.Infof("subscriber connected; total=%d", total)

	// drain keepalive/ping frames so the read buffer never fills; the
	// connection is removed on the first failed write or read
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "online", "service": "wlan-sim"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	users, aps := s.engine.Counts()
	s.mu.Lock()
	subscribers := len(s.conns)
	s.mu.Unlock()

	state := "idle"
	if s.engine.Ticking() {
		state = "ticking"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     state,
		"tick":       s.engine.Tick(),
		"band":       s.engine.Band(),
		"users":      users,
		"aps":        aps,
		"websockets": subscribers,
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	floor, err := floorParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.engine.AddUser(floor)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": id, "floor": floor})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	floor, err := floorParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.engine.RemoveUser(floor)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": id, "floor": floor})
}

func (s *Server) handleDisruptorDeploy(w http.ResponseWriter, _ *http.Request) {
	s.engine.DeployDisruptor()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deployed"})
}

func (s *Server) handleDisruptorWithdraw(w http.ResponseWriter, _ *http.Request) {
	s.engine.WithdrawDisruptor()
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleDisruptorFloor(w http.ResponseWriter, r *http.Request) {
	floor, err := floorParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.MoveDisruptorToFloor(floor); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "moved", "floor": floor})
}

func (s *Server) handleDisruptorMove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VX float64 `json:"vx"`
		VY float64 `json:"vy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	s.engine.SteerDisruptor(body.VX, body.VY)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetBand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Band string `json:"band"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := s.engine.SetBand(body.Band); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "band": body.Band})
}

func floorParam(r *http.Request) (int, error) {
	floor, err := strconv.Atoi(r.PathValue("floor"))
	if err != nil {
		return 0, fmt.Errorf("invalid floor %q", r.PathValue("floor"))
	}
	return floor, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
