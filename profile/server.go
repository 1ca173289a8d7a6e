package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebServer exposes the profiler's results over HTTP: health and status
// endpoints plus a WebSocket feed that pushes fresh results to connected
// clients as runs complete.
type WebServer struct {
	logger    *log.Logger
	server    *http.Server
	port      int
	startTime time.Time
	upgrader  websocket.Upgrader
	clients   sync.Map
	broadcast chan []byte
	done      chan struct{}

	mu      sync.RWMutex
	results []*MonthResult
	runDir  string
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
	Months    int    `json:"months_simulated"`
}

// MonthStatus is the wire form of one month's results.
type MonthStatus struct {
	Month       string      `json:"month"`
	WindowStart string      `json:"window_start"`
	WindowEnd   string      `json:"window_end"`
	EnergyKWh   float64     `json:"energy_kwh"`
	Profile     [24]float64 `json:"avg_daily_profile_w"`
}

// StatusResponse is the full status document served over HTTP and pushed
// over the WebSocket feed.
type StatusResponse struct {
	Timestamp string        `json:"timestamp"`
	RunDir    string        `json:"run_dir,omitempty"`
	TotalKWh  float64       `json:"total_energy_kwh"`
	Months    []MonthStatus `json:"months"`
}

// NewWebServer creates a web server on the given port. A port of zero or
// less disables the server and returns nil; the nil receiver is safe to
// use.
func NewWebServer(port int, logger *log.Logger) *WebServer {
	if port <= 0 {
		return nil // Web server disabled
	}

	mux := http.NewServeMux()
	ws := &WebServer{
		logger:    logger,
		port:      port,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	mux.HandleFunc("/api/health", ws.healthHandler)
	mux.HandleFunc("/api/status", ws.statusHandler)
	mux.HandleFunc("/api/ws", ws.wsHandler)

	return ws
}

// Start starts the web server
func (ws *WebServer) Start() error {
	if ws == nil {
		return nil // Web server disabled
	}

	go ws.handleBroadcasts()

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Printf("Web server error: %v", err)
		}
	}()

	ws.logger.Printf("Web server listening on :%d", ws.port)
	return nil
}

// Stop gracefully stops the web server
func (ws *WebServer) Stop(ctx context.Context) error {
	if ws == nil {
		return nil // Web server disabled
	}

	close(ws.done)

	ws.clients.Range(func(key, value any) bool {
		if conn, ok := key.(*websocket.Conn); ok {
			conn.Close()
		}
		return true
	})

	return ws.server.Shutdown(ctx)
}

// PublishResults installs a fresh set of results and pushes them to all
// connected WebSocket clients.
func (ws *WebServer) PublishResults(runDir string, results []*MonthResult) {
	if ws == nil {
		return
	}

	ws.mu.Lock()
	ws.results = results
	ws.runDir = runDir
	ws.mu.Unlock()

	data, err := json.Marshal(ws.buildStatus())
	if err != nil {
		ws.logger.Printf("Failed to marshal status broadcast: %v", err)
		return
	}

	select {
	case ws.broadcast <- data:
	default:
		ws.logger.Printf("Broadcast channel full, dropping status update")
	}
}

// buildStatus snapshots the current results into a status document.
func (ws *WebServer) buildStatus() StatusResponse {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	status := StatusResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunDir:    ws.runDir,
	}
	for _, mr := range ws.results {
		status.TotalKWh += mr.EnergyKWh
		status.Months = append(status.Months, MonthStatus{
			Month:       mr.Month.String(),
			WindowStart: mr.Window.Start.Format("2006-01-02"),
			WindowEnd:   mr.Window.End.Format("2006-01-02"),
			EnergyKWh:   mr.EnergyKWh,
			Profile:     mr.Profile,
		})
	}
	return status
}

// healthHandler handles the /api/health endpoint
func (ws *WebServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws.mu.RLock()
	months := len(ws.results)
	ws.mu.RUnlock()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(ws.startTime).Round(time.Second).String(),
		Months:    months,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusHandler handles the /api/status endpoint (detailed status)
func (ws *WebServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ws.buildStatus()); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// wsHandler handles WebSocket connections
func (ws *WebServer) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Printf("WebSocket upgrade error: %v", err)
		return
	}

	ws.clients.Store(conn, true)
	ws.logger.Printf("WebSocket client connected: %s", conn.RemoteAddr())

	// Send the current results immediately
	ws.sendStatusToClient(conn)

	defer func() {
		ws.clients.Delete(conn)
		conn.Close()
		ws.logger.Printf("WebSocket client disconnected: %s", conn.RemoteAddr())
	}()

	// Read messages from client (ping/pong, close)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// sendStatusToClient sends the current status document to one client.
func (ws *WebServer) sendStatusToClient(conn *websocket.Conn) {
	data, err := json.Marshal(ws.buildStatus())
	if err != nil {
		ws.logger.Printf("Failed to marshal status: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		ws.logger.Printf("Failed to send status: %v", err)
	}
}

// handleBroadcasts fans broadcast messages out to every connected client.
func (ws *WebServer) handleBroadcasts() {
	for {
		select {
		case <-ws.done:
			return
		case data := <-ws.broadcast:
			ws.clients.Range(func(key, value any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					ws.clients.Delete(conn)
					conn.Close()
				}
				return true
			})
		}
	}
}
