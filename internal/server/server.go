// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// previewPage is the display surface: it attaches to the frame socket
// and paints each JPEG frame into an <img>.
const previewPage = `<!DOCTYPE html>
<html>
<head><title>FluxCam Preview</title>
<style>
  body { background: #212121; margin: 0; display: flex; align-items: center; justify-content: center; height: 100vh; }
  img { max-width: 100%; max-height: 100%; border-radius: 10px; background: #252525; }
</style>
</head>
<body>
<img id="preview" alt="waiting for frames">
<script>
  const img = document.getElementById("preview");
  const ws = new WebSocket("ws://" + location.host + "/ws/camera");
  ws.binaryType = "blob";
  ws.onmessage = (ev) => {
    const url = URL.createObjectURL(ev.data);
    const prev = img.src;
    img.src = url;
    if (prev) URL.revokeObjectURL(prev);
  };
</script>
</body>
</html>`

type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// Server pushes encoded frames to every connected preview client over
// websockets. It is the display side of the capture pipeline.
type Server struct {
	server          *http.Server
	port            string
	isRunning       bool
	runMu           sync.Mutex
	log             *logrus.Logger
	logBuffer       []LogEntry
	logMutex        sync.RWMutex
	upgrader        websocket.Upgrader
	wsConnections   map[*websocket.Conn]bool
	wsConnectionsMu sync.RWMutex
	logCallback     func(level, message string) // Callback for forwarding logs
	tmpl            *template.Template
}

func New(port string, log *logrus.Logger, logCallback func(level, message string)) *Server {
	return &Server{
		port:        port,
		log:         log,
		logBuffer:   make([]LogEntry, 0, 100),
		logCallback: logCallback,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		wsConnections: make(map[*websocket.Conn]bool),
		tmpl:          template.Must(template.New("preview").Parse(previewPage)),
	}
}

// Handler builds the route table. Split from Start so tests can mount
// it on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/camera", s.handleWebSocketCamera)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := s.tmpl.Execute(w, nil); err != nil {
			s.addLog("ERROR", fmt.Sprintf("Error rendering preview page: %v", err))
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	})
	return mux
}

func (s *Server) Start() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.isRunning {
		s.addLog("ERROR", fmt.Sprintf("Server is already running on port %s", s.port))
		return fmt.Errorf("server is already running")
	}

	s.server = &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		s.addLog("INFO", fmt.Sprintf("Starting server on port %s", s.port))
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.addLog("ERROR", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	s.isRunning = true
	s.addLog("INFO", fmt.Sprintf("Server is running on port %s", s.port))
	return nil
}

func (s *Server) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.isRunning {
		s.addLog("ERROR", "Server stop requested, but server is not running")
		return fmt.Errorf("server is not running")
	}

	s.addLog("INFO", "Stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.addLog("ERROR", fmt.Sprintf("Server shutdown error: %v", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.isRunning = false
	s.addLog("INFO", "Server stopped successfully!")
	return nil
}

func (s *Server) IsRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.isRunning
}

func (s *Server) Port() string {
	return s.port
}

func (s *Server) SetPort(port string) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.isRunning {
		return fmt.Errorf("cannot change port while server is running")
	}
	s.port = port
	return nil
}

func (s *Server) handleWebSocketCamera(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.addLog("ERROR", fmt.Sprintf("Error upgrading websocket connection: %v", err))
		return
	}

	s.addLog("INFO", fmt.Sprintf("Preview client connected: %s", r.RemoteAddr))

	s.wsConnectionsMu.Lock()
	s.wsConnections[conn] = true
	s.wsConnectionsMu.Unlock()

	defer func() {
		conn.Close()
		s.wsConnectionsMu.Lock()
		delete(s.wsConnections, conn)
		s.wsConnectionsMu.Unlock()
		s.addLog("INFO", fmt.Sprintf("Preview client disconnected: %s", r.RemoteAddr))
	}()

	// Clients only receive; reads just detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// BroadcastFrame sends one encoded frame to every preview client.
// Satisfies the capture loop's Publisher.
func (s *Server) BroadcastFrame(frameBytes []byte) {
	s.wsConnectionsMu.Lock()
	defer s.wsConnectionsMu.Unlock()
	for conn := range s.wsConnections {
		if err := conn.WriteMessage(websocket.BinaryMessage, frameBytes); err != nil {
			s.addLog("ERROR", fmt.Sprintf("Error writing frame to websocket: %v", err))
			conn.Close()
			delete(s.wsConnections, conn)
		}
	}
}

// ClientCount reports connected preview clients.
func (s *Server) ClientCount() int {
	s.wsConnectionsMu.RLock()
	defer s.wsConnectionsMu.RUnlock()
	return len(s.wsConnections)
}

// GetRecentLogs returns up to n of the newest log entries, oldest first.
func (s *Server) GetRecentLogs(n int) []LogEntry {
	s.logMutex.RLock()
	defer s.logMutex.RUnlock()
	if n > len(s.logBuffer) {
		n = len(s.logBuffer)
	}
	out := make([]LogEntry, n)
	copy(out, s.logBuffer[len(s.logBuffer)-n:])
	return out
}

func (s *Server) addLog(level, message string) {
	logEntry := LogEntry{
		Timestamp: time.Now(),
		Message:   fmt.Sprintf("[%s] %s", level, message),
	}

	s.logMutex.Lock()
	s.logBuffer = append(s.logBuffer, logEntry)
	if len(s.logBuffer) > 100 {
		s.logBuffer = s.logBuffer[1:]
	}
	s.logMutex.Unlock()

	switch level {
	case "ERROR":
		s.log.Error(message)
	default:
		s.log.Info(message)
	}
	if s.logCallback != nil {
		s.logCallback(level, message)
	}
}
