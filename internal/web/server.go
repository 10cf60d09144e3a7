// Package web provides an HTTP status server for the obstacle-alarm daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/status"
	"github.com/sweeney/obstacle-alarm/internal/telemetry"
)

// recentLimit caps how many cycles the history endpoint returns.
const recentLimit = 50

// RecentSource provides recent cycle readings for the history endpoint.
type RecentSource interface {
	Recent(n int) ([]telemetry.Reading, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	recent     RecentSource
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/recent.json", s.handleRecent)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// SetRecentSource enables the /recent.json history endpoint. Call before
// serving; a nil source leaves the endpoint returning 404.
func (s *Server) SetRecentSource(src RecentSource) {
	s.recent = src
}

// recentEntry is the wire shape of one cycle in /recent.json.
type recentEntry struct {
	Timestamp   string `json:"timestamp"`
	Distance    int    `json:"distance"`
	Regime      string `json:"regime"`
	Light       int    `json:"light"`
	Temperature int    `json:"temperature"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.recent == nil {
		http.NotFound(w, r)
		return
	}
	readings, err := s.recent.Recent(recentLimit)
	if err != nil {
		http.Error(w, "cycle log unavailable", http.StatusInternalServerError)
		return
	}
	entries := make([]recentEntry, len(readings))
	for i, rd := range readings {
		entries[i] = recentEntry{
			Timestamp:   rd.Time.UTC().Format(time.RFC3339),
			Distance:    rd.Distance,
			Regime:      string(rd.Regime),
			Light:       rd.Light,
			Temperature: rd.Temperature,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
