package admin

import (
	"encoding/json"
	"net/http"

	"github.com/seed4me/radclient/internal/metrics"
)

// StatsServer exposes the metrics of a running load test over HTTP.
type StatsServer struct {
	metrics *metrics.Metrics
	server  *http.Server
}

func NewStatsServer(metrics *metrics.Metrics, addr string) *StatsServer {
	s := &StatsServer{
		metrics: metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

func (s *StatsServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.metrics.GetStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *StatsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

func (s *StatsServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.metrics.GetStats()
	status := map[string]interface{}{
		"metrics": stats,
		"health": map[string]string{
			"status": "ok",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *StatsServer) Start() error {
	return s.server.ListenAndServe()
}

func (s *StatsServer) Stop() error {
	return s.server.Close()
}
