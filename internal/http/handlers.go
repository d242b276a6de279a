package http

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.deps.Now().Format(time.RFC3339),
		"uptime":    s.deps.Now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the ledger backend and reports rate limiter load.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	switch {
	case s.deps.Ledger == nil || s.deps.Chat == nil || s.deps.Auth == nil:
		checks["wiring"] = "incomplete"
		status, code = "not_ready", http.StatusServiceUnavailable
	case s.deps.Ready != nil:
		if err := s.deps.Ready.Ping(ctx); err != nil {
			checks["ledger"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["ledger"] = "ok"
		}
	default:
		checks["ledger"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}
	checks["blocked_requests"] = s.detector.Blocked()

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.deps.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
