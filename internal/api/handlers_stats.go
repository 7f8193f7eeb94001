package api

import "net/http"

func (s *Server) handleDetectStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "detection stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{"stats": s.stats.Snapshot()}
	if s.orchestrator != nil {
		resp["queue_depth"] = s.orchestrator.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}
