package http

import (
	"net/http"
	"time"

	"github.com/inkwellhq/apigate/pkg/httpx"
)

// LivezHandler reports process liveness.
func (r *Router) LivezHandler(w http.ResponseWriter, req *http.Request) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": r.buildVersion,
		"uptime":  time.Since(r.startTime).Truncate(time.Second).String(),
	})
}

// ReadyzHandler reports readiness, checking the database connection.
func (r *Router) ReadyzHandler(w http.ResponseWriter, req *http.Request) {
	httpx.NoCache(w)
	if err := r.store.Ping(req.Context()); err != nil {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
