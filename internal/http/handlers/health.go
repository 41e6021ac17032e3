package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status     string `json:"status"`
	Credential string `json:"credential_backend"`
	Configured bool   `json:"credential_configured"`
	ActiveRuns int    `json:"active_runs"`
}

// Health reports liveness plus enough state to tell a misconfigured
// deployment apart from an idle one. The token itself is never included.
func (a *App) Health(w http.ResponseWriter, _ *http.Request) {
	status := a.Credentials.Status()
	a.json(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Credential: status.Backend,
		Configured: status.Configured,
		ActiveRuns: a.Runs.Active(),
	})
}
