package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/middleware"
	"mediagen/internal/runs"
)

type runResponse struct {
	RunID string     `json:"run_id"`
	Kind  runs.Kind  `json:"kind"`
	Model string     `json:"model"`
	State runs.State `json:"state"`
}

func (a *App) ImagesCreate(w http.ResponseWriter, r *http.Request) {
	var in runs.ImageInput
	if !a.decode(w, r, &in) {
		return
	}
	a.start(w, r, func(token string) (runs.Plan, error) { return a.Runner.PlanImage(in, token) })
}

func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	var in runs.VideoInput
	if !a.decode(w, r, &in) {
		return
	}
	a.start(w, r, func(token string) (runs.Plan, error) { return a.Runner.PlanVideo(in, token) })
}

func (a *App) BatchesCreate(w http.ResponseWriter, r *http.Request) {
	var in runs.BatchInput
	if !a.decode(w, r, &in) {
		return
	}
	a.start(w, r, func(token string) (runs.Plan, error) { return a.Runner.PlanBatch(in, token) })
}

// RunGet returns the latest view of a run.
func (a *App) RunGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, ok := a.Runs.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	a.json(w, http.StatusOK, view)
}

// start validates the request with the current credential and launches it
// in the background. Validation problems are reported synchronously.
func (a *App) start(w http.ResponseWriter, r *http.Request, plan func(token string) (runs.Plan, error)) {
	p, err := plan(a.Credentials.Token())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	view := a.Runs.Start(p, middleware.LocaleFromContext(r.Context()))
	a.logger(r).Info().
		Str("run_id", view.ID).
		Str("kind", string(view.Kind)).
		Str("model", view.Model).
		Msg("handlers: run started")
	w.Header().Set("Location", "/v1/runs/"+view.ID)
	a.json(w, http.StatusAccepted, runResponse{RunID: view.ID, Kind: view.Kind, Model: view.Model, State: view.State})
}
