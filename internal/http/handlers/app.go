package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/i18n"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
	"mediagen/internal/middleware"
	"mediagen/internal/runs"
)

const maxBodyBytes = 1 << 20

// App carries the dependencies shared by every handler.
type App struct {
	Runner      *runs.Runner
	Runs        *runs.Registry
	Credentials *credentials.Holder
	Logger      *infra.Logger
}

// NewApp wires the handler container.
func NewApp(runner *runs.Runner, registry *runs.Registry, holder *credentials.Holder, logger *infra.Logger) *App {
	if logger == nil {
		discard := infra.NewDiscardLogger()
		logger = &discard
	}
	return &App{Runner: runner, Runs: registry, Credentials: holder, Logger: logger}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail renders a taxonomy error in the request locale.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	tr := i18n.For(middleware.LocaleFromContext(r.Context()))
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		a.logger(r).Error().Err(err).Msg("handlers: request failed")
	}
	a.error(w, status, code, tr.Error(err))
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusUnauthorized, "missing_credential"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrSubmissionFailure):
		return http.StatusBadGateway, "submission_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
