package credentials

import (
	"context"
	"strings"
	"sync"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

// Backend persists the single bearer token.
type Backend interface {
	Name() string
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Source says where the current token came from.
type Source string

const (
	SourceStored  Source = "stored"
	SourceDefault Source = "default"
	SourceNone    Source = "none"
)

// Status describes the current credential without exposing it.
type Status struct {
	Configured bool   `json:"configured"`
	Source     Source `json:"source"`
	Backend    string `json:"backend"`
}

// Holder owns the process-wide token. It is set on Load and changes only
// through Save and Clear.
type Holder struct {
	backend  Backend
	fallback string
	logger   *infra.Logger

	mu     sync.RWMutex
	token  string
	source Source
}

// NewHolder wraps backend. fallback is the environment default used when
// nothing is persisted.
func NewHolder(backend Backend, fallback string, logger *infra.Logger) *Holder {
	if logger == nil {
		discard := infra.NewDiscardLogger()
		logger = &discard
	}
	return &Holder{
		backend:  backend,
		fallback: strings.TrimSpace(fallback),
		logger:   logger,
		source:   SourceNone,
	}
}

// Load reads the persisted token, falling back to the default.
func (h *Holder) Load(ctx context.Context) error {
	stored, err := h.backend.Load(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set(stored)
	h.logger.Debug().Str("backend", h.backend.Name()).Str("source", string(h.source)).Msg("credentials: loaded")
	return nil
}

// Token returns the current token. It may be empty or the placeholder; use
// domain.ValidateToken before submitting.
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Save persists token and makes it current. Blank tokens are rejected.
func (h *Holder) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Validationf("token is required")
	}
	if err := h.backend.Save(ctx, token); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token, h.source = token, SourceStored
	h.logger.Info().Str("backend", h.backend.Name()).Msg("credentials: token saved")
	return nil
}

// Clear removes the persisted token. The environment default, if any,
// becomes current again.
func (h *Holder) Clear(ctx context.Context) error {
	if err := h.backend.Clear(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set("")
	h.logger.Info().Str("backend", h.backend.Name()).Msg("credentials: token cleared")
	return nil
}

// Status reports whether a usable token is configured.
func (h *Holder) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Status{
		Configured: domain.ValidateToken(h.token) == nil,
		Source:     h.source,
		Backend:    h.backend.Name(),
	}
}

func (h *Holder) set(stored string) {
	switch {
	case stored != "":
		h.token, h.source = stored, SourceStored
	case h.fallback != "":
		h.token, h.source = h.fallback, SourceDefault
	default:
		h.token, h.source = "", SourceNone
	}
}
