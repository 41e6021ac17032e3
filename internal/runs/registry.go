package runs

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"mediagen/internal/infra"
)

// DefaultRetained bounds how many finished runs the registry remembers.
const DefaultRetained = 256

// Registry executes runs in the background and keeps their latest views in
// memory. Every run is bound to the registry's context.
type Registry struct {
	ctx      context.Context
	runner   *Runner
	logger   *infra.Logger
	retained int

	mu    sync.RWMutex
	views map[string]View
	order []string
	wg    sync.WaitGroup
}

// NewRegistry returns a registry whose runs stop when ctx is done.
func NewRegistry(ctx context.Context, runner *Runner, logger *infra.Logger) *Registry {
	if logger == nil {
		discard := infra.NewDiscardLogger()
		logger = &discard
	}
	return &Registry{
		ctx:      ctx,
		runner:   runner,
		logger:   logger,
		retained: DefaultRetained,
		views:    make(map[string]View),
	}
}

// Start launches plan and returns the run's initial view.
func (r *Registry) Start(plan Plan, locale string) View {
	view := NewView(uuid.NewString(), plan.Kind, plan.Endpoint.Key, locale)
	r.put(view)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		final := r.runner.Execute(r.ctx, plan, view, r.put)
		r.logger.Info().
			Str("run_id", final.ID).
			Str("kind", string(final.Kind)).
			Str("state", string(final.State)).
			Msg("runs: run finished")
	}()
	return view.Clone()
}

// Get returns a copy of the latest view of run id.
func (r *Registry) Get(id string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view, ok := r.views[id]
	if !ok {
		return View{}, false
	}
	return view.Clone(), true
}

// Active counts runs that have not reached a final state.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, view := range r.views {
		if !view.Done() {
			n++
		}
	}
	return n
}

// Wait blocks until every started run has returned.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) put(view View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[view.ID]; !ok {
		r.order = append(r.order, view.ID)
	}
	r.views[view.ID] = view
	r.prune()
}

// prune drops the oldest finished runs beyond the retention limit.
func (r *Registry) prune() {
	excess := len(r.order) - r.retained
	if excess <= 0 {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && r.views[id].Done() {
			delete(r.views, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}
