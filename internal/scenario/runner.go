package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/jpalmerr/recordstore"
	"github.com/jpalmerr/recordstore/config"
)

// Event kinds.
const (
	KindNotify = "notify"
	KindGet    = "get"
)

// Event is one entry of the event log.
type Event struct {
	// Step is the zero-based index of the step that produced the event.
	Step int `json:"step"`

	// Kind is KindNotify for a listener call or KindGet for a read.
	Kind string `json:"kind"`

	// Listener is the label of the called listener bundle. Empty for reads.
	Listener string `json:"listener,omitempty"`

	// Field is the field that was delivered or read.
	Field string `json:"field"`

	// Value is the delivered or read value.
	Value any `json:"value"`

	// CatchUp is true for the call made when the listener was added.
	CatchUp bool `json:"catch_up,omitempty"`
}

// Report summarizes a scenario run.
type Report struct {
	// Name is the scenario name.
	Name string

	// Steps is the number of steps executed.
	Steps int

	// Notifications counts listener calls, catch-up calls included.
	Notifications int

	// Reads counts get steps.
	Reads int
}

// runner holds the state of one scenario run.
type runner struct {
	store  *recordstore.Store[map[string]any]
	enc    *json.Encoder
	logger *slog.Logger
	report Report

	step    int
	catchUp bool

	// subs maps live listener labels to their subscriptions.
	subs map[string]recordstore.Subscriptions

	// writeErr is the first event encoding failure; listeners cannot
	// return errors, so it is checked after every step.
	writeErr error
}

// Run executes sc against a fresh store and writes the event log to w.
//
// Steps run in file order. ctx is checked before every step; on
// cancellation Run stops and returns the partial report with ctx's error.
// Listeners still registered when the scenario ends are removed.
//
// Returns an error if the store cannot be built, a step fails, or the
// event log cannot be written.
func Run(ctx context.Context, sc *config.Scenario, w io.Writer, logger *slog.Logger) (Report, error) {
	// default to slog.Default() if no logger provided
	if logger == nil {
		logger = slog.Default()
	}

	store, err := config.BuildStore(sc, recordstore.WithLogger(logger))
	if err != nil {
		return Report{Name: sc.Name}, err
	}

	r := &runner{
		store:  store,
		enc:    json.NewEncoder(w),
		logger: logger,
		report: Report{Name: sc.Name},
		subs:   make(map[string]recordstore.Subscriptions),
	}
	defer r.removeAll()

	logger.Info("scenario started",
		"scenario", sc.Name,
		"fields", len(sc.Record),
		"steps", len(sc.Steps),
	)

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("scenario cancelled", "scenario", sc.Name, "step", i)
			return r.report, fmt.Errorf("scenario cancelled at steps[%d]: %w", i, err)
		}

		r.step = i
		if err := r.exec(st); err != nil {
			return r.report, fmt.Errorf("steps[%d]: %w", i, err)
		}
		if r.writeErr != nil {
			return r.report, fmt.Errorf("steps[%d]: write event: %w", i, r.writeErr)
		}
		r.report.Steps++

		logger.Debug("step executed", "step", i, "action", st.Action())
	}

	logger.Info("scenario finished",
		"scenario", sc.Name,
		"steps", r.report.Steps,
		"notifications", r.report.Notifications,
		"reads", r.report.Reads,
	)

	return r.report, nil
}

// exec runs a single step.
func (r *runner) exec(st config.Step) error {
	switch st.Action() {
	case "set":
		return r.store.Set(st.Set.Changes()...)

	case "listen":
		listeners := make([]recordstore.Listener, len(st.Listen))
		for k, field := range st.Listen {
			listeners[k] = r.listener(st.As, field)
		}

		r.catchUp = true
		subs, err := r.store.AddListeners(listeners...)
		r.catchUp = false
		if err != nil {
			return err
		}
		r.subs[st.As] = subs
		return nil

	case "unlisten":
		subs, ok := r.subs[st.Unlisten]
		if !ok {
			return fmt.Errorf("no live listener %q", st.Unlisten)
		}
		delete(r.subs, st.Unlisten)
		return r.store.RemoveListeners(subs)

	case "get":
		v, err := r.store.Get(st.Get)
		if err != nil {
			return err
		}
		r.report.Reads++
		r.emit(Event{Step: r.step, Kind: KindGet, Field: st.Get, Value: v})
		return nil

	default:
		return fmt.Errorf("exactly one of set, listen, unlisten or get is required")
	}
}

// listener returns a listener that logs every call under label.
func (r *runner) listener(label, field string) recordstore.Listener {
	return recordstore.Listener{
		Field: field,
		Callback: func(v any) {
			r.report.Notifications++
			r.emit(Event{
				Step:     r.step,
				Kind:     KindNotify,
				Listener: label,
				Field:    field,
				Value:    v,
				CatchUp:  r.catchUp,
			})
		},
	}
}

// emit writes one event line, keeping the first failure.
func (r *runner) emit(e Event) {
	if r.writeErr != nil {
		return
	}
	if err := r.enc.Encode(e); err != nil {
		r.writeErr = err
	}
}

// removeAll unregisters every live listener bundle, in label order.
func (r *runner) removeAll() {
	for _, label := range slices.Sorted(maps.Keys(r.subs)) {
		if err := r.store.RemoveListeners(r.subs[label]); err != nil {
			r.logger.Error("failed to remove listeners", "listener", label, "error", err)
		}
	}
	r.subs = nil
}
