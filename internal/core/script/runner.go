package script

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/toaster/internal/core/clock/fakeclock"
	"github.com/colonyops/toaster/internal/core/logging"
	"github.com/colonyops/toaster/internal/core/toast"
)

// Offset is the simulated time elapsed since the start of a run.
type Offset time.Duration

func (o Offset) String() string {
	return time.Duration(o).String()
}

// MarshalText renders the offset as a Go duration string.
func (o Offset) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// TransitionRecord is a lifecycle transition observed during a step.
type TransitionRecord struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
	At     Offset `json:"at"`
}

// StepResult is the outcome of a single step.
type StepResult struct {
	Index       int                `json:"index"`
	Action      string             `json:"action"`
	At          Offset             `json:"at"`
	Transitions []TransitionRecord `json:"transitions"`
	Visible     []string           `json:"visible"`
	Pending     []string           `json:"pending"`
	Dismissed   []string           `json:"dismissed"`
	Failures    []string           `json:"failures,omitempty"`
}

// Result is the outcome of a script run.
type Result struct {
	Script string       `json:"script"`
	Passed bool         `json:"passed"`
	Steps  []StepResult `json:"steps"`
}

// Failures returns every expectation failure with its step index.
func (r *Result) Failures() []string {
	var out []string
	for _, s := range r.Steps {
		for _, f := range s.Failures {
			out = append(out, fmt.Sprintf("step %d: %s", s.Index, f))
		}
	}
	return out
}

// Runner executes scripts.
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a runner that logs through log. Step logs carry the
// script name and step index through logging.ContextHook.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log.Hook(logging.ContextHook{})}
}

// Run executes s against a fresh store and engine. Expectation failures do
// not stop the run; they mark the result as failed. Run returns an error
// only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	clk := fakeclock.New(time.Time{})
	start := clk.Now()

	store := toast.NewStore()
	engine := toast.NewEngine(store,
		toast.WithClock(clk),
		toast.WithAutoConfirm(s.AutoConfirm),
		toast.WithLogger(r.log),
	)
	defer engine.Close()
	toast.RegisterDebugLogger(engine, r.log)

	var observed []TransitionRecord
	engine.OnTransition(func(tr toast.Transition) {
		observed = append(observed, TransitionRecord{
			Kind:   string(tr.Kind),
			ID:     tr.ID,
			Reason: string(tr.Reason),
			At:     Offset(tr.At.Sub(start)),
		})
	})

	ctx = logging.WithScript(ctx, s.Name)
	result := &Result{Script: s.Name, Passed: true}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		stepCtx := logging.WithStep(ctx, i+1)
		r.log.Debug().Ctx(stepCtx).Str("action", step.Describe()).Msg("running step")

		observed = observed[:0]
		apply(step, store, engine, clk)

		state := engine.State()
		sr := StepResult{
			Index:       i + 1,
			Action:      step.Describe(),
			At:          Offset(clk.Now().Sub(start)),
			Transitions: slices.Clone(observed),
			Visible:     visibleIDs(state),
			Pending:     pendingIDs(state),
			Dismissed:   dismissedIDs(state),
		}
		if step.Expect != nil {
			sr.Failures = check(step.Expect, state, engine)
		}
		for _, f := range sr.Failures {
			r.log.Warn().Ctx(stepCtx).Str("failure", f).Msg("expectation failed")
		}
		if len(sr.Failures) > 0 {
			result.Passed = false
		}

		result.Steps = append(result.Steps, sr)
	}

	return result, nil
}

func apply(step Step, store *toast.Store, engine *toast.Engine, clk *fakeclock.Clock) {
	switch {
	case step.Add != nil:
		for _, n := range step.Add.Notifications() {
			store.Add(n)
		}
	case step.Dismiss != "":
		store.Dismiss(step.Dismiss)
	case step.DismissAll:
		store.DismissAll()
	case step.Clear:
		store.Clear()
	case step.Enter != "":
		engine.PointerEnter(step.Enter)
	case step.Leave != "":
		engine.PointerLeave(step.Leave)
	case step.Confirm != "":
		engine.ConfirmRemoved(step.Confirm)
	case step.Advance > 0:
		clk.Advance(step.Advance)
	}
}

func check(want *Expectation, state toast.State, engine *toast.Engine) []string {
	var failures []string

	compare := func(what string, want, got []string) {
		if want != nil && !slices.Equal(want, got) {
			failures = append(failures, fmt.Sprintf("%s: want [%s], got [%s]",
				what, strings.Join(want, " "), strings.Join(got, " ")))
		}
	}

	if want.Empty && state.Len() != 0 {
		failures = append(failures, fmt.Sprintf("want empty, got %d notifications", state.Len()))
	}
	compare("visible", want.Visible, visibleIDs(state))
	compare("pending", want.Pending, pendingIDs(state))
	compare("dismissed", want.Dismissed, dismissedIDs(state))

	ids := make([]string, 0, len(want.Remaining))
	for id := range want.Remaining {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		got, ok := engine.Remaining(id)
		if !ok {
			failures = append(failures, fmt.Sprintf("remaining %s: not visible", id))
			continue
		}
		if got != want.Remaining[id] {
			failures = append(failures, fmt.Sprintf("remaining %s: want %s, got %s", id, want.Remaining[id], got))
		}
	}

	return failures
}

func visibleIDs(s toast.State) []string {
	out := make([]string, 0, len(s.Visible))
	for _, n := range s.Visible {
		out = append(out, n.ID)
	}
	return out
}

func pendingIDs(s toast.State) []string {
	out := make([]string, 0, len(s.Pending))
	for _, n := range s.Pending {
		out = append(out, n.ID)
	}
	return out
}

func dismissedIDs(s toast.State) []string {
	out := []string{}
	for _, n := range s.Visible {
		if n.Dismissed {
			out = append(out, n.ID)
		}
	}
	return out
}
