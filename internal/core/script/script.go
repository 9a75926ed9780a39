// Package script runs YAML notification scenarios against a fresh engine on
// a fake clock. Scripts drive the store and the presentation signals step by
// step and can assert on the resulting state.
package script

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/toaster/internal/core/toast"
)

// Script is a named sequence of steps.
type Script struct {
	Name string `yaml:"name"`
	// AutoConfirm confirms removal right after each dismissal, as if exit
	// animations took no time.
	AutoConfirm bool   `yaml:"auto_confirm"`
	Steps       []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Add        *AddStep      `yaml:"add,omitempty"`
	Dismiss    string        `yaml:"dismiss,omitempty"`
	DismissAll bool          `yaml:"dismiss_all,omitempty"`
	Clear      bool          `yaml:"clear,omitempty"`
	Enter      string        `yaml:"enter,omitempty"`
	Leave      string        `yaml:"leave,omitempty"`
	Confirm    string        `yaml:"confirm,omitempty"`
	Advance    time.Duration `yaml:"advance,omitempty"`
	Expect     *Expectation  `yaml:"expect,omitempty"`
}

// AddStep publishes a notification. A missing duration means
// toast.DefaultDuration; an explicit zero dismisses immediately.
type AddStep struct {
	ID       string         `yaml:"id"`
	Type     string         `yaml:"type"`
	Message  string         `yaml:"message"`
	Duration *time.Duration `yaml:"duration"`
	Persist  bool           `yaml:"persist"`
	// Repeat adds the notification this many times, suffixing ids with
	// -1, -2 and so on.
	Repeat int `yaml:"repeat"`
}

// Expectation asserts on the engine state. Nil lists are not checked; an
// explicit empty list requires emptiness.
type Expectation struct {
	Visible   []string                 `yaml:"visible"`
	Pending   []string                 `yaml:"pending"`
	Dismissed []string                 `yaml:"dismissed"`
	Remaining map[string]time.Duration `yaml:"remaining"`
	Empty     bool                     `yaml:"empty"`
}

// Action names the operation a step performs.
func (s Step) Action() string {
	actions := s.actions()
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

func (s Step) actions() []string {
	var out []string
	if s.Add != nil {
		out = append(out, "add")
	}
	if s.Dismiss != "" {
		out = append(out, "dismiss")
	}
	if s.DismissAll {
		out = append(out, "dismiss_all")
	}
	if s.Clear {
		out = append(out, "clear")
	}
	if s.Enter != "" {
		out = append(out, "enter")
	}
	if s.Leave != "" {
		out = append(out, "leave")
	}
	if s.Confirm != "" {
		out = append(out, "confirm")
	}
	if s.Advance != 0 {
		out = append(out, "advance")
	}
	if s.Expect != nil {
		out = append(out, "expect")
	}
	return out
}

// Describe renders the step for timelines.
func (s Step) Describe() string {
	switch s.Action() {
	case "add":
		return describeAdd(s.Add)
	case "dismiss":
		return "dismiss " + s.Dismiss
	case "enter":
		return "enter " + s.Enter
	case "leave":
		return "leave " + s.Leave
	case "confirm":
		return "confirm " + s.Confirm
	case "advance":
		return "advance " + s.Advance.String()
	default:
		return s.Action()
	}
}

func describeAdd(a *AddStep) string {
	var b strings.Builder
	b.WriteString("add")
	if a.ID != "" {
		b.WriteString(" " + a.ID)
	}
	if a.Repeat > 1 {
		fmt.Fprintf(&b, " x%d", a.Repeat)
	}
	if a.Persist {
		b.WriteString(" (persist)")
	} else if a.Duration != nil {
		fmt.Fprintf(&b, " (%s)", *a.Duration)
	}
	return b.String()
}

// Notifications expands the step into the notifications it adds.
func (a *AddStep) Notifications() []toast.Notification {
	t, _ := toast.ParseType(a.Type)
	d := toast.DefaultDuration
	if a.Duration != nil {
		d = *a.Duration
	}

	base := toast.Notification{
		ID:       a.ID,
		Type:     t,
		Message:  a.Message,
		Duration: d,
		Persist:  a.Persist,
	}
	if base.Message == "" {
		base.Message = a.ID
	}

	if a.Repeat <= 1 {
		return []toast.Notification{base}
	}

	out := make([]toast.Notification, 0, a.Repeat)
	for i := range a.Repeat {
		n := base
		if a.ID != "" {
			n.ID = fmt.Sprintf("%s-%d", a.ID, i+1)
			if a.Message == "" {
				n.Message = n.ID
			}
		}
		out = append(out, n)
	}
	return out
}

// Validate checks every step.
func (s *Script) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if len(s.Steps) == 0 {
		errs = errs.Append("steps", fmt.Errorf("at least one step is required"))
	}

	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)

		switch actions := step.actions(); len(actions) {
		case 0:
			errs = errs.Append(field, fmt.Errorf("no action"))
			continue
		case 1:
		default:
			errs = errs.Append(field, fmt.Errorf("exactly one action per step, got %s", strings.Join(actions, ", ")))
			continue
		}

		if step.Add != nil {
			if _, ok := toast.ParseType(step.Add.Type); !ok {
				errs = errs.Append(field+".add.type", fmt.Errorf("invalid type %q", step.Add.Type))
			}
			if step.Add.Repeat < 0 {
				errs = errs.Append(field+".add.repeat", fmt.Errorf("cannot be negative"))
			}
		}
		if step.Advance < 0 {
			errs = errs.Append(field+".advance", fmt.Errorf("cannot go back in time"))
		}
		if step.Expect != nil && len(step.Expect.Visible) > toast.MaxVisible {
			errs = errs.Append(field+".expect.visible", fmt.Errorf("at most %d notifications can be visible", toast.MaxVisible))
		}
	}

	return errs.ToError()
}

// Parse decodes a script from r. name is used when the document has none.
func Parse(r io.Reader, name string) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", name, err)
	}

	if s.Name == "" {
		s.Name = name
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script %s: %w", s.Name, err)
	}
	return &s, nil
}

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f, filepath.Base(path))
}
