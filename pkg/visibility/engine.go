package visibility

import (
	"io"

	"github.com/charmbracelet/log"
)

// DefaultMaxIterations bounds the sweeps of one Update.
const DefaultMaxIterations = 10

// Engine recomputes question visibility from the current selection.
type Engine struct {
	// MaxIterations bounds the number of sweeps. Default: DefaultMaxIterations.
	MaxIterations int

	// Logger receives a warning when an update stops at the bound.
	// Default: discards everything.
	Logger *log.Logger
}

// NewEngine returns an engine with the given bound and logger. Zero values
// select the defaults.
func NewEngine(maxIterations int, logger *log.Logger) *Engine {
	e := &Engine{MaxIterations: maxIterations, Logger: logger}
	e.setDefaults()
	return e
}

func (e *Engine) setDefaults() {
	if e.MaxIterations <= 0 {
		e.MaxIterations = DefaultMaxIterations
	}
	if e.Logger == nil {
		e.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Result reports what one Update did.
type Result struct {
	// Iterations is the number of sweeps run, including a final quiet one.
	Iterations int `json:"iterations"`
	// Converged is false when the bound was hit before the fixed point.
	Converged bool `json:"converged"`
	// Shown and Hidden list the questions that changed state, in transition order.
	Shown  []string `json:"shown"`
	Hidden []string `json:"hidden"`
	// Cleared lists hidden questions whose answers were reset.
	Cleared []string `json:"cleared"`
	// Selection is the selection after the update.
	Selection Selection `json:"selection"`
}

// Update drives f towards the fixed point where a question is visible
// exactly when all its requirements are selected.
//
// Each sweep walks the questions in order. A question that goes from
// visible to hidden has its answers cleared, and the selection is
// recomputed before the sweep continues. Sweeps repeat until one changes
// nothing or MaxIterations is reached. Chains of hides whose dependents
// come earlier in question order settle one link per sweep, so long chains
// can stop at the bound without converging.
func (e *Engine) Update(f Form) Result {
	e.setDefaults()

	var res Result
	sel := Collect(f)

	for res.Iterations < e.MaxIterations {
		res.Iterations++
		changed := false

		for _, id := range f.Questions() {
			want := Satisfied(f.Requirements(id), sel)
			hidden := f.Hidden(id)

			switch {
			case want && hidden:
				f.SetHidden(id, false)
				res.Shown = append(res.Shown, id)
				changed = true
			case !want && !hidden:
				f.SetHidden(id, true)
				res.Hidden = append(res.Hidden, id)
				changed = true
				if f.Clear(id) {
					res.Cleared = append(res.Cleared, id)
					sel = Collect(f)
				}
			}
		}

		if !changed {
			res.Converged = true
			break
		}
	}

	// The last sweep may have reached the fixed point without a quiet
	// sweep after it.
	if !res.Converged {
		res.Converged = settled(f, sel)
	}
	if !res.Converged {
		e.Logger.Warn("visibility did not settle", "iterations", res.Iterations, "questions", len(f.Questions()))
	}
	res.Selection = sel
	return res
}

// Collect returns the answers selected on visible questions. Controls of
// hidden questions are not consulted.
func Collect(f Form) Selection {
	sel := make(Selection)
	for _, id := range f.Questions() {
		if f.Hidden(id) {
			continue
		}
		if answers := f.Selected(id); len(answers) > 0 {
			sel[id] = answers
		}
	}
	return sel
}

// settled reports whether every question's hidden flag already matches its
// requirements under sel.
func settled(f Form, sel Selection) bool {
	for _, id := range f.Questions() {
		if Satisfied(f.Requirements(id), sel) == f.Hidden(id) {
			return false
		}
	}
	return true
}
