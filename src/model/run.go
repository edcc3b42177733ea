package model

import (
	"sort"
	"time"
)

// FormSnapshot maps a form field name to its current value. The anti-forgery
// token is never part of a snapshot.
type FormSnapshot map[string]string

// Keys returns the field names in sorted order.
func (s FormSnapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy. A nil snapshot stays nil.
func (s FormSnapshot) Clone() FormSnapshot {
	if s == nil {
		return nil
	}
	out := make(FormSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// RunState is everything the wizard remembers about one run step.
type RunState struct {
	RunID       string       `json:"run_id"`
	CalcParams  FormSnapshot `json:"calc_params,omitempty"`
	PlotParams  FormSnapshot `json:"plot_params,omitempty"`
	Calculated  bool         `json:"calculated"`
	Plotted     bool         `json:"plotted"`
	FirstLoad   bool         `json:"first_load"`
	CalcEnabled bool         `json:"calc_enabled"`
	PlotEnabled bool         `json:"plot_enabled"`
}

// NewRunState returns the defaulted state of a run nobody has visited yet.
func NewRunState(runID string) RunState {
	return RunState{
		RunID:       runID,
		FirstLoad:   true,
		CalcEnabled: true,
	}
}

// Gates is the pair of submit-control flags exposed to the page.
type Gates struct {
	CalcEnabled bool `json:"calc_enabled"`
	PlotEnabled bool `json:"plot_enabled"`
}

// Gates returns the current gate pair.
func (s RunState) Gates() Gates {
	return Gates{CalcEnabled: s.CalcEnabled, PlotEnabled: s.PlotEnabled}
}

// EventKind names a UI event the wizard reacts to.
type EventKind int

const (
	EventLoad EventKind = iota
	EventCalcSubmit
	EventCalcChange
	EventPlotSubmit
	EventPlotChange
	EventNavigate
)

var eventNames = map[EventKind]string{
	EventLoad:       "load",
	EventCalcSubmit: "calc_submit",
	EventCalcChange: "calc_change",
	EventPlotSubmit: "plot_submit",
	EventPlotChange: "plot_change",
	EventNavigate:   "navigate",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one UI event together with the live snapshot of the form that
// raised it. Load and Navigate carry no snapshot.
type Event struct {
	Kind EventKind
	Form FormSnapshot
}

// JournalEntry records one accepted submission of a run.
type JournalEntry struct {
	RunID     string       `json:"run_id"`
	Event     string       `json:"event"`
	Params    FormSnapshot `json:"params,omitempty"`
	Gates     Gates        `json:"gates"`
	Timestamp time.Time    `json:"timestamp"`
}
