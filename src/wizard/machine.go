// Package wizard holds the calc/plot gating state machine of a run step and
// the service that persists it between page loads.
//
// The machine is two gates, calc and plot. Submitting the calc form records its
// parameters and opens the plot gate; editing the calc form afterwards closes
// the plot gate again as soon as any recorded field differs. The plot form
// follows the same pattern one level down. Navigating to the next or previous
// step forgets everything, and the following page load starts fresh.
package wizard

import "runwizard/src/model"

// Options tunes the machine.
type Options struct {
	// InitialPlotEnabled is the plot gate of a fresh run step.
	InitialPlotEnabled bool
}

// Transition applies ev to s and returns the resulting state. The boolean is
// false when the event was rejected, in which case s is returned unchanged.
// Transition never mutates s.
func Transition(opts Options, s model.RunState, ev model.Event) (model.RunState, bool) {
	switch ev.Kind {
	case model.EventLoad:
		return OnLoad(opts, s), true
	case model.EventCalcSubmit:
		return OnCalcSubmit(s, ev.Form), true
	case model.EventCalcChange:
		return OnCalcChange(s, ev.Form), true
	case model.EventPlotSubmit:
		return OnPlotSubmit(s, ev.Form)
	case model.EventPlotChange:
		return OnPlotChange(s, ev.Form), true
	case model.EventNavigate:
		return OnNavigate(s), true
	}
	return s, false
}

// OnLoad is the page-load transition. A first load enters the fresh state;
// any later load keeps the persisted gates.
func OnLoad(opts Options, s model.RunState) model.RunState {
	if s.FirstLoad {
		return model.RunState{
			RunID:       s.RunID,
			CalcEnabled: true,
			PlotEnabled: opts.InitialPlotEnabled,
		}
	}
	if repaired, ok := repair(opts, s); ok {
		return repaired
	}
	return s
}

// OnCalcSubmit records the calc parameters and hands over to the plot gate.
func OnCalcSubmit(s model.RunState, form model.FormSnapshot) model.RunState {
	s.CalcParams = snapshotOrEmpty(form)
	s.Calculated = true
	s.Plotted = false
	s.FirstLoad = false
	s.CalcEnabled = false
	s.PlotEnabled = true
	return s
}

// OnCalcChange re-checks the calc form against the recorded parameters.
func OnCalcChange(s model.RunState, form model.FormSnapshot) model.RunState {
	if !s.Calculated {
		return s
	}
	if s.CalcParams == nil || Drifted(s.CalcParams, form) {
		s.Calculated = false
		s.Plotted = false
		s.CalcEnabled = true
		s.PlotEnabled = false
		return s
	}
	s.CalcEnabled = false
	s.PlotEnabled = !s.Plotted
	return s
}

// OnPlotSubmit records the plot parameters. It is only accepted while the
// plot gate is open on top of a valid calculation.
func OnPlotSubmit(s model.RunState, form model.FormSnapshot) (model.RunState, bool) {
	if !s.PlotEnabled || !s.Calculated {
		return s, false
	}
	s.PlotParams = snapshotOrEmpty(form)
	s.Plotted = true
	s.PlotEnabled = false
	return s, true
}

// OnPlotChange re-checks the plot form against the recorded parameters.
func OnPlotChange(s model.RunState, form model.FormSnapshot) model.RunState {
	switch {
	case !s.Calculated:
		s.Plotted = false
		s.PlotEnabled = false
	case s.Plotted:
		if s.PlotParams == nil || Drifted(s.PlotParams, form) {
			s.Plotted = false
			s.PlotEnabled = true
		} else {
			s.Plotted = true
			s.PlotEnabled = false
		}
	default:
		s.PlotEnabled = true
	}
	return s
}

// OnNavigate forgets the run step. The next load starts fresh.
func OnNavigate(s model.RunState) model.RunState {
	return model.NewRunState(s.RunID)
}

// Consistent reports whether s satisfies plotted => calculated.
func Consistent(s model.RunState) bool {
	return !s.Plotted || s.Calculated
}

// repair re-derives the gates of a state read back from storage when they
// cannot have been produced by the machine: plotted without calculated, or
// an uncalculated run whose calc gate is closed or whose plot gate is open
// outside the fresh state. ok is false when s needed no repair.
func repair(opts Options, s model.RunState) (model.RunState, bool) {
	if Consistent(s) && (s.Calculated || settled(opts, s)) {
		return s, false
	}
	s.Calculated = false
	s.Plotted = false
	s.CalcEnabled = true
	s.PlotEnabled = false
	return s, true
}

// settled reports whether the gates of an uncalculated run are reachable.
func settled(opts Options, s model.RunState) bool {
	return s.CalcEnabled && (!s.PlotEnabled || opts.InitialPlotEnabled)
}

func snapshotOrEmpty(form model.FormSnapshot) model.FormSnapshot {
	if form == nil {
		return model.FormSnapshot{}
	}
	return form.Clone()
}
