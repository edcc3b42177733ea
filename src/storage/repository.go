package storage

import (
	"context"
	"errors"
	"fmt"

	"runwizard/src/logger"
	"runwizard/src/model"
)

// RunRepository maps RunState onto the flat per-run keys of a Store.
// Values that cannot be decoded fall back to the fail-closed reading of
// their key instead of failing the load.
type RunRepository struct {
	store Store
}

func NewRunRepository(store Store) *RunRepository {
	return &RunRepository{store: store}
}

// Load reads a run. A run with nothing stored comes back as a fresh,
// first-load state.
func (r *RunRepository) Load(ctx context.Context, runID string) (model.RunState, error) {
	vals, err := r.store.Get(ctx, runID, RunFields...)
	if errors.Is(err, ErrNotFound) {
		return model.NewRunState(runID), nil
	}
	if err != nil {
		return model.RunState{}, err
	}

	d := decoder{runID: runID, vals: vals}
	state := model.RunState{
		RunID:       runID,
		FirstLoad:   d.flag(FieldFirstLoad, false, true),
		CalcEnabled: !d.flag(FieldDisabledCalc, false, false),
		PlotEnabled: !d.flag(FieldDisabledPlot, true, true),
		Calculated:  d.flag(FieldCalculated, false, false),
		Plotted:     d.flag(FieldPlotted, false, false),
		CalcParams:  d.params(FieldCalcParams),
		PlotParams:  d.params(FieldPlotParams),
	}
	return state, nil
}

// Save writes every key of the state. Absent params delete their key.
func (r *RunRepository) Save(ctx context.Context, state model.RunState) error {
	set := map[string]string{
		FieldFirstLoad:    formatBool(state.FirstLoad),
		FieldDisabledCalc: formatBool(!state.CalcEnabled),
		FieldDisabledPlot: formatBool(!state.PlotEnabled),
		FieldCalculated:   formatBool(state.Calculated),
		FieldPlotted:      formatBool(state.Plotted),
	}
	var del []string

	for field, params := range map[string]model.FormSnapshot{
		FieldCalcParams: state.CalcParams,
		FieldPlotParams: state.PlotParams,
	} {
		if params == nil {
			del = append(del, field)
			continue
		}
		encoded, err := encodeParams(params)
		if err != nil {
			return err
		}
		set[field] = encoded
	}

	if err := r.store.Save(ctx, state.RunID, set, del); err != nil {
		return fmt.Errorf("failed to persist run %s: %w", state.RunID, err)
	}
	return nil
}

// Reset removes every key of a run.
func (r *RunRepository) Reset(ctx context.Context, runID string) error {
	return r.store.Delete(ctx, runID)
}

// Runs lists the run ids the store knows about.
func (r *RunRepository) Runs(ctx context.Context) ([]string, error) {
	return r.store.Runs(ctx)
}

type decoder struct {
	runID string
	vals  map[string]string
}

// flag decodes a boolean key, using missing or malformed when it is absent
// or unreadable.
func (d decoder) flag(field string, missing, malformed bool) bool {
	raw, ok := d.vals[field]
	if !ok {
		return missing
	}
	b, err := parseBool(raw)
	if err != nil {
		d.warn(field, err)
		return malformed
	}
	return b
}

func (d decoder) params(field string) model.FormSnapshot {
	raw, ok := d.vals[field]
	if !ok {
		return nil
	}
	p, err := decodeParams(raw)
	if err != nil {
		d.warn(field, err)
		return nil
	}
	return p
}

func (d decoder) warn(field string, err error) {
	log := logger.ForRun(d.runID)
	log.Warn().Str("field", field).Err(err).Msg("malformed stored value, failing closed")
}
