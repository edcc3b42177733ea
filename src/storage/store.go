package storage

import (
	"context"
	"errors"
	"time"
)

// Key suffixes of the per-run namespace.
const (
	FieldFirstLoad    = "_first_load"
	FieldDisabledCalc = "_disabled_calc"
	FieldDisabledPlot = "_disabled_plot"
	FieldCalculated   = "_calculated"
	FieldPlotted      = "_plotted"
	FieldCalcParams   = "_calc_params"
	FieldPlotParams   = "_plot_params"
)

// RunFields lists every key suffix a run can have.
var RunFields = []string{
	FieldFirstLoad,
	FieldDisabledCalc,
	FieldDisabledPlot,
	FieldCalculated,
	FieldPlotted,
	FieldCalcParams,
	FieldPlotParams,
}

const (
	DefaultSessionTTL = 60 * time.Minute
	DefaultKeyPrefix  = "run:"
)

var ErrNotFound = errors.New("run not found")

// Store is a session-scoped key/value store with one namespace per run.
type Store interface {
	// Get returns the requested fields of a run. Missing fields are absent
	// from the result; a run with no fields at all yields ErrNotFound.
	Get(ctx context.Context, runID string, fields ...string) (map[string]string, error)
	// Save writes set and removes del in one step and refreshes the TTL.
	Save(ctx context.Context, runID string, set map[string]string, del []string) error
	// Delete removes every field of a run.
	Delete(ctx context.Context, runID string) error
	// Runs lists run ids that still have live fields.
	Runs(ctx context.Context) ([]string, error)
	// TTL is the time left before a run expires, zero or less when the run
	// is gone.
	TTL(ctx context.Context, runID string) (time.Duration, error)
	Ping(ctx context.Context) error
	Close() error
}
