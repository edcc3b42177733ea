package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"runwizard/src/logger"
	"runwizard/src/model"
)

var (
	ErrGateClosed   = errors.New("submit control is disabled")
	ErrUnknownForm  = errors.New("unknown form")
	ErrInvalidRunID = errors.New("invalid run id")
)

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidateRunID rejects run ids that cannot be used as a store namespace
// or journal file name.
func ValidateRunID(runID string) error {
	if !runIDPattern.MatchString(runID) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

// Repository persists RunState per run id.
type Repository interface {
	Load(ctx context.Context, runID string) (model.RunState, error)
	Save(ctx context.Context, state model.RunState) error
	Reset(ctx context.Context, runID string) error
	Runs(ctx context.Context) ([]string, error)
}

// Journal keeps the history of accepted submissions.
type Journal interface {
	Append(entry model.JournalEntry) error
	Load(runID string) ([]model.JournalEntry, error)
}

// FormSet names the form controls of a run step page.
type FormSet struct {
	Calc       string
	Plot       string
	Next       string
	Back       string
	TokenField string
}

// DefaultFormSet returns the control ids rendered by the run templates.
func DefaultFormSet() FormSet {
	return FormSet{
		Calc:       "calc_form",
		Plot:       "plot_form",
		Next:       "next_form",
		Back:       "back_form",
		TokenField: DefaultTokenField,
	}
}

// Action is what happened to a form.
type Action string

const (
	ActionSubmit Action = "submit"
	ActionChange Action = "change"
)

// Resolve maps a form control id and action onto an event kind.
func (f FormSet) Resolve(formID string, action Action) (model.EventKind, error) {
	switch {
	case formID == f.Calc && action == ActionSubmit:
		return model.EventCalcSubmit, nil
	case formID == f.Calc && action == ActionChange:
		return model.EventCalcChange, nil
	case formID == f.Plot && action == ActionSubmit:
		return model.EventPlotSubmit, nil
	case formID == f.Plot && action == ActionChange:
		return model.EventPlotChange, nil
	case (formID == f.Next || formID == f.Back) && action == ActionSubmit:
		return model.EventNavigate, nil
	}
	return 0, fmt.Errorf("%w: %s/%s", ErrUnknownForm, formID, action)
}

// Service applies UI events to persisted run state.
type Service struct {
	repo    Repository
	journal Journal
	forms   FormSet
	opts    Options
	now     func() time.Time
}

// NewService wires a service. journal may be nil.
func NewService(repo Repository, journal Journal, forms FormSet, opts Options) *Service {
	return &Service{
		repo:    repo,
		journal: journal,
		forms:   forms,
		opts:    opts,
		now:     time.Now,
	}
}

// Inspect returns the persisted state without applying any event.
func (s *Service) Inspect(ctx context.Context, runID string) (model.RunState, error) {
	if err := ValidateRunID(runID); err != nil {
		return model.RunState{}, err
	}
	return s.repo.Load(ctx, runID)
}

// Load applies the page-load event.
func (s *Service) Load(ctx context.Context, runID string) (model.RunState, error) {
	return s.Apply(ctx, runID, model.Event{Kind: model.EventLoad})
}

// Handle resolves a form event and applies it. values are the raw form
// values as posted by the page.
func (s *Service) Handle(ctx context.Context, runID, formID string, action Action, values url.Values) (model.RunState, error) {
	kind, err := s.forms.Resolve(formID, action)
	if err != nil {
		return model.RunState{}, err
	}
	ev := model.Event{Kind: kind}
	if kind != model.EventNavigate {
		ev.Form = Snapshot(values, s.forms.TokenField)
	}
	return s.Apply(ctx, runID, ev)
}

// Apply loads the run, runs one transition and persists the result. A
// rejected event returns the unchanged state together with ErrGateClosed.
func (s *Service) Apply(ctx context.Context, runID string, ev model.Event) (model.RunState, error) {
	if err := ValidateRunID(runID); err != nil {
		return model.RunState{}, err
	}
	log := logger.ForRun(runID)

	before, err := s.repo.Load(ctx, runID)
	if err != nil {
		return model.RunState{}, fmt.Errorf("failed to load run state: %w", err)
	}

	after, accepted := Transition(s.opts, before, ev)
	if !accepted {
		log.Info().Str("event", ev.Kind.String()).Msg("event rejected, gate closed")
		return before, ErrGateClosed
	}

	if err := s.repo.Save(ctx, after); err != nil {
		return model.RunState{}, fmt.Errorf("failed to save run state: %w", err)
	}

	log.Debug().
		Str("event", ev.Kind.String()).
		Bool("calculated", after.Calculated).
		Bool("plotted", after.Plotted).
		Bool("calc_enabled", after.CalcEnabled).
		Bool("plot_enabled", after.PlotEnabled).
		Msg("transition applied")

	if before.Gates() != after.Gates() {
		log.Info().
			Str("event", ev.Kind.String()).
			Bool("calc_enabled", after.CalcEnabled).
			Bool("plot_enabled", after.PlotEnabled).
			Msg("gates changed")
	}
	if ev.Kind == model.EventCalcChange && before.Calculated && !after.Calculated {
		log.Info().Strs("fields", DriftedFields(before.CalcParams, ev.Form)).Msg("calc parameters drifted")
	}
	if ev.Kind == model.EventPlotChange && before.Plotted && !after.Plotted {
		log.Info().Strs("fields", DriftedFields(before.PlotParams, ev.Form)).Msg("plot parameters drifted")
	}

	s.record(runID, ev, after)
	return after, nil
}

// Reset erases everything stored for a run.
func (s *Service) Reset(ctx context.Context, runID string) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}
	if err := s.repo.Reset(ctx, runID); err != nil {
		return fmt.Errorf("failed to reset run: %w", err)
	}
	log := logger.ForRun(runID)
	log.Info().Msg("run reset")
	return nil
}

// Runs lists the run ids that currently have state.
func (s *Service) Runs(ctx context.Context) ([]string, error) {
	return s.repo.Runs(ctx)
}

// History returns the accepted submissions of a run, oldest first.
func (s *Service) History(runID string) ([]model.JournalEntry, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []model.JournalEntry{}, nil
	}
	return s.journal.Load(runID)
}

func (s *Service) record(runID string, ev model.Event, after model.RunState) {
	if s.journal == nil {
		return
	}
	var params model.FormSnapshot
	switch ev.Kind {
	case model.EventCalcSubmit:
		params = after.CalcParams
	case model.EventPlotSubmit:
		params = after.PlotParams
	case model.EventNavigate:
	default:
		return
	}
	entry := model.JournalEntry{
		RunID:     runID,
		Event:     ev.Kind.String(),
		Params:    params,
		Gates:     after.Gates(),
		Timestamp: s.now().UTC(),
	}
	if err := s.journal.Append(entry); err != nil {
		log := logger.ForRun(runID)
		log.Warn().Err(err).Msg("failed to append journal entry")
	}
}
