package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"runwizard/src/logger"
	"runwizard/src/model"
	"runwizard/src/wizard"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	svc   *wizard.Service
	store Pinger
}

func NewServer(svc *wizard.Service, store Pinger) *Server {
	return &Server{svc: svc, store: store}
}

// Handler returns the routed handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs/{run}", s.handleInspect)
	mux.HandleFunc("DELETE /runs/{run}", s.handleReset)
	mux.HandleFunc("POST /runs/{run}/load", s.handleLoad)
	mux.HandleFunc("POST /runs/{run}/forms/{form}/{action}", s.handleForm)
	mux.HandleFunc("GET /runs/{run}/history", s.handleHistory)
	return withRequestLog(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg model.ServerConfig) error {
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("run wizard listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info().Msg("shutting down")
	return server.Shutdown(shutdownCtx)
}

type stateResponse struct {
	RunID       string `json:"run_id"`
	CalcEnabled bool   `json:"calc_enabled"`
	PlotEnabled bool   `json:"plot_enabled"`
	Calculated  bool   `json:"calculated"`
	Plotted     bool   `json:"plotted"`
	FirstLoad   bool   `json:"first_load"`
}

type errorResponse struct {
	Error string         `json:"error"`
	State *stateResponse `json:"state,omitempty"`
}

type runsResponse struct {
	Runs []string `json:"runs"`
}

type historyResponse struct {
	RunID   string               `json:"run_id"`
	Entries []model.JournalEntry `json:"entries"`
}

func toResponse(state model.RunState) stateResponse {
	return stateResponse{
		RunID:       state.RunID,
		CalcEnabled: state.CalcEnabled,
		PlotEnabled: state.PlotEnabled,
		Calculated:  state.Calculated,
		Plotted:     state.Plotted,
		FirstLoad:   state.FirstLoad,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.svc.Runs(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
		return
	}
	runID := strings.TrimSpace(r.PostForm.Get("run_name"))
	if runID == "" {
		runID = uuid.NewString()
	}
	state, err := s.svc.Load(r.Context(), runID)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(state))
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Inspect(r.Context(), r.PathValue("run"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(state))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reset(r.Context(), r.PathValue("run")); err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Load(r.Context(), r.PathValue("run"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(state))
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
		return
	}
	action := wizard.Action(r.PathValue("action"))
	state, err := s.svc.Handle(r.Context(), r.PathValue("run"), r.PathValue("form"), action, r.PostForm)
	if err != nil {
		s.writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(state))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run")
	entries, err := s.svc.History(runID)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{RunID: runID, Entries: entries})
}

func (s *Server) writeError(w http.ResponseWriter, err error, state *model.RunState) {
	resp := errorResponse{Error: err.Error()}
	switch {
	case errors.Is(err, wizard.ErrInvalidRunID):
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, wizard.ErrUnknownForm):
		writeJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, wizard.ErrGateClosed):
		if state != nil {
			st := toResponse(*state)
			resp.State = &st
		}
		writeJSON(w, http.StatusConflict, resp)
	default:
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
