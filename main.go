package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"runwizard/internal/config"
	"runwizard/internal/web"
	"runwizard/src"
	"runwizard/src/logger"
	"runwizard/src/model"
	"runwizard/src/storage"
	"runwizard/src/wizard"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app bundles everything a command needs
type app struct {
	cfg     *src.Config
	store   storage.Store
	journal *storage.JSONJournal
	svc     *wizard.Service
}

func newApp(ctx context.Context) (*app, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: no .env file loaded: %v\n", err)
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		return nil, err
	}

	yamlConfig, err := config.LoadConfig(cfg.WizardConfig.FormsFile)
	if err != nil {
		return nil, err
	}
	forms := config.BuildFormSet(yamlConfig, cfg.WizardConfig)
	if err := config.Validate(forms); err != nil {
		return nil, err
	}
	opts := config.BuildOptions(yamlConfig, cfg.WizardConfig)

	var store storage.Store
	if cfg.StoreConfig.RedisURL != "" {
		store, err = storage.NewRedisStore(ctx, cfg.StoreConfig.RedisURL, cfg.StoreConfig.KeyPrefix, cfg.StoreConfig.TTL)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("using Redis session store")
	} else {
		store = storage.NewMemoryStore(cfg.StoreConfig.TTL)
		logger.Warn().Msg("REDIS_URL not set, using in-memory session store")
	}

	journal := storage.NewJSONJournal(cfg.StoreConfig.JournalDir)
	svc := wizard.NewService(storage.NewRunRepository(store), journal, forms, opts)

	return &app{cfg: cfg, store: store, journal: journal, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close store")
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "runwizard",
		Short:         "Calc/plot submit gating for run steps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newInspectCmd(), newResetCmd(), newRunsCmd(), newHistoryCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the run wizard HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return web.NewServer(a.svc, a.store).Run(ctx, a.cfg.ServerConfig)
		},
	}
}

type inspectOutput struct {
	State     model.RunState `json:"state"`
	ExpiresIn string         `json:"expires_in,omitempty"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <run>",
		Short: "Print the stored state of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.svc.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := inspectOutput{State: state}
			ttl, err := a.store.TTL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ttl > 0 {
				out.ExpiresIn = ttl.Round(time.Second).String()
			}
			return printJSON(cmd, out)
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <run>",
		Short: "Erase the stored state of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.svc.Reset(cmd.Context(), args[0])
		},
	}
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List runs with live state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.svc.Runs(cmd.Context())
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), run)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		prune time.Duration
		stats bool
	)
	cmd := &cobra.Command{
		Use:   "history <run>",
		Short: "Print the submission journal of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			runID := args[0]
			if err := wizard.ValidateRunID(runID); err != nil {
				return err
			}
			if prune > 0 {
				removed, err := a.journal.Prune(runID, prune, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d entries\n", removed)
			}
			if stats {
				st, err := a.journal.Stats(runID)
				if err != nil {
					return err
				}
				return printJSON(cmd, st)
			}
			entries, err := a.svc.History(runID)
			if err != nil {
				return err
			}
			return printJSON(cmd, entries)
		},
	}
	cmd.Flags().DurationVar(&prune, "prune", 0, "drop entries older than this age first")
	cmd.Flags().BoolVar(&stats, "stats", false, "print journal statistics instead of entries")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
