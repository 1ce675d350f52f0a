package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ledger-reconciliation/internal/config"
	"ledger-reconciliation/internal/gateway"
	"ledger-reconciliation/internal/logger"
	"ledger-reconciliation/internal/usecase"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	ledgerFile string
	sandbox    bool
	apply      bool
	cfg        *config.Config
	log        zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "reconciler",
		Short:         "Reconcile CSV transactions against a ledger without creating duplicates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; the environment is used as is.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.apply {
				cfg.Reconciler.DryRun = false
			}
			opts.cfg = cfg
			opts.log = logger.WithFields(logger.New(cfg.Logging.Level, cfg.Logging.Format), map[string]interface{}{
				"command": cmd.Name(),
			})
			opts.log.Debug().Str("config", cfg.String()).Msg("configuration loaded")
			cmd.SetContext(logger.WithContext(cmd.Context(), opts.log))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ledgerFile, "ledger", "", "Exported ledger JSON to use instead of DATABASE_URL")
	cmd.PersistentFlags().BoolVar(&opts.sandbox, "sandbox", false, "Apply changes to an in-memory copy of --ledger and discard them")
	cmd.PersistentFlags().BoolVar(&opts.apply, "apply", false, "Write changes to the ledger (default is dry-run)")

	cmd.AddCommand(
		newImportCmd(opts),
		newAuditCmd(opts),
		newExportCmd(opts),
		newRecategorizeCmd(opts),
		newTagCmd(opts),
		newDeleteCmd(opts),
	)
	return cmd
}

// ledger is what every command needs from a backend.
type ledger interface {
	usecase.LedgerStore
	usecase.MutationExecutor
}

// openLedger connects to the configured backend. The returned close
// function persists snapshot-file changes after a live run.
func (o *rootOptions) openLedger(ctx context.Context) (ledger, func() error, error) {
	if o.ledgerFile != "" {
		file, err := gateway.OpenSnapshotFile(o.ledgerFile)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() error { return nil }
		if !o.cfg.Reconciler.DryRun && !o.sandbox {
			closeFn = file.Save
		}
		return file, closeFn, nil
	}
	if o.sandbox {
		return nil, nil, errors.New("--sandbox requires --ledger")
	}
	if o.cfg.Database.URL == "" {
		return nil, nil, errors.New("no ledger configured: pass --ledger or set DATABASE_URL")
	}

	poolConfig, err := pgxpool.ParseConfig(o.cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(o.cfg.Database.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := gateway.NewPostgresLedger(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	closeFn := func() error {
		pool.Close()
		return nil
	}
	return pg, closeFn, nil
}

// newUseCase wires the use case to an open ledger.
func (o *rootOptions) newUseCase(l ledger) (*usecase.ReconciliationUseCase, error) {
	rules := usecase.NewRules()
	if o.cfg.Reconciler.RulesFile != "" {
		loaded, err := gateway.LoadRules(o.cfg.Reconciler.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = usecase.NewRules(loaded...)
	}

	return usecase.NewReconciliationUseCase(l, l, o.cfg.Reconciler.UseCase(),
		usecase.WithRules(rules),
		usecase.WithVersion(version),
	), nil
}

// withUseCase opens the ledger, runs fn and closes the ledger again.
func (o *rootOptions) withUseCase(ctx context.Context, fn func(*usecase.ReconciliationUseCase) error) (err error) {
	l, closeFn, err := o.openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	uc, err := o.newUseCase(l)
	if err != nil {
		return err
	}
	return fn(uc)
}

func writeJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate JSON report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
