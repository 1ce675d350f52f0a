package main

import (
	"errors"

	"github.com/spf13/cobra"

	"ledger-reconciliation/internal/gateway"
	"ledger-reconciliation/internal/usecase"
)

type importOptions struct {
	file               string
	stopOnDuplicate    bool
	skipDuplicateCheck bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("stop-on-duplicate") {
				root.cfg.Reconciler.StopOnDuplicate = opts.stopOnDuplicate
			}
			if opts.skipDuplicateCheck {
				root.cfg.Reconciler.SkipDuplicateCheck = true
			}
			return root.withUseCase(cmd.Context(), func(uc *usecase.ReconciliationUseCase) error {
				return runImport(cmd, root, uc, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "CSV file to import (required)")
	cmd.Flags().BoolVar(&opts.stopOnDuplicate, "stop-on-duplicate", false, "Halt at the first duplicate")
	cmd.Flags().BoolVar(&opts.skipDuplicateCheck, "skip-duplicate-check", false, "Create every valid row without checking for duplicates")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(cmd *cobra.Command, root *rootOptions, uc *usecase.ReconciliationUseCase, opts importOptions) error {
	ctx := cmd.Context()

	candidates, err := gateway.NewCSVReader().ReadCandidates(ctx, opts.file)
	if err != nil {
		return err
	}
	events, done := uc.Stream(ctx, candidates)
	for ev := range events {
		root.log.Info().
			Int("index", ev.Index).
			Int("total", ev.Total).
			Str("status", string(ev.Status)).
			Str("name", ev.Item.Name).
			Msg("progress")
	}
	outcome := <-done
	if outcome.Err != nil {
		if errors.Is(outcome.Err, usecase.ErrNoCandidates) {
			return errors.New("no transactions found in " + opts.file)
		}
		return outcome.Err
	}
	return writeJSON(cmd.OutOrStdout(), outcome.Result)
}
