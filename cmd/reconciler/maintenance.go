package main

import (
	"github.com/spf13/cobra"

	"ledger-reconciliation/internal/gateway"
	"ledger-reconciliation/internal/usecase"
)

func newAuditCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report transactions already duplicated in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUseCase(cmd.Context(), func(uc *usecase.ReconciliationUseCase) error {
				pairs, err := uc.AuditDuplicates(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), pairs)
			})
		},
	}
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUseCase(cmd.Context(), func(uc *usecase.ReconciliationUseCase) error {
				snapshot, err := uc.Export(cmd.Context())
				if err != nil {
					return err
				}
				if output == "" {
					return writeJSON(cmd.OutOrStdout(), snapshot)
				}
				if err := gateway.WriteSnapshot(output, *snapshot); err != nil {
					return err
				}
				root.log.Info().Str("file", output).Int("transactions", len(snapshot.Transactions)).Msg("backup written")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write the backup to (default: stdout)")
	return cmd
}

func newRecategorizeCmd(root *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "recategorize ID...",
		Short: "Move transactions to a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUseCase(cmd.Context(), func(uc *usecase.ReconciliationUseCase) error {
				result, err := uc.UpdateCategory(cmd.Context(), args, category)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category name (required)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newTagCmd(root *rootOptions) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "tag ID...",
		Short: "Add a tag to transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUseCase(cmd.Context(), func(uc *usecase.ReconciliationUseCase) error {
				result, err := uc.AddTag(cmd.Context(), args, tag)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Tag name (required)")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}

func newDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUseCase(cmd.Context(), func(uc *usecase.ReconciliationUseCase) error {
				result, err := uc.DeleteTransactions(cmd.Context(), args)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}
