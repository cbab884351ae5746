package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photodup/internal/logging"
	"photodup/internal/trash"
)

func newTrashCommand(ctx *commandContext) *cobra.Command {
	trashCmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and undo trashed photos",
	}
	trashCmd.AddCommand(newTrashListCommand(ctx))
	trashCmd.AddCommand(newTrashRestoreCommand(ctx))
	return trashCmd
}

func newTrashListCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trashed photos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bin, err := trash.NewBin(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer bin.Close()

			journal := bin.Journal()
			if journal == nil {
				return fmt.Errorf("permanent deletion is enabled; there is no trash journal")
			}
			entries, err := journal.Active(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Trash is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.DeletedAt.Local().Format(time.DateTime),
					entry.RelPath,
					humanSize(entry.SizeBytes),
					entry.TrashPath,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Deleted", "Original Path", "Size", "Trash Path"}, rows, 3,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum entries to print (0 = all)")
	return cmd
}

func newTrashRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Move the most recently trashed photo back to its original path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			bin, err := trash.NewBin(cfg, logger)
			if err != nil {
				return err
			}
			defer bin.Close()

			entry, err := bin.RestoreLast(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", entry.RelPath)
			return nil
		},
	}
}
