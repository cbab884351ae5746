package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"photodup/internal/index"
	"photodup/internal/logging"
)

// nopRemover satisfies index.Remover for read-only commands that never
// delete anything.
type nopRemover struct{}

func (nopRemover) Remove(ctx context.Context, absPath, relPath string) error {
	return errors.New("scan is read-only")
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var subfolderFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the photo root and print the duplicate candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("subfolder") {
				cfg.Scan.Subfolder = subfolderFlag
			}

			catalog := index.New(cfg, nopRemover{}, logging.NewNop())
			if err := catalog.Rebuild(cmd.Context()); err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			stats := catalog.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d groups, %d candidate pairs under %s\n",
				stats.Records, stats.Groups, stats.Pairs, cfg.Paths.Root)

			var rows [][]string
			cursor := 0
			for len(rows) < limitFlag {
				page := catalog.PairsPage(cursor, limitFlag-len(rows))
				for _, pair := range page.Pairs {
					rows = append(rows, []string{
						pair.GroupLabel,
						pair.Base.Name,
						pair.Other.Name,
						dimsColumn(pair.Other),
						humanSize(pair.Other.SizeBytes),
					})
				}
				cursor = page.NextCursor
				if page.Done {
					break
				}
			}
			if len(rows) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Group", "Base", "Duplicate", "Dimensions", "Size"},
				rows, 5,
			))
			if stats.Pairs > len(rows) {
				fmt.Fprintf(cmd.OutOrStdout(), "(showing %d of %d pairs; raise --limit to see more)\n",
					len(rows), stats.Pairs)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subfolderFlag, "subfolder", "", "Limit the scan to one subfolder")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum pairs to print")
	return cmd
}

func dimsColumn(rec index.Record) string {
	if !rec.HasDims {
		return "?"
	}
	return fmt.Sprintf("%dx%d", rec.Width, rec.Height)
}

func newSubfoldersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subfolders",
		Short: "List the selectable subfolders of the photo root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog := index.New(cfg, nopRemover{}, logging.NewNop())
			names, err := catalog.ListSubfolders()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
