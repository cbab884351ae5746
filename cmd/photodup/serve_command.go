package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photodup/internal/index"
	"photodup/internal/logging"
	"photodup/internal/preflight"
	"photodup/internal/server"
	"photodup/internal/trash"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string
	var subfolderFlag string
	var permanentFlag bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Index the photo root and serve the review UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bindFlag != "" {
				cfg.Paths.APIBind = bindFlag
			}
			if cmd.Flags().Changed("subfolder") {
				cfg.Scan.Subfolder = subfolderFlag
			}
			if permanentFlag {
				cfg.Review.PermanentDelete = true
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)
			for _, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", passFail(result.Passed), result.Name, result.Detail)
			}
			if !preflight.Passed(results) {
				return fmt.Errorf("preflight checks failed for %s", cfg.Paths.Root)
			}

			bin, err := trash.NewBin(cfg, logger)
			if err != nil {
				return err
			}
			defer bin.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			catalog := index.New(cfg, bin, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Indexing images under %s...\n", cfg.Paths.Root)
			if err := catalog.Rebuild(runCtx); err != nil {
				return fmt.Errorf("build index: %w", err)
			}
			stats := catalog.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files, %d groups, %d candidate pairs.\n",
				stats.Records, stats.Groups, stats.Pairs)

			srv, err := server.New(cfg, catalog, bin, logger)
			if err != nil {
				return err
			}
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review UI: http://%s/\n", srv.Addr())
			fmt.Fprintln(cmd.OutOrStdout(), "Click an image to move it to the trash; press Ctrl-C to stop.")

			<-runCtx.Done()
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&subfolderFlag, "subfolder", "", "Limit the initial scan to one subfolder")
	cmd.Flags().BoolVar(&permanentFlag, "permanent-delete", false, "Delete files outright instead of trashing them")
	return cmd
}

func passFail(passed bool) string {
	if passed {
		return "ok"
	}
	return "fail"
}
