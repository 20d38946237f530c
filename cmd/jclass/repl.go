package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daimatz/jclass/internal/explorer"
	"github.com/daimatz/jclass/internal/watch"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Explore classes interactively",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	replCmd.Flags().Bool("watch", false, "drop cached classes when classpath files change")
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []explorer.Option{explorer.WithLogger(s.logger)}
	if watchFlag, _ := cmd.Flags().GetBool("watch"); watchFlag {
		w, err := watch.New(s.loader.Resolver(), watch.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Stop()
		opts = append(opts, explorer.WithChanges(w.Changes))
	}

	return explorer.New(s.loader, cmd.OutOrStdout(), opts...).Run(ctx, cmd.InOrStdin())
}
