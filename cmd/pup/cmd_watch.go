package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dhamidi/pup/puppet/codebase"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-check manifests as they change on disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runWatch(ctx, dir)
		},
	}
}

func runWatch(ctx context.Context, dir string) error {
	cb := codebase.New(dir)
	if err := cb.ScanAll(ctx); err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, path := range cb.Paths() {
		printDiagnostics(cb, path)
	}

	w, err := codebase.NewFileWatcher(cb)
	if err != nil {
		return err
	}
	w.OnChange = func(path string, removed bool) {
		if removed {
			fmt.Printf("[REMOVED] %s\n", path)
			return
		}
		if !printDiagnostics(cb, path) {
			fmt.Printf("[OK] %s\n", path)
		}
	}
	if err := w.Start(); err != nil {
		return err
	}
	fmt.Printf("Watching %d manifests below %s\n", len(cb.Paths()), dir)

	<-ctx.Done()
	return w.Stop()
}

// printDiagnostics prints the problems in path and reports whether there
// were any.
func printDiagnostics(cb *codebase.Codebase, path string) bool {
	diags := cb.Diagnostics(path)
	for _, d := range diags {
		fmt.Printf("%s:%d:%d: %s: %s\n", path, d.Location.Line, d.Location.Column, d.Severity, d.Message)
	}
	return len(diags) > 0
}
