package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dhamidi/pup/puppet"
	"github.com/dhamidi/pup/puppet/codebase"
	"github.com/dhamidi/pup/puppet/parser"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Parse every manifest in a directory and report syntax errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args[0], timeout)
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "timeout per file")

	return cmd
}

type scanTotals struct {
	classes, defines, resources, syntaxErrors int
}

func runScan(path string, timeout time.Duration) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = codebase.ManifestPaths(path)
		if err != nil {
			return err
		}
		fmt.Printf("Found %d files to scan\n", len(files))
	} else if !codebase.IsManifest(path) {
		return fmt.Errorf("unsupported file type: %s (expected .pp)", path)
	}

	var totals scanTotals
	var errors []string
	for i, file := range files {
		if len(files) > 1 {
			fmt.Printf("[%d/%d] ", i+1, len(files))
		}
		model, err := scanFile(file, timeout)
		if err != nil {
			fmt.Printf("[ERROR] %s\n", err)
			errors = append(errors, err.Error())
			continue
		}
		totals.classes += len(model.Classes)
		totals.defines += len(model.Defines)
		totals.resources += len(model.Resources)
		totals.syntaxErrors += len(model.Errors)
		if len(model.Errors) == 0 {
			fmt.Printf("[OK] %s (%d classes, %d defines)\n", file, len(model.Classes), len(model.Defines))
			continue
		}
		fmt.Printf("[SYNTAX] %s (%d errors)\n", file, len(model.Errors))
		for _, e := range model.Errors {
			fmt.Printf("  %s:%d:%d: %s\n", file, e.Location.Line, e.Location.Column, e.Message)
		}
	}

	fmt.Printf("\n=== SCAN COMPLETE ===\n")
	fmt.Printf("Files: %d\n", len(files))
	fmt.Printf("Classes found: %d\n", totals.classes)
	fmt.Printf("Defined types found: %d\n", totals.defines)
	fmt.Printf("Resources found: %d\n", totals.resources)
	fmt.Printf("Syntax errors: %d\n", totals.syntaxErrors)
	fmt.Printf("Errors: %d\n", len(errors))
	for _, e := range errors {
		fmt.Printf("  - %s\n", e)
	}
	return nil
}

func scanFile(path string, timeout time.Duration) (*puppet.ManifestModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	src, err := puppet.ParseSourceContext(ctx, data, parser.WithFile(path))
	if err != nil {
		return nil, err
	}
	return src.Model(), nil
}
