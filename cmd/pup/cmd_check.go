package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhamidi/pup/project"
	"github.com/dhamidi/pup/puppet/codebase"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var warningsAsErrors bool

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Report syntax errors, unknown classes and misplaced classes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runCheck(cmd.Context(), dir, warningsAsErrors)
		},
	}

	cmd.Flags().BoolVarP(&warningsAsErrors, "strict", "s", false, "fail on warnings too")

	return cmd
}

func runCheck(ctx context.Context, dir string, strict bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cb := codebase.New(dir)
	if err := cb.ScanAll(ctx); err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	var nerrors, nwarnings int
	report := func(path string, line, column int, severity codebase.Severity, msg string) {
		fmt.Fprintf(os.Stdout, "%s:%d:%d: %s: %s\n", path, line, column, severity, msg)
		if severity == codebase.SeverityError {
			nerrors++
		} else {
			nwarnings++
		}
	}

	for _, path := range cb.Paths() {
		for _, d := range cb.Diagnostics(path) {
			report(path, d.Location.Line, d.Location.Column, d.Severity, d.Message)
		}
	}

	mods, err := project.Discover(dir)
	if err != nil {
		return err
	}
	for _, m := range mods {
		for _, cls := range cb.AllClasses() {
			want, ok := m.ClassFile(cls.Name)
			if !ok || cls.Enclosing != "" || sameFile(want, cls.Location.File) {
				continue
			}
			report(cls.Location.File, cls.NameLocation.Line, cls.NameLocation.Column, codebase.SeverityWarning,
				fmt.Sprintf("%s %s should be declared in %s", cls.Kind, cls.Name, want))
		}
	}
	for _, p := range project.CheckDependencies(mods) {
		report(filepath.Join(p.Module.Dir, "metadata.json"), 1, 1, codebase.SeverityWarning, p.Message)
	}

	fmt.Printf("%d errors, %d warnings in %d files\n", nerrors, nwarnings, len(cb.Paths()))
	if nerrors > 0 || (strict && nwarnings > 0) {
		return errors.New("check failed")
	}
	return nil
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}
