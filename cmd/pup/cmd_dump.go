package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhamidi/pup/format"
	"github.com/dhamidi/pup/puppet"
	"github.com/dhamidi/pup/puppet/parser"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file>...",
		Short: "Dump the classes, resources and includes of .pp files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := format.NewEncoder(dumpFormat, os.Stdout)
			if err != nil {
				return fmt.Errorf("%w (expected %s)", err, strings.Join(format.Names, ", "))
			}
			for _, filename := range args {
				data, err := os.ReadFile(filename)
				if err != nil {
					return fmt.Errorf("read manifest: %w", err)
				}
				model, err := puppet.ManifestFromSource(data, parser.WithFile(filename))
				if err != nil {
					return fmt.Errorf("parse manifest: %w", err)
				}
				if err := enc.Encode(model); err != nil {
					return fmt.Errorf("encode %s: %w", dumpFormat, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (line, json)")

	return cmd
}
