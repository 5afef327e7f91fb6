package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dhamidi/pup/format"
	"github.com/dhamidi/pup/puppet/parser"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var includePositions bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a .pp file and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}

			opts := []parser.Option{parser.WithFile(filename)}
			if includePositions {
				opts = append(opts, parser.WithPositions())
			}
			p := parser.ParseManifest(bytes.NewReader(data), opts...)
			node := p.Finish()
			if err := p.Err(); err != nil {
				return fmt.Errorf("parse manifest: %w", err)
			}

			switch outputFormat {
			case "json":
				enc := format.NewASTJSONEncoder(os.Stdout)
				if err := enc.Encode(node); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			case "tree":
				if includePositions {
					fmt.Print(node.StringWithPositions())
				} else {
					fmt.Print(node.String())
				}
			default:
				return fmt.Errorf("unknown format: %s (expected json or tree)", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (json, tree)")
	cmd.Flags().BoolVar(&includePositions, "positions", false, "include positions in the output")

	return cmd
}
