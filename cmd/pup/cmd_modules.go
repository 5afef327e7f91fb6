package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dhamidi/pup/project"
	"github.com/spf13/cobra"
)

func newModulesCmd() *cobra.Command {
	var showDeps bool

	cmd := &cobra.Command{
		Use:   "modules [dir]",
		Short: "List the Puppet modules below a directory in dependency order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			mods, err := project.Discover(dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, m := range project.InOrder(mods) {
				version := "-"
				if m.Version != nil {
					version = m.Version.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, version, m.Dir)
				if !showDeps {
					continue
				}
				for _, dep := range m.Dependencies {
					fmt.Fprintf(w, "  %s\t%s\t\n", dep.FullName, orAny(dep.Requirement))
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			problems := project.CheckDependencies(mods)
			if len(problems) > 0 {
				var lines []string
				for _, p := range problems {
					lines = append(lines, "  - "+p.String())
				}
				fmt.Printf("\n%d dependency problems:\n%s\n", len(problems), strings.Join(lines, "\n"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showDeps, "deps", "d", false, "list the dependencies of every module")

	return cmd
}

func orAny(req string) string {
	if req == "" {
		return "any"
	}
	return req
}
