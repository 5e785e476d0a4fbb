package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iac-studio/blueprint/internal/project/layout"
)

func renderCmd() *cobra.Command {
	var (
		format    string
		width     float64
		out       string
		projectID string
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw the dependency diagram of a project",
		Long:  "Draw the dependency diagram of a project as SVG (default) or Graphviz DOT.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "svg" && format != "dot" {
				return fmt.Errorf("unknown format %q, want svg or dot", format)
			}
			if width < 0 {
				return fmt.Errorf("width must not be negative")
			}
			list, err := readProjects(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := pickProject(list, projectID)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			d := layout.Layout(p.Resources, layout.Options{Width: width})
			if format == "dot" {
				return layout.WriteDOT(d, w)
			}
			return layout.Render(d, layout.NewSVG(w))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg or dot")
	cmd.Flags().Float64VarP(&width, "width", "w", layout.DefaultWidth, "canvas width")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id when the file holds several")
	return cmd
}
