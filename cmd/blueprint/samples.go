package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iac-studio/blueprint/internal/project"
)

func samplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "samples [id]",
		Short:     "Print the built-in sample projects as JSON",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"1", "2", "3", "4", "5"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any = project.Samples()
			if len(args) == 1 {
				p, ok := project.Sample(args[0])
				if !ok {
					return fmt.Errorf("no sample project %q", args[0])
				}
				v = p
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}
