package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iac-studio/blueprint/internal/project"
	"github.com/iac-studio/blueprint/pkg/logger"
)

var errProblems = errors.New("problems found")

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate the resource graph of every project in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := readProjects(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			total := 0
			for i := range list {
				total += report(cmd.OutOrStdout(), &list[i])
			}
			logger.L().Debug("check finished", zap.Int("projects", len(list)), zap.Int("problems", total))
			if total > 0 {
				return fmt.Errorf("%w: %d", errProblems, total)
			}
			return nil
		},
	}
	return cmd
}

// report prints the findings for p and returns the number of problems.
func report(w io.Writer, p *project.Project) int {
	fmt.Fprintf(w, "project %s (%s): %d resources\n", p.ID, p.Name, len(p.Resources))
	problems := 0
	problem := func(format string, args ...any) {
		problems++
		fmt.Fprintf(w, "  problem: "+format+"\n", args...)
	}

	seen := map[string]bool{}
	anchors := 0
	for _, r := range p.Resources {
		if r.ID == "" {
			problem("resource %q has no id", r.Name)
		} else if seen[r.ID] {
			problem("duplicate resource id %s", r.ID)
		}
		seen[r.ID] = true
		if r.IsAnchorNetwork {
			anchors++
		}
		if err := r.Validate(); err != nil {
			problem("resource %s: %v", r.ID, err)
		}
	}
	switch {
	case anchors == 0:
		problem("no anchor network")
	case anchors > 1:
		problem("%d anchor networks", anchors)
	}

	_, dangling := project.Edges(p.Resources)
	for _, e := range dangling {
		problem("resource %s depends on missing resource %s", e.To, e.From)
	}

	byID := map[string]project.Resource{}
	for _, r := range p.Resources {
		byID[r.ID] = r
	}
	for _, r := range p.Resources {
		for _, id := range r.CustomDependencies {
			if t, ok := byID[id]; ok && !project.AllowsTarget(r.RuleKind(), t.RuleKind()) {
				problem("%s resource %s may not depend on %s resource %s", r.Kind(), r.ID, t.Kind(), t.ID)
			}
		}
	}

	if err := project.DetectCycle(p.Resources); err != nil {
		problem("%v", err)
	}

	for _, r := range p.Resources {
		ok, reason := project.CanDelete(p.Resources, r.ID)
		verdict := "deletable"
		if !ok {
			verdict = "kept: " + reason
		}
		fmt.Fprintf(w, "  %-20s %-8s %s\n", r.Name, r.TypeLabel(), verdict)
	}
	if problems == 0 {
		fmt.Fprintln(w, "  ok")
	}
	return problems
}
