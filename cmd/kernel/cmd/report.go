package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/go-drift/kernel/cmd/kernel/internal/workspace"
	"github.com/go-drift/kernel/pkg/pipeline"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	skipColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func statusColor(s plugin.Status) *color.Color {
	switch s {
	case plugin.StatusOK:
		return successColor
	case plugin.StatusPartial:
		return skipColor
	default:
		return failColor
	}
}

// printReports writes one block per platform in the order requested.
func printReports(w io.Writer, res *pipeline.Result, platforms []plugin.Platform) {
	for _, platform := range platforms {
		report, ok := res.Reports[platform]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			headerColor.Sprintf("%-8s", platform),
			statusColor(report.Status).Sprint(report.Status),
			dimColor.Sprintf("(%s, run %s)", round(report.Duration()), report.ID),
		)
		for _, o := range report.Outcomes {
			printOutcome(w, o)
		}
		if err := report.Interrupted(); err != nil {
			fmt.Fprintf(w, "  %s\n", failColor.Sprintf("interrupted: %v", err))
		}
	}
}

func printOutcome(w io.Writer, o plugin.Outcome) {
	switch o.Status {
	case plugin.OutcomeSuccess:
		fmt.Fprintf(w, "  %s %-14s %s\n", successColor.Sprint("ok  "), o.Plugin, dimColor.Sprint(round(o.Duration)))
	case plugin.OutcomeFailed:
		fmt.Fprintf(w, "  %s %-14s %v\n", failColor.Sprint("FAIL"), o.Plugin, o.Err)
	default:
		fmt.Fprintf(w, "  %s %s\n", skipColor.Sprint("skip"), o.Plugin)
	}
}

// printDiff writes the patch of every file the plugins changed.
func printDiff(w io.Writer, tree *project.Tree) error {
	for _, c := range tree.Changes() {
		patch, added, deleted, err := tree.Diff(c.Path)
		if err != nil {
			return err
		}
		if patch == "" {
			continue
		}
		fmt.Fprintf(w, "\n%s %s\n", headerColor.Sprint(c.Path), dimColor.Sprintf("+%d -%d", added, deleted))
		for _, line := range strings.SplitAfter(patch, "\n") {
			switch {
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				fmt.Fprint(w, line)
			case strings.HasPrefix(line, "+"):
				fmt.Fprint(w, successColor.Sprint(line))
			case strings.HasPrefix(line, "-"):
				fmt.Fprint(w, failColor.Sprint(line))
			default:
				fmt.Fprint(w, line)
			}
		}
	}
	return nil
}

func printOutput(w io.Writer, ws *workspace.Workspace) {
	kind := "output"
	if ws.Managed {
		kind = "managed"
	}
	fmt.Fprintf(w, "\n%s %s\n", dimColor.Sprint(kind+":"), ws.BuildDir)
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
