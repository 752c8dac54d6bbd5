package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/usecase/env"
	"github.com/kompox/localdev/usecase/verify"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func statusColor(s model.InstallStatus) *color.Color {
	switch s {
	case model.InstallInstalled, model.InstallAlreadyPresent:
		return okColor
	case model.InstallSkipped:
		return dimColor
	default:
		return failColor
	}
}

// printWarning writes err and its remedy, if any.
func printWarning(w io.Writer, err error) {
	warnColor.Fprintf(w, "  ! %v\n", err)
	if remedy := model.RemedyOf(err); remedy != "" {
		fmt.Fprintf(w, "    hint: %s\n", remedy)
	}
}

// printSetupReport renders the per-component outcome of a setup run.
func printSetupReport(w io.Writer, r *env.RunReport) {
	for _, o := range r.Outcomes {
		statusColor(o.Status).Fprintf(w, "%-16s", o.Status)
		fmt.Fprintf(w, " %s", o.Component)
		if o.Detail != "" {
			dimColor.Fprintf(w, " (%s)", o.Detail)
		}
		fmt.Fprintln(w)
	}
	warnings := r.AllWarnings()
	if len(warnings) > 0 {
		warnColor.Fprintf(w, "%d warning(s):\n", len(warnings))
		for _, err := range warnings {
			printWarning(w, err)
		}
	}
	switch {
	case r.Aborted():
		failColor.Fprintf(w, "Setup aborted in %s: %v\n", lastWorkState(r), r.Err)
		if remedy := model.RemedyOf(r.Err); remedy != "" {
			fmt.Fprintf(w, "hint: %s\n", remedy)
		}
	case len(warnings) > 0:
		warnColor.Fprintln(w, "Setup finished with warnings.")
	default:
		okColor.Fprintln(w, "Setup finished.")
	}
}

// lastWorkState is the state the run was in before it aborted.
func lastWorkState(r *env.RunReport) env.State {
	if len(r.Trace) < 2 {
		return r.State
	}
	return r.Trace[len(r.Trace)-2]
}

// printActions renders teardown actions and warnings.
func printActions(w io.Writer, title string, r *env.RunReport) {
	for _, a := range r.Actions {
		c := okColor
		if a.Outcome == model.OutcomeAlreadyAbsent || a.Outcome == model.OutcomeIgnored || a.Outcome == model.OutcomeUnchanged {
			c = dimColor
		}
		c.Fprintf(w, "%-14s", a.Outcome)
		fmt.Fprintf(w, " %s %s\n", a.Step, a.Resource)
	}
	if len(r.Warnings) > 0 {
		warnColor.Fprintf(w, "%s finished with %d warning(s):\n", title, len(r.Warnings))
		for _, err := range r.Warnings {
			printWarning(w, err)
		}
		return
	}
	okColor.Fprintf(w, "%s finished.\n", title)
}

// printSummary renders verification results.
func printSummary(w io.Writer, s *verify.Summary) {
	for _, r := range s.Results {
		var mark string
		var c *color.Color
		switch {
		case r.Skipped:
			mark, c = "SKIP", dimColor
		case r.Passed:
			mark, c = "PASS", okColor
		default:
			mark, c = "FAIL", failColor
		}
		c.Fprintf(w, "%s", mark)
		fmt.Fprintf(w, " [%s] %-10s %s", r.Group, r.Kind, r.Target)
		dimColor.Fprintf(w, " %s\n", r.Detail)
	}
	c := okColor
	if !s.OK() {
		c = failColor
	}
	c.Fprintf(w, "%d/%d probes passed", s.Passed, s.Total)
	if s.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", s.Skipped)
	}
	fmt.Fprintln(w)
	seen := map[string]bool{}
	for _, err := range s.Failures() {
		if hint := model.RemedyOf(err); hint != "" && !seen[hint] {
			seen[hint] = true
			fmt.Fprintf(w, "hint: %s\n", hint)
		}
	}
}
