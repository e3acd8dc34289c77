package report

import (
	"fmt"
	"strings"
	"time"
)

// Format renders r for a terminal or a tool result. Commands of failed
// steps are always listed with their stderr; verbose lists every command.
func Format(r *RunResult, verbose bool) string {
	var b strings.Builder

	status := "PASS"
	if !r.Success {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "Run: %s (%s)\n", r.ID, r.Kind)
	if r.Workspace != "" {
		fmt.Fprintf(&b, "Workspace: %s\n", r.Workspace)
	}
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started: %s", r.StartedAt.Format("2006-01-02 15:04:05"))
		if !r.FinishedAt.IsZero() {
			fmt.Fprintf(&b, " (took %s)", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		}
		fmt.Fprintln(&b)
	}
	fmt.Fprintf(&b, "Status: %s\n", status)
	if r.Fatal != "" {
		fmt.Fprintf(&b, "Aborted: %s\n", firstLine(r.Fatal))
	}

	if len(r.Dependencies) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Dependencies:")
		for _, d := range r.Dependencies {
			version := d.Version
			if version == "" {
				version = "-"
			}
			state := "ok"
			if !d.OK {
				state = "missing"
				if d.Detail != "" {
					state += " (" + firstLine(d.Detail) + ")"
				}
			}
			fmt.Fprintf(&b, "  %-10s %-12s %s\n", d.Name, version, state)
		}
	}

	if len(r.Steps) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Steps:")
		for _, s := range r.Steps {
			line := fmt.Sprintf("  %-10s %s", s.Name, s.Status)
			if s.Detail != "" {
				line += "  " + s.Detail
			}
			fmt.Fprintln(&b, line)

			if s.Status != StatusFail && !verbose {
				continue
			}
			for _, c := range s.Commands {
				writeCommand(&b, c)
			}
		}
	}

	return b.String()
}

func writeCommand(b *strings.Builder, c Command) {
	fmt.Fprintf(b, "    $ %s", c)
	if c.Dir != "" {
		fmt.Fprintf(b, "  (in %s)", c.Dir)
	}
	switch {
	case c.Error != "":
		fmt.Fprintf(b, "  could not run: %s\n", c.Error)
	case c.ExitCode != 0:
		fmt.Fprintf(b, "  exit %d\n", c.ExitCode)
	default:
		fmt.Fprintln(b)
	}
	if c.Stderr == "" {
		return
	}
	for _, line := range strings.Split(c.Stderr, "\n") {
		fmt.Fprintf(b, "      %s\n", line)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
