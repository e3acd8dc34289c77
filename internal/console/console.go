// Package console renders setup progress for a human at a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const ruleWidth = 50

var (
	green  = lipgloss.AdaptiveColor{Light: "#036D26", Dark: "#06DB4D"}
	red    = lipgloss.AdaptiveColor{Light: "#CE4A3B", Dark: "#FF6352"}
	dimFg  = lipgloss.AdaptiveColor{Light: "", Dark: "243"}
	cyan   = lipgloss.AdaptiveColor{Light: "#06B7DB", Dark: "#1FD5F9"}
	yellow = lipgloss.AdaptiveColor{Light: "#DB9406", Dark: "#F9B11F"}
)

// Console writes the running progress log. It implements setup.Reporter.
type Console struct {
	w           io.Writer
	interactive bool
	quiet       bool
	fresh       bool // nothing printed since the header

	pass *color.Color
	fail *color.Color
	warn *color.Color

	title   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	hint    lipgloss.Style
}

// Option configures a Console.
type Option func(*Console)

// Quiet suppresses everything but failures and the final banner.
func Quiet(q bool) Option {
	return func(c *Console) { c.quiet = q }
}

// New returns a Console writing to w. Colour and the spinner are only used
// when interactive is true.
func New(w io.Writer, interactive bool, opts ...Option) *Console {
	c := &Console{
		w:           w,
		interactive: interactive,
		pass:        color.New(color.FgGreen),
		fail:        color.New(color.FgRed),
		warn:        color.New(color.FgYellow),
		title:       lipgloss.NewStyle().Bold(true).Foreground(cyan),
		success:     lipgloss.NewStyle().Bold(true).Foreground(green),
		failure:     lipgloss.NewStyle().Bold(true).Foreground(red),
		hint:        lipgloss.NewStyle().Foreground(dimFg),
	}
	if !interactive {
		for _, col := range []*color.Color{c.pass, c.fail, c.warn} {
			col.DisableColor()
		}
		plain := lipgloss.NewStyle()
		c.title, c.success, c.failure, c.hint = plain, plain, plain, plain
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stdout returns a Console on standard output, interactive when stdout is
// a terminal.
func Stdout(opts ...Option) *Console {
	return New(os.Stdout, IsTerminal(os.Stdout), opts...)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c *Console) Header(title string) {
	fmt.Fprintln(c.w, c.title.Render(title))
	fmt.Fprintln(c.w, strings.Repeat("=", ruleWidth))
	c.fresh = true
}

func (c *Console) Section(title string) {
	if c.quiet {
		return
	}
	if !c.fresh {
		fmt.Fprintln(c.w)
	}
	c.fresh = false
	fmt.Fprintln(c.w, c.title.Render(title))
}

func (c *Console) Pass(msg string) {
	if c.quiet {
		return
	}
	c.fresh = false
	c.pass.Fprintln(c.w, "✅ "+msg)
}

func (c *Console) Fail(msg string) {
	c.fresh = false
	c.fail.Fprintln(c.w, "❌ "+msg)
}

func (c *Console) Warn(msg string) {
	c.fresh = false
	c.warn.Fprintln(c.w, "⚠️  "+msg)
}

func (c *Console) Info(msg string) {
	if c.quiet {
		return
	}
	c.fresh = false
	fmt.Fprintln(c.w, msg)
}

// Busy runs action, showing a spinner on an interactive terminal. It
// returns only after action has returned, even when the spinner is
// interrupted.
func (c *Console) Busy(title string, action func()) {
	if !c.interactive || c.quiet {
		action()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		action()
	}()

	err := spinner.New().
		Title(" " + title + "...").
		Type(spinner.Dots).
		Style(lipgloss.NewStyle().Foreground(yellow)).
		Output(c.w).
		ActionWithErr(func(ctx context.Context) error {
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		}).
		Run()
	if err != nil {
		slog.Debug("Spinner stopped", "title", title, "error", err)
	}
	<-done
}

// Summary prints the closing banner.
func (c *Console) Summary(success bool, nextSteps []string) {
	fmt.Fprintln(c.w)
	if !success {
		fmt.Fprintln(c.w, c.failure.Render("❌ Setup failed. Please check the errors above."))
		return
	}
	fmt.Fprintln(c.w, c.success.Render("🎉 Setup completed successfully!"))
	if len(nextSteps) == 0 {
		return
	}
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, "Next steps:")
	for i, s := range nextSteps {
		fmt.Fprintln(c.w, c.hint.Render(fmt.Sprintf("%d. %s", i+1, s)))
	}
}
