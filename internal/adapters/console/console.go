// Package console provides a notifier that prints extraction outcomes to a
// terminal.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mcdonaldj/gunzip/internal/ports"
)

// Notifier implements ports.Notifier by writing coloured lines.
type Notifier struct {
	out   io.Writer
	err   io.Writer
	quiet bool

	green func(a ...interface{}) string
	red   func(a ...interface{}) string
	gray  func(a ...interface{}) string
}

// Option is a functional option for configuring Notifier.
type Option func(*Notifier)

// WithQuiet suppresses success lines. Errors are always printed.
func WithQuiet(quiet bool) Option {
	return func(n *Notifier) {
		n.quiet = quiet
	}
}

// WithoutColor disables ANSI colours.
func WithoutColor() Option {
	return func(n *Notifier) {
		plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
		n.green, n.red, n.gray = plain, plain, plain
	}
}

// New creates a Notifier writing successes to out and errors to errOut.
func New(out, errOut io.Writer, opts ...Option) *Notifier {
	n := &Notifier{
		out:   out,
		err:   errOut,
		green: color.New(color.FgGreen, color.Bold).SprintFunc(),
		red:   color.New(color.FgRed, color.Bold).SprintFunc(),
		gray:  color.New(color.FgHiBlack).SprintFunc(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Success prints the title, message and final path.
func (n *Notifier) Success(title, message, finalPath string) {
	if n.quiet {
		return
	}
	fmt.Fprintf(n.out, "%s %s: %s\n", n.green("*"), title, message)
	if finalPath != "" {
		fmt.Fprintf(n.out, "  %s %s\n", n.gray("->"), finalPath)
	}
}

// Error prints the title and message.
func (n *Notifier) Error(title, message string) {
	fmt.Fprintf(n.err, "%s %s: %s\n", n.red("x"), title, message)
}

// Compile-time check that Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)
