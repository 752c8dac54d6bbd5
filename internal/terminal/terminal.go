// Package terminal detects interactive sessions and asks for confirmation.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned by Confirm when there is no terminal to ask.
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// StdinIsTerminal reports whether the process can prompt on stdin.
func StdinIsTerminal() bool { return IsTerminal(os.Stdin) }

// Prompter asks yes/no questions.
type Prompter struct {
	In          io.Reader
	Out         io.Writer
	Interactive func() bool
}

// NewPrompter returns a Prompter on the process standard streams.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr, Interactive: StdinIsTerminal}
}

// Confirm prints question and reads an answer. Only "y" and "yes"
// (case-insensitive) confirm; anything else, including EOF, declines.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.Interactive != nil && !p.Interactive() {
		return false, ErrNotInteractive
	}
	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", question); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
