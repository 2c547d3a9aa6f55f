package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive is returned when a question is asked without a terminal.
var ErrNotInteractive = errors.New("no interactive session attached")

// Interactor asks the operator questions. Whether a session is attached is
// decided once by the implementation, so tests can force either branch.
type Interactor interface {
	Interactive() bool
	Confirm(question string) (bool, error)
	Ask(question string) (string, error)
}

// Terminal reads answers from stdin when it is a TTY.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

func NewTerminal(in *os.File, out io.Writer) *Terminal {
	fd := in.Fd()
	return newTerminal(in, out, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func newTerminal(in io.Reader, out io.Writer, tty bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, tty: tty}
}

func (t *Terminal) Interactive() bool { return t.tty }

func (t *Terminal) Confirm(question string) (bool, error) {
	answer, err := t.Ask(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) Ask(question string) (string, error) {
	if !t.tty {
		return "", ErrNotInteractive
	}
	fmt.Fprintf(t.out, "%s: ", question)
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Scripted answers questions from a fixed list. Asked records every question.
type Scripted struct {
	TTY     bool
	Answers []string
	Asked   []string
}

func (s *Scripted) Interactive() bool { return s.TTY }

func (s *Scripted) Confirm(question string) (bool, error) {
	a, err := s.Ask(question)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(a, "y") || strings.EqualFold(a, "yes"), nil
}

func (s *Scripted) Ask(question string) (string, error) {
	if !s.TTY {
		return "", ErrNotInteractive
	}
	s.Asked = append(s.Asked, question)
	if len(s.Answers) == 0 {
		return "", io.EOF
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}
