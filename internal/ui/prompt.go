package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrAborted is returned when input ends before the user answered.
var ErrAborted = errors.New("input closed")

// Prompter asks questions on a line-oriented terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer, tty bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, tty: tty}
}

// Line prints label and returns the trimmed reply.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	text, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", ErrAborted
	}
	return strings.TrimSpace(text), nil
}

// Confirm asks a y/N question.
func (p *Prompter) Confirm(label string) (bool, error) {
	reply, err := p.Line(label + " [y/N]: ")
	if err != nil {
		return false, err
	}
	reply = strings.ToLower(reply)
	return reply == "y" || reply == "yes", nil
}

// Choose shows numbered choices and returns the selected one. Typing the
// choice text itself is accepted too.
func (p *Prompter) Choose(question, hint string, choices []string) (string, error) {
	if p.tty {
		fmt.Fprintln(p.out, QuestionStyle.Render(question))
	} else {
		fmt.Fprintln(p.out, question)
	}
	if hint != "" {
		fmt.Fprintln(p.out, DimStyle.Render("  "+hint))
	}
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
	}
	for {
		reply, err := p.Line("> ")
		if err != nil {
			return "", err
		}
		if n, convErr := strconv.Atoi(reply); convErr == nil && n >= 1 && n <= len(choices) {
			return choices[n-1], nil
		}
		for _, c := range choices {
			if strings.EqualFold(reply, c) {
				return c, nil
			}
		}
		fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(choices))
	}
}
