package alert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Prompter interface {
	Prompt(ctx context.Context) (bool, error)
}

// ErrNoAnswer means nobody could be asked. The permission stays unset.
var ErrNoAnswer = errors.New("no permission answer available")

// StaticPrompter answers every prompt with the same decision.
type StaticPrompter bool

func (p StaticPrompter) Prompt(context.Context) (bool, error) { return bool(p), nil }

type answerKey struct{}

// WithAnswer attaches a user's decision to ctx for ContextPrompter.
func WithAnswer(ctx context.Context, granted bool) context.Context {
	return context.WithValue(ctx, answerKey{}, granted)
}

// ContextPrompter takes the decision carried by the request context.
type ContextPrompter struct{}

func (ContextPrompter) Prompt(ctx context.Context) (bool, error) {
	v, ok := ctx.Value(answerKey{}).(bool)
	if !ok {
		return false, ErrNoAnswer
	}
	return v, nil
}

// TerminalPrompter asks a yes/no question on a terminal.
type TerminalPrompter struct {
	In       io.Reader
	Out      io.Writer
	Question string
}

func (p TerminalPrompter) Prompt(ctx context.Context) (bool, error) {
	q := p.Question
	if q == "" {
		q = "Autoriser les notifications d'échéance ?"
	}
	if _, err := fmt.Fprintf(p.Out, "%s [o/N] ", q); err != nil {
		return false, err
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err == io.EOF {
			return false, nil
		}
		if a.err != nil {
			return false, a.err
		}
		return IsYes(a.line), nil
	}
}

// IsYes accepts French and English affirmatives.
func IsYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "o", "oui", "y", "yes":
		return true
	}
	return false
}
