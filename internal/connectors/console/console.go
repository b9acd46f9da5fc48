// Package console provides an interactive technician reading from a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/fentz26/faultdrill/internal/connectors"
)

// QueueFunc prints the supervisor queue. It runs whenever the technician
// answers "q" at a prompt.
type QueueFunc func(ctx context.Context) error

type line struct {
	text string
	err  error
}

// Console implements connectors.Technician over a line-based reader.
type Console struct {
	in    io.Reader
	out   io.Writer
	queue QueueFunc

	once  sync.Once
	lines chan line

	heading *color.Color
	hint    *color.Color
}

// New creates a console technician. queue may be nil.
func New(in io.Reader, out io.Writer, queue QueueFunc) *Console {
	return &Console{
		in:      in,
		out:     out,
		queue:   queue,
		heading: color.New(color.Bold, color.FgYellow),
		hint:    color.New(color.Faint),
	}
}

// Name returns the connector identifier.
func (c *Console) Name() string {
	return "console"
}

// ChooseAction shows the action menu and reads a number. Anything that is
// not a listed number is an invalid choice.
func (c *Console) ChooseAction(ctx context.Context, p connectors.Prompt) (connectors.Choice, error) {
	for {
		fmt.Fprintln(c.out)
		c.heading.Fprintln(c.out, "TECHNICIAN ACTION REQUIRED")
		fmt.Fprintf(c.out, "Fault: %s (%s)\n\n", p.Fault, p.Severity)
		for i, a := range p.Actions {
			fmt.Fprintf(c.out, "%d. %s\n", i+1, a.Text)
		}

		answer, err := c.ask(ctx, "\nEnter action number (or Q for supervisor queue): ")
		if err != nil {
			return connectors.Choice{}, err
		}
		if strings.EqualFold(answer, "q") {
			if err := c.showQueue(ctx); err != nil {
				return connectors.Choice{}, err
			}
			continue
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(p.Actions) {
			return connectors.Invalid(), nil
		}
		a := p.Actions[n-1]
		return connectors.Choice{Index: n - 1, Action: a.Text, Correct: a.Correct}, nil
	}
}

// DecideWorkOrder asks what to do with a new work order, re-prompting on
// anything other than 1, 2, 3 or q.
func (c *Console) DecideWorkOrder(ctx context.Context, id string) (connectors.Decision, error) {
	for {
		fmt.Fprintln(c.out)
		c.heading.Fprintf(c.out, "WORK ORDER CREATED: %s\n", id)
		fmt.Fprintln(c.out, "Update status now?")
		fmt.Fprintln(c.out, "1. Start Work  (set to IN_PROGRESS)")
		fmt.Fprintln(c.out, "2. Close Work  (set to CLOSED + notes)")
		fmt.Fprintln(c.out, "3. Leave Open  (keep OPEN)")

		answer, err := c.ask(ctx, "\nEnter choice (or Q for supervisor queue): ")
		if err != nil {
			return connectors.Decision{}, err
		}

		switch strings.ToLower(answer) {
		case "q":
			if err := c.showQueue(ctx); err != nil {
				return connectors.Decision{}, err
			}
		case "1":
			return connectors.Decision{Kind: connectors.DecisionStart}, nil
		case "2":
			notes, err := c.ask(ctx, "Close-out notes (what was done?): ")
			if err != nil {
				return connectors.Decision{}, err
			}
			return connectors.Decision{Kind: connectors.DecisionClose, Notes: notes}, nil
		case "3":
			return connectors.Decision{Kind: connectors.DecisionLeave}, nil
		default:
			c.hint.Fprintln(c.out, "Invalid choice. Try again.")
		}
	}
}

func (c *Console) showQueue(ctx context.Context) error {
	if c.queue == nil {
		c.hint.Fprintln(c.out, "Supervisor queue unavailable.")
		return nil
	}
	return c.queue(ctx)
}

// ask prints prompt and waits for one trimmed line or ctx cancellation.
func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	c.once.Do(c.startReader)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", connectors.ErrInputClosed
		}
		if l.err != nil {
			return "", fmt.Errorf("read input: %w", l.err)
		}
		return strings.TrimSpace(l.text), nil
	}
}

// startReader feeds lines from the input into a channel so reads can be
// abandoned on cancellation.
func (c *Console) startReader() {
	c.lines = make(chan line)
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			c.lines <- line{text: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			c.lines <- line{err: err}
		}
	}()
}
