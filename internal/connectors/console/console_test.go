package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/faultdrill/internal/connectors"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var prompt = connectors.Prompt{
	Fault:    "Motor Overload",
	Severity: models.SeverityMajor,
	Actions: []connectors.Action{
		{Text: "Reset overload relay and restart motor", Correct: true},
		{Text: "Ignore fault and continue running"},
		{Text: "Replace sensor (incorrect)"},
	},
}

func TestChooseAction(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("1\n"), &out, nil)

	choice, err := c.ChooseAction(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, 0, choice.Index)
	assert.True(t, choice.Correct)
	assert.Equal(t, "Reset overload relay and restart motor", choice.Action)
	assert.Contains(t, out.String(), "Fault: Motor Overload (Major)")
	assert.Contains(t, out.String(), "3. Replace sensor (incorrect)")
}

func TestChooseActionInvalid(t *testing.T) {
	for _, answer := range []string{"0", "4", "two", ""} {
		t.Run(answer, func(t *testing.T) {
			c := New(strings.NewReader(answer+"\n"), io.Discard, nil)
			choice, err := c.ChooseAction(context.Background(), prompt)
			require.NoError(t, err)
			assert.Equal(t, connectors.Invalid(), choice)
			assert.False(t, choice.Correct)
		})
	}
}

func TestChooseActionQueueThenPick(t *testing.T) {
	shown := 0
	queue := func(context.Context) error {
		shown++
		return nil
	}
	c := New(strings.NewReader("Q\n2\n"), io.Discard, queue)

	choice, err := c.ChooseAction(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, 1, shown)
	assert.Equal(t, 1, choice.Index)
	assert.False(t, choice.Correct)
}

func TestChooseActionQueueError(t *testing.T) {
	boom := errors.New("store offline")
	c := New(strings.NewReader("q\n"), io.Discard, func(context.Context) error { return boom })

	_, err := c.ChooseAction(context.Background(), prompt)
	assert.ErrorIs(t, err, boom)
}

func TestInputClosed(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard, nil)
	_, err := c.ChooseAction(context.Background(), prompt)
	assert.ErrorIs(t, err, connectors.ErrInputClosed)
}

func TestCancelWhileWaiting(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := New(r, io.Discard, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ChooseAction(ctx, prompt)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecideWorkOrder(t *testing.T) {
	tests := []struct {
		input string
		want  connectors.Decision
	}{
		{"1\n", connectors.Decision{Kind: connectors.DecisionStart}},
		{"2\n  swapped relay  \n", connectors.Decision{Kind: connectors.DecisionClose, Notes: "swapped relay"}},
		{"3\n", connectors.Decision{Kind: connectors.DecisionLeave}},
		{"9\nx\n3\n", connectors.Decision{Kind: connectors.DecisionLeave}},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := New(strings.NewReader(tt.input), &out, nil)
			got, err := c.DecideWorkOrder(context.Background(), "WO-000001")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "WORK ORDER CREATED: WO-000001")
		})
	}
}

func TestDecideWorkOrderQueueWithoutCallback(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("q\n1\n"), &out, nil)
	got, err := c.DecideWorkOrder(context.Background(), "WO-000002")
	require.NoError(t, err)
	assert.Equal(t, connectors.DecisionStart, got.Kind)
	assert.Contains(t, out.String(), "Supervisor queue unavailable.")
}
