package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/remibot/remi/internal/agent"
)

type mockController struct {
	events  []agent.Event
	busy    bool
	cleared int
}

func (m *mockController) EnqueueEvent(ev agent.Event) { m.events = append(m.events, ev) }
func (m *mockController) Busy() bool                  { return m.busy }
func (m *mockController) ClearHistory()               { m.cleared++ }

func TestRun_EnqueuesInput(t *testing.T) {
	ctrl := &mockController{}
	out := &bytes.Buffer{}
	term := New(out)

	err := term.Run(context.Background(), ctrl, strings.NewReader("remind me to stretch\nexit\n"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(ctrl.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(ctrl.events))
	}
	ev := ctrl.events[0]
	if ev.Kind != agent.EventUserMessage || ev.Text != "remind me to stretch" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestRun_SkipsEmptyLines(t *testing.T) {
	ctrl := &mockController{}
	term := New(&bytes.Buffer{})

	if err := term.Run(context.Background(), ctrl, strings.NewReader("\n   \nquit\n")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(ctrl.events) != 0 {
		t.Fatalf("expected no events, got %v", ctrl.events)
	}
}

func TestRun_StopsOnEOF(t *testing.T) {
	ctrl := &mockController{}
	term := New(&bytes.Buffer{})

	if err := term.Run(context.Background(), ctrl, strings.NewReader("hello")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(ctrl.events) != 1 {
		t.Fatalf("expected the final line enqueued, got %d", len(ctrl.events))
	}
}

func TestRun_BusyNoticeStillEnqueues(t *testing.T) {
	ctrl := &mockController{busy: true}
	out := &bytes.Buffer{}
	term := New(out)

	if err := term.Run(context.Background(), ctrl, strings.NewReader("second request\nexit\n")); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(out.String(), agent.BusyNotice) {
		t.Fatalf("expected busy notice in output, got %q", out.String())
	}
	if len(ctrl.events) != 1 || ctrl.events[0].Text != "second request" {
		t.Fatalf("busy input must still be queued, got %v", ctrl.events)
	}
}

func TestRun_ClearCommand(t *testing.T) {
	ctrl := &mockController{}
	out := &bytes.Buffer{}
	term := New(out)

	if err := term.Run(context.Background(), ctrl, strings.NewReader("clear\nexit\n")); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if ctrl.cleared != 1 {
		t.Fatalf("expected history cleared once, got %d", ctrl.cleared)
	}
	if len(ctrl.events) != 0 {
		t.Fatalf("clear must not enqueue an event, got %v", ctrl.events)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctrl := &mockController{}
	term := New(&bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := term.Run(ctx, ctrl, strings.NewReader("never read\n")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(ctrl.events) != 0 {
		t.Fatalf("cancelled run must not read input, got %v", ctrl.events)
	}
}

func TestEmitText(t *testing.T) {
	out := &bytes.Buffer{}
	term := New(out)

	term.EmitText("Hello there!")
	if !strings.Contains(out.String(), "Hello there!\n") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestEmitText_BreaksPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	term := New(out)

	term.showPrompt()
	out.Reset()
	term.EmitText("Reminder!")

	s := out.String()
	if !strings.HasPrefix(s, "\n") {
		t.Fatalf("expected newline before output while prompting, got %q", s)
	}
	if !strings.Contains(s, "Reminder!") || !strings.Contains(s, prompt) {
		t.Fatalf("expected message and redrawn prompt, got %q", s)
	}
}

func TestStreamLifecycle(t *testing.T) {
	out := &bytes.Buffer{}
	term := New(out)

	term.BeginStream()
	term.EmitStreamChunk("Hel")
	term.EmitStreamChunk("lo!")
	term.EndStream()

	if !strings.Contains(out.String(), "Hello!\n") {
		t.Fatalf("unexpected stream output: %q", out.String())
	}
}

func TestEmitStatus(t *testing.T) {
	out := &bytes.Buffer{}
	term := New(out)

	term.EmitStatus("Setting your reminder...")
	if !strings.Contains(out.String(), "Setting your reminder...") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
