// Package console implements the plain-terminal front end: an output sink
// for the agent plus a line-based input loop.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/remibot/remi/internal/agent"
)

const prompt = "> "

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// Controller is the slice of the agent the console drives. *agent.Agent
// satisfies it.
type Controller interface {
	EnqueueEvent(ev agent.Event)
	Busy() bool
	ClearHistory()
}

// Terminal writes agent output to out and reads user input line by line.
// Output may arrive from the agent goroutine while the input loop sits at
// its prompt; a mutex serializes writes, and asynchronous output breaks the
// prompt line and redraws it afterwards.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	prompting bool
}

// New creates a terminal front end. A nil out defaults to stdout. The
// terminal is handed to the agent as its sink; the agent is handed back to
// Run as the controller.
func New(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out}
}

// EmitText prints a full assistant message on its own line.
func (t *Terminal) EmitText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prompting {
		fmt.Fprintln(t.out)
	}
	fmt.Fprintln(t.out, text)
	if t.prompting {
		fmt.Fprint(t.out, promptStyle.Render(prompt))
	}
}

// EmitStatus prints a dimmed progress line.
func (t *Terminal) EmitStatus(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prompting {
		fmt.Fprintln(t.out)
	}
	fmt.Fprintln(t.out, statusStyle.Render(text))
	if t.prompting {
		fmt.Fprint(t.out, promptStyle.Render(prompt))
	}
}

// BeginStream opens a streamed assistant message.
func (t *Terminal) BeginStream() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prompting {
		fmt.Fprintln(t.out)
	}
}

// EmitStreamChunk prints a content delta without a newline.
func (t *Terminal) EmitStreamChunk(chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, chunk)
}

// EndStream terminates the streamed line.
func (t *Terminal) EndStream() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	if t.prompting {
		fmt.Fprint(t.out, promptStyle.Render(prompt))
	}
}

// Run reads lines until EOF, "exit"/"quit", or ctx cancellation. Empty lines
// are skipped, "clear" wipes history and screen, and anything else becomes a
// UserMessage event. When the agent is mid-turn the busy notice is shown
// first, but the input is still queued.
func (t *Terminal) Run(ctx context.Context, ctrl Controller, in io.Reader) error {
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		t.showPrompt()
		if !scanner.Scan() {
			t.dropPrompt()
			return scanner.Err()
		}
		t.dropPrompt()

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			ctrl.ClearHistory()
			fmt.Fprint(t.out, "\033[2J\033[H")
			continue
		}

		if ctrl.Busy() {
			t.EmitStatus(agent.BusyNotice)
		}
		ctrl.EnqueueEvent(agent.Event{Kind: agent.EventUserMessage, Text: line})
	}
}

func (t *Terminal) showPrompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, promptStyle.Render(prompt))
	t.prompting = true
}

func (t *Terminal) dropPrompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompting = false
}
