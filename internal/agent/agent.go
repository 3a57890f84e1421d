// Package agent implements the event-driven conversation loop: a five-state
// machine that turns queued user messages and due reminders into model calls,
// tool executions, and committed history.
package agent

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/remibot/remi/internal/ollama"
	"github.com/remibot/remi/internal/tools"
)

// BusyNotice is shown by the front ends when input arrives mid-turn. The
// input is still queued; nothing is dropped.
const BusyNotice = "I'm focusing on another task right now. I will get back to you ASAP!"

const (
	generationApology = "Sorry, I hit an internal error while generating a response."
	stepLimitApology  = "I hit an internal step limit while processing that request. Please split it into smaller steps and try again."
	reminderFallback  = "Hey, just a reminder: it's time now."

	reminderNotifyPrompt = "Write one short, friendly reminder notification for the user. " +
		"The reminder is due now, so tell them it is time to do the task now. " +
		"Focus only on this task and optional notes. " +
		"Do not mention other reminders, future timing, or scheduling actions. " +
		"Return plain text only. " +
		"The reminder will be deleted after this notification, so do not include instructions about snoozing or rescheduling."
)

// Backend is the slice of the Ollama client the agent needs. *ollama.Client
// satisfies it.
type Backend interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error)
	ChatStream(ctx context.Context, req ollama.ChatRequest, onDelta func(ollama.ChatResponse)) (*ollama.ChatResponse, error)
}

// Sink receives everything the agent says. Exactly one sink is attached; the
// console and the TUI each provide one.
type Sink interface {
	EmitText(text string)
	EmitStatus(text string)
	BeginStream()
	EmitStreamChunk(chunk string)
	EndStream()
}

// Agent owns the state machine, the current turn, the bounded history, and
// the event queue. All mutable state is touched only by the goroutine running
// Dispatch/Drain (normally Run); producers interact through EnqueueEvent and
// Busy alone.
type Agent struct {
	backend Backend
	toolbox *tools.Toolbox
	sink    Sink
	logger  *zap.Logger

	stream   bool
	think    bool
	maxSteps int

	ctx     context.Context
	queue   *EventQueue
	history *History
	turn    Turn
	current State
	pending State
	busy    atomic.Bool
}

// Config holds agent construction parameters.
type Config struct {
	Backend            Backend
	Toolbox            *tools.Toolbox
	Sink               Sink
	SystemPrompt       string
	MaxInternalSteps   int
	MaxHistoryMessages int
	Stream             bool
	Think              bool
	Logger             *zap.Logger
}

// New creates an agent in the Idle state with an empty turn.
func New(cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Toolbox == nil {
		cfg.Toolbox = tools.NewToolbox(cfg.Logger)
	}
	if cfg.Sink == nil {
		cfg.Sink = discardSink{}
	}
	if cfg.MaxInternalSteps <= 0 {
		cfg.MaxInternalSteps = 8
	}
	if cfg.MaxHistoryMessages <= 0 {
		cfg.MaxHistoryMessages = 20
	}

	return &Agent{
		backend:  cfg.Backend,
		toolbox:  cfg.Toolbox,
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		stream:   cfg.Stream,
		think:    cfg.Think,
		maxSteps: cfg.MaxInternalSteps,
		ctx:      context.Background(),
		queue:    NewEventQueue(),
		history:  NewHistory(cfg.SystemPrompt, cfg.MaxHistoryMessages),
		current:  stateIdle,
	}
}

// handleSafe runs one state handler, converting a panic into a logged
// apology, a discarded turn, and a forced return to Idle. No handler failure
// may escape the dispatch/drain pair.
func (a *Agent) handleSafe(s State, ev Event) (next State) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("state handler panicked",
				zap.String("state", s.Name()),
				zap.Any("panic", r))
			a.sink.EmitText(generationApology)
			a.turn.Reset()
			next = stateIdle
		}
	}()
	return s.Handle(a, ev)
}

// Dispatch feeds one external event to the current state and stores the
// computed next state without applying it. Drain applies it.
func (a *Agent) Dispatch(ev Event) {
	a.pending = a.handleSafe(a.current, ev)
}

// Drain advances the machine with synthetic Tick events until it reaches
// Idle or the step budget runs out. Whatever happens inside the handlers,
// the postcondition holds: current is Idle and nothing is pending.
func (a *Agent) Drain() {
	steps := 0
	for a.pending != nil && steps < a.maxSteps {
		a.current = a.pending
		a.pending = nil
		if a.current == stateIdle {
			break
		}
		a.pending = a.handleSafe(a.current, Event{Kind: EventTick})
		steps++
	}

	if a.pending == stateIdle {
		// The budget ran out exactly on the transition to Idle.
		a.current = stateIdle
		a.pending = nil
	} else if a.pending != nil {
		a.logger.Error("internal step limit reached",
			zap.String("state", a.current.Name()),
			zap.Int("max_steps", a.maxSteps))
		a.sink.EmitText(stepLimitApology)
		a.turn.Reset()
		a.current = stateIdle
		a.pending = nil
	}

	if a.current == stateIdle {
		a.pending = nil
	}
}

// CommitTurn appends the turn's user/assistant exchange to history if both
// sides are non-empty after trimming, then resets the turn either way.
func (a *Agent) CommitTurn() {
	user := strings.TrimSpace(a.turn.UserText)
	assistant := strings.TrimSpace(a.turn.AssistantText)

	if user != "" && assistant != "" {
		a.history.Append(
			ollama.Message{Role: "user", Content: user},
			ollama.Message{Role: "assistant", Content: assistant},
		)
	}
	a.turn.Reset()
}

// EnqueueEvent queues an event for the agent loop. Safe from any goroutine.
func (a *Agent) EnqueueEvent(ev Event) {
	a.queue.Enqueue(ev)
}

// HasQueuedEvents reports whether events are waiting.
func (a *Agent) HasQueuedEvents() bool {
	return a.queue.HasEvents()
}

// Busy reports whether the agent is mid-turn or has queued work. Safe from
// any goroutine.
func (a *Agent) Busy() bool {
	return a.busy.Load() || a.queue.HasEvents()
}

// ProcessNextQueuedEvent takes one queued event through dispatch and drain.
// It reports whether an event was processed.
func (a *Agent) ProcessNextQueuedEvent() bool {
	ev, ok := a.queue.TakeOne()
	if !ok {
		return false
	}

	a.busy.Store(true)
	defer a.busy.Store(false)

	a.logger.Debug("processing event", zap.Stringer("kind", ev.Kind))
	a.Dispatch(ev)
	a.Drain()
	return true
}

// ProcessQueuedEvents processes events until the queue is empty, returning
// how many were handled.
func (a *Agent) ProcessQueuedEvents() int {
	count := 0
	for a.ProcessNextQueuedEvent() {
		count++
	}
	return count
}

// Run is the single-consumer loop. It blocks until ctx is cancelled; on
// shutdown it drains already-queued events once and returns. Only this
// goroutine touches agent state, so no locks guard it.
func (a *Agent) Run(ctx context.Context) {
	a.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			a.ProcessQueuedEvents()
			return
		case <-a.queue.Wake():
			a.ProcessQueuedEvents()
		}
	}
}

// ClearHistory drops everything except the system prompt.
func (a *Agent) ClearHistory() {
	a.history.Clear()
}

// History exposes the transcript for inspection.
func (a *Agent) History() *History {
	return a.history
}

// discardSink is the default sink when none is attached.
type discardSink struct{}

func (discardSink) EmitText(string)        {}
func (discardSink) EmitStatus(string)      {}
func (discardSink) BeginStream()           {}
func (discardSink) EmitStreamChunk(string) {}
func (discardSink) EndStream()             {}
