package agent

import "sync"

// EventKind identifies what woke the agent up.
type EventKind int

const (
	// EventUserMessage carries text typed by the user.
	EventUserMessage EventKind = iota
	// EventReminderDue carries a reminder whose due time has passed.
	EventReminderDue
	// EventTick advances the state machine. It is synthesized by the drain
	// loop and never enqueued from outside.
	EventTick
)

// String returns a human-readable event kind name.
func (k EventKind) String() string {
	names := [...]string{
		"UserMessage",
		"ReminderDue",
		"Tick",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// ReminderPayload is the slice of a stored reminder the agent needs to
// announce it.
type ReminderPayload struct {
	ID    string
	Task  string
	When  string
	Notes string
}

// Event is one unit of work for the agent loop.
type Event struct {
	Kind     EventKind
	Text     string
	Reminder *ReminderPayload
}

// EventQueue is an unbounded FIFO with a single consumer. Producers are the
// input handler and the reminder worker; the consumer is the agent loop,
// which blocks on Wake instead of polling.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	wake   chan struct{}
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{wake: make(chan struct{}, 1)}
}

// Enqueue appends an event and nudges the consumer. The wake channel is
// buffered with capacity one, so producers never block.
func (q *EventQueue) Enqueue(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// TakeOne pops the oldest event. The second return is false when the queue
// is empty.
func (q *EventQueue) TakeOne() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// HasEvents reports whether anything is queued.
func (q *EventQueue) HasEvents() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events) > 0
}

// Wake returns the channel the consumer selects on.
func (q *EventQueue) Wake() <-chan struct{} {
	return q.wake
}
