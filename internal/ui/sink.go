package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// OutputKind tags agent output forwarded into the Bubble Tea loop.
type OutputKind int

const (
	OutputText OutputKind = iota
	OutputStatus
	OutputStreamBegin
	OutputStreamChunk
	OutputStreamEnd
)

// OutputMsg carries one piece of agent output as a Bubble Tea message.
type OutputMsg struct {
	Kind OutputKind
	Text string
}

// ProgramSink delivers agent output to a running Bubble Tea program. The
// program is attached after construction because the agent and the program
// reference each other; anything emitted before Attach is dropped.
type ProgramSink struct {
	mu sync.Mutex
	p  *tea.Program
}

// NewProgramSink creates a sink with no program attached yet.
func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// Attach wires the running program into the sink.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

func (s *ProgramSink) send(msg OutputMsg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// EmitText delivers a complete assistant message.
func (s *ProgramSink) EmitText(text string) {
	s.send(OutputMsg{Kind: OutputText, Text: text})
}

// EmitStatus delivers a transient progress line.
func (s *ProgramSink) EmitStatus(text string) {
	s.send(OutputMsg{Kind: OutputStatus, Text: text})
}

// BeginStream opens a streamed assistant message.
func (s *ProgramSink) BeginStream() {
	s.send(OutputMsg{Kind: OutputStreamBegin})
}

// EmitStreamChunk appends a delta to the open streamed message.
func (s *ProgramSink) EmitStreamChunk(chunk string) {
	s.send(OutputMsg{Kind: OutputStreamChunk, Text: chunk})
}

// EndStream closes the streamed message.
func (s *ProgramSink) EndStream() {
	s.send(OutputMsg{Kind: OutputStreamEnd})
}
