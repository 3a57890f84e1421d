// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/remibot/remi/internal/agent"
)

// Controller is the slice of the agent the UI drives. *agent.Agent satisfies it.
type Controller interface {
	EnqueueEvent(ev agent.Event)
	Busy() bool
	ClearHistory()
}

// ToolInfo describes one registered tool for the tools command.
type ToolInfo struct {
	Name        string
	Description string
}

// chatMessage represents a message in the chat transcript.
type chatMessage struct {
	role    string // "user", "assistant", "status", "system"
	content string
}

const helpText = `Available commands:
  help, ?     Show this help
  clear       Clear the conversation
  tools       List available tools
  exit, quit  Quit

Example requests:
  "Remind me to drink water at 14:45"
  "What reminders do I have?"
  "Delete the water reminder"
  "What time is it?"`

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	// UI Components
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	// State
	messages   []chatMessage
	streaming  bool
	processing bool
	width      int
	height     int
	ready      bool
	quitting   bool

	// Agent interface (injected)
	ctrl  Controller
	tools []ToolInfo
}

// NewModel creates a new UI model.
func NewModel(ctrl Controller, tools []ToolInfo) Model {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask me anything... (e.g., 'Remind me to drink water at 14:45')"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.DefaultKeyMap()

	return Model{
		textInput: ti,
		spinner:   s,
		viewport:  vp,
		styles:    styles,
		messages:  make([]chatMessage, 0),
		ctrl:      ctrl,
		tools:     tools,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// headerHeight returns the number of terminal lines occupied by the banner.
func (m Model) headerHeight() int {
	banner := m.styles.BannerTitle.Render(Banner())
	return lipgloss.Height(banner) + 2 // +2 for the two "\n" after the banner
}

// footerHeight returns the number of terminal lines occupied by the input + help bar.
func (m Model) footerHeight() int {
	// 1 blank line + 1 prompt/input line + 1 newline + 1 help bar = 4
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.processing && !m.streaming {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.StatusText.Render("Thinking..."))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEsc:
			if m.processing {
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.processing {
				return m, nil
			}

			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if handled, cmd := m.handleCommand(input); handled {
				m.textInput.SetValue("")
				m.updateViewport()
				return m, cmd
			}

			m.messages = append(m.messages, chatMessage{
				role:    "user",
				content: input,
			})
			if m.ctrl.Busy() {
				m.messages = append(m.messages, chatMessage{
					role:    "status",
					content: agent.BusyNotice,
				})
			}

			m.textInput.SetValue("")
			m.processing = true
			m.ctrl.EnqueueEvent(agent.Event{Kind: agent.EventUserMessage, Text: input})
			m.updateViewport()

			return m, m.spinner.Tick
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpWidth := msg.Width
		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.KeyMap = viewport.DefaultKeyMap()
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}

		m.ready = true
		m.updateViewport()

	case OutputMsg:
		m.applyOutput(msg)
		m.updateViewport()
		return m, m.spinner.Tick

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		// Refresh viewport to update spinner frame
		if m.processing {
			m.updateViewport()
		}
	}

	// Forward key events to the input only while idle
	if !m.processing {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes special commands. It reports whether the input was
// a command so that command words are never sent to the agent.
func (m *Model) handleCommand(input string) (bool, tea.Cmd) {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		m.quitting = true
		return true, tea.Quit

	case "clear":
		m.messages = make([]chatMessage, 0)
		m.ctrl.ClearHistory()
		return true, nil

	case "help", "?":
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: helpText,
		})
		return true, nil

	case "tools":
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: m.toolsText(),
		})
		return true, nil
	}

	return false, nil
}

func (m Model) toolsText() string {
	if len(m.tools) == 0 {
		return "No tools registered."
	}
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, tool := range m.tools {
		b.WriteString(fmt.Sprintf("\n  %s\n    %s\n", tool.Name, tool.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

// applyOutput folds one agent output message into the transcript.
func (m *Model) applyOutput(msg OutputMsg) {
	switch msg.Kind {
	case OutputText:
		m.messages = append(m.messages, chatMessage{
			role:    "assistant",
			content: msg.Text,
		})
		m.processing = false

	case OutputStatus:
		m.messages = append(m.messages, chatMessage{
			role:    "status",
			content: msg.Text,
		})

	case OutputStreamBegin:
		m.messages = append(m.messages, chatMessage{role: "assistant"})
		m.streaming = true

	case OutputStreamChunk:
		if !m.streaming {
			m.messages = append(m.messages, chatMessage{role: "assistant"})
			m.streaming = true
		}
		m.messages[len(m.messages)-1].content += msg.Text

	case OutputStreamEnd:
		m.streaming = false
		m.processing = false
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	// Fixed header: banner
	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n\n")

	// Scrollable middle: viewport
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	// Fixed footer: input + help bar
	b.WriteString(m.styles.Prompt.Render("> "))
	if m.processing {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.StatusText.Render("(thinking...)"))
	} else {
		b.WriteString(m.textInput.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderMessage renders a single chat message.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)

	case "assistant":
		return m.styles.AssistantMessage.Render("Remi: " + msg.content)

	case "status":
		return m.styles.StatusMessage.Render(msg.content)

	case "system":
		return m.styles.SystemMessage.Render(msg.content)
	}
	return ""
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("help") + m.styles.HelpValue.Render(" commands"),
		m.styles.HelpKey.Render("tools") + m.styles.HelpValue.Render(" list tools"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}
