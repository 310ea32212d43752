// Package tui provides an interactive inspector for a single wheel file.
package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdonaldj/wheeledit/internal/adapters/wheelcodec"
	"github.com/mcdonaldj/wheeledit/internal/diff"
	"github.com/mcdonaldj/wheeledit/internal/ports"
	"github.com/mcdonaldj/wheeledit/internal/verify"
)

// View represents the current view state
type View int

const (
	FilesView    View = iota
	MetadataView      // Showing METADATA text
	FileView          // Showing one member's contents
)

// MemberItem represents one archive member in the list
type MemberItem struct {
	Path string
	Size int64
}

// Model is the main TUI model
type Model struct {
	wheelPath string
	codec     ports.Archiver
	view      View
	width     int
	height    int
	quitting  bool

	// Files view
	members      []MemberItem
	memberCursor int

	// Metadata / file views
	content viewport.Model
	viewing string // member path shown in FileView
	ready   bool

	// Status message
	statusMsg string
	statusErr bool
}

// Key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Metadata key.Binding
	Verify   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "view file"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Metadata: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "metadata"),
	),
	Verify: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a new TUI model bound to one wheel
func NewModel(wheelPath string) (*Model, error) {
	m := &Model{
		wheelPath: wheelPath,
		codec:     wheelcodec.New(),
		view:      FilesView,
	}

	if err := m.loadMembers(); err != nil {
		return nil, err
	}

	return m, nil
}

// loadMembers loads the wheel's member list
func (m *Model) loadMembers() error {
	files, err := m.codec.List(m.wheelPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", m.wheelPath, err)
	}

	m.members = nil
	for path, info := range files {
		m.members = append(m.members, MemberItem{
			Path: path,
			Size: info.Size,
		})
	}
	sort.Slice(m.members, func(i, j int) bool {
		return m.members[i].Path < m.members[j].Path
	})

	return nil
}

type statusMsg struct {
	msg string
	err bool
}

type contentMsg struct {
	view    View
	viewing string
	text    string
	err     error
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.content = viewport.New(msg.Width-4, msg.Height-8)
		m.ready = true
		return m, nil

	case statusMsg:
		m.statusMsg = msg.msg
		m.statusErr = msg.err
		return m, nil

	case contentMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			m.statusErr = true
			return m, nil
		}
		if !m.ready {
			m.content = viewport.New(80, 24)
			m.ready = true
		}
		m.content.SetContent(msg.text)
		m.content.GotoTop()
		m.viewing = msg.viewing
		m.view = msg.view
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		// Clear status on any key
		m.statusMsg = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			return m, m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			return m, m.moveCursor(1)

		case key.Matches(msg, keys.Enter):
			if m.view == FilesView && len(m.members) > 0 {
				return m, m.readMember(m.members[m.memberCursor].Path)
			}

		case key.Matches(msg, keys.Back):
			if m.view == MetadataView || m.view == FileView {
				m.view = FilesView
				m.viewing = ""
			}

		case key.Matches(msg, keys.Metadata):
			if m.view == FilesView {
				return m, m.readMetadata()
			}

		case key.Matches(msg, keys.Verify):
			return m, m.runVerify()
		}
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	switch m.view {
	case FilesView:
		m.memberCursor += delta
		if m.memberCursor < 0 {
			m.memberCursor = 0
		}
		if m.memberCursor >= len(m.members) {
			m.memberCursor = len(m.members) - 1
		}
	case MetadataView, FileView:
		if delta < 0 {
			m.content.LineUp(1)
		} else {
			m.content.LineDown(1)
		}
	}
	return nil
}

func (m *Model) readMember(path string) tea.Cmd {
	return func() tea.Msg {
		text, err := m.codec.ReadFile(m.wheelPath, path)
		if err != nil {
			return contentMsg{err: err}
		}
		if diff.IsBinaryContent(text) {
			text = dimStyle.Render(fmt.Sprintf("(binary file, %d bytes)", len(text)))
		}
		return contentMsg{view: FileView, viewing: path, text: text}
	}
}

func (m *Model) readMetadata() tea.Cmd {
	return func() tea.Msg {
		for _, member := range m.members {
			dir := member.Path
			if idx := strings.Index(dir, "/"); idx != -1 {
				dir = dir[:idx]
			}
			if strings.HasSuffix(dir, ".dist-info") && filepath.Base(member.Path) == "METADATA" {
				text, err := m.codec.ReadFile(m.wheelPath, member.Path)
				if err != nil {
					return contentMsg{err: err}
				}
				return contentMsg{view: MetadataView, viewing: member.Path, text: text}
			}
		}
		return statusMsg{err: true, msg: "No METADATA found in wheel"}
	}
}

func (m *Model) runVerify() tea.Cmd {
	return func() tea.Msg {
		mismatches, err := verify.NewDefaultService().Verify(m.wheelPath)
		if err != nil {
			return statusMsg{err: true, msg: fmt.Sprintf("Verify failed: %v", err)}
		}
		if len(mismatches) > 0 {
			return statusMsg{err: true, msg: fmt.Sprintf("✗ %d RECORD problem(s), first: %s", len(mismatches), mismatches[0].Path)}
		}
		return statusMsg{msg: "✓ RECORD verified"}
	}
}

// View renders the current view
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case MetadataView, FileView:
		return m.renderContentView()
	default:
		return m.renderFilesView()
	}
}

func (m *Model) renderFilesView() string {
	var b strings.Builder

	// Title
	title := titleStyle.Render(fmt.Sprintf(" 📦 %s ", filepath.Base(m.wheelPath)))
	b.WriteString(title)
	b.WriteString("\n\n")

	if len(m.members) == 0 {
		b.WriteString(dimStyle.Render("  Empty wheel"))
		b.WriteString("\n")
	} else {
		// Header
		header := fmt.Sprintf("  %-52s %10s", "FILE", "SIZE")
		b.WriteString(dimStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", 64)))
		b.WriteString("\n")

		visibleHeight := m.height - 10
		if visibleHeight < 5 {
			visibleHeight = 5
		}

		start := 0
		if m.memberCursor >= visibleHeight {
			start = m.memberCursor - visibleHeight + 1
		}

		for i := start; i < len(m.members) && i < start+visibleHeight; i++ {
			member := m.members[i]
			cursor := "  "
			style := normalStyle
			if i == m.memberCursor {
				cursor = "▸ "
				style = selectedStyle
			}

			line := fmt.Sprintf("%s%-52s %10s",
				cursor, truncate(member.Path, 52), FormatSize(member.Size))
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	// Status
	b.WriteString("\n")
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")

	// Help
	help := "[↑/↓] navigate  [enter] view  [m] metadata  [v] verify  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderContentView() string {
	var b strings.Builder

	label := m.viewing
	if m.view == MetadataView {
		label = "METADATA"
	}
	title := titleStyle.Render(fmt.Sprintf(" %s / %s ", filepath.Base(m.wheelPath), label))
	b.WriteString(title)
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.content.View())
	}
	b.WriteString("\n")

	// Status
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
		b.WriteString("\n")
	}

	// Help
	help := "[↑/↓] scroll  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// Run starts the TUI over one wheel file
func Run(wheelPath string) error {
	m, err := NewModel(wheelPath)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Helper functions
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// FormatSize formats bytes as human-readable
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
