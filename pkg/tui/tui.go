// Package tui provides a terminal user interface for abcseq
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/notefold/abcseq/pkg/abc"
	"github.com/notefold/abcseq/pkg/midifile"
	"github.com/notefold/abcseq/pkg/pitch"
	"github.com/notefold/abcseq/pkg/sequence"
)

// Manuscript-inspired color scheme
var (
	inkBlue   = lipgloss.Color("#4A9EFF")
	staffGold = lipgloss.Color("#E8C547")
	paperGray = lipgloss.Color("#C0C0C0")
	darkGray  = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(inkBlue).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(paperGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(inkBlue).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(staffGold).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(inkBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(inkBlue).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
	StateScratchpad
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	FromFormat  string
	ToFormat    string
}

var menuItems = []MenuItem{
	{Title: "ABC → MIDI", Description: "Convert an ABC notation file to a MIDI file", FromFormat: "abc", ToFormat: "midi"},
	{Title: "MIDI → ABC", Description: "Transcribe a MIDI file to ABC notation", FromFormat: "midi", ToFormat: "abc"},
	{Title: "Scratchpad", Description: "Type ABC and preview the parsed notes live", FromFormat: "", ToFormat: ""},
	{Title: "Exit", Description: "Exit the application", FromFormat: "", ToFormat: ""},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	scratchpad   textarea.Model
	selectedFile string
	outputFile   string
	conversion   MenuItem
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".abc", ".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(inkBlue)

	ta := textarea.New()
	ta.Placeholder = "C D E F | G2 [CEG]2"
	ta.SetHeight(4)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
		scratchpad: ta,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages while active
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	if m.state == StateScratchpad {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				m.scratchpad.Blur()
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.scratchpad, cmd = m.scratchpad.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.Height = msg.Height - 10
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		switch menuItems[m.menuIndex].Title {
		case "Exit":
			return m, tea.Quit
		case "Scratchpad":
			m.state = StateScratchpad
			return m, m.scratchpad.Focus()
		}

		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker

		switch m.conversion.FromFormat {
		case "abc":
			m.filePicker.AllowedTypes = []string{".abc", ".txt"}
		case "midi":
			m.filePicker.AllowedTypes = []string{".mid", ".midi"}
		}

		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performConversion() tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(m.selectedFile)
		if err != nil {
			return conversionDoneMsg{err: err}
		}

		var result []byte
		var outputExt string

		switch m.conversion.FromFormat + "2" + m.conversion.ToFormat {
		case "abc2midi":
			var seq *sequence.NoteSequence
			seq, err = abc.Parse(string(data), sequence.DefaultQPM)
			if err == nil {
				result, err = midifile.FromSequence(seq)
			}
			outputExt = ".mid"
		case "midi2abc":
			var seq *sequence.NoteSequence
			seq, err = midifile.ToSequence(data)
			if err == nil {
				result = []byte(abc.Serialize(seq, ""))
			}
			outputExt = ".abc"
		}

		if err != nil {
			return conversionDoneMsg{err: err}
		}

		base := strings.TrimSuffix(m.selectedFile, filepath.Ext(m.selectedFile))
		outputFile := base + outputExt

		err = os.WriteFile(outputFile, result, 0644)
		if err != nil {
			return conversionDoneMsg{err: err}
		}

		return conversionDoneMsg{outputFile: outputFile}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	case StateScratchpad:
		s.WriteString(m.viewScratchpad())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT ACTION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(staffGold).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(m.conversion.FromFormat))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.conversion.FromFormat, m.conversion.ToFormat)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func (m Model) viewScratchpad() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" ABC SCRATCHPAD "))
	s.WriteString("\n\n")
	s.WriteString(m.scratchpad.View())
	s.WriteString("\n\n")
	s.WriteString(m.previewNotes())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return boxStyle.Render(s.String())
}

// previewNotes parses the scratchpad content live and renders a compact
// note listing plus the canonical re-serialized form.
func (m Model) previewNotes() string {
	text := m.scratchpad.Value()
	if strings.TrimSpace(text) == "" {
		return menuStyle.Render("(no notes yet)")
	}

	seq, err := abc.Parse(text, sequence.DefaultQPM)
	if err != nil || len(seq.Notes) == 0 {
		return errorStyle.Render("no valid notes")
	}

	var names []string
	for _, n := range seq.SortedNotes() {
		names = append(names, pitch.MidiToName(n.Pitch))
	}
	if len(names) > 16 {
		names = names[:16]
		names = append(names, "…")
	}

	var s strings.Builder
	s.WriteString(statusStyle.Render("Notes: " + strings.Join(names, " ")))
	s.WriteString("\n")
	body := abc.Serialize(seq, "")
	if lines := strings.Split(strings.TrimSpace(body), "\n"); len(lines) > 0 {
		s.WriteString(menuStyle.Render("Canonical: " + lines[len(lines)-1]))
	}
	return s.String()
}

func asciiLogo() string {
	logo := `
         _
    __ _| |__   ___ ___  ___  __ _
   / _` + "`" + ` | '_ \ / __/ __|/ _ \/ _` + "`" + ` |
  | (_| | |_) | (__\__ \  __/ (_| |
   \__,_|_.__/ \___|___/\___|\__, |
                                |_|
`
	return lipgloss.NewStyle().Foreground(inkBlue).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
