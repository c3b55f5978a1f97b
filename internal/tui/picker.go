// Package tui provides terminal user interface components for pvemesh-ctl
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TemplateItem is one OS template in the picker.
type TemplateItem struct {
	Name       string
	Downloaded bool
}

func (i TemplateItem) Title() string {
	return i.Name
}

func (i TemplateItem) Description() string {
	if i.Downloaded {
		return "✓ downloaded"
	}
	return "available for download"
}

func (i TemplateItem) FilterValue() string {
	return i.Name
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the template picker
type Model struct {
	list     list.Model
	selected string
	quitting bool
}

// NewPicker creates a new template picker
func NewPicker(templates []TemplateItem) Model {
	items := make([]list.Item, len(templates))
	for i, t := range templates {
		items[i] = t
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "pvemesh - Select OS Template"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(TemplateItem); ok {
				m.selected = item.Name
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen template name, or "" if the picker was
// dismissed without a selection.
func (m Model) Selected() string {
	return m.selected
}

// RunPicker runs the picker and returns the selected template name.
func RunPicker(templates []TemplateItem) (string, error) {
	if len(templates) == 0 {
		return "", fmt.Errorf("no templates to pick from")
	}

	final, err := tea.NewProgram(NewPicker(templates), tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("template picker failed: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return "", fmt.Errorf("unexpected picker model type")
	}
	return model.Selected(), nil
}
