package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// MainViewModel wraps the main UI for use as the overlay background.
type MainViewModel struct {
	model *Model
}

func NewMainViewModel(m *Model) *MainViewModel {
	return &MainViewModel{model: m}
}

func (m *MainViewModel) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the parent Model handles every message.
func (m *MainViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m *MainViewModel) View() string {
	return m.model.renderMain()
}

// HelpModel renders the keyboard shortcut box shown over the main view.
type HelpModel struct {
	keys KeyMap
}

func NewHelpModel(keys KeyMap) *HelpModel {
	return &HelpModel{keys: keys}
}

func (h *HelpModel) Init() tea.Cmd {
	return nil
}

func (h *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return h, nil
}

func (h *HelpModel) View() string {
	const keyWidth = 10

	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for i, section := range h.keys.helpSections() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(helpSectionStyle.Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			hk := binding.Help()
			b.WriteString(helpKeyStyle.Width(keyWidth).Render(hk.Key))
			b.WriteString("  ")
			b.WriteString(helpDescStyle.Render(hk.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(helpDescStyle.Render("Press ? or esc to close"))
	return helpBoxStyle.Render(b.String())
}
