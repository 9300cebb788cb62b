package main

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/cmd/heapexplorer/logger"
)

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(m.width/2-4, 20)
		m.viewport.Height = m.paneRows()
		m.updateViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help swallows everything except the keys that close it.
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.err != nil {
		return m, nil
	}

	m.statusMessage = ""
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == BlockPane {
			m.focusedPane = BucketPane
		} else {
			m.focusedPane = BlockPane
		}

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.paneRows())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.paneRows())
	case key.Matches(msg, m.keys.Home):
		m.moveCursor(-len(m.blocks) - numRowsBuckets)
	case key.Matches(msg, m.keys.End):
		m.moveCursor(len(m.blocks) + numRowsBuckets)

	case key.Matches(msg, m.keys.Step):
		m.step(1)
	case key.Matches(msg, m.keys.Back):
		m.back()
	case key.Matches(msg, m.keys.Finish):
		m.step(len(m.tr.Ops))
	case key.Matches(msg, m.keys.Restart):
		m.restart()
		m.statusMessage = "Restarted"

	case key.Matches(msg, m.keys.Validate):
		m.validate()
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	}
	return m, nil
}

// copySelected puts the selected block's description on the clipboard.
func (m *Model) copySelected() {
	b, ok := m.selectedBlock()
	if !ok {
		m.statusMessage = "No block selected"
		return
	}
	text := describeBlock(b)
	if err := clipboard.WriteAll(text); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied: " + text
}
