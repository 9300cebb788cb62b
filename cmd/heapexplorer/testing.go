package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/internal/driver"
	"github.com/joshuapare/heapkit/internal/trace"
)

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
}

// NewTestHelper creates a test helper over an in-memory trace
func NewTestHelper(src string) (*TestHelper, error) {
	tr, err := trace.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	tr.Name = "test.rep"
	return &TestHelper{model: NewModel(tr, driver.Config{Check: true})}, nil
}

// SendKey simulates a special key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	updated, _ := h.model.Update(tea.KeyMsg{Type: keyType})
	h.model = updated.(Model)
	return h
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	updated, _ := h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	h.model = updated.(Model)
	return h
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	updated, _ := h.model.Update(tea.WindowSizeMsg{Width: width, Height: height})
	h.model = updated.(Model)
	return h
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// View renders the current model
func (h *TestHelper) View() string {
	return h.model.View()
}

// Close releases the model's heap
func (h *TestHelper) Close() {
	h.model.Close()
}
