package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/cmd/heapexplorer/logger"
	"github.com/joshuapare/heapkit/internal/driver"
	"github.com/joshuapare/heapkit/internal/trace"
)

// Pane represents which pane is focused
type Pane int

const (
	BlockPane Pane = iota
	BucketPane
)

// Layout constants
const (
	headerHeight = 3
	statusHeight = 2
	minPaneRows  = 5
)

// Model is the main application model
type Model struct {
	tr  *trace.Trace
	cfg driver.Config

	session *driver.Session
	blocks  []alloc.BlockInfo
	buckets [alloc.NumClasses]int
	usage   alloc.Usage
	lastOp  *trace.Op
	lastPtr alloc.Ptr

	blockCursor  int
	bucketCursor int
	viewport     viewport.Model

	keys        KeyMap
	focusedPane Pane
	width       int
	height      int
	showHelp    bool

	// Status message for temporary feedback
	statusMessage string

	// replayErr stops the replay; err means no heap could be built at all.
	replayErr error
	err       error
}

// NewModel builds a model with a fresh heap positioned before the first op.
func NewModel(tr *trace.Trace, cfg driver.Config) Model {
	m := Model{
		tr:       tr,
		cfg:      cfg,
		keys:     DefaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
	m.restart()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Close releases the heap.
func (m Model) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Close()
}

// restart discards the current heap and starts over.
func (m *Model) restart() {
	if m.session != nil {
		m.session.Close()
	}
	s, err := driver.NewSession(m.tr, m.cfg)
	if err != nil {
		logger.Error("failed to create session", "trace", m.tr.Name, "error", err)
		m.err = err
		m.session = nil
		return
	}
	m.session = s
	m.lastOp = nil
	m.lastPtr = alloc.Nil
	m.replayErr = nil
	m.refresh()
}

// step replays up to n ops, stopping early at the end or on error.
func (m *Model) step(n int) {
	if m.session == nil {
		return
	}
	for range n {
		op, err := m.session.Step()
		if errors.Is(err, driver.ErrDone) {
			break
		}
		if err != nil {
			logger.Warn("replay stopped", "op", op.String(), "error", err)
			m.replayErr = err
			m.statusMessage = "Replay stopped"
			break
		}
		m.lastOp = &op
		m.lastPtr = m.session.Live(op.ID)
	}
	if m.session.Done() && m.replayErr == nil {
		m.statusMessage = "End of trace"
	}
	m.refresh()
}

// back rewinds one op by replaying the trace from the start.
func (m *Model) back() {
	if m.session == nil || m.session.Pos() == 0 {
		m.statusMessage = "Already at the start"
		return
	}
	target := m.session.Pos() - 1
	m.restart()
	m.step(target)
	m.statusMessage = fmt.Sprintf("Rewound to op %d", target)
}

// refresh re-reads the block chain and bucket counts after a change.
func (m *Model) refresh() {
	h := m.session.Heap()
	blocks, err := h.Blocks()
	if err != nil {
		m.replayErr = err
	}
	m.blocks = blocks
	m.buckets = h.Buckets()
	m.usage, _ = h.Usage()

	m.blockCursor = min(m.blockCursor, max(len(m.blocks)-1, 0))
	if m.lastPtr != alloc.Nil {
		for i, b := range m.blocks {
			if b.Ptr == m.lastPtr {
				m.blockCursor = i
				break
			}
		}
	}
	m.updateViewport()
}

// validate runs the full heap check and reports the result.
func (m *Model) validate() {
	if m.session == nil {
		return
	}
	if err := m.session.Heap().Validate("explorer"); err != nil {
		m.statusMessage = "✗ " + err.Error()
		return
	}
	m.statusMessage = "✓ Heap consistent"
}

// selectedBlock returns the block under the cursor.
func (m Model) selectedBlock() (alloc.BlockInfo, bool) {
	if m.blockCursor < 0 || m.blockCursor >= len(m.blocks) {
		return alloc.BlockInfo{}, false
	}
	return m.blocks[m.blockCursor], true
}

// describeBlock renders a block the way it is copied to the clipboard.
func describeBlock(b alloc.BlockInfo) string {
	if b.Allocated {
		return fmt.Sprintf("block 0x%X size %d allocated payload %d", int(b.Ptr), b.Size, b.Payload())
	}
	return fmt.Sprintf("block 0x%X size %d free class %d", int(b.Ptr), b.Size, b.Class)
}

// moveCursor moves the cursor of the focused pane by delta rows.
func (m *Model) moveCursor(delta int) {
	switch m.focusedPane {
	case BlockPane:
		m.blockCursor = clamp(m.blockCursor+delta, 0, len(m.blocks)-1)
		m.updateViewport()
	case BucketPane:
		m.bucketCursor = clamp(m.bucketCursor+delta, 0, alloc.NumClasses-1)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

// paneRows is the number of content rows a pane can show.
func (m Model) paneRows() int {
	return max(m.height-headerHeight-statusHeight-3, minPaneRows)
}
