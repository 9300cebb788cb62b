package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/heapkit/alloc"
)

// numRowsBuckets is the number of rows in the bucket pane.
const numRowsBuckets = alloc.NumClasses

// maxBarWidth caps the occupancy bars in the bucket pane.
const maxBarWidth = 24

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.showHelp {
		help := overlay.New(
			NewHelpModel(m.keys),
			NewMainViewModel(&m),
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return help.View()
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderStatus(),
	)
}

// renderHeader shows the trace name, replay position and last op.
func (m Model) renderHeader() string {
	pos := 0
	if m.session != nil {
		pos = m.session.Pos()
	}
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Heap Explorer"),
		"  ",
		traceStyle.Render(fmt.Sprintf("Trace: %s  op %d/%d", m.tr.Name, pos, len(m.tr.Ops))),
	)

	last := "Last op: none"
	if m.lastOp != nil {
		last = fmt.Sprintf("Last op: %s (line %d)", m.lastOp, m.lastOp.Line)
		if m.lastPtr != alloc.Nil {
			last += fmt.Sprintf(" -> 0x%X", int(m.lastPtr))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, traceStyle.Render(last))
}

// renderContent lays the block chain and bucket panes side by side.
func (m Model) renderContent() string {
	blockWidth := max(m.width/2, 30)
	bucketWidth := max(m.width-blockWidth, 30)

	blockTitle := paneTitleStyle.Render(fmt.Sprintf("Blocks (%d)", len(m.blocks)))
	blockBox := paneStyle
	if m.focusedPane == BlockPane {
		blockBox = activePaneStyle
	}
	blocks := blockBox.Width(blockWidth - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, blockTitle, m.viewport.View()),
	)

	bucketTitle := paneTitleStyle.Render("Free lists")
	bucketBox := paneStyle
	if m.focusedPane == BucketPane {
		bucketBox = activePaneStyle
	}
	buckets := bucketBox.Width(bucketWidth - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, bucketTitle, m.renderBuckets()),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, blocks, buckets)
}

// updateViewport renders the block rows and keeps the cursor visible.
func (m *Model) updateViewport() {
	var b strings.Builder
	for i, blk := range m.blocks {
		row := blockRow(blk)
		switch {
		case i == m.blockCursor:
			row = selectedStyle.Render(row)
		case blk.Allocated:
			row = usedStyle.Render(row)
		default:
			row = freeStyle.Render(row)
		}
		b.WriteString(row)
		if i < len(m.blocks)-1 {
			b.WriteByte('\n')
		}
	}
	m.viewport.SetContent(b.String())

	visible := m.viewport.Height
	if visible <= 0 {
		return
	}
	if m.blockCursor < m.viewport.YOffset {
		m.viewport.YOffset = m.blockCursor
	} else if m.blockCursor >= m.viewport.YOffset+visible {
		m.viewport.YOffset = m.blockCursor - visible + 1
	}
}

func blockRow(b alloc.BlockInfo) string {
	if b.Allocated {
		return fmt.Sprintf("0x%-8X %8d  used", int(b.Ptr), b.Size)
	}
	return fmt.Sprintf("0x%-8X %8d  free  c%d", int(b.Ptr), b.Size, b.Class)
}

// renderBuckets lists every size class with its free block count.
func (m Model) renderBuckets() string {
	most := 1
	for _, c := range m.buckets {
		most = max(most, c)
	}

	var b strings.Builder
	for i, c := range m.buckets {
		lo, hi := alloc.ClassBounds(i)
		bounds := fmt.Sprintf("%d", lo)
		switch {
		case hi < 0:
			bounds = fmt.Sprintf(">=%d", lo)
		case hi != lo:
			bounds = fmt.Sprintf("%d-%d", lo, hi)
		}
		bar := strings.Repeat("█", c*maxBarWidth/most)
		if c > 0 && bar == "" {
			bar = "▏"
		}
		row := fmt.Sprintf("%2d %-10s %4d ", i, bounds, c)
		if m.focusedPane == BucketPane && i == m.bucketCursor {
			row = selectedStyle.Render(row)
		}
		b.WriteString(row + barStyle.Render(bar))
		if i < len(m.buckets)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderStatus shows heap usage and the latest feedback.
func (m Model) renderStatus() string {
	u := m.usage
	line := fmt.Sprintf("heap %d B | %d used (%d B) | %d free (%d B, largest %d)",
		u.HeapSize, u.Allocated, u.AllocatedBytes, u.Free, u.FreeBytes, u.LargestFree)

	msg := m.statusMessage
	if m.replayErr != nil {
		msg = errorStyle.Render(m.replayErr.Error())
	}
	if msg == "" {
		msg = "n: step  p: back  e: end  ?: help  q: quit"
	}
	return statusStyle.Render(line) + "\n" + msg
}
