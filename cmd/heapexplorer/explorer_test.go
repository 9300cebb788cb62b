package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/alloc"
)

const testTrace = `a 0 100
a 1 200
f 0
a 2 24
r 1 1000
f 2
`

func newHelper(t *testing.T) *TestHelper {
	t.Helper()
	h, err := NewTestHelper(testTrace)
	if err != nil {
		t.Fatalf("NewTestHelper failed: %v", err)
	}
	t.Cleanup(h.Close)
	return h.SendWindowSize(120, 40)
}

func TestStartsBeforeFirstOp(t *testing.T) {
	h := newHelper(t)
	m := h.GetModel()

	if m.session.Pos() != 0 {
		t.Errorf("pos = %d, want 0", m.session.Pos())
	}
	if len(m.blocks) != 0 {
		t.Errorf("fresh heap has %d blocks, want 0", len(m.blocks))
	}
	view := h.View()
	if !strings.Contains(view, "op 0/6") || !strings.Contains(view, "Last op: none") {
		t.Errorf("unexpected header:\n%s", view)
	}
}

func TestStepShowsNewBlock(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('n')
	m := h.GetModel()

	if m.session.Pos() != 1 {
		t.Fatalf("pos = %d, want 1", m.session.Pos())
	}
	if m.lastPtr != alloc.Ptr(32) {
		t.Errorf("lastPtr = 0x%X, want 0x20", int(m.lastPtr))
	}
	b, ok := m.selectedBlock()
	if !ok || b.Ptr != 32 || b.Size != 128 || !b.Allocated {
		t.Errorf("selected block = %+v", b)
	}
	if !strings.Contains(h.View(), "a 0 100 (line 1) -> 0x20") {
		t.Errorf("last op missing from view:\n%s", h.View())
	}
}

func TestSpaceSteps(t *testing.T) {
	h := newHelper(t)
	h.SendKey(tea.KeySpace).SendKey(tea.KeySpace)
	if got := h.GetModel().session.Pos(); got != 2 {
		t.Errorf("pos = %d, want 2", got)
	}
}

func TestFreeShowsInBuckets(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('n').SendKeyRune('n').SendKeyRune('n')
	m := h.GetModel()

	// The freed 128-byte block holds a 112-byte payload: class 6.
	if m.buckets[6] != 1 {
		t.Errorf("buckets = %v, want one free block in class 6", m.buckets)
	}
	if m.usage.Free != 1 || m.usage.Allocated != 1 {
		t.Errorf("usage = %+v", m.usage)
	}
}

func TestFinishAndBack(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('e')
	m := h.GetModel()
	if !m.session.Done() {
		t.Fatal("expected the trace to be finished")
	}
	if m.statusMessage != "End of trace" {
		t.Errorf("status = %q", m.statusMessage)
	}

	h.SendKeyRune('p')
	m = h.GetModel()
	if m.session.Pos() != 5 {
		t.Errorf("pos after back = %d, want 5", m.session.Pos())
	}
	if !strings.Contains(m.statusMessage, "Rewound to op 5") {
		t.Errorf("status = %q", m.statusMessage)
	}

	h.SendKeyRune('r')
	if got := h.GetModel().session.Pos(); got != 0 {
		t.Errorf("pos after restart = %d, want 0", got)
	}
}

func TestBackAtStart(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('p')
	if got := h.GetModel().statusMessage; got != "Already at the start" {
		t.Errorf("status = %q", got)
	}
}

func TestValidateKey(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('e').SendKeyRune('v')
	if got := h.GetModel().statusMessage; got != "✓ Heap consistent" {
		t.Errorf("status = %q", got)
	}
}

func TestReplayErrorIsShown(t *testing.T) {
	h, err := NewTestHelper("a 0 8\nf 3\n")
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	h.SendWindowSize(120, 40).SendKeyRune('e')

	m := h.GetModel()
	if m.replayErr == nil {
		t.Fatal("expected a replay error")
	}
	if !strings.Contains(h.View(), "id 3 is not live") {
		t.Errorf("error missing from view:\n%s", h.View())
	}
}

func TestCursorAndTab(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('n').SendKeyRune('n')

	h.SendKeyRune('g')
	if got := h.GetModel().blockCursor; got != 0 {
		t.Errorf("cursor after g = %d, want 0", got)
	}
	h.SendKeyRune('j').SendKeyRune('j').SendKeyRune('j')
	if got := h.GetModel().blockCursor; got != 1 {
		t.Errorf("cursor clamps to last block, got %d", got)
	}

	h.SendKey(tea.KeyTab)
	m := h.GetModel()
	if m.focusedPane != BucketPane {
		t.Fatal("tab should focus the bucket pane")
	}
	h.SendKeyRune('G')
	if got := h.GetModel().bucketCursor; got != alloc.NumClasses-1 {
		t.Errorf("bucket cursor = %d, want %d", got, alloc.NumClasses-1)
	}
}

func TestCopySelectedBlock(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('n').SendKeyRune('c')

	// The clipboard may be unavailable in the test environment.
	msg := h.GetModel().statusMessage
	if !strings.HasPrefix(msg, "Copied: block 0x20 size 128 allocated") && !strings.HasPrefix(msg, "Copy failed") {
		t.Errorf("status = %q", msg)
	}
}

func TestCopyWithNoBlocks(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('c')
	if got := h.GetModel().statusMessage; got != "No block selected" {
		t.Errorf("status = %q", got)
	}
}

func TestHelpOverlay(t *testing.T) {
	h := newHelper(t)
	h.SendKeyRune('?')
	if !h.GetModel().showHelp {
		t.Fatal("? should open help")
	}
	view := h.View()
	for _, want := range []string{"Keyboard Shortcuts", "replay next op", "copy block"} {
		if !strings.Contains(view, want) {
			t.Errorf("help missing %q", want)
		}
	}

	// Other keys are ignored while help is open.
	h.SendKeyRune('n')
	if got := h.GetModel().session.Pos(); got != 0 {
		t.Errorf("pos = %d, want 0", got)
	}

	h.SendKey(tea.KeyEsc)
	if h.GetModel().showHelp {
		t.Error("esc should close help")
	}
}

func TestQuit(t *testing.T) {
	h := newHelper(t)
	_, cmd := h.GetModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestDescribeBlock(t *testing.T) {
	used := alloc.BlockInfo{Ptr: 0x40, Size: 64, Allocated: true, Class: -1}
	free := alloc.BlockInfo{Ptr: 0x80, Size: 272, Class: 10}
	if got := describeBlock(used); got != "block 0x40 size 64 allocated payload 48" {
		t.Errorf("describeBlock(used) = %q", got)
	}
	if got := describeBlock(free); got != "block 0x80 size 272 free class 10" {
		t.Errorf("describeBlock(free) = %q", got)
	}
}
