package scroll

import (
	"testing"

	"github.com/standardbeagle/hexbait/internal/types"
)

func TestNewMachineRootBarSpansWholeSource(t *testing.T) {
	m := NewMachine(1000)
	if m.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", m.Depth())
	}
	top := m.Top()
	if top.SelectionStart != 0 || top.SelectionLen != 1000 {
		t.Errorf("expected root bar to span [0,1000), got start=%d len=%d", top.SelectionStart, top.SelectionLen)
	}
}

func TestSelectDragUpdatesSelection(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(100)
	m.UpdateSelect(200)
	m.EndSelect()

	top := m.Top()
	if top.SelectionStart != 100 || top.SelectionLen != 100 {
		t.Errorf("expected selection [100,200), got start=%d len=%d", top.SelectionStart, top.SelectionLen)
	}
	if m.State() != Idle {
		t.Errorf("expected Idle after EndSelect, got %v", m.State())
	}
}

func TestSelectDragHandlesReversedDirection(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(300)
	m.UpdateSelect(250)
	m.EndSelect()

	top := m.Top()
	if top.SelectionStart != 250 || top.SelectionLen != 50 {
		t.Errorf("expected normalized selection [250,300), got start=%d len=%d", top.SelectionStart, top.SelectionLen)
	}
}

func TestPushSelectionDrillsDown(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(100)
	m.UpdateSelect(300)
	m.EndSelect()
	m.PushSelection()

	if m.Depth() != 2 {
		t.Fatalf("expected depth 2 after push, got %d", m.Depth())
	}
	top := m.Top()
	if top.ParentSize != 200 {
		t.Errorf("expected new bar's parent size 200, got %d", top.ParentSize)
	}
	if top.SelectionStart != 0 || top.SelectionLen != 200 {
		t.Errorf("expected new bar to default to full selection, got start=%d len=%d", top.SelectionStart, top.SelectionLen)
	}
}

func TestPopOnDoubleClickReturnsToParent(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(100)
	m.UpdateSelect(300)
	m.EndSelect()
	m.PushSelection()

	m.PopOnDoubleClick()
	if m.Depth() != 1 {
		t.Fatalf("expected depth 1 after pop, got %d", m.Depth())
	}
}

func TestPopOnDoubleClickNeverPopsRoot(t *testing.T) {
	m := NewMachine(1000)
	m.PopOnDoubleClick()
	if m.Depth() != 1 {
		t.Fatalf("expected root bar to survive pop, depth=%d", m.Depth())
	}
}

func TestAbsoluteWindowComposesStack(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(100)
	m.UpdateSelect(300)
	m.EndSelect()
	m.PushSelection()

	m.BeginSelect(50)
	m.UpdateSelect(150)
	m.EndSelect()

	got := m.AbsoluteWindow()
	want := types.NewWindow(150, 250)
	if got != want {
		t.Errorf("expected absolute window %v, got %v", want, got)
	}
}

func TestDragEdgeKeepsOppositeEdgeFixed(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(100)
	m.UpdateSelect(300)
	m.EndSelect()

	m.BeginDrag(true) // drag start edge
	m.UpdateDrag(150)
	m.EndDrag()

	top := m.Top()
	if top.SelectionStart != 150 {
		t.Errorf("expected start to move to 150, got %d", top.SelectionStart)
	}
	if top.SelectionLen != 150 {
		t.Errorf("expected end to remain at 300 (len 150), got len=%d", top.SelectionLen)
	}
}

func TestPanMovesWindowWithoutResizing(t *testing.T) {
	m := NewMachine(1000)
	m.BeginSelect(100)
	m.UpdateSelect(300)
	m.EndSelect()

	m.BeginPan(100)
	m.UpdatePan(150)
	m.EndPan()

	top := m.Top()
	if top.SelectionLen != 200 {
		t.Errorf("expected pan to preserve length 200, got %d", top.SelectionLen)
	}
	if top.SelectionStart != 150 {
		t.Errorf("expected pan to move start to 150, got %d", top.SelectionStart)
	}
}

func TestClampPreventsOverflowingParent(t *testing.T) {
	m := NewMachine(100)
	m.BeginSelect(90)
	m.UpdateSelect(95)
	m.EndSelect()

	m.BeginDrag(false)
	m.UpdateDrag(500)
	m.EndDrag()

	top := m.Top()
	if uint64(top.SelectionStart)+uint64(top.SelectionLen) > uint64(top.ParentSize) {
		t.Errorf("expected clamp to keep selection within parent, got start=%d len=%d parent=%d",
			top.SelectionStart, top.SelectionLen, top.ParentSize)
	}
}
