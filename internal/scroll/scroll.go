// Package scroll implements the Scrollbar stack and interaction state
// machine: a stack of logical "bars," each selecting a sub-range of the one
// beneath it, with drill-down (select then push) and pop-on-double-click
// zoom-out.
package scroll

import "github.com/standardbeagle/hexbait/internal/types"

// Scrollbar is one level of the zoom stack: a selection within the
// parent's size, clamped to [MinLen, ParentSize] per the data model.
type Scrollbar struct {
	SelectionStart types.RelativeOffset
	SelectionLen   types.Len
	ParentSize     types.Len
}

// clamp enforces SelectionLen in [minLen, ParentSize] and keeps
// SelectionStart+SelectionLen within ParentSize, per the data model's "len
// clamped to [min, parent_size]".
func (s *Scrollbar) clamp(minLen types.Len) {
	if s.SelectionLen < minLen {
		s.SelectionLen = minLen
	}
	if s.SelectionLen > s.ParentSize {
		s.SelectionLen = s.ParentSize
	}
	maxStart := types.RelativeOffset(uint64(s.ParentSize) - uint64(s.SelectionLen))
	if s.SelectionStart > maxStart {
		s.SelectionStart = maxStart
	}
}

// Interaction is the state of the scrollbar interaction state machine.
type Interaction int

const (
	Idle Interaction = iota
	Selecting
	DraggingStart
	DraggingEnd
	Panning
)

func (i Interaction) String() string {
	switch i {
	case Selecting:
		return "selecting"
	case DraggingStart:
		return "dragging_start"
	case DraggingEnd:
		return "dragging_end"
	case Panning:
		return "panning"
	default:
		return "idle"
	}
}

// MinSelectionLen is the smallest selection a bar is allowed to clamp down
// to; a zero-length selection would make the next pushed bar degenerate.
const MinSelectionLen types.Len = 1

// Machine is the scrollbar stack plus its current interaction state. The
// bottom bar's parent is the whole byte source; every pushed bar narrows
// the view to a sub-range of the one beneath it.
type Machine struct {
	bars       []Scrollbar
	state      Interaction
	anchor     types.RelativeOffset
	panAnchor  types.RelativeOffset
	panOrigin  types.RelativeOffset
}

// NewMachine creates a Machine with a single root bar spanning the whole
// byte source of the given size.
func NewMachine(rootSize types.Len) *Machine {
	return &Machine{
		bars: []Scrollbar{{
			SelectionStart: 0,
			SelectionLen:   rootSize,
			ParentSize:     rootSize,
		}},
		state: Idle,
	}
}

// Top returns the current innermost bar.
func (m *Machine) Top() Scrollbar {
	return m.bars[len(m.bars)-1]
}

// Depth reports the stack's size, always at least 1.
func (m *Machine) Depth() int {
	return len(m.bars)
}

// State reports the current interaction state.
func (m *Machine) State() Interaction {
	return m.state
}

// BeginSelect starts a new selection drag at at, relative to the current
// top bar's own selection window.
func (m *Machine) BeginSelect(at types.RelativeOffset) {
	m.anchor = at
	m.state = Selecting
	top := &m.bars[len(m.bars)-1]
	top.SelectionStart = at
	top.SelectionLen = 0
}

// UpdateSelect extends the in-progress selection to at.
func (m *Machine) UpdateSelect(at types.RelativeOffset) {
	if m.state != Selecting {
		return
	}
	top := &m.bars[len(m.bars)-1]
	start, end := m.anchor, at
	if end < start {
		start, end = end, start
	}
	top.SelectionStart = start
	top.SelectionLen = types.Len(uint64(end) - uint64(start))
	top.clamp(MinSelectionLen)
}

// EndSelect commits the in-progress selection and returns to Idle.
func (m *Machine) EndSelect() {
	if m.state != Selecting {
		return
	}
	top := &m.bars[len(m.bars)-1]
	top.clamp(MinSelectionLen)
	m.state = Idle
}

// BeginDrag starts dragging one edge of the current selection: startEdge
// true drags SelectionStart, false drags the end.
func (m *Machine) BeginDrag(startEdge bool) {
	if startEdge {
		m.state = DraggingStart
	} else {
		m.state = DraggingEnd
	}
}

// UpdateDrag moves the edge being dragged to at, keeping the opposite edge
// fixed.
func (m *Machine) UpdateDrag(at types.RelativeOffset) {
	top := &m.bars[len(m.bars)-1]
	switch m.state {
	case DraggingStart:
		end := types.RelativeOffset(uint64(top.SelectionStart) + uint64(top.SelectionLen))
		if at > end {
			at = end
		}
		top.SelectionStart = at
		top.SelectionLen = types.Len(uint64(end) - uint64(at))
	case DraggingEnd:
		end := at
		if end < top.SelectionStart {
			end = top.SelectionStart
		}
		top.SelectionLen = types.Len(uint64(end) - uint64(top.SelectionStart))
	default:
		return
	}
	top.clamp(MinSelectionLen)
}

// EndDrag commits the drag and returns to Idle.
func (m *Machine) EndDrag() {
	if m.state != DraggingStart && m.state != DraggingEnd {
		return
	}
	m.state = Idle
}

// BeginPan starts a scroll/pan gesture anchored at at.
func (m *Machine) BeginPan(at types.RelativeOffset) {
	top := m.bars[len(m.bars)-1]
	m.panAnchor = at
	m.panOrigin = top.SelectionStart
	m.state = Panning
}

// UpdatePan moves the current selection window by the delta between at and
// the pan anchor, keeping SelectionLen fixed.
func (m *Machine) UpdatePan(at types.RelativeOffset) {
	if m.state != Panning {
		return
	}
	top := &m.bars[len(m.bars)-1]
	delta := int64(at) - int64(m.panAnchor)
	newStart := int64(m.panOrigin) + delta
	if newStart < 0 {
		newStart = 0
	}
	top.SelectionStart = types.RelativeOffset(newStart)
	top.clamp(MinSelectionLen)
}

// EndPan commits the pan and returns to Idle.
func (m *Machine) EndPan() {
	if m.state != Panning {
		return
	}
	m.state = Idle
}

// PushSelection drills down: the current bar's selection becomes the new
// top bar's parent window, so the next selection narrows further. Per the
// data model, a bar is "stack-allocated" and this is the only way the stack
// grows.
func (m *Machine) PushSelection() {
	top := m.bars[len(m.bars)-1]
	if top.SelectionLen == 0 {
		return
	}
	m.bars = append(m.bars, Scrollbar{
		SelectionStart: 0,
		SelectionLen:   top.SelectionLen,
		ParentSize:     top.SelectionLen,
	})
	m.state = Idle
}

// PopOnDoubleClick pops the current bar, per the data model's "popped on
// double-click", zooming back out to the parent bar. The root bar is never
// popped.
func (m *Machine) PopOnDoubleClick() {
	if len(m.bars) <= 1 {
		return
	}
	m.bars = m.bars[:len(m.bars)-1]
	m.state = Idle
}

// AbsoluteWindow translates the current top bar's selection into an
// absolute window against the byte source, by walking the stack from the
// root down, each bar's selection offset relative to the one beneath it.
func (m *Machine) AbsoluteWindow() types.Window {
	var base uint64
	for i, bar := range m.bars {
		if i == len(m.bars)-1 {
			start := base + uint64(bar.SelectionStart)
			end := start + uint64(bar.SelectionLen)
			return types.NewWindow(types.AbsoluteOffset(start), types.AbsoluteOffset(end))
		}
		base += uint64(bar.SelectionStart)
	}
	return types.Window{}
}
