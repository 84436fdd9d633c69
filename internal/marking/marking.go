// Package marking implements the MarkedLocations store: an ordered multimap of
// highlighted byte ranges the GUI renders every frame, plus a single staged-
// then-committed hover slot so a parse-tree hover and an end-of-frame commit
// never race within the same frame.
package marking

import (
	"sort"
	"sync"

	"github.com/standardbeagle/hexbait/internal/types"
)

// Kind distinguishes why a location is marked, which in turn determines the
// color the GUI paints it with.
type Kind int

const (
	KindSelection Kind = iota
	KindHover
	KindSearchHit
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSelection:
		return "selection"
	case KindHover:
		return "hover"
	case KindSearchHit:
		return "search_hit"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Location is a single marked byte range.
type Location struct {
	Window types.Window
	Kind   Kind
}

// Locations is the ordered multimap of marked byte ranges: entries keyed by
// their window's start offset, plus a staging slot for the hover that is only visible
// to readers once committed by EndOfFrame. The foreground thread owns this
// store exclusively; the mutex here guards against the common case of a render
// goroutine reading while an input-handling goroutine mutates, not against
// concurrent writers from other threads.
type Locations struct {
	mu sync.Mutex

	entries []Location // sorted by Window.Start, ties broken by insertion order
	hovered *Location
	staged  *Location
}

// New returns an empty marked-locations store.
func New() *Locations {
	return &Locations{}
}

// Add inserts loc into the store, maintaining sort order by window start.
func (l *Locations) Add(loc Location) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].Window.Start > loc.Window.Start
	})
	l.entries = append(l.entries, Location{})
	copy(l.entries[idx+1:], l.entries[idx:])
	l.entries[idx] = loc
}

// RemoveWhere deletes every entry for which pred returns true, e.g.
// clearing every KindSearchHit entry when a search is superseded.
func (l *Locations) RemoveWhere(pred func(Location) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if !pred(e) {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// IterateOverlapping returns every entry whose window overlaps w, in sorted
// order. The returned slice is a defensive copy.
func (l *Locations) IterateOverlapping(w types.Window) []Location {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Location, 0)
	for _, e := range l.entries {
		if e.Window.Start >= w.End {
			break // entries are sorted by start; nothing further can overlap
		}
		if e.Window.Overlaps(w) {
			out = append(out, e)
		}
	}
	return out
}

// MarkHovered stages loc as the candidate newly-hovered location. It is not
// visible to readers of Hovered until the next EndOfFrame, so a partially
// handled input event never produces a flickering hover mid-frame.
func (l *Locations) MarkHovered(loc Location) {
	l.mu.Lock()
	defer l.mu.Unlock()
	staged := loc
	l.staged = &staged
}

// ClearHovered stages a "nothing hovered" state, committed on the next
// EndOfFrame the same way a real hover would be.
func (l *Locations) ClearHovered() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staged = nil
}

// EndOfFrame commits the staged hover value.
func (l *Locations) EndOfFrame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hovered = l.staged
	l.staged = nil
}

// Hovered returns the committed hover location, if any.
func (l *Locations) Hovered() (Location, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hovered == nil {
		return Location{}, false
	}
	return *l.hovered, true
}

// Len reports the number of marked locations currently stored, excluding
// the staged/committed hover slot.
func (l *Locations) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
