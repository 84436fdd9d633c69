package marking

import (
	"testing"

	"github.com/standardbeagle/hexbait/internal/types"
)

func win(start, end uint64) types.Window {
	return types.NewWindow(types.AbsoluteOffset(start), types.AbsoluteOffset(end))
}

func TestAddKeepsSortedOrder(t *testing.T) {
	l := New()
	l.Add(Location{Window: win(100, 110), Kind: KindSearchHit})
	l.Add(Location{Window: win(10, 20), Kind: KindSelection})
	l.Add(Location{Window: win(50, 60), Kind: KindError})

	got := l.IterateOverlapping(win(0, 1000))
	want := []uint64{10, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if uint64(got[i].Window.Start) != w {
			t.Errorf("entry %d: expected start %d, got %d", i, w, got[i].Window.Start)
		}
	}
}

func TestIterateOverlappingFiltersNonOverlapping(t *testing.T) {
	l := New()
	l.Add(Location{Window: win(0, 10), Kind: KindSelection})
	l.Add(Location{Window: win(20, 30), Kind: KindSearchHit})
	l.Add(Location{Window: win(40, 50), Kind: KindError})

	got := l.IterateOverlapping(win(15, 25))
	if len(got) != 1 {
		t.Fatalf("expected exactly one overlapping entry, got %+v", got)
	}
	if got[0].Kind != KindSearchHit {
		t.Errorf("expected the search-hit entry, got %v", got[0].Kind)
	}
}

func TestRemoveWhere(t *testing.T) {
	l := New()
	l.Add(Location{Window: win(0, 10), Kind: KindSearchHit})
	l.Add(Location{Window: win(20, 30), Kind: KindSearchHit})
	l.Add(Location{Window: win(40, 50), Kind: KindSelection})

	l.RemoveWhere(func(loc Location) bool { return loc.Kind == KindSearchHit })

	if l.Len() != 1 {
		t.Fatalf("expected 1 entry after removing search hits, got %d", l.Len())
	}
	remaining := l.IterateOverlapping(win(0, 1000))
	if remaining[0].Kind != KindSelection {
		t.Errorf("expected the surviving entry to be the selection, got %v", remaining[0].Kind)
	}
}

func TestHoverStagingRequiresEndOfFrame(t *testing.T) {
	l := New()

	if _, ok := l.Hovered(); ok {
		t.Fatalf("expected no hover before any commit")
	}

	l.MarkHovered(Location{Window: win(5, 15), Kind: KindHover})
	if _, ok := l.Hovered(); ok {
		t.Fatalf("staged hover must not be visible before EndOfFrame")
	}

	l.EndOfFrame()
	loc, ok := l.Hovered()
	if !ok {
		t.Fatalf("expected hover to be committed after EndOfFrame")
	}
	if loc.Window.Start != 5 {
		t.Errorf("expected committed hover at offset 5, got %v", loc.Window)
	}
}

func TestClearHoverCommitsToNoHover(t *testing.T) {
	l := New()
	l.MarkHovered(Location{Window: win(5, 15), Kind: KindHover})
	l.EndOfFrame()

	l.ClearHovered()
	l.EndOfFrame()

	if _, ok := l.Hovered(); ok {
		t.Fatalf("expected no hover after clearing and committing")
	}
}

func TestEndOfFrameWithNoNewStageKeepsNoHover(t *testing.T) {
	l := New()
	l.EndOfFrame()
	if _, ok := l.Hovered(); ok {
		t.Fatalf("expected no hover when nothing was ever staged")
	}
}
