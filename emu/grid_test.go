package emu

import (
	"strings"
	"testing"
)

func baseline(t *testing.T, g *Grid) {
	t.Helper()
	g.DirtyLines()
	g.ClearDirty()
}

func TestGridInitialDirtyCoversScreen(t *testing.T) {
	g := NewGrid(4, 10)
	dirty := g.DirtyLines()
	if len(dirty) != 4 {
		t.Fatalf("expected 4 dirty rows, got %d", len(dirty))
	}
	blank := strings.Repeat(" ", 10)
	for row := 0; row < 4; row++ {
		content, ok := dirty[row]
		if !ok || content == nil {
			t.Fatalf("expected content for row %d, got %v", row, content)
		}
		if *content != blank {
			t.Fatalf("expected blank row %d, got %q", row, *content)
		}
	}
	g.ClearDirty()
	if d := g.DirtyLines(); len(d) != 0 {
		t.Fatalf("expected clean grid after clear, got %d rows", len(d))
	}
}

func TestGridFeedMarksChangedRows(t *testing.T) {
	g := NewGrid(4, 10)
	baseline(t, g)

	g.Feed([]byte("hello"))
	dirty := g.DirtyLines()
	if len(dirty) != 1 {
		t.Fatalf("expected 1 dirty row, got %d", len(dirty))
	}
	content := dirty[0]
	if content == nil {
		t.Fatalf("expected content for row 0")
	}
	if *content != "hello     " {
		t.Fatalf("expected padded row, got %q", *content)
	}
	g.ClearDirty()

	g.Feed([]byte("\r\nworld"))
	dirty = g.DirtyLines()
	if len(dirty) != 1 {
		t.Fatalf("expected 1 dirty row, got %d", len(dirty))
	}
	if dirty[1] == nil || *dirty[1] != "world     " {
		t.Fatalf("expected row 1 update, got %v", dirty)
	}
}

func TestGridCursorTracksOutput(t *testing.T) {
	g := NewGrid(4, 10)
	if row, col := g.Cursor(); row != 0 || col != 0 {
		t.Fatalf("expected cursor at origin, got (%d,%d)", row, col)
	}
	g.Feed([]byte("hello"))
	if row, col := g.Cursor(); row != 0 || col != 5 {
		t.Fatalf("expected cursor (0,5), got (%d,%d)", row, col)
	}
	g.Feed([]byte("\r\nhi"))
	if row, col := g.Cursor(); row != 1 || col != 2 {
		t.Fatalf("expected cursor (1,2), got (%d,%d)", row, col)
	}
}

func TestGridResizeMarksEveryRow(t *testing.T) {
	g := NewGrid(4, 10)
	baseline(t, g)

	g.Resize(2, 8)
	dirty := g.DirtyLines()
	for row := 0; row < 2; row++ {
		content, ok := dirty[row]
		if !ok || content == nil {
			t.Fatalf("expected content for row %d after shrink", row)
		}
		if len(*content) != 8 {
			t.Fatalf("expected 8-wide row, got %d", len(*content))
		}
	}
	// Rows that fell off the bottom are reported as cleared.
	for _, row := range []int{2, 3} {
		content, ok := dirty[row]
		if !ok {
			t.Fatalf("expected entry for vanished row %d", row)
		}
		if content != nil {
			t.Fatalf("expected nil content for vanished row %d, got %q", row, *content)
		}
	}
	g.ClearDirty()

	// Growing marks all rows of the new height, including unchanged ones.
	g.Resize(3, 8)
	dirty = g.DirtyLines()
	if len(dirty) != 3 {
		t.Fatalf("expected 3 dirty rows after grow, got %d", len(dirty))
	}

	// A repeat of the current size is a no-op.
	g.ClearDirty()
	g.Resize(3, 8)
	if d := g.DirtyLines(); len(d) != 0 {
		t.Fatalf("expected no dirt for repeated size, got %d rows", len(d))
	}
}

func TestGridColorMapBuildsRuns(t *testing.T) {
	g := NewGrid(2, 10)
	g.Feed([]byte("\x1b[31mred\x1b[0m ok"))

	colors := g.ColorMap([]int{0, 1})
	runs, ok := colors[0]
	if !ok {
		t.Fatalf("expected runs for row 0, got %v", colors)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %v", runs)
	}
	run, ok := runs[0]
	if !ok {
		t.Fatalf("expected run at col 0, got %v", runs)
	}
	if run.Length != 3 || run.BG != "black" || run.FG != "red" {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.Style() != "termview.black_red" {
		t.Fatalf("unexpected style %q", run.Style())
	}
	// The all-default row carries no runs at all.
	if _, ok := colors[1]; ok {
		t.Fatalf("expected no runs for default row, got %v", colors[1])
	}
}

func TestGridColorMapFoldsBrightColors(t *testing.T) {
	g := NewGrid(1, 10)
	g.Feed([]byte("\x1b[101mX\x1b[0m"))

	colors := g.ColorMap([]int{0})
	runs := colors[0]
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %v", runs)
	}
	run := runs[0]
	if run.Length != 1 || run.BG != "red" || run.FG != "white" {
		t.Fatalf("expected bright background folded to red, got %+v", run)
	}
}

func TestGridColorMapIgnoresRowsOutsideGrid(t *testing.T) {
	g := NewGrid(2, 10)
	colors := g.ColorMap([]int{-1, 5})
	if len(colors) != 0 {
		t.Fatalf("expected no runs, got %v", colors)
	}
}

func TestGridScrollNavigationIsInert(t *testing.T) {
	g := NewGrid(4, 10)
	baseline(t, g)
	g.PrevLine()
	g.NextLine()
	g.PrevPage()
	g.NextPage()
	if d := g.DirtyLines(); len(d) != 0 {
		t.Fatalf("expected no dirt from navigation, got %d rows", len(d))
	}
}
