package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	book, err := Open(dir)
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	if filepath.Base(book.Path()) != FileName {
		t.Fatalf("unexpected log file %q", book.Path())
	}
	for i := 0; i < 5; i++ {
		book.Info("saved workflow draft %d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"draft 2", "draft 3", "draft 4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestTailOnMissingFileIsEmpty(t *testing.T) {
	book, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	lines, total := book.Tail(10)
	if lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v (%d)", lines, total)
	}
}

func TestLevelsRecorded(t *testing.T) {
	book, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	book.Warn("publish rejected")
	book.Error("backend unreachable")
	lines, _ := book.Tail(2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "WARN") || !strings.Contains(lines[1], "ERROR") {
		t.Fatalf("levels missing: %v", lines)
	}
}
