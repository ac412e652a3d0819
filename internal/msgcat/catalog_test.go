package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedMessages(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("log.empty", nil); got != "No games yet." {
		t.Fatalf("log.empty = %q", got)
	}
	if got := c.Text("log.error", nil); got != "Error loading logs." {
		t.Fatalf("log.error = %q", got)
	}
	got, err := c.Render("game.over", map[string]string{"Result": "White wins"})
	if err != nil || got != "Game Over!\nWhite wins" {
		t.Fatalf("game.over = %q, %v", got, err)
	}
	if !strings.Contains(c.Text("console.help", nil), "difficulty <level>") {
		t.Fatalf("help text missing commands")
	}
}

func TestRenderMissing(t *testing.T) {
	c := Default()
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("game.over", map[string]string{}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.Text("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("fallback = %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.Text("log.empty", nil); got != "log.empty" {
		t.Fatalf("nil catalog fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("log:\n  empty: \"Nothing here\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("log.empty", nil); got != "Nothing here" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("log.error", nil); got != "Error loading logs." {
		t.Fatalf("default lost: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("log:\n  empty: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("log:\n  empty: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for non-string value")
	}
}
