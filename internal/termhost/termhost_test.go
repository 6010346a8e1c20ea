package termhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/marksman/internal/host"
)

func decorOn(line int) host.DecorSpec {
	return host.DecorSpec{Line: line, Channel: host.ChannelSign, Group: "MarksmanSign", Text: "a"}
}

func loadFixture(t *testing.T, name, content string) *Host {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	h, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestLoad(t *testing.T) {
	h := loadFixture(t, "demo.go", "one\ntwo\nthree\n")

	if got := h.LineCount(DemoBuffer); got != 3 {
		t.Fatalf("LineCount = %d, want 3 (trailing newline trimmed)", got)
	}
	if text, ok := h.Line(DemoBuffer, 2); !ok || text != "two" {
		t.Fatalf("Line(2) = %q, %v", text, ok)
	}
	if ft := h.FileType(DemoBuffer); ft != "go" {
		t.Errorf("FileType = %q, want go", ft)
	}
	if cat := h.Category(DemoBuffer); cat != "file" {
		t.Errorf("Category = %q, want file", cat)
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	h := loadFixture(t, "dos.txt", "one\r\ntwo\r\n")

	if got := h.LineCount(DemoBuffer); got != 2 {
		t.Fatalf("LineCount = %d, want 2", got)
	}
	if text, _ := h.Line(DemoBuffer, 1); text != "one" {
		t.Fatalf("Line(1) = %q, want CR stripped", text)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	h := loadFixture(t, "empty", "")
	if got := h.LineCount(DemoBuffer); got != 1 {
		t.Fatalf("LineCount = %d, want 1 empty line", got)
	}
	if ft := h.FileType(DemoBuffer); ft != "" {
		t.Errorf("FileType = %q, want empty without extension", ft)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("missing file must error")
	}
}

func TestMarkTable(t *testing.T) {
	h := loadFixture(t, "demo.txt", "one\ntwo\n")

	h.Set(DemoBuffer, "a", 2, 0)
	marks, err := h.List(DemoBuffer)
	if err != nil || len(marks) != 1 || marks[0].ID != "a" || marks[0].Line != 2 {
		t.Fatalf("List = %v, %v", marks, err)
	}

	h.Delete(DemoBuffer, "a")
	if marks, _ := h.List(DemoBuffer); len(marks) != 0 {
		t.Fatal("Delete left the mark behind")
	}
}

func TestCursorClamping(t *testing.T) {
	h := loadFixture(t, "demo.txt", "one\ntwo\nthree\n")

	if got := h.MoveCursor(100); got != 3 {
		t.Errorf("MoveCursor past end = %d, want clamp to 3", got)
	}
	if got := h.MoveCursor(-100); got != 1 {
		t.Errorf("MoveCursor past start = %d, want clamp to 1", got)
	}
	if got := h.JumpCursor(0); got != 1 {
		t.Errorf("JumpCursor(0) = %d, want 1", got)
	}

	h.SetCursor(DemoBuffer, 99, 5)
	if line, _ := h.Cursor(DemoBuffer); line != 3 {
		t.Errorf("SetCursor out of range = %d, want 3", line)
	}
}

func TestDecorationRoundtrip(t *testing.T) {
	h := loadFixture(t, "demo.txt", "one\ntwo\n")

	handle, err := h.Place(DemoBuffer, decorOn(2))
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, decors, _ := h.snapshot()
	if len(decors) != 1 || decors[0].Line != 2 {
		t.Fatalf("snapshot decors = %v", decors)
	}

	h.Remove(DemoBuffer, handle)
	if _, _, _, decors, _ := h.snapshot(); len(decors) != 0 {
		t.Fatal("Remove left the decoration behind")
	}
}
