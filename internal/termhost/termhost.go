// Package termhost is a minimal tcell-backed host used by the demo binary.
// It loads one file read-only and implements every capability interface
// Marksman consumes, so the decoration engine can be exercised against a
// real terminal.
package termhost

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/marksman/internal/host"
)

// DemoBuffer is the single buffer ID the demo host exposes.
const DemoBuffer host.BufferID = 1

// Host implements host.MarkSource, host.BufferView,
// host.DecorationSurface, and host.Notifier over one loaded file.
type Host struct {
	mu sync.Mutex

	path     string
	fileType string
	lines    []string

	cursorLine int
	cursorCol  int
	topLine    int
	height     int

	marks  map[string]host.Mark
	decors map[host.Handle]host.DecorSpec

	status string
}

// Load reads a file into a demo host.
func Load(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	return &Host{
		path:       path,
		fileType:   fileTypeOf(path),
		lines:      lines,
		cursorLine: 1,
		topLine:    1,
		height:     24,
		marks:      make(map[string]host.Mark),
		decors:     make(map[host.Handle]host.DecorSpec),
	}, nil
}

// fileTypeOf derives a file type from the extension.
func fileTypeOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx+1:]
}

// --- host.MarkSource ---

// List returns all marks in the buffer.
func (h *Host) List(buf host.BufferID) ([]host.Mark, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Mark, 0, len(h.marks))
	for _, m := range h.marks {
		out = append(out, m)
	}
	return out, nil
}

// Set binds an identifier to a position.
func (h *Host) Set(buf host.BufferID, id string, line, col int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.marks[id] = host.Mark{ID: id, Line: line, Col: col}
	return nil
}

// Delete removes a mark.
func (h *Host) Delete(buf host.BufferID, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.marks, id)
	return nil
}

// --- host.BufferView ---

// Path returns the loaded file path.
func (h *Host) Path(buf host.BufferID) string {
	return h.path
}

// LineCount returns the number of lines.
func (h *Host) LineCount(buf host.BufferID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.lines)
}

// Line returns the content of a 1-based line.
func (h *Host) Line(buf host.BufferID, line int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if line < 1 || line > len(h.lines) {
		return "", false
	}
	return h.lines[line-1], true
}

// Cursor returns the cursor position.
func (h *Host) Cursor(buf host.BufferID) (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursorLine, h.cursorCol
}

// SetCursor moves the cursor, clamped to the buffer, and scrolls the
// viewport to keep it visible.
func (h *Host) SetCursor(buf host.BufferID, line, col int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursorLine = clamp(line, 1, len(h.lines))
	h.cursorCol = col
	h.scrollIntoView()
}

// CenterOn scrolls the view so the line is vertically centered.
func (h *Host) CenterOn(buf host.BufferID, line int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topLine = clamp(line-h.height/2, 1, maxTop(len(h.lines), h.height))
}

// Category returns "file" for the demo buffer.
func (h *Host) Category(buf host.BufferID) string {
	return "file"
}

// FileType returns the extension-derived file type.
func (h *Host) FileType(buf host.BufferID) string {
	return h.fileType
}

// --- host.DecorationSurface ---

// Place records a decoration under a fresh handle.
func (h *Host) Place(buf host.BufferID, spec host.DecorSpec) (host.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle := host.Handle(uuid.NewString())
	h.decors[handle] = spec
	return handle, nil
}

// Remove deletes a decoration by handle.
func (h *Host) Remove(buf host.BufferID, handle host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.decors, handle)
	return nil
}

// --- host.Notifier ---

// Info shows a message on the status line.
func (h *Host) Info(format string, args ...any) {
	h.setStatus(fmt.Sprintf(format, args...))
}

// Warn shows a warning on the status line.
func (h *Host) Warn(format string, args ...any) {
	h.setStatus("warning: " + fmt.Sprintf(format, args...))
}

// Error shows an error on the status line.
func (h *Host) Error(format string, args ...any) {
	h.setStatus("error: " + fmt.Sprintf(format, args...))
}

func (h *Host) setStatus(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = msg
}

// --- viewport helpers ---

// MoveCursor shifts the cursor by delta lines.
func (h *Host) MoveCursor(delta int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursorLine = clamp(h.cursorLine+delta, 1, len(h.lines))
	h.scrollIntoView()
	return h.cursorLine
}

// JumpCursor moves the cursor to an absolute line.
func (h *Host) JumpCursor(line int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursorLine = clamp(line, 1, len(h.lines))
	h.scrollIntoView()
	return h.cursorLine
}

// scrollIntoView keeps the cursor inside the viewport. Must be called with
// the lock held.
func (h *Host) scrollIntoView() {
	if h.cursorLine < h.topLine {
		h.topLine = h.cursorLine
	}
	if h.cursorLine >= h.topLine+h.height {
		h.topLine = h.cursorLine - h.height + 1
	}
	h.topLine = clamp(h.topLine, 1, maxTop(len(h.lines), h.height))
}

// setHeight records the text area height after a resize.
func (h *Host) setHeight(height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.height = height
	h.scrollIntoView()
}

// snapshot returns the render inputs under one lock acquisition.
func (h *Host) snapshot() (lines []string, top, cursor int, decors []host.DecorSpec, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	decors = make([]host.DecorSpec, 0, len(h.decors))
	for _, spec := range h.decors {
		decors = append(decors, spec)
	}
	return h.lines, h.topLine, h.cursorLine, decors, h.status
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxTop(lineCount, height int) int {
	top := lineCount - height + 1
	if top < 1 {
		return 1
	}
	return top
}
