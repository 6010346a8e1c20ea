// Package hosttest provides an in-memory fake host for testing. It
// implements every capability interface Marksman consumes: the mark table,
// buffer views, the decoration surface, and the notifier.
package hosttest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/marksman/internal/host"
)

// Notification is one recorded user-visible message.
type Notification struct {
	Level   string // "info", "warn", "error"
	Message string
}

// buffer is one fake open buffer.
type buffer struct {
	path       string
	lines      []string
	cursorLine int
	cursorCol  int
	category   string
	fileType   string
	centered   int
}

// Host is the fake. The zero value is not usable; call New.
type Host struct {
	mu sync.Mutex

	buffers map[host.BufferID]*buffer
	marks   map[host.BufferID]map[string]host.Mark
	decors  map[host.BufferID]map[host.Handle]host.DecorSpec

	notifications []Notification

	// ListErr, SetErr, DeleteErr inject mark table failures.
	ListErr   error
	SetErr    error
	DeleteErr error

	// PlaceErr injects decoration failures.
	PlaceErr error
}

// New creates an empty fake host.
func New() *Host {
	return &Host{
		buffers: make(map[host.BufferID]*buffer),
		marks:   make(map[host.BufferID]map[string]host.Mark),
		decors:  make(map[host.BufferID]map[host.Handle]host.DecorSpec),
	}
}

// AddBuffer registers a buffer with content. Category defaults to "file".
func (h *Host) AddBuffer(id host.BufferID, path string, lines ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffers[id] = &buffer{
		path:       path,
		lines:      lines,
		cursorLine: 1,
		category:   "file",
	}
	h.marks[id] = make(map[string]host.Mark)
	h.decors[id] = make(map[host.Handle]host.DecorSpec)
}

// SetCategory overrides a buffer's category.
func (h *Host) SetCategory(id host.BufferID, category string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffers[id].category = category
}

// SetFileType overrides a buffer's file type.
func (h *Host) SetFileType(id host.BufferID, ft string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffers[id].fileType = ft
}

// SetLines replaces a buffer's content, simulating an edit.
func (h *Host) SetLines(id host.BufferID, lines ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffers[id].lines = lines
}

// --- host.MarkSource ---

// List returns all marks in the buffer.
func (h *Host) List(buf host.BufferID) ([]host.Mark, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ListErr != nil {
		return nil, h.ListErr
	}
	out := make([]host.Mark, 0, len(h.marks[buf]))
	for _, m := range h.marks[buf] {
		out = append(out, m)
	}
	return out, nil
}

// Set binds an identifier to a position.
func (h *Host) Set(buf host.BufferID, id string, line, col int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SetErr != nil {
		return h.SetErr
	}
	if _, ok := h.marks[buf]; !ok {
		return fmt.Errorf("no buffer %d", buf)
	}
	h.marks[buf][id] = host.Mark{ID: id, Line: line, Col: col}
	return nil
}

// Delete removes a mark.
func (h *Host) Delete(buf host.BufferID, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.DeleteErr != nil {
		return h.DeleteErr
	}
	delete(h.marks[buf], id)
	return nil
}

// Mark returns the raw mark for an identifier, if set.
func (h *Host) Mark(buf host.BufferID, id string) (host.Mark, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.marks[buf][id]
	return m, ok
}

// MarkCount returns the number of marks set in the buffer.
func (h *Host) MarkCount(buf host.BufferID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.marks[buf])
}

// --- host.BufferView ---

// Path returns the buffer's backing path.
func (h *Host) Path(buf host.BufferID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		return b.path
	}
	return ""
}

// LineCount returns the number of lines.
func (h *Host) LineCount(buf host.BufferID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		return len(b.lines)
	}
	return 0
}

// Line returns the content of a 1-based line.
func (h *Host) Line(buf host.BufferID, line int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[buf]
	if !ok || line < 1 || line > len(b.lines) {
		return "", false
	}
	return b.lines[line-1], true
}

// Cursor returns the cursor position.
func (h *Host) Cursor(buf host.BufferID) (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		return b.cursorLine, b.cursorCol
	}
	return 1, 0
}

// SetCursor moves the cursor.
func (h *Host) SetCursor(buf host.BufferID, line, col int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		b.cursorLine, b.cursorCol = line, col
	}
}

// CenterOn records the last centered line.
func (h *Host) CenterOn(buf host.BufferID, line int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		b.centered = line
	}
}

// Centered returns the last line CenterOn was called with.
func (h *Host) Centered(buf host.BufferID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		return b.centered
	}
	return 0
}

// Category returns the buffer category.
func (h *Host) Category(buf host.BufferID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		return b.category
	}
	return ""
}

// FileType returns the buffer file type.
func (h *Host) FileType(buf host.BufferID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.buffers[buf]; ok {
		return b.fileType
	}
	return ""
}

// --- host.DecorationSurface ---

// Place records a decoration and returns a fresh handle.
func (h *Host) Place(buf host.BufferID, spec host.DecorSpec) (host.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PlaceErr != nil {
		return "", h.PlaceErr
	}
	if _, ok := h.decors[buf]; !ok {
		h.decors[buf] = make(map[host.Handle]host.DecorSpec)
	}
	handle := host.Handle(uuid.NewString())
	h.decors[buf][handle] = spec
	return handle, nil
}

// Remove deletes a decoration by handle.
func (h *Host) Remove(buf host.BufferID, handle host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.decors[buf], handle)
	return nil
}

// Decorations returns all live decorations for a buffer.
func (h *Host) Decorations(buf host.BufferID) []host.DecorSpec {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.DecorSpec, 0, len(h.decors[buf]))
	for _, spec := range h.decors[buf] {
		out = append(out, spec)
	}
	return out
}

// DecorationsOn returns live decorations on one line, optionally filtered
// by channel.
func (h *Host) DecorationsOn(buf host.BufferID, line int, channels ...host.Channel) []host.DecorSpec {
	var out []host.DecorSpec
	for _, spec := range h.Decorations(buf) {
		if spec.Line != line {
			continue
		}
		if len(channels) > 0 {
			match := false
			for _, ch := range channels {
				if spec.Channel == ch {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, spec)
	}
	return out
}

// DecorationCount returns the number of live decorations for a buffer.
func (h *Host) DecorationCount(buf host.BufferID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.decors[buf])
}

// --- host.Notifier ---

// Info records an informational message.
func (h *Host) Info(format string, args ...any) {
	h.record("info", format, args...)
}

// Warn records a warning message.
func (h *Host) Warn(format string, args ...any) {
	h.record("warn", format, args...)
}

// Error records an error message.
func (h *Host) Error(format string, args ...any) {
	h.record("error", format, args...)
}

func (h *Host) record(level, format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, Notification{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// Notifications returns all recorded messages in order.
func (h *Host) Notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, len(h.notifications))
	copy(out, h.notifications)
	return out
}

// LastNotification returns the most recent message, if any.
func (h *Host) LastNotification() (Notification, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notifications) == 0 {
		return Notification{}, false
	}
	return h.notifications[len(h.notifications)-1], true
}

// ClearNotifications resets the recorded messages.
func (h *Host) ClearNotifications() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = nil
}

// Interface conformance.
var (
	_ host.MarkSource        = (*Host)(nil)
	_ host.BufferView        = (*Host)(nil)
	_ host.DecorationSurface = (*Host)(nil)
	_ host.Notifier          = (*Host)(nil)
)
