// Package host defines the capability interfaces Marksman consumes from the
// editor it augments. The host owns mark storage, buffer text, the cursor,
// and the decoration primitives; Marksman only reads mark positions, issues
// mark set/delete commands, and places decorations through opaque handles.
//
// Every component takes these interfaces as constructor dependencies.
// There are no ambient globals, which keeps the whole system fakeable in
// tests (see the hosttest package).
package host

// BufferID identifies an open buffer. Values are host-assigned and opaque
// to Marksman; they are only used as map keys.
type BufferID int64

// Mark is a raw host mark as reported by the mark table: an identifier
// bound to a 1-based line and 0-based column.
type Mark struct {
	ID   string
	Line int
	Col  int
}

// MarkSource is the host's authoritative mark table.
type MarkSource interface {
	// List returns all marks currently set in the buffer.
	List(buf BufferID) ([]Mark, error)

	// Set binds the identifier to the given position.
	Set(buf BufferID, id string, line, col int) error

	// Delete removes the mark with the given identifier.
	// Deleting an absent mark is not an error.
	Delete(buf BufferID, id string) error
}

// BufferView exposes read access to buffer content and cursor control.
type BufferView interface {
	// Path returns the absolute path backing the buffer, or "" for
	// buffers with no file.
	Path(buf BufferID) string

	// LineCount returns the number of lines in the buffer.
	LineCount(buf BufferID) int

	// Line returns the content of a 1-based line. The second return is
	// false when the line does not exist in the current snapshot.
	Line(buf BufferID, line int) (string, bool)

	// Cursor returns the current cursor position (1-based line,
	// 0-based column).
	Cursor(buf BufferID) (line, col int)

	// SetCursor moves the cursor.
	SetCursor(buf BufferID, line, col int)

	// CenterOn scrolls the view so the line is vertically centered.
	CenterOn(buf BufferID, line int)

	// Category returns the host's buffer category (e.g. "file", "help",
	// "terminal"). Used for exclusion matching.
	Category(buf BufferID) string

	// FileType returns the detected file type (e.g. "go", "markdown").
	FileType(buf BufferID) string
}

// Notifier delivers user-visible messages through the host's message area.
type Notifier interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
