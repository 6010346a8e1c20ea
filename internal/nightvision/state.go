package nightvision

import "github.com/dshills/marksman/internal/host"

// State is the per-buffer lifecycle state. Buffers excluded by
// configuration never leave StateUninitialized.
type State uint8

const (
	// StateUninitialized means Night Vision has never touched the buffer.
	StateUninitialized State = iota

	// StateOff means decorations are cleared and passive events are
	// ignored for the buffer.
	StateOff

	// StateOn means decorations reflect the most recent refresh.
	StateOn
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOff:
		return "off"
	case StateOn:
		return "on"
	default:
		return "unknown"
	}
}

// lineState tracks the decorations placed on one line at the last refresh,
// keyed by handle for O(1) removal without touching decorations owned by
// other features.
type lineState struct {
	// static holds the refresh-only handles: line highlight, line-number
	// highlight, gutter sign.
	static []host.Handle

	// virtual is the trailing-text handle, empty while hidden.
	virtual host.Handle

	// virtualText is the text to render when the cursor is off the line.
	// Empty means the channel is disabled for this line.
	virtualText string

	// cursorOn records whether the cursor sat on this line at the last
	// render of the virtual channel.
	cursorOn bool
}

// bufferState is the visual state for one buffer. It exists independently
// per buffer; no cross-buffer ordering or sharing.
type bufferState struct {
	enabled bool
	lines   map[int]*lineState
}

// renderedLines returns the decorated line numbers, unordered.
func (b *bufferState) renderedLines() []int {
	lines := make([]int, 0, len(b.lines))
	for line := range b.lines {
		lines = append(lines, line)
	}
	return lines
}

// handleCount returns the number of live decoration handles.
func (b *bufferState) handleCount() int {
	n := 0
	for _, ls := range b.lines {
		n += len(ls.static)
		if ls.virtual != "" {
			n++
		}
	}
	return n
}
