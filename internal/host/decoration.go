package host

// Channel identifies the decoration channel a placement targets. A line
// carries at most one decoration per channel.
type Channel uint8

const (
	// ChannelLineHighlight is a full-line background highlight.
	ChannelLineHighlight Channel = iota

	// ChannelLineNumber recolors the line-number cell in the gutter.
	ChannelLineNumber

	// ChannelSign places a glyph in the sign column.
	ChannelSign

	// ChannelVirtualText appends trailing virtual text after the line
	// content.
	ChannelVirtualText
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelLineHighlight:
		return "line-highlight"
	case ChannelLineNumber:
		return "line-number"
	case ChannelSign:
		return "sign"
	case ChannelVirtualText:
		return "virtual-text"
	default:
		return "unknown"
	}
}

// Handle is an opaque token identifying one placed decoration. Handles are
// host-generated and valid until removed; they allow O(1) removal without
// touching decorations owned by other features.
type Handle string

// DecorSpec describes a single decoration placement.
type DecorSpec struct {
	// Line is the 1-based line to decorate.
	Line int

	// Channel selects the decoration channel.
	Channel Channel

	// Group is the highlight group to style the decoration with.
	Group string

	// Text is the glyph for sign placements or the trailing text for
	// virtual-text placements. Ignored for highlight channels.
	Text string
}

// DecorationSurface is the host's decoration primitive. All placements made
// by Marksman go through one surface and are removed individually by handle,
// never by range clears that could hit other features' decorations.
type DecorationSurface interface {
	// Place creates a decoration and returns its handle.
	Place(buf BufferID, spec DecorSpec) (Handle, error)

	// Remove deletes a previously placed decoration. Removing an unknown
	// handle is not an error.
	Remove(buf BufferID, h Handle) error
}
