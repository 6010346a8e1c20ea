// Package mark defines Marksman's enriched view over the host's mark table
// and the collector that produces it.
//
// The host owns position truth. Every View is derived from the live mark
// table at query time and is never cached across host-state changes: a view
// captured before a delete or undo is stale and must not be rendered, so
// the collector recomputes from host truth on every call.
package mark

// Kind classifies a mark identifier. The classification is decided once at
// collection time, never re-derived by pattern matching at use sites.
type Kind uint8

const (
	// KindUser is a user-assignable lowercase-letter mark (a-z).
	KindUser Kind = iota

	// KindBuiltin is a host-maintained positional mark (last change,
	// last insert, selection bounds).
	KindBuiltin

	// KindDerived is a read-only pseudo-mark sourced from an external
	// tool, such as a version-control change hunk.
	KindDerived
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindBuiltin:
		return "builtin"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// Built-in identifiers the collector recognizes.
var builtinIdentifiers = map[string]struct{}{
	"'": {},
	"^": {},
	".": {},
	"<": {},
	">": {},
}

// IsUserLetter reports whether id is exactly one lowercase letter a-z.
func IsUserLetter(id string) bool {
	return len(id) == 1 && id[0] >= 'a' && id[0] <= 'z'
}

// Classify determines the kind of a mark identifier. The second return is
// false for identifiers Marksman does not handle (uppercase file marks,
// numbered marks, unknown symbols).
func Classify(id string) (Kind, bool) {
	if IsUserLetter(id) {
		return KindUser, true
	}
	if _, ok := builtinIdentifiers[id]; ok {
		return KindBuiltin, true
	}
	if len(id) > 4 && id[:4] == "git:" {
		return KindDerived, true
	}
	return 0, false
}

// Presentation carries the configuration-resolved visual attributes of a
// view. Attributes are resolved once at collection time so the decoration
// engine never consults configuration per channel.
type Presentation struct {
	// SignGlyph is the sign-column glyph, empty when the sign channel is
	// suppressed for this view.
	SignGlyph string

	// LineNumberGroup is the highlight group for the line-number channel,
	// empty when disabled.
	LineNumberGroup string

	// VirtualText is the trailing virtual text, empty when the channel
	// is disabled.
	VirtualText string

	// ShowInPicker includes this view in picker entries.
	ShowInPicker bool

	// Navigable makes this view a jump target for next/previous
	// navigation and picker jumps.
	Navigable bool
}

// View is one enriched mark as seen at collection time.
type View struct {
	// Identifier is the letter, built-in symbol, or derived tag.
	Identifier string

	// Line is the 1-based line, valid in the buffer snapshot the view
	// was collected from.
	Line int

	// Kind is the identifier class.
	Kind Kind

	// DisplayText is the trimmed content of the marked line, captured at
	// query time.
	DisplayText string

	// CreatedAt is the unix timestamp the mark was set at, or 0 when
	// unknown. Only user marks carry timestamps.
	CreatedAt int64

	// Presentation holds the resolved visual attributes.
	Presentation Presentation
}

// Highlight groups emitted by Marksman decorations.
const (
	GroupLine          = "MarksmanLine"
	GroupNumber        = "MarksmanNumber"
	GroupNumberBuiltin = "MarksmanNumberBuiltin"
	GroupNumberDerived = "MarksmanNumberDerived"
	GroupSign          = "MarksmanSign"
	GroupVirtual       = "MarksmanVirtual"
)
