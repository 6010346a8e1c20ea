package mark

import (
	"strings"

	"github.com/dshills/marksman/internal/config"
	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/logging"
)

// MetaReader is the collector's read-only view of the metadata store.
type MetaReader interface {
	// Get returns the creation timestamp for a user mark, or 0 when
	// unknown.
	Get(path, letter string) int64
}

// DerivedMark is one pseudo-mark reported by an external source.
type DerivedMark struct {
	// Line is the 1-based line of the change.
	Line int

	// Tag is the derived identifier, e.g. "git:add".
	Tag string
}

// DerivedSource supplies pseudo-marks for a document. Implementations must
// degrade to an empty result on failure; the collector never reports
// derived-source errors.
type DerivedSource interface {
	DerivedMarks(path string) []DerivedMark
}

// GlyphResolver lets a script hook override the sign glyph for a view.
// The second return is false when the hook declines.
type GlyphResolver func(identifier string, kind Kind, line int) (string, bool)

// Collector produces the ordered, deduplicated view of a buffer's marks.
type Collector struct {
	source  host.MarkSource
	view    host.BufferView
	meta    MetaReader
	derived DerivedSource
	opts    func() config.Options
	glyph   GlyphResolver
	log     *logging.Logger
}

// NewCollector creates a collector. meta, derived, and glyph may be nil.
func NewCollector(source host.MarkSource, view host.BufferView, meta MetaReader, opts func() config.Options, log *logging.Logger) *Collector {
	if log == nil {
		log = logging.Null
	}
	return &Collector{
		source: source,
		view:   view,
		meta:   meta,
		opts:   opts,
		log:    log.WithComponent("collector"),
	}
}

// SetDerivedSource installs the derived pseudo-mark source.
func (c *Collector) SetDerivedSource(src DerivedSource) {
	c.derived = src
}

// SetGlyphResolver installs a sign-glyph override hook.
func (c *Collector) SetGlyphResolver(g GlyphResolver) {
	c.glyph = g
}

// Collect reads the host mark table for the buffer and returns the ordered,
// deduplicated views. No error condition is fatal: an unreadable mark table
// or an empty buffer yields an empty list, and candidates whose positions no
// longer resolve to a valid line are silently dropped.
func (c *Collector) Collect(buf host.BufferID) []View {
	opts := c.opts()
	lineCount := c.view.LineCount(buf)
	path := c.view.Path(buf)

	raw, err := c.source.List(buf)
	if err != nil {
		c.log.Debug("mark table read failed for buffer %d: %v", buf, err)
		raw = nil
	}

	views := make([]View, 0, len(raw))
	for _, m := range raw {
		kind, ok := Classify(m.ID)
		if !ok {
			continue
		}
		if kind == KindBuiltin && !opts.Builtin[m.ID].Enabled {
			continue
		}
		text, ok := c.lineText(buf, m.Line, lineCount)
		if !ok {
			continue
		}

		v := View{
			Identifier:  m.ID,
			Line:        m.Line,
			Kind:        kind,
			DisplayText: text,
		}
		if kind == KindUser && c.meta != nil && path != "" {
			v.CreatedAt = c.meta.Get(path, m.ID)
		}
		v.Presentation = c.presentation(v, opts)
		views = append(views, v)
	}

	if opts.Derived.Enabled && c.derived != nil && path != "" {
		for _, dm := range c.derived.DerivedMarks(path) {
			text, ok := c.lineText(buf, dm.Line, lineCount)
			if !ok {
				continue
			}
			v := View{
				Identifier:  dm.Tag,
				Line:        dm.Line,
				Kind:        KindDerived,
				DisplayText: text,
			}
			v.Presentation = c.presentation(v, opts)
			views = append(views, v)
		}
	}

	Order(views, ParseStrategy(opts.Sort))
	dedupeTargets(views)
	return views
}

// lineText re-fetches the live content of a line, trimmed. The second
// return is false when the position no longer resolves (buffer shrank, mark
// cleared concurrently).
func (c *Collector) lineText(buf host.BufferID, line, lineCount int) (string, bool) {
	if line < 1 || line > lineCount {
		return "", false
	}
	text, ok := c.view.Line(buf, line)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(text), true
}

// presentation resolves the configuration-driven visual attributes for one
// view.
func (c *Collector) presentation(v View, opts config.Options) Presentation {
	p := Presentation{
		Navigable: true,
	}

	switch v.Kind {
	case KindUser:
		p.ShowInPicker = true
		p.LineNumberGroup = numberGroup(opts, GroupNumber)
		switch opts.SignMode {
		case config.SignModeLetter:
			p.SignGlyph = v.Identifier
		case config.SignModeNone:
			p.SignGlyph = ""
		default:
			p.SignGlyph = opts.SignMode
		}
		p.VirtualText = virtualText(opts.VirtualText, v.Identifier)
	case KindBuiltin:
		bm := opts.Builtin[v.Identifier]
		p.ShowInPicker = bm.ShowInPicker
		p.LineNumberGroup = numberGroup(opts, GroupNumberBuiltin)
		if opts.SignMode != config.SignModeNone {
			p.SignGlyph = bm.Glyph
		}
		p.VirtualText = virtualText(opts.VirtualText, v.Identifier)
	case KindDerived:
		p.ShowInPicker = opts.Derived.ShowInPicker
		p.LineNumberGroup = numberGroup(opts, GroupNumberDerived)
		if opts.SignMode != config.SignModeNone {
			p.SignGlyph = opts.Derived.Glyph
		}
		p.VirtualText = virtualText(opts.VirtualText, opts.Derived.Glyph)
	}

	if c.glyph != nil && p.SignGlyph != "" {
		if glyph, ok := c.glyph(v.Identifier, v.Kind, v.Line); ok {
			p.SignGlyph = glyph
		}
	}
	return p
}

// numberGroup returns the line-number highlight group, or "" when the
// channel is disabled.
func numberGroup(opts config.Options, group string) string {
	if !opts.LineNumberHighlight {
		return ""
	}
	return group
}

// virtualText resolves the virtual-text glyph for one view.
func virtualText(mode, letter string) string {
	switch mode {
	case "":
		return ""
	case config.SignModeLetter:
		return letter
	default:
		return mode
	}
}

// dedupeTargets enforces that the picker and navigation layers never see
// two jump targets for the same line within the same kind. Views keep their
// decorations; only the later duplicates (in sort order) lose their
// Navigable and ShowInPicker flags.
func dedupeTargets(views []View) {
	type key struct {
		line int
		kind Kind
	}
	seen := make(map[key]struct{}, len(views))
	for i := range views {
		k := key{line: views[i].Line, kind: views[i].Kind}
		if _, dup := seen[k]; dup {
			views[i].Presentation.Navigable = false
			views[i].Presentation.ShowInPicker = false
			continue
		}
		seen[k] = struct{}{}
	}
}
