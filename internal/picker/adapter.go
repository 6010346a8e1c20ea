// Package picker translates collector output into list entries for an
// external picker/browser widget and wires its selection and delete actions
// back through the mutation façade. The widget itself (fuzzy list UI, key
// dispatch) is host territory; this adapter only supplies data and
// callbacks, and never mutates host state directly.
package picker

import (
	"fmt"

	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/mark"
)

// Entry is one read-only picker row.
type Entry struct {
	// Identifier is the mark letter, built-in symbol, or derived tag.
	Identifier string

	// Glyph is the display glyph, falling back to the identifier when
	// the sign channel is suppressed.
	Glyph string

	// Line is the 1-based mark line.
	Line int

	// Preview is the trimmed content of the marked line.
	Preview string

	// Group is the highlight group for the row.
	Group string

	// Kind is the mark class.
	Kind mark.Kind

	// Navigable marks the entry as a valid jump target.
	Navigable bool
}

// Label renders the row text the picker matches against.
func (e Entry) Label() string {
	return fmt.Sprintf("%s %4d %s", e.Glyph, e.Line, e.Preview)
}

// Navigator is the façade surface the adapter routes actions through.
type Navigator interface {
	Jump(buf host.BufferID, line int)
	Delete(buf host.BufferID, letter string) error
}

// Collector produces the current ordered mark views.
type Collector interface {
	Collect(buf host.BufferID) []mark.View
}

// Adapter builds entries and dispatches picker actions.
type Adapter struct {
	collector Collector
	nav       Navigator
}

// New creates an adapter.
func New(collector Collector, nav Navigator) *Adapter {
	return &Adapter{collector: collector, nav: nav}
}

// Entries returns the picker rows for a buffer, in collector order,
// restricted to views configured as picker-visible.
func (a *Adapter) Entries(buf host.BufferID) []Entry {
	views := a.collector.Collect(buf)

	entries := make([]Entry, 0, len(views))
	for _, v := range views {
		if !v.Presentation.ShowInPicker {
			continue
		}
		glyph := v.Presentation.SignGlyph
		if glyph == "" {
			glyph = v.Identifier
		}
		group := v.Presentation.LineNumberGroup
		if group == "" {
			group = mark.GroupSign
		}
		entries = append(entries, Entry{
			Identifier: v.Identifier,
			Glyph:      glyph,
			Line:       v.Line,
			Preview:    v.DisplayText,
			Group:      group,
			Kind:       v.Kind,
			Navigable:  v.Presentation.Navigable,
		})
	}
	return entries
}

// Jump moves to an entry's line through the façade. Non-navigable entries
// are ignored.
func (a *Adapter) Jump(buf host.BufferID, e Entry) {
	if !e.Navigable {
		return
	}
	a.nav.Jump(buf, e.Line)
}

// Delete removes an entry's mark through the façade. Only user marks are
// deletable; built-in and derived entries are read-only.
func (a *Adapter) Delete(buf host.BufferID, e Entry) error {
	if e.Kind != mark.KindUser {
		return fmt.Errorf("mark %s is read-only", e.Identifier)
	}
	return a.nav.Delete(buf, e.Identifier)
}
