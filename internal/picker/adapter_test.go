package picker

import (
	"testing"

	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/mark"
)

const testBuf host.BufferID = 1

// stubCollector returns fixed views.
type stubCollector []mark.View

func (s stubCollector) Collect(buf host.BufferID) []mark.View { return s }

// stubNav records façade calls.
type stubNav struct {
	jumpedTo int
	deleted  string
}

func (n *stubNav) Jump(buf host.BufferID, line int) { n.jumpedTo = line }
func (n *stubNav) Delete(buf host.BufferID, letter string) error {
	n.deleted = letter
	return nil
}

func view(id string, line int, kind mark.Kind, picker bool) mark.View {
	return mark.View{
		Identifier:  id,
		Line:        line,
		Kind:        kind,
		DisplayText: "text on line",
		Presentation: mark.Presentation{
			SignGlyph:    id,
			ShowInPicker: picker,
			Navigable:    true,
		},
	}
}

func TestEntriesFilterAndOrder(t *testing.T) {
	collector := stubCollector{
		view("a", 3, mark.KindUser, true),
		view("'", 5, mark.KindBuiltin, false),
		view("b", 9, mark.KindUser, true),
	}
	a := New(collector, &stubNav{})

	entries := a.Entries(testBuf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (hidden views filtered)", len(entries))
	}
	if entries[0].Identifier != "a" || entries[1].Identifier != "b" {
		t.Errorf("entries out of collector order: %v", entries)
	}
}

func TestEntryFallbacks(t *testing.T) {
	v := view("a", 1, mark.KindUser, true)
	v.Presentation.SignGlyph = ""
	v.Presentation.LineNumberGroup = ""
	a := New(stubCollector{v}, &stubNav{})

	e := a.Entries(testBuf)[0]
	if e.Glyph != "a" {
		t.Errorf("glyph fallback = %q, want identifier", e.Glyph)
	}
	if e.Group != mark.GroupSign {
		t.Errorf("group fallback = %q, want %q", e.Group, mark.GroupSign)
	}
}

func TestJump(t *testing.T) {
	nav := &stubNav{}
	a := New(stubCollector{}, nav)

	a.Jump(testBuf, Entry{Line: 7, Navigable: true})
	if nav.jumpedTo != 7 {
		t.Fatalf("jumped to %d, want 7", nav.jumpedTo)
	}

	nav.jumpedTo = 0
	a.Jump(testBuf, Entry{Line: 9, Navigable: false})
	if nav.jumpedTo != 0 {
		t.Fatal("non-navigable entry must not jump")
	}
}

func TestDelete(t *testing.T) {
	nav := &stubNav{}
	a := New(stubCollector{}, nav)

	if err := a.Delete(testBuf, Entry{Identifier: "a", Kind: mark.KindUser}); err != nil {
		t.Fatal(err)
	}
	if nav.deleted != "a" {
		t.Fatalf("deleted %q, want a", nav.deleted)
	}

	nav.deleted = ""
	for _, kind := range []mark.Kind{mark.KindBuiltin, mark.KindDerived} {
		if err := a.Delete(testBuf, Entry{Identifier: "x", Kind: kind}); err == nil {
			t.Errorf("%v entry deleted without error", kind)
		}
	}
	if nav.deleted != "" {
		t.Fatal("read-only delete reached the façade")
	}
}

func TestLabel(t *testing.T) {
	e := Entry{Glyph: "a", Line: 42, Preview: "func main() {"}
	want := "a   42 func main() {"
	if got := e.Label(); got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}
