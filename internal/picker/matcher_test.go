package picker

import "testing"

func entriesFor(previews ...string) []Entry {
	out := make([]Entry, len(previews))
	for i, p := range previews {
		out[i] = Entry{Glyph: "a", Line: i + 1, Preview: p}
	}
	return out
}

func TestFilterEmptyQueryPassthrough(t *testing.T) {
	entries := entriesFor("one", "two")
	got := Filter(entries, "   ")
	if len(got) != 2 || got[0].Preview != "one" {
		t.Fatalf("empty query must return entries unchanged, got %v", got)
	}
}

func TestFilterDropsNonMatches(t *testing.T) {
	entries := entriesFor("func main() {", "var count int", "return nil")
	got := Filter(entries, "count")
	if len(got) != 1 || got[0].Preview != "var count int" {
		t.Fatalf("Filter = %v, want only the count entry", got)
	}
}

func TestFilterSubsequence(t *testing.T) {
	entries := entriesFor("handle request body")
	if got := Filter(entries, "hrb"); len(got) != 1 {
		t.Fatal("subsequence across words should match")
	}
	if got := Filter(entries, "brh"); len(got) != 0 {
		t.Fatal("out-of-order runes must not match")
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	entries := entriesFor("HandleRequest")
	if got := Filter(entries, "HANDLE"); len(got) != 1 {
		t.Fatal("matching must ignore case")
	}
}

func TestFilterRanksTighterMatchesFirst(t *testing.T) {
	entries := entriesFor(
		"zzmzzazzizzn", // scattered match for "main"
		"func main() {", // consecutive match
	)
	got := Filter(entries, "main")
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Preview != "func main() {" {
		t.Errorf("consecutive match should rank first, got %q", got[0].Preview)
	}
}
