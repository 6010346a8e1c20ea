package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/marksman/internal/mark"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.lua"), nil); err == nil {
		t.Fatal("missing file must fail to load")
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeScript(t, "function glyph( -- broken")
	if _, err := Load(path, nil); err == nil {
		t.Fatal("broken script must fail to load")
	}
}

func TestGlyphHook(t *testing.T) {
	path := writeScript(t, `
function glyph(identifier, kind, line)
	if kind == "user" and identifier == "a" then
		return "@"
	end
	return nil
end
`)
	h, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if g, ok := h.Glyph("a", mark.KindUser, 3); !ok || g != "@" {
		t.Fatalf("Glyph = %q, %v, want @ true", g, ok)
	}
	if _, ok := h.Glyph("b", mark.KindUser, 3); ok {
		t.Fatal("nil return must decline the override")
	}
	if _, ok := h.Glyph("a", mark.KindBuiltin, 3); ok {
		t.Fatal("kind mismatch must decline the override")
	}
}

func TestGlyphHookUndefined(t *testing.T) {
	path := writeScript(t, "-- no hooks defined\n")
	h, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, ok := h.Glyph("a", mark.KindUser, 1); ok {
		t.Fatal("undefined glyph function must decline")
	}
}

func TestMutationHooks(t *testing.T) {
	path := writeScript(t, `
log = {}
function on_set(identifier, line)
	log[#log + 1] = "set " .. identifier .. " " .. line
end
function on_delete(identifier)
	log[#log + 1] = "del " .. identifier
end
function glyph(identifier, kind, line)
	return log[1]
end
`)
	h, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	h.OnSet("a", 7)
	h.OnDelete("a")

	// The glyph hook exposes the recorded log for inspection.
	if g, ok := h.Glyph("x", mark.KindUser, 1); !ok || g != "set a 7" {
		t.Fatalf("first log entry = %q, %v", g, ok)
	}
}

func TestHookErrorDegrades(t *testing.T) {
	path := writeScript(t, `
function glyph(identifier, kind, line)
	error("boom")
end
`)
	h, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	for i := 0; i < 3; i++ {
		if _, ok := h.Glyph("a", mark.KindUser, 1); ok {
			t.Fatal("erroring hook must decline")
		}
	}
}

func TestCallAfterClose(t *testing.T) {
	path := writeScript(t, "function on_set(i, l) end\n")
	h, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.Close()
	h.Close()

	// Calls after Close are safe no-ops.
	h.OnSet("a", 1)
	if _, ok := h.Glyph("a", mark.KindUser, 1); ok {
		t.Fatal("closed hooks must decline")
	}
}
