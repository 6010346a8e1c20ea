// Package script loads an optional user Lua file and exposes its hooks to
// the rest of the system: a sign-glyph override and set/delete callbacks.
//
// Recognized globals in the hook file:
//
//	function glyph(identifier, kind, line) -> string
//	function on_set(identifier, line)
//	function on_delete(identifier)
//
// Hook failures are logged (once per hook) and their results discarded;
// a broken script never affects a mark operation.
package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/marksman/internal/logging"
	"github.com/dshills/marksman/internal/mark"
)

// Hook global names.
const (
	fnGlyph    = "glyph"
	fnOnSet    = "on_set"
	fnOnDelete = "on_delete"
)

// Hooks wraps a loaded Lua state. gopher-lua states are not
// goroutine-safe; the mutex serializes all calls.
type Hooks struct {
	mu sync.Mutex

	state    *lua.LState
	log      *logging.Logger
	reported map[string]bool
	closed   bool
}

// Load reads and executes the hook file. A load or parse failure is
// returned to the caller; the session reports it and runs without hooks.
func Load(path string, log *logging.Logger) (*Hooks, error) {
	if log == nil {
		log = logging.Null
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(open.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(open.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("opening lua library %s: %w", open.name, err)
		}
	}

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading hook script %s: %w", path, err)
	}

	return &Hooks{
		state:    L,
		log:      log.WithComponent("script"),
		reported: make(map[string]bool),
	}, nil
}

// Close releases the Lua state.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.state.Close()
}

// Glyph asks the script for a sign glyph override. The second return is
// false when the script defines no glyph function, errors, or returns a
// non-string or empty value. Satisfies mark.GlyphResolver.
func (h *Hooks) Glyph(identifier string, kind mark.Kind, line int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	result, ok := h.call(fnGlyph, 1,
		lua.LString(identifier), lua.LString(kind.String()), lua.LNumber(line))
	if !ok {
		return "", false
	}
	s, isStr := result.(lua.LString)
	if !isStr || s == "" {
		return "", false
	}
	return string(s), true
}

// OnSet notifies the script of a new mark. Satisfies control.Hooks.
func (h *Hooks) OnSet(identifier string, line int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.call(fnOnSet, 0, lua.LString(identifier), lua.LNumber(line))
}

// OnDelete notifies the script of a removed mark. Satisfies control.Hooks.
func (h *Hooks) OnDelete(identifier string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.call(fnOnDelete, 0, lua.LString(identifier))
}

// call invokes a hook global if it is a function. Must be called with the
// lock held. Returns the first result when nret > 0.
func (h *Hooks) call(name string, nret int, args ...lua.LValue) (lua.LValue, bool) {
	if h.closed {
		return lua.LNil, false
	}
	fn := h.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, false
	}

	if err := h.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    nret,
		Protect: true,
	}, args...); err != nil {
		if !h.reported[name] {
			h.reported[name] = true
			h.log.Warn("lua hook %s failed: %v", name, err)
		}
		return lua.LNil, false
	}

	if nret == 0 {
		return lua.LNil, true
	}
	result := h.state.Get(-1)
	h.state.Pop(1)
	return result, true
}
