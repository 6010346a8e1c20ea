// Package nightvision is the decoration engine: it owns the mapping from
// collected mark views to on-screen decorations, per open buffer.
//
// Two update modes exist and are never conflated: Refresh is a full
// clear-and-redraw from current mark truth, removal strictly by tracked
// handle; OnCursorMoved is the incremental path that replaces only the
// virtual-text decorations whose cursor membership changed, bounding the
// per-keystroke cost to O(changed lines).
package nightvision

import (
	"sort"
	"sync"

	"github.com/dshills/marksman/internal/config"
	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/logging"
	"github.com/dshills/marksman/internal/mark"
)

// CollectFunc produces the current mark views for a buffer. It is
// late-bound (setter injection) to break the cycle between the engine and
// the mutation façade's collector.
type CollectFunc func(buf host.BufferID) []mark.View

// Engine owns per-buffer visual state. No other component mutates the
// handle maps; hosts with real concurrency get the single-threaded
// guarantees back from the engine mutex.
type Engine struct {
	mu sync.Mutex

	surface host.DecorationSurface
	view    host.BufferView
	collect CollectFunc
	opts    func() config.Options
	log     *logging.Logger

	states map[host.BufferID]*bufferState
}

// New creates an engine. The collect function is wired afterwards via
// SetCollector.
func New(surface host.DecorationSurface, view host.BufferView, opts func() config.Options, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Null
	}
	return &Engine{
		surface: surface,
		view:    view,
		opts:    opts,
		log:     log.WithComponent("nightvision"),
		states:  make(map[host.BufferID]*bufferState),
	}
}

// SetCollector installs the mark collection function. Must be called once
// during wiring, before any event reaches the engine.
func (e *Engine) SetCollector(collect CollectFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collect = collect
}

// excluded reports whether configuration keeps Night Vision away from the
// buffer entirely.
func (e *Engine) excluded(buf host.BufferID, opts config.Options) bool {
	return opts.ExcludesCategory(e.view.Category(buf)) ||
		opts.ExcludesFileType(e.view.FileType(buf))
}

// State returns the lifecycle state for a buffer.
func (e *Engine) State(buf host.BufferID) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[buf]
	if !ok {
		return StateUninitialized
	}
	if st.enabled {
		return StateOn
	}
	return StateOff
}

// Enabled reports whether Night Vision is on for the buffer.
func (e *Engine) Enabled(buf host.BufferID) bool {
	return e.State(buf) == StateOn
}

// EnsureBuffer seeds a buffer's state from the global default on first
// enter. Excluded buffers stay uninitialized and permanently inert.
func (e *Engine) EnsureBuffer(buf host.BufferID) {
	opts := e.opts()

	e.mu.Lock()
	if _, ok := e.states[buf]; ok || e.excluded(buf, opts) {
		e.mu.Unlock()
		return
	}
	if !opts.Enabled {
		e.states[buf] = &bufferState{lines: make(map[int]*lineState)}
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.Refresh(buf)
}

// Refresh fully recomputes and reapplies all decorations for a buffer from
// current mark truth. Idempotent; always safe to call repeatedly. A refresh
// on an excluded buffer is a no-op.
func (e *Engine) Refresh(buf host.BufferID) {
	opts := e.opts()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.excluded(buf, opts) {
		return
	}

	st, ok := e.states[buf]
	if !ok {
		st = &bufferState{lines: make(map[int]*lineState)}
		e.states[buf] = st
	}

	e.clearLocked(buf, st)
	st.enabled = true

	if e.collect == nil {
		return
	}

	cursorLine, _ := e.view.Cursor(buf)
	for _, plan := range e.plan(buf, opts) {
		ls := &lineState{virtualText: plan.virtualText}

		if plan.lineHL {
			e.place(buf, ls, host.DecorSpec{
				Line:    plan.line,
				Channel: host.ChannelLineHighlight,
				Group:   mark.GroupLine,
			})
		}
		if plan.numberGroup != "" {
			e.place(buf, ls, host.DecorSpec{
				Line:    plan.line,
				Channel: host.ChannelLineNumber,
				Group:   plan.numberGroup,
			})
		}
		if plan.signGlyph != "" {
			e.place(buf, ls, host.DecorSpec{
				Line:    plan.line,
				Channel: host.ChannelSign,
				Group:   mark.GroupSign,
				Text:    plan.signGlyph,
			})
		}

		ls.cursorOn = plan.line == cursorLine
		if ls.virtualText != "" && !ls.cursorOn {
			ls.virtual = e.placeVirtual(buf, plan.line, ls.virtualText)
		}

		st.lines[plan.line] = ls
	}
}

// linePlan is the merged decoration set for one line: at most one
// decoration per channel.
type linePlan struct {
	line        int
	lineHL      bool
	numberGroup string
	signGlyph   string
	virtualText string
}

// plan folds the collector's ordered views into per-line channel winners,
// returned in ascending line order. Within a line, first-writer-wins by the
// collector's sort order, except the sign channel which follows the
// configured user-vs-other precedence.
func (e *Engine) plan(buf host.BufferID, opts config.Options) []*linePlan {
	views := e.collect(buf)

	plans := make(map[int]*linePlan, len(views))
	userSign := make(map[int]string)
	otherSign := make(map[int]string)

	for _, v := range views {
		p, ok := plans[v.Line]
		if !ok {
			p = &linePlan{line: v.Line}
			plans[v.Line] = p
		}

		if opts.LineHighlight && v.Kind == mark.KindUser {
			p.lineHL = true
		}
		if p.numberGroup == "" {
			p.numberGroup = v.Presentation.LineNumberGroup
		}
		if p.virtualText == "" {
			p.virtualText = v.Presentation.VirtualText
		}
		if g := v.Presentation.SignGlyph; g != "" {
			if v.Kind == mark.KindUser {
				if _, set := userSign[v.Line]; !set {
					userSign[v.Line] = g
				}
			} else if _, set := otherSign[v.Line]; !set {
				otherSign[v.Line] = g
			}
		}
	}

	ordered := make([]*linePlan, 0, len(plans))
	for line, p := range plans {
		p.signGlyph = pickSign(userSign[line], otherSign[line], opts.SignPrecedence)
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].line < ordered[j].line })
	return ordered
}

// pickSign resolves the sign-column winner for a line carrying both a user
// mark and a built-in/derived mark.
func pickSign(user, other, precedence string) string {
	if precedence == config.PrecedenceOther {
		if other != "" {
			return other
		}
		return user
	}
	if user != "" {
		return user
	}
	return other
}

// OnCursorMoved is the incremental update path, run on every cursor
// movement. It replaces only the virtual-text decorations whose cursor
// membership changed and never touches the refresh-only channels.
func (e *Engine) OnCursorMoved(buf host.BufferID, newLine int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[buf]
	if !ok || !st.enabled {
		return
	}

	for line, ls := range st.lines {
		if ls.virtualText == "" {
			continue
		}
		on := line == newLine
		if on == ls.cursorOn {
			continue
		}
		if ls.virtual != "" {
			if err := e.surface.Remove(buf, ls.virtual); err != nil {
				e.log.Debug("virtual text removal failed on line %d: %v", line, err)
			}
			ls.virtual = ""
		}
		if !on {
			ls.virtual = e.placeVirtual(buf, line, ls.virtualText)
		}
		ls.cursorOn = on
	}
}

// Toggle flips Night Vision for one buffer. Turning off fully clears the
// buffer's decorations; other buffers are untouched. Turning on performs a
// full refresh. Returns the resulting state.
func (e *Engine) Toggle(buf host.BufferID) State {
	opts := e.opts()

	e.mu.Lock()
	if e.excluded(buf, opts) {
		e.mu.Unlock()
		return StateUninitialized
	}
	st, ok := e.states[buf]
	if ok && st.enabled {
		e.clearLocked(buf, st)
		st.enabled = false
		e.mu.Unlock()
		return StateOff
	}
	e.mu.Unlock()

	e.Refresh(buf)
	return e.State(buf)
}

// Teardown drops all state for a closed buffer. The host discards the
// buffer's decorations with the buffer itself.
func (e *Engine) Teardown(buf host.BufferID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, buf)
}

// RefreshAll re-renders every active buffer, clearing buffers that became
// excluded by a configuration change.
func (e *Engine) RefreshAll() {
	opts := e.opts()

	e.mu.Lock()
	var active, stale []host.BufferID
	for buf, st := range e.states {
		if e.excluded(buf, opts) {
			e.clearLocked(buf, st)
			stale = append(stale, buf)
			continue
		}
		if st.enabled {
			active = append(active, buf)
		}
	}
	for _, buf := range stale {
		delete(e.states, buf)
	}
	e.mu.Unlock()

	for _, buf := range active {
		e.Refresh(buf)
	}
}

// RenderedLines returns the currently decorated lines for a buffer in
// ascending order.
func (e *Engine) RenderedLines(buf host.BufferID) []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[buf]
	if !ok {
		return nil
	}
	lines := st.renderedLines()
	sort.Ints(lines)
	return lines
}

// HandleCount returns the number of live decoration handles for a buffer.
func (e *Engine) HandleCount(buf host.BufferID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[buf]
	if !ok {
		return 0
	}
	return st.handleCount()
}

// clearLocked removes every tracked handle for a buffer. Must be called
// with the engine lock held.
func (e *Engine) clearLocked(buf host.BufferID, st *bufferState) {
	for line, ls := range st.lines {
		for _, h := range ls.static {
			if err := e.surface.Remove(buf, h); err != nil {
				e.log.Debug("decoration removal failed on line %d: %v", line, err)
			}
		}
		if ls.virtual != "" {
			if err := e.surface.Remove(buf, ls.virtual); err != nil {
				e.log.Debug("virtual text removal failed on line %d: %v", line, err)
			}
		}
	}
	st.lines = make(map[int]*lineState)
}

// place creates a refresh-only decoration and tracks its handle.
func (e *Engine) place(buf host.BufferID, ls *lineState, spec host.DecorSpec) {
	h, err := e.surface.Place(buf, spec)
	if err != nil {
		e.log.Debug("%s placement failed on line %d: %v", spec.Channel, spec.Line, err)
		return
	}
	ls.static = append(ls.static, h)
}

// placeVirtual creates a virtual-text decoration and returns its handle,
// or "" on failure.
func (e *Engine) placeVirtual(buf host.BufferID, line int, text string) host.Handle {
	h, err := e.surface.Place(buf, host.DecorSpec{
		Line:    line,
		Channel: host.ChannelVirtualText,
		Group:   mark.GroupVirtual,
		Text:    text,
	})
	if err != nil {
		e.log.Debug("virtual text placement failed on line %d: %v", line, err)
		return ""
	}
	return h
}
