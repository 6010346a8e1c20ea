// Package control is the navigation/mutation façade over the host mark
// table: set, auto-assign, toggle, delete, and jump operations that mutate
// host state, keep the metadata store current, and trigger the decoration
// engine to resynchronize.
//
// All operations validate their inputs before mutating anything, and every
// failure path terminates in a reported condition with host and metadata
// state unchanged from before the call.
package control

import (
	"sort"
	"sync"

	"github.com/dshills/marksman/internal/config"
	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/logging"
	"github.com/dshills/marksman/internal/mark"
)

// Meta is the façade's interface to the metadata store.
type Meta interface {
	Get(path, letter string) int64
	Add(path, letter string)
	Remove(path, letter string)
	Clear(path string)
}

// Renderer is the façade's late-bound reference to the decoration engine.
// It is wired with SetRenderer once both sides exist (setter-injection
// phase), never resolved by ambient lookup at call time.
type Renderer interface {
	Refresh(buf host.BufferID)
	Enabled(buf host.BufferID) bool
}

// Hooks receives mutation callbacks, typically backed by a user script.
// Hook failures never affect the operation that triggered them.
type Hooks interface {
	OnSet(identifier string, line int)
	OnDelete(identifier string)
}

// Controller implements the façade operations.
type Controller struct {
	mu sync.Mutex

	source    host.MarkSource
	view      host.BufferView
	meta      Meta
	collector *mark.Collector
	notify    host.Notifier
	opts      func() config.Options
	log       *logging.Logger

	renderer Renderer
	hooks    Hooks
}

// New creates a controller. The renderer is wired afterwards via
// SetRenderer; hooks are optional.
func New(source host.MarkSource, view host.BufferView, meta Meta, collector *mark.Collector, notify host.Notifier, opts func() config.Options, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.Null
	}
	return &Controller{
		source:    source,
		view:      view,
		meta:      meta,
		collector: collector,
		notify:    notify,
		opts:      opts,
		log:       log.WithComponent("control"),
	}
}

// SetRenderer installs the decoration engine reference. Must be called
// during wiring, before any operation runs.
func (c *Controller) SetRenderer(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer = r
}

// SetHooks installs mutation callbacks.
func (c *Controller) SetHooks(h Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// Set binds a user mark letter to the cursor line. Anything that is not
// exactly one lowercase letter a-z is rejected with an explicit error.
func (c *Controller) Set(buf host.BufferID, letter string) error {
	if !mark.IsUserLetter(letter) {
		c.notify.Error("invalid mark %q: must be one letter a-z", letter)
		return ErrInvalidMark
	}
	return c.setLetter(buf, letter)
}

// setLetter performs the validated set.
func (c *Controller) setLetter(buf host.BufferID, letter string) error {
	line, col := c.view.Cursor(buf)
	if err := c.source.Set(buf, letter, line, col); err != nil {
		c.notify.Error("cannot set mark %s: %v", letter, err)
		return err
	}
	c.meta.Add(c.view.Path(buf), letter)
	c.runHook(func(h Hooks) { h.OnSet(letter, line) })
	c.refreshIfActive(buf)
	c.info("mark %s set at line %d", letter, line)
	return nil
}

// AutoAssign scans letters a through z in order and sets the first one not
// currently used as a user mark in the buffer. When all 26 are taken it
// reports an error and performs no mutation.
func (c *Controller) AutoAssign(buf host.BufferID) (string, error) {
	used, err := c.userMarks(buf)
	if err != nil {
		c.notify.Error("cannot read marks: %v", err)
		return "", err
	}
	for ch := byte('a'); ch <= 'z'; ch++ {
		letter := string(ch)
		if _, taken := used[letter]; taken {
			continue
		}
		return letter, c.setLetter(buf, letter)
	}
	c.notify.Error("cannot assign a mark: all 26 letters are in use")
	return "", ErrExhausted
}

// ToggleLine deletes the user mark on the cursor line if one exists,
// otherwise auto-assigns a new one. Built-in and derived marks are never
// toggled.
func (c *Controller) ToggleLine(buf host.BufferID) error {
	line, _ := c.view.Cursor(buf)
	used, err := c.userMarks(buf)
	if err != nil {
		c.notify.Error("cannot read marks: %v", err)
		return err
	}
	for letter, markLine := range used {
		if markLine == line {
			return c.deleteLetter(buf, letter)
		}
	}
	_, err = c.AutoAssign(buf)
	return err
}

// Delete removes a user mark by letter. A missing mark is a warning, not
// an error, and mutates nothing.
func (c *Controller) Delete(buf host.BufferID, letter string) error {
	if !mark.IsUserLetter(letter) {
		c.notify.Error("invalid mark %q: must be one letter a-z", letter)
		return ErrInvalidMark
	}
	used, err := c.userMarks(buf)
	if err != nil {
		c.notify.Error("cannot read marks: %v", err)
		return err
	}
	if _, ok := used[letter]; !ok {
		c.notify.Warn("mark %s is not set in this buffer", letter)
		return ErrNotFound
	}
	return c.deleteLetter(buf, letter)
}

// deleteLetter removes a known-present user mark.
func (c *Controller) deleteLetter(buf host.BufferID, letter string) error {
	if err := c.source.Delete(buf, letter); err != nil {
		c.notify.Error("cannot delete mark %s: %v", letter, err)
		return err
	}
	c.meta.Remove(c.view.Path(buf), letter)
	c.runHook(func(h Hooks) { h.OnDelete(letter) })
	c.refreshIfActive(buf)
	c.info("mark %s deleted", letter)
	return nil
}

// DeleteLine removes every user mark on the cursor line. No matching mark
// is a warning no-op.
func (c *Controller) DeleteLine(buf host.BufferID) error {
	line, _ := c.view.Cursor(buf)
	used, err := c.userMarks(buf)
	if err != nil {
		c.notify.Error("cannot read marks: %v", err)
		return err
	}

	path := c.view.Path(buf)
	deleted := 0
	for letter, markLine := range used {
		if markLine != line {
			continue
		}
		if err := c.source.Delete(buf, letter); err != nil {
			c.notify.Error("cannot delete mark %s: %v", letter, err)
			return err
		}
		c.meta.Remove(path, letter)
		c.runHook(func(h Hooks) { h.OnDelete(letter) })
		deleted++
	}
	if deleted == 0 {
		c.notify.Warn("no mark on line %d", line)
		return ErrNotFound
	}
	c.refreshIfActive(buf)
	c.info("deleted %d mark(s) on line %d", deleted, line)
	return nil
}

// DeleteAll clears every user mark in the buffer and all of its timestamps.
// Each timestamp goes with its mark, so even a mid-loop host failure leaves
// metadata consistent with the marks that remain, and decorations are
// resynchronized exactly once either way.
func (c *Controller) DeleteAll(buf host.BufferID) error {
	used, err := c.userMarks(buf)
	if err != nil {
		c.notify.Error("cannot read marks: %v", err)
		return err
	}
	path := c.view.Path(buf)
	for letter := range used {
		if err := c.source.Delete(buf, letter); err != nil {
			// Marks removed before the failure are gone from the host;
			// resync so the caller never observes stale decorations.
			c.refreshIfActive(buf)
			c.notify.Error("cannot delete mark %s: %v", letter, err)
			return err
		}
		c.meta.Remove(path, letter)
		c.runHook(func(h Hooks) { h.OnDelete(letter) })
	}
	c.refreshIfActive(buf)
	c.info("deleted %d mark(s)", len(used))
	return nil
}

// Next jumps to the nearest qualifying mark after (or before) the cursor
// line, wrapping around at the buffer edges. Navigation always walks lines
// in ascending order regardless of the display sort strategy.
func (c *Controller) Next(buf host.BufferID, forward bool) error {
	opts := c.opts()
	lines := c.targets(buf, opts)
	if len(lines) == 0 {
		c.notify.Warn("no marks")
		return ErrNoMarks
	}

	cur, _ := c.view.Cursor(buf)
	if len(lines) == 1 && lines[0] == cur {
		c.notify.Warn("no other marks")
		return ErrNoOtherMarks
	}

	target := -1
	if forward {
		for _, line := range lines {
			if line > cur {
				target = line
				break
			}
		}
		if target < 0 {
			target = lines[0]
		}
	} else {
		for i := len(lines) - 1; i >= 0; i-- {
			if lines[i] < cur {
				target = lines[i]
				break
			}
		}
		if target < 0 {
			target = lines[len(lines)-1]
		}
	}

	c.Jump(buf, target)
	return nil
}

// Jump moves the cursor to a line and centers the view on arrival. The
// resync is conditional: jumping never turns Night Vision on for a buffer
// the user has toggled off.
func (c *Controller) Jump(buf host.BufferID, line int) {
	c.view.SetCursor(buf, line, 0)
	c.view.CenterOn(buf, line)
	c.refreshIfActive(buf)
}

// targets returns the distinct navigable lines in ascending order,
// optionally restricted to user marks.
func (c *Controller) targets(buf host.BufferID, opts config.Options) []int {
	views := c.collector.Collect(buf)

	var lines []int
	seen := make(map[int]struct{}, len(views))
	for _, v := range views {
		if !v.Presentation.Navigable {
			continue
		}
		if !opts.NavigateAllKinds && v.Kind != mark.KindUser {
			continue
		}
		if _, dup := seen[v.Line]; dup {
			continue
		}
		seen[v.Line] = struct{}{}
		lines = append(lines, v.Line)
	}
	// Collector order depends on the display strategy; navigation wants
	// line order.
	sort.Ints(lines)
	return lines
}

// userMarks returns the user mark letters currently set in the buffer,
// mapped to their lines.
func (c *Controller) userMarks(buf host.BufferID) (map[string]int, error) {
	raw, err := c.source.List(buf)
	if err != nil {
		return nil, err
	}
	used := make(map[string]int, len(raw))
	for _, m := range raw {
		if mark.IsUserLetter(m.ID) {
			used[m.ID] = m.Line
		}
	}
	return used, nil
}

// refreshIfActive resynchronizes decorations after a mutation when Night
// Vision is on for the buffer.
func (c *Controller) refreshIfActive(buf host.BufferID) {
	if r := c.currentRenderer(); r != nil && r.Enabled(buf) {
		r.Refresh(buf)
	}
}

func (c *Controller) currentRenderer() Renderer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer
}

// runHook invokes a script callback if hooks are installed.
func (c *Controller) runHook(fn func(Hooks)) {
	c.mu.Lock()
	h := c.hooks
	c.mu.Unlock()
	if h != nil {
		fn(h)
	}
}

// info delivers an informational notification unless silenced.
func (c *Controller) info(format string, args ...any) {
	if c.opts().Quiet {
		return
	}
	c.notify.Info(format, args...)
}
