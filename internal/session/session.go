// Package session wires the Marksman components together and routes host
// events to them.
//
// Construction is two-phase: the collector, decoration engine, and façade
// are all built first, then the cross-references are installed with
// setters (engine gets the collect function, the façade gets the engine).
// Nothing is resolved by ambient lookup at call time.
package session

import (
	"sync"
	"time"

	"github.com/dshills/marksman/internal/config"
	"github.com/dshills/marksman/internal/control"
	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/logging"
	"github.com/dshills/marksman/internal/mark"
	"github.com/dshills/marksman/internal/meta"
	"github.com/dshills/marksman/internal/nightvision"
	"github.com/dshills/marksman/internal/picker"
	"github.com/dshills/marksman/internal/script"
)

// Deps are the injected host capabilities and shared components.
type Deps struct {
	Source  host.MarkSource
	View    host.BufferView
	Surface host.DecorationSurface
	Notify  host.Notifier

	Provider *config.Provider
	Store    *meta.Store

	// Derived optionally supplies pseudo-marks (e.g. git hunks).
	Derived mark.DerivedSource

	Log *logging.Logger
}

// Session owns the wired component graph and the per-buffer settle timers.
type Session struct {
	mu sync.Mutex

	provider   *config.Provider
	store      *meta.Store
	collector  *mark.Collector
	engine     *nightvision.Engine
	controller *control.Controller
	adapter    *picker.Adapter
	notify     host.Notifier
	view       host.BufferView
	log        *logging.Logger

	hooks   *script.Hooks
	watcher *config.Watcher
	timers  map[host.BufferID]*time.Timer
	sub     *config.Subscription
}

// New constructs and wires a session. The metadata retention sweep runs
// once here.
func New(deps Deps) *Session {
	log := deps.Log
	if log == nil {
		log = logging.Null
	}

	opts := deps.Provider.Current
	collector := mark.NewCollector(deps.Source, deps.View, deps.Store, opts, log)
	if deps.Derived != nil {
		collector.SetDerivedSource(deps.Derived)
	}

	engine := nightvision.New(deps.Surface, deps.View, opts, log)
	controller := control.New(deps.Source, deps.View, deps.Store, collector, deps.Notify, opts, log)

	// Setter-injection phase: both sides exist, wire the cycle.
	engine.SetCollector(collector.Collect)
	controller.SetRenderer(engine)

	s := &Session{
		provider:   deps.Provider,
		store:      deps.Store,
		collector:  collector,
		engine:     engine,
		controller: controller,
		adapter:    picker.New(collector, controller),
		notify:     deps.Notify,
		view:       deps.View,
		log:        log.WithComponent("session"),
		timers:     make(map[host.BufferID]*time.Timer),
	}

	s.loadHooks(deps.Provider.Current())
	s.sub = deps.Provider.Subscribe(s.onOptionsChanged)
	deps.Store.Sweep()
	return s
}

// loadHooks loads the configured Lua hook file, if any.
func (s *Session) loadHooks(opts config.Options) {
	if opts.ScriptPath == "" {
		return
	}
	hooks, err := script.Load(opts.ScriptPath, s.log)
	if err != nil {
		s.notify.Error("hook script disabled: %v", err)
		return
	}
	s.mu.Lock()
	s.hooks = hooks
	s.mu.Unlock()
	s.collector.SetGlyphResolver(hooks.Glyph)
	s.controller.SetHooks(hooks)
}

// onOptionsChanged re-renders all active buffers after a configuration
// update.
func (s *Session) onOptionsChanged(old, new config.Options) {
	if old.ScriptPath != new.ScriptPath {
		s.mu.Lock()
		if s.hooks != nil {
			s.hooks.Close()
			s.hooks = nil
		}
		s.mu.Unlock()
		s.collector.SetGlyphResolver(nil)
		s.controller.SetHooks(nil)
		if new.ScriptPath != "" {
			s.loadHooks(new)
		}
	}
	s.engine.RefreshAll()
}

// WatchConfig enables live reload of the options file.
func (s *Session) WatchConfig(loader *config.Loader) error {
	w, err := config.NewWatcher(loader, func(opts config.Options, fieldErrs []config.FieldError, err error) {
		if err != nil {
			s.notify.Error("config reload failed: %v", err)
			return
		}
		s.ReportFieldErrors(fieldErrs)
		s.provider.Update(opts)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

// ReportFieldErrors surfaces rejected configuration values.
func (s *Session) ReportFieldErrors(errs []config.FieldError) {
	for _, fe := range errs {
		s.notify.Error("%v", fe)
	}
}

// BufEnter handles a buffer becoming active: metadata loads immediately,
// the first decoration refresh waits out a short settle delay so the
// host's own mark bookkeeping can finish. The timer callback re-checks its
// registration, so a timer that fires after BufClose stopped caring never
// recreates state for a closed buffer.
func (s *Session) BufEnter(buf host.BufferID) {
	s.store.Load(s.view.Path(buf))

	delay := s.provider.Current().RefreshDelay()
	if delay <= 0 {
		s.engine.EnsureBuffer(buf)
		return
	}

	s.mu.Lock()
	if t, ok := s.timers[buf]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		live := s.timers[buf] == t
		if live {
			delete(s.timers, buf)
		}
		s.mu.Unlock()
		if live {
			s.engine.EnsureBuffer(buf)
		}
	})
	s.timers[buf] = t
	s.mu.Unlock()
}

// CursorMoved routes cursor movement straight to the engine's incremental
// path, bypassing the façade.
func (s *Session) CursorMoved(buf host.BufferID, line int) {
	s.engine.OnCursorMoved(buf, line)
}

// BufWrite resynchronizes decorations after a buffer is written.
func (s *Session) BufWrite(buf host.BufferID) {
	if s.engine.Enabled(buf) {
		s.engine.Refresh(buf)
	}
}

// BufClose tears down per-buffer state deterministically.
func (s *Session) BufClose(buf host.BufferID) {
	s.mu.Lock()
	if t, ok := s.timers[buf]; ok {
		t.Stop()
		delete(s.timers, buf)
	}
	s.mu.Unlock()

	s.engine.Teardown(buf)
	s.store.Release(s.view.Path(buf))
}

// Controller returns the mutation façade.
func (s *Session) Controller() *control.Controller {
	return s.controller
}

// Engine returns the decoration engine.
func (s *Session) Engine() *nightvision.Engine {
	return s.engine
}

// Picker returns the picker adapter.
func (s *Session) Picker() *picker.Adapter {
	return s.adapter
}

// Close stops the config watcher, settle timers, and hook script.
func (s *Session) Close() {
	s.mu.Lock()
	for buf, t := range s.timers {
		t.Stop()
		delete(s.timers, buf)
	}
	w := s.watcher
	h := s.hooks
	s.watcher = nil
	s.hooks = nil
	s.mu.Unlock()

	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if w != nil {
		_ = w.Close()
	}
	if h != nil {
		h.Close()
	}
}
