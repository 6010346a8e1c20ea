package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/marksman/internal/config"
	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/host/hosttest"
	"github.com/dshills/marksman/internal/meta"
	"github.com/dshills/marksman/internal/nightvision"
)

const testBuf host.BufferID = 1

func newSession(t *testing.T, opts config.Options) (*Session, *hosttest.Host, *config.Provider) {
	t.Helper()

	h := hosttest.New()
	h.AddBuffer(testBuf, "/tmp/test.go", "alpha", "bravo", "charlie", "delta")

	provider := config.NewProvider(opts)
	store := meta.NewStore(t.TempDir(), h, nil)

	s := New(Deps{
		Source:   h,
		View:     h,
		Surface:  h,
		Notify:   h,
		Provider: provider,
		Store:    store,
		Log:      nil,
	})
	t.Cleanup(s.Close)
	return s, h, provider
}

func immediateOpts() config.Options {
	opts := config.Default()
	opts.RefreshDelayMS = 0
	return opts
}

func TestBufEnterRendersExistingMarks(t *testing.T) {
	s, h, _ := newSession(t, immediateOpts())
	h.Set(testBuf, "a", 2, 0)

	s.BufEnter(testBuf)

	if !s.Engine().Enabled(testBuf) {
		t.Fatal("buffer not enabled after enter")
	}
	if len(h.DecorationsOn(testBuf, 2, host.ChannelSign)) != 1 {
		t.Fatal("pre-existing mark not rendered on enter")
	}
}

func TestBufEnterSettleDelay(t *testing.T) {
	opts := config.Default()
	opts.RefreshDelayMS = 30
	s, h, _ := newSession(t, opts)
	h.Set(testBuf, "a", 2, 0)

	s.BufEnter(testBuf)
	if s.Engine().Enabled(testBuf) {
		t.Fatal("refresh ran before the settle delay")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !s.Engine().Enabled(testBuf) {
		if time.Now().After(deadline) {
			t.Fatal("settle timer never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMutationThroughFacadeRenders(t *testing.T) {
	s, h, _ := newSession(t, immediateOpts())
	s.BufEnter(testBuf)

	h.SetCursor(testBuf, 3, 0)
	if err := s.Controller().Set(testBuf, "m"); err != nil {
		t.Fatal(err)
	}

	if len(h.DecorationsOn(testBuf, 3, host.ChannelSign)) != 1 {
		t.Fatal("set mark not decorated")
	}

	entries := s.Picker().Entries(testBuf)
	if len(entries) != 1 || entries[0].Identifier != "m" {
		t.Fatalf("picker entries = %v", entries)
	}
}

func TestCursorMovedRoutesToEngine(t *testing.T) {
	opts := immediateOpts()
	opts.VirtualText = "letter"
	s, h, _ := newSession(t, opts)
	h.Set(testBuf, "a", 2, 0)
	s.BufEnter(testBuf)

	s.CursorMoved(testBuf, 2)
	if got := len(h.DecorationsOn(testBuf, 2, host.ChannelVirtualText)); got != 0 {
		t.Fatalf("virtual text still visible under the cursor: %d", got)
	}
	s.CursorMoved(testBuf, 4)
	if got := len(h.DecorationsOn(testBuf, 2, host.ChannelVirtualText)); got != 1 {
		t.Fatalf("virtual text not restored: %d", got)
	}
}

func TestBufWriteRefreshes(t *testing.T) {
	s, h, _ := newSession(t, immediateOpts())
	s.BufEnter(testBuf)

	// Mark set behind the session's back only shows up after a write event.
	h.Set(testBuf, "a", 2, 0)
	if len(h.DecorationsOn(testBuf, 2, host.ChannelSign)) != 0 {
		t.Fatal("decoration appeared without an event")
	}

	s.BufWrite(testBuf)
	if len(h.DecorationsOn(testBuf, 2, host.ChannelSign)) != 1 {
		t.Fatal("write did not resynchronize decorations")
	}
}

func TestBufClose(t *testing.T) {
	s, h, _ := newSession(t, immediateOpts())
	h.Set(testBuf, "a", 2, 0)
	s.BufEnter(testBuf)

	s.BufClose(testBuf)
	if s.Engine().State(testBuf) != nightvision.StateUninitialized {
		t.Fatal("buffer state survived close")
	}

	// Re-entering starts fresh.
	s.BufEnter(testBuf)
	if !s.Engine().Enabled(testBuf) {
		t.Fatal("re-enter after close did not re-enable")
	}
}

func TestBufCloseCancelsSettleTimer(t *testing.T) {
	opts := config.Default()
	opts.RefreshDelayMS = 20
	s, h, _ := newSession(t, opts)
	h.Set(testBuf, "a", 2, 0)

	s.BufEnter(testBuf)
	s.BufClose(testBuf)

	// Give a leaked timer ample room to fire.
	time.Sleep(100 * time.Millisecond)
	if s.Engine().State(testBuf) != nightvision.StateUninitialized {
		t.Fatal("settle timer recreated state for a closed buffer")
	}
	if n := h.DecorationCount(testBuf); n != 0 {
		t.Fatalf("closed buffer has %d decorations", n)
	}
}

func TestOptionsChangeRefreshesActiveBuffers(t *testing.T) {
	s, h, provider := newSession(t, immediateOpts())
	h.Set(testBuf, "a", 2, 0)
	s.BufEnter(testBuf)

	if len(h.DecorationsOn(testBuf, 2, host.ChannelVirtualText)) != 0 {
		t.Fatal("virtual text on before the config change")
	}

	next := provider.Current()
	next.VirtualText = "letter"
	provider.Update(next)

	if len(h.DecorationsOn(testBuf, 2, host.ChannelVirtualText)) != 1 {
		t.Fatal("config change did not re-render the buffer")
	}
}

func TestExclusionChangeClearsBuffer(t *testing.T) {
	s, h, provider := newSession(t, immediateOpts())
	h.SetFileType(testBuf, "markdown")
	h.Set(testBuf, "a", 2, 0)
	s.BufEnter(testBuf)

	if h.DecorationCount(testBuf) == 0 {
		t.Fatal("buffer not decorated before exclusion")
	}

	next := provider.Current()
	next.ExcludeFileTypes = []string{"markdown"}
	provider.Update(next)

	if got := h.DecorationCount(testBuf); got != 0 {
		t.Fatalf("newly excluded buffer kept %d decorations", got)
	}
}

func TestScriptHookWiring(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "hooks.lua")
	body := `
function glyph(identifier, kind, line)
	return "!"
end
`
	if err := os.WriteFile(scriptPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := immediateOpts()
	opts.ScriptPath = scriptPath
	s, h, _ := newSession(t, opts)
	h.Set(testBuf, "a", 2, 0)
	s.BufEnter(testBuf)

	signs := h.DecorationsOn(testBuf, 2, host.ChannelSign)
	if len(signs) != 1 || signs[0].Text != "!" {
		t.Fatalf("script glyph override not applied: %v", signs)
	}
}

func TestBrokenScriptReportsAndContinues(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "hooks.lua")
	if err := os.WriteFile(scriptPath, []byte("syntax error ("), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := immediateOpts()
	opts.ScriptPath = scriptPath
	s, h, _ := newSession(t, opts)

	n, ok := h.LastNotification()
	if !ok || n.Level != "error" {
		t.Fatal("broken hook script not reported")
	}

	// The session still works without hooks.
	s.BufEnter(testBuf)
	h.SetCursor(testBuf, 1, 0)
	if err := s.Controller().Set(testBuf, "a"); err != nil {
		t.Fatal(err)
	}
}

func TestWatchConfigLiveReload(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "marksman.toml")
	if err := os.WriteFile(cfgPath, []byte("quiet = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _, provider := newSession(t, immediateOpts())
	if err := s.WatchConfig(config.NewLoader(cfgPath)); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(cfgPath, []byte("quiet = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !provider.Current().Quiet {
		if time.Now().After(deadline) {
			t.Fatal("live reload never applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
