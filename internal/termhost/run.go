package termhost

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/session"
)

const (
	signWidth   = 2
	numberWidth = 5
)

// Run drives the demo event loop until the user quits.
//
// Keys: j/k/arrows move, g/G jump to top/bottom, m{a-z} set mark,
// mm toggle mark on line, mt toggle Night Vision, mx delete all marks,
// dm{a-z} delete mark, dd delete marks on line, ]m / [m cycle marks,
// q quit.
func Run(h *Host, s *session.Session) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	_, height := screen.Size()
	h.setHeight(height - 1)

	buf := DemoBuffer
	ctl := s.Controller()
	s.BufEnter(buf)

	// The settle-delay refresh runs on a timer goroutine; force one
	// synchronous refresh so the first frame is decorated.
	s.Engine().Refresh(buf)

	var pending rune
	for {
		render(screen, h)

		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			_, height := ev.Size()
			h.setHeight(height - 1)
			screen.Sync()
		case *tcell.EventKey:
			r := keyRune(ev)
			if r == 0 {
				continue
			}

			switch pending {
			case 'm':
				pending = 0
				switch {
				case r == 'm':
					_ = ctl.ToggleLine(buf)
				case r == 't':
					state := s.Engine().Toggle(buf)
					h.Info("night vision %s", state)
				case r == 'x':
					_ = ctl.DeleteAll(buf)
				default:
					_ = ctl.Set(buf, string(r))
				}
				continue
			case 'd':
				pending = 0
				switch r {
				case 'm':
					pending = 'D' // dm{letter}
				case 'd':
					_ = ctl.DeleteLine(buf)
				}
				continue
			case 'D':
				pending = 0
				_ = ctl.Delete(buf, string(r))
				continue
			case ']':
				pending = 0
				if r == 'm' {
					_ = ctl.Next(buf, true)
				}
				continue
			case '[':
				pending = 0
				if r == 'm' {
					_ = ctl.Next(buf, false)
				}
				continue
			}

			switch r {
			case 'q':
				s.BufClose(buf)
				return nil
			case 'j':
				s.CursorMoved(buf, h.MoveCursor(1))
			case 'k':
				s.CursorMoved(buf, h.MoveCursor(-1))
			case 'g':
				s.CursorMoved(buf, h.JumpCursor(1))
			case 'G':
				s.CursorMoved(buf, h.JumpCursor(h.LineCount(buf)))
			case 'm', 'd', ']', '[':
				pending = r
			}
		}
	}
}

// keyRune maps a key event to the rune the dispatch table uses.
func keyRune(ev *tcell.EventKey) rune {
	switch ev.Key() {
	case tcell.KeyRune:
		return ev.Rune()
	case tcell.KeyDown:
		return 'j'
	case tcell.KeyUp:
		return 'k'
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return 'q'
	default:
		return 0
	}
}

// render draws the buffer, gutter, decorations, and status line.
func render(screen tcell.Screen, h *Host) {
	screen.Clear()
	width, height := screen.Size()
	textHeight := height - 1

	lines, top, cursor, decors, status := h.snapshot()

	// Index decorations by (line, channel); one per channel per line.
	type key struct {
		line    int
		channel host.Channel
	}
	byLine := make(map[key]host.DecorSpec, len(decors))
	for _, spec := range decors {
		byLine[key{spec.Line, spec.Channel}] = spec
	}

	base := tcell.StyleDefault
	dim := base.Foreground(tcell.ColorGray)
	signStyle := base.Foreground(tcell.ColorAqua).Bold(true)
	numberHL := base.Foreground(tcell.ColorYellow).Bold(true)
	lineHL := base.Background(tcell.ColorDarkSlateGray)
	virtual := base.Foreground(tcell.ColorGray).Italic(true)
	cursorStyle := base.Reverse(true)

	for row := 0; row < textHeight; row++ {
		line := top + row
		if line > len(lines) {
			screen.SetContent(signWidth+numberWidth-2, row, '~', nil, dim)
			continue
		}

		rowStyle := base
		if _, ok := byLine[key{line, host.ChannelLineHighlight}]; ok {
			rowStyle = lineHL
		}

		// Sign column.
		if spec, ok := byLine[key{line, host.ChannelSign}]; ok {
			for i, r := range spec.Text {
				if i >= signWidth {
					break
				}
				screen.SetContent(i, row, r, nil, signStyle)
			}
		} else {
			for x := 0; x < signWidth; x++ {
				screen.SetContent(x, row, ' ', nil, rowStyle)
			}
		}

		// Line number.
		numStyle := dim
		if _, ok := byLine[key{line, host.ChannelLineNumber}]; ok {
			numStyle = numberHL
		}
		num := fmt.Sprintf("%*d ", numberWidth-1, line)
		for i, r := range num {
			screen.SetContent(signWidth+i, row, r, nil, numStyle)
		}

		// Content.
		style := rowStyle
		if line == cursor {
			style = cursorStyle
		}
		x := signWidth + numberWidth
		for _, r := range lines[line-1] {
			if x >= width {
				break
			}
			screen.SetContent(x, row, r, nil, style)
			x++
		}
		for ; x < width; x++ {
			screen.SetContent(x, row, ' ', nil, style)
		}

		// Trailing virtual text.
		if spec, ok := byLine[key{line, host.ChannelVirtualText}]; ok {
			vx := signWidth + numberWidth + len([]rune(lines[line-1])) + 2
			for _, r := range spec.Text {
				if vx >= width {
					break
				}
				screen.SetContent(vx, row, r, nil, virtual)
				vx++
			}
		}
	}

	// Status line.
	statusStyle := base.Reverse(true)
	msg := fmt.Sprintf(" %s  line %d/%d  %s", status, cursor, len(lines),
		"m{a-z} set  mm toggle  mt night vision  ]m/[m cycle  q quit")
	x := 0
	for _, r := range msg {
		if x >= width {
			break
		}
		screen.SetContent(x, height-1, r, nil, statusStyle)
		x++
	}
	for ; x < width; x++ {
		screen.SetContent(x, height-1, ' ', nil, statusStyle)
	}

	screen.Show()
}
