package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/coffeerun/internal/domain/race"
)

// Layout.
const (
	nameWidth   = 12
	statsWidth  = 12
	headerRows  = 3
	eventBuffer = 100
	runnerGlyph = '@'
	trackGlyph  = '.'
	lineGlyph   = '|'
	helpText    = "enter/r rerun   x reset   q quit"
)

var laneColors = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorOrange,
	tcell.ColorLime,
	tcell.ColorSilver,
	tcell.ColorOlive,
}

var (
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	dimStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	lineStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	bubbleStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	resultStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// viewer drives one engine from the terminal frame loop and draws its
// snapshots.
type viewer struct {
	screen tcell.Screen
	engine *race.Engine
	names  []string
	last   time.Time
}

func newViewer(screen tcell.Screen, engine *race.Engine, names []string) *viewer {
	return &viewer{
		screen: screen,
		engine: engine,
		names:  names,
	}
}

func (v *viewer) start(now time.Time) error {
	v.last = now
	_, err := v.engine.Start(v.names)
	return err
}

// frame advances the engine to now and redraws.
func (v *viewer) frame(now time.Time) {
	var dt time.Duration
	if !v.last.IsZero() {
		dt = now.Sub(v.last)
	}
	v.last = now
	v.engine.Tick(dt, now)
	v.draw()
}

// handle reacts to a terminal event and reports whether to keep running.
func (v *viewer) handle(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			_ = v.start(now)
		case tcell.KeyRune:
			switch unicode.ToLower(ev.Rune()) {
			case 'q':
				return false
			case 'r':
				_ = v.start(now)
			case 'x':
				v.engine.Reset()
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, eventBuffer)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !v.handle(ev, time.Now()) {
				return
			}
		case now := <-ticker.C:
			v.frame(now)
		}
	}
}

func (v *viewer) draw() {
	s := v.screen
	s.Clear()
	w, h := s.Size()
	snap := v.engine.Snapshot()

	title := fmt.Sprintf("Coffee Run %.0fm", race.CourseLength)
	putStr(s, 0, 0, titleStyle, title)
	putStr(s, len(title)+3, 0, statusStyle, snap.Status)

	if len(snap.Runners) == 0 {
		putStr(s, 0, headerRows, dimStyle, "press enter to start")
		putStr(s, 0, h-1, dimStyle, helpText)
		s.Show()
		return
	}

	leader := snap.LeaderName
	if leader == "" {
		leader = "-"
	}
	putStr(s, 0, 1, dimStyle, fmt.Sprintf("%s  leader %s  %5.1f%%  %6.2fs  zoom %.2f",
		snap.Phase, leader, snap.Progress*100, snap.Elapsed.Seconds(), snap.Camera.Zoom))

	track := w - nameWidth - statsWidth
	for i, r := range snap.Runners {
		y := headerRows + i
		if y >= h-1 {
			break
		}
		drawLane(s, y, track, r, snap.Camera)
	}

	if snap.Result != nil {
		y := headerRows + len(snap.Runners) + 1
		for _, line := range strings.Split(snap.Result.Text(), "\n") {
			if y >= h-1 {
				break
			}
			putStr(s, 0, y, resultStyle, line)
			y++
		}
	}

	putStr(s, 0, h-1, dimStyle, helpText)
	s.Show()
}

func drawLane(s tcell.Screen, y, width int, r race.RunnerView, cam race.Camera) {
	style := tcell.StyleDefault.Foreground(laneColors[r.Lane%len(laneColors)])
	putStr(s, 0, y, style, clip(r.Name, nameWidth-1))

	view := cam.ViewWidth()
	for c := 0; c < width; c++ {
		s.SetContent(nameWidth+c, y, trackGlyph, nil, dimStyle)
	}
	for _, mark := range []float64{0, race.CourseLength} {
		if col, ok := column(mark, cam.X, view, width); ok {
			s.SetContent(nameWidth+col, y, lineGlyph, nil, lineStyle)
		}
	}

	if col, ok := column(r.Position, cam.X, view, width); ok {
		glyph := style.Bold(true)
		if r.Stalled {
			glyph = glyph.Reverse(true)
		}
		s.SetContent(nameWidth+col, y, runnerGlyph, nil, glyph)
		if r.Bubble != "" {
			putStr(s, nameWidth+col+2, y, bubbleStyle, " "+r.Bubble+" ")
		}
	}

	stats := fmt.Sprintf("%5.1fm", r.Position)
	if r.Finished {
		stats = fmt.Sprintf("#%d %.2fs", r.FinishOrder, r.FinishTime.Seconds())
	}
	putStr(s, nameWidth+width+1, y, style, stats)
}

// column maps a course position to a track cell, reporting false when the
// position is outside the camera window.
func column(pos, camX, view float64, width int) (int, bool) {
	if width <= 0 || view <= 0 {
		return 0, false
	}
	f := (pos - camX) / view
	if f < 0 || f >= 1 {
		return 0, false
	}
	return int(f * float64(width)), true
}

func putStr(s tcell.Screen, x, y int, style tcell.Style, text string) {
	w, _ := s.Size()
	for _, r := range text {
		if x >= w {
			return
		}
		if x >= 0 {
			s.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
