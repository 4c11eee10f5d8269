package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/coffeerun/internal/config"
	"github.com/okian/coffeerun/internal/domain/race"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestViewer(names ...string) (*viewer, tcell.SimulationScreen) {
	screen := tcell.NewSimulationScreen("")
	convey.So(screen.Init(), convey.ShouldBeNil)
	engine := race.New(
		race.WithSeed(5),
		race.WithClock(func() time.Time { return base }),
	)
	return newViewer(screen, engine, names), screen
}

// rows returns the simulated screen as one string per row.
func rows(s tcell.SimulationScreen) []string {
	cells, w, h := s.GetContents()
	out := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		out[y] = b.String()
	}
	return out
}

func TestColumn(t *testing.T) {
	convey.Convey("Given a 61 unit window drawn on 61 cells", t, func() {
		convey.Convey("Then positions inside map proportionally", func() {
			col, ok := column(10, 0, 61, 61)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(col, convey.ShouldEqual, 10)

			col, ok = column(50, 40, 61, 61)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(col, convey.ShouldEqual, 10)
		})

		convey.Convey("Then positions outside are hidden", func() {
			_, ok := column(-5, 0, 61, 61)
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = column(61, 0, 61, 61)
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = column(10, 0, 61, 0)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestViewer(t *testing.T) {
	convey.Convey("Given a viewer on a simulated terminal", t, func() {
		v, screen := newTestViewer("Ana", "Bo", "Cy")
		defer screen.Fini()

		convey.Convey("When nothing was started", func() {
			v.draw()
			out := rows(screen)

			convey.Convey("Then the idle hint and help are shown", func() {
				convey.So(out[0], convey.ShouldStartWith, "Coffee Run 100m")
				convey.So(out[0], convey.ShouldContainSubstring, "Waiting")
				convey.So(out[headerRows], convey.ShouldContainSubstring, "press enter")
				convey.So(out[len(out)-1], convey.ShouldContainSubstring, "q quit")
			})
		})

		convey.Convey("When a race is started and ticked", func() {
			convey.So(v.start(base), convey.ShouldBeNil)
			for i := 1; i <= 30; i++ {
				v.frame(base.Add(time.Duration(i) * 16 * time.Millisecond))
			}
			out := rows(screen)

			convey.Convey("Then every lane is drawn with its runner", func() {
				convey.So(out[0], convey.ShouldContainSubstring, "READY... GO!")
				for i, name := range []string{"Ana", "Bo", "Cy"} {
					convey.So(out[headerRows+i], convey.ShouldStartWith, name)
					convey.So(out[headerRows+i], convey.ShouldContainSubstring, string(runnerGlyph))
				}
			})
		})

		convey.Convey("When the race runs to the end", func() {
			convey.So(v.start(base), convey.ShouldBeNil)
			now := base
			for i := 0; i < 5000 && v.engine.Phase() != race.Completed; i++ {
				now = now.Add(50 * time.Millisecond)
				v.frame(now)
			}
			out := strings.Join(rows(screen), "\n")

			convey.Convey("Then the results block is shown", func() {
				convey.So(v.engine.Phase(), convey.ShouldEqual, race.Completed)
				convey.So(out, convey.ShouldContainSubstring, "Coffee Run 100m results")
				convey.So(out, convey.ShouldContainSubstring, "Coffee: ")
				convey.So(out, convey.ShouldContainSubstring, "#1 ")
			})
		})
	})
}

func TestViewer_Keys(t *testing.T) {
	convey.Convey("Given a running viewer", t, func() {
		v, screen := newTestViewer("Ana", "Bo")
		defer screen.Fini()
		convey.So(v.start(base), convey.ShouldBeNil)
		v.frame(base.Add(100 * time.Millisecond))

		convey.Convey("Then x resets the race", func() {
			convey.So(v.handle(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), base), convey.ShouldBeTrue)
			convey.So(v.engine.Phase(), convey.ShouldEqual, race.NotStarted)
		})

		convey.Convey("Then r and enter rerun with the same names", func() {
			convey.So(v.handle(tcell.NewEventKey(tcell.KeyRune, 'R', tcell.ModNone), base), convey.ShouldBeTrue)
			convey.So(v.engine.Snapshot().Tick, convey.ShouldEqual, 0)
			convey.So(v.handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), base), convey.ShouldBeTrue)
			convey.So(v.engine.Snapshot().Runners, convey.ShouldHaveLength, 2)
		})

		convey.Convey("Then q, escape and ctrl-c quit", func() {
			convey.So(v.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), base), convey.ShouldBeFalse)
			convey.So(v.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), base), convey.ShouldBeFalse)
			convey.So(v.handle(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone), base), convey.ShouldBeFalse)
		})

		convey.Convey("Then a resize keeps running", func() {
			convey.So(v.handle(tcell.NewEventResize(100, 30), base), convey.ShouldBeTrue)
		})
	})
}

func TestViewer_Run(t *testing.T) {
	convey.Convey("Given a viewer loop", t, func() {
		v, screen := newTestViewer("Ana")
		defer screen.Fini()
		convey.So(v.start(time.Now()), convey.ShouldBeNil)

		convey.Convey("Then it stops on a quit key", func() {
			done := make(chan struct{})
			go func() {
				v.run(context.Background(), time.Millisecond)
				close(done)
			}()
			screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("viewer did not stop")
			}
		})

		convey.Convey("Then it stops when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			v.run(ctx, time.Millisecond)
			convey.So(v.engine.Snapshot().Tick, convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestNewEngine(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())
		sound, err := newChime(true)
		convey.So(err, convey.ShouldBeNil)
		defer sound.close()

		convey.Convey("Then a seeded engine is reproducible", func() {
			a := newEngine(cfg, 11, sound)
			b := newEngine(cfg, 11, sound)
			sa, _ := a.Start(parseNames("Ana,Bo,Cy"))
			sb, _ := b.Start(parseNames("Ana,Bo,Cy"))
			for i := range sa.Runners {
				convey.So(sa.Runners[i].BaseSpeed, convey.ShouldEqual, sb.Runners[i].BaseSpeed)
			}
			convey.So(a.Designated(), convey.ShouldEqual, b.Designated())
		})

		convey.Convey("Then a muted chime ignores callbacks", func() {
			convey.So(func() {
				sound.RaceStarted(race.Started{})
				sound.RunnerFinished(race.Finish{FinishOrder: 1})
				sound.RaceCompleted(race.Result{})
			}, convey.ShouldNotPanic)
		})
	})
}
