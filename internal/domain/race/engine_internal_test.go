package race

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// constRand returns a fixed float and always picks index zero.
type constRand float64

func (c constRand) Float64() float64 { return float64(c) }
func (constRand) Intn(int) int       { return 0 }

func TestEngine_SameTickCrossing(t *testing.T) {
	Convey("Given two runners that both reach the line inside one tick", t, func() {
		now := time.Date(2024, 5, 1, 9, 0, 10, 0, time.UTC)
		started := now.Add(-10 * time.Second)
		e := New(
			WithRand(constRand(0.5)),
			WithPolicy(Unscripted{}),
			WithEvents(false),
			WithSlowMotion(false),
			WithClock(func() time.Time { return started }),
		)
		_, err := e.Start([]string{"Early", "Late"})
		So(err, ShouldBeNil)

		e.st.phase = Running
		e.st.startAnimUntil = started
		e.st.runners[0].Position, e.st.runners[0].BaseSpeed = 99.7, 10
		e.st.runners[1].Position, e.st.runners[1].BaseSpeed = 99.9, 10

		e.Tick(50*time.Millisecond, now)

		Convey("Then finish order follows lane order within the tick", func() {
			So(e.st.runners[0].FinishOrder, ShouldEqual, 1)
			So(e.st.runners[1].FinishOrder, ShouldEqual, 2)
		})

		Convey("Then finish times are interpolated inside the tick", func() {
			So(e.st.runners[0].FinishTime.Seconds(), ShouldAlmostEqual, 9.98, 1e-6)
			So(e.st.runners[1].FinishTime.Seconds(), ShouldAlmostEqual, 9.96, 1e-6)
		})

		Convey("Then the runner who crossed earlier ranks first", func() {
			res, err := e.Results()
			So(err, ShouldBeNil)
			So(res.Standings[0].Name, ShouldEqual, "Late")
			So(res.Standings[0].FinishOrder, ShouldEqual, 2)
			So(res.Loser.Name, ShouldEqual, "Early")
			So(e.Status(), ShouldEqual, "Finished! Coffee is on Early")
		})
	})
}

func TestCrossingInstant(t *testing.T) {
	Convey("Given a 50ms tick ending now", t, func() {
		now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		dt := 50 * time.Millisecond

		Convey("When the line sits halfway through the step", func() {
			So(CrossingInstant(99.5, 100.5, dt, now), ShouldEqual, now.Add(-25*time.Millisecond))
		})

		Convey("When the step has no positional delta", func() {
			So(CrossingInstant(100, 100, dt, now), ShouldEqual, now)
		})

		Convey("When the runner was already on the line", func() {
			So(CrossingInstant(100, 101, dt, now), ShouldEqual, now.Add(-dt))
		})
	})
}

func TestEngine_StallHoldsPosition(t *testing.T) {
	Convey("Given a designated runner past the trigger with others racing", t, func() {
		start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		rec := &stallRecorder{}
		e := New(
			WithRand(constRand(0.5)),
			WithEvents(false),
			WithDesignatedLane(0),
			WithObserver(rec),
			WithClock(func() time.Time { return start }),
		)
		_, err := e.Start([]string{"Lead", "Chase"})
		So(err, ShouldBeNil)
		e.st.phase = Running
		e.st.startAnimUntil = start
		e.st.runners[0].Position = 97.2
		e.st.runners[1].Position = 90

		now := start.Add(5 * time.Second)
		e.Tick(16*time.Millisecond, now)

		Convey("Then it halts with the bubble and the event status", func() {
			snap := e.Snapshot()
			So(snap.Runners[0].Stalled, ShouldBeTrue)
			So(snap.Runners[0].Position, ShouldEqual, 97.2)
			So(snap.Runners[0].Bubble, ShouldEqual, LaceText)
			So(snap.Status, ShouldEqual, "Event! Lead: Ah! My shoelace!")
			So(rec.stalls, ShouldEqual, 1)
		})

		Convey("Then it resumes once the stall elapses and never stalls again", func() {
			e.Tick(16*time.Millisecond, now.Add(LaceDuration+time.Millisecond))
			So(e.st.runners[0].LaceStopped, ShouldBeFalse)
			So(e.st.runners[0].Position, ShouldBeGreaterThan, 97.2)
			e.Tick(16*time.Millisecond, now.Add(LaceDuration+20*time.Millisecond))
			So(rec.stalls, ShouldEqual, 1)
		})
	})
}

type stallRecorder struct {
	NopObserver
	stalls int
}

func (s *stallRecorder) LaceStalled(Stalled) { s.stalls++ }

func TestEngine_FinisherSpotlight(t *testing.T) {
	Convey("Given a runner about to finish ahead of two chasers", t, func() {
		start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		e := New(
			WithRand(constRand(0.5)),
			WithPolicy(Unscripted{}),
			WithEvents(false),
			WithSlowMotion(false),
			WithClock(func() time.Time { return start }),
		)
		_, err := e.Start([]string{"Ana", "Bo", "Cy"})
		So(err, ShouldBeNil)
		e.st.phase = Running
		e.st.startAnimUntil = start
		e.st.runners[0].Position = 50
		e.st.runners[1].Position = 99.9
		e.st.runners[2].Position = 80

		now := start.Add(5 * time.Second)
		e.Tick(50*time.Millisecond, now)
		So(e.st.runners[1].Finished, ShouldBeTrue)

		Convey("Then the camera holds the finisher's lane for the focus window", func() {
			So(e.Snapshot().Camera.Target, ShouldEqual, 1)

			e.Tick(50*time.Millisecond, now.Add(800*time.Millisecond))
			So(e.Snapshot().Camera.Target, ShouldEqual, 1)

			e.Tick(50*time.Millisecond, now.Add(e.tuning.FocusHold+50*time.Millisecond))
			So(e.Snapshot().Camera.Target, ShouldEqual, 2)
		})

		Convey("Then a second finisher inside the window takes over the hold", func() {
			e.st.runners[2].Position = 99.9
			second := now.Add(400 * time.Millisecond)
			e.Tick(50*time.Millisecond, second)
			So(e.st.runners[2].Finished, ShouldBeTrue)
			So(e.Snapshot().Camera.Target, ShouldEqual, 2)

			e.Tick(50*time.Millisecond, now.Add(e.tuning.FocusHold+150*time.Millisecond))
			So(e.Snapshot().Camera.Target, ShouldEqual, 2)

			e.Tick(50*time.Millisecond, second.Add(e.tuning.FocusHold+50*time.Millisecond))
			So(e.Snapshot().Camera.Target, ShouldEqual, 0)
		})
	})
}

type fixedPolicy struct{ Unscripted }

func TestNew_OptionOrder(t *testing.T) {
	Convey("Given director and event options in any order", t, func() {
		Convey("Then the last WithDirector call wins", func() {
			e := New(WithDirector(false), WithDirector(true))
			So(e.policy, ShouldHaveSameTypeAs, &Scripted{})

			e = New(WithDirector(true), WithDirector(false))
			So(e.policy, ShouldHaveSameTypeAs, Unscripted{})
		})

		Convey("Then a disabled director overrides a supplied policy", func() {
			So(New(WithDirector(false), WithPolicy(fixedPolicy{})).policy, ShouldHaveSameTypeAs, Unscripted{})
			So(New(WithPolicy(fixedPolicy{}), WithDirector(false)).policy, ShouldHaveSameTypeAs, Unscripted{})
			So(New(WithPolicy(fixedPolicy{})).policy, ShouldHaveSameTypeAs, fixedPolicy{})
		})

		Convey("Then disabled events stay off whatever checkpoints are set", func() {
			So(New(WithEvents(false), WithCheckpoints([]float64{0.5})).tuning.Checkpoints, ShouldBeEmpty)
			So(New(WithCheckpoints([]float64{0.5}), WithEvents(false)).tuning.Checkpoints, ShouldBeEmpty)
			So(New(WithEvents(false), WithEvents(true)).tuning.Checkpoints, ShouldResemble, DefaultTuning().Checkpoints)
			So(New(WithEvents(true), WithCheckpoints([]float64{0.5})).tuning.Checkpoints, ShouldResemble, []float64{0.5})
		})
	})
}
