package session_test

import (
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/internal/domain/session"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newSession(opts ...race.Option) *session.Session {
	opts = append([]race.Option{race.WithSeed(21), race.WithClock(func() time.Time { return t0 })}, opts...)
	return session.New("s-1", race.New(opts...), t0)
}

// run advances s in 16ms frames until the race completes.
func run(s *session.Session, from time.Time) time.Time {
	now := from
	for i := 0; i < 10000; i++ {
		now = now.Add(16 * time.Millisecond)
		v, _ := s.Advance(now)
		if v.Phase == race.Completed {
			break
		}
	}
	return now
}

func TestSession_Start(t *testing.T) {
	Convey("Given a fresh session", t, func() {
		s := newSession()
		So(s.ID(), ShouldEqual, "s-1")
		So(s.NeedsFrames(), ShouldBeFalse)

		Convey("When it starts with names", func() {
			v, err := s.Start([]string{" Mina ", "Joon", ""}, t0)

			Convey("Then the trimmed roster is kept and a race id is minted", func() {
				So(err, ShouldBeNil)
				So(v.Names, ShouldResemble, []string{"Mina", "Joon"})
				So(v.Races, ShouldEqual, 1)
				id, err := ksuid.Parse(v.RaceID)
				So(err, ShouldBeNil)
				So(id.IsNil(), ShouldBeFalse)
				So(v.Phase, ShouldEqual, race.StartAnimation)
				So(s.NeedsFrames(), ShouldBeTrue)
				So(s.Info().Runners, ShouldEqual, 2)
			})
		})

		Convey("When it starts without names", func() {
			v, err := s.Start(nil, t0)

			Convey("Then the error surfaces and no race exists", func() {
				So(err, ShouldEqual, race.ErrNoRunners)
				So(v.RaceID, ShouldBeEmpty)
				So(v.Status, ShouldEqual, "Add at least one name!")
			})
		})

		Convey("When rerun before any race", func() {
			_, err := s.Rerun(t0)
			So(err, ShouldEqual, race.ErrNoRunners)
		})
	})
}

func TestSession_FirstFrame(t *testing.T) {
	Convey("Given a session started later than its engine stamped the race", t, func() {
		s := newSession()
		_, err := s.Start([]string{"A", "B"}, t0.Add(time.Second))
		So(err, ShouldBeNil)

		Convey("When the first frame arrives", func() {
			v, ticked := s.Advance(t0.Add(16 * time.Millisecond))

			Convey("Then dt is measured from the race start", func() {
				So(ticked, ShouldBeTrue)
				So(v.Tick, ShouldEqual, 1)
				So(v.Elapsed, ShouldEqual, 16*time.Millisecond)
			})
		})
	})
}

func TestSession_Advance(t *testing.T) {
	Convey("Given a started session", t, func() {
		s := newSession()
		_, err := s.Start([]string{"A", "B", "C"}, t0)
		So(err, ShouldBeNil)

		Convey("When frames arrive in order", func() {
			v1, ticked1 := s.Advance(t0.Add(16 * time.Millisecond))
			v2, ticked2 := s.Advance(t0.Add(32 * time.Millisecond))

			Convey("Then each frame ticks once", func() {
				So(ticked1, ShouldBeTrue)
				So(ticked2, ShouldBeTrue)
				So(v1.Tick, ShouldEqual, 1)
				So(v2.Tick, ShouldEqual, 2)
			})
		})

		Convey("When a stale frame arrives", func() {
			s.Advance(t0.Add(32 * time.Millisecond))
			v, ticked := s.Advance(t0.Add(16 * time.Millisecond))

			Convey("Then it is ignored", func() {
				So(ticked, ShouldBeFalse)
				So(v.Tick, ShouldEqual, 1)
			})
		})

		Convey("When the race runs to completion", func() {
			end := run(s, t0)
			res, err := s.Results()

			Convey("Then results are available and the view carries them", func() {
				So(err, ShouldBeNil)
				So(res.Standings, ShouldHaveLength, 3)
				v := s.View()
				So(v.Result, ShouldNotBeNil)
				So(v.Result.Loser, ShouldResemble, res.Loser)
				So(res.Designated, ShouldBeBetweenOrEqual, 0, 2)
			})

			Convey("Then frames continue until the zoom settles", func() {
				So(s.NeedsFrames(), ShouldBeTrue)
				now := end
				for i := 0; i < 200 && s.NeedsFrames(); i++ {
					now = now.Add(16 * time.Millisecond)
					s.Advance(now)
				}
				So(s.NeedsFrames(), ShouldBeFalse)
			})

			Convey("And a rerun reuses the roster with a new race id", func() {
				first := s.View().RaceID
				v, err := s.Rerun(end)
				So(err, ShouldBeNil)
				So(v.Names, ShouldResemble, []string{"A", "B", "C"})
				So(v.RaceID, ShouldNotEqual, first)
				So(v.Races, ShouldEqual, 2)
				So(v.Phase, ShouldEqual, race.StartAnimation)
			})
		})

		Convey("When reset", func() {
			v := s.Reset(t0.Add(time.Second))

			Convey("Then the race is gone but the roster stays", func() {
				So(v.Phase, ShouldEqual, race.NotStarted)
				So(v.RaceID, ShouldBeEmpty)
				So(v.Names, ShouldResemble, []string{"A", "B", "C"})
				So(s.Info().TouchedAt, ShouldEqual, t0.Add(time.Second))
				So(s.NeedsFrames(), ShouldBeFalse)
			})
		})
	})
}
