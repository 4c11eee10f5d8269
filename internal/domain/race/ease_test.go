package race

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEasing(t *testing.T) {
	Convey("smoothstep clamps and eases", t, func() {
		So(smoothstep(-1), ShouldEqual, 0)
		So(smoothstep(0), ShouldEqual, 0)
		So(smoothstep(0.5), ShouldEqual, 0.5)
		So(smoothstep(1), ShouldEqual, 1)
		So(smoothstep(2), ShouldEqual, 1)
	})

	Convey("slow motion only bites near the line", t, func() {
		So(slowMotionFactor(0.5), ShouldEqual, 1)
		So(slowMotionFactor(0.9), ShouldEqual, 1)
		So(slowMotionFactor(0.97), ShouldAlmostEqual, slowMotionFloor)
		So(slowMotionFactor(1), ShouldAlmostEqual, slowMotionFloor)
	})

	Convey("progress is bounded to the course", t, func() {
		So(progressOf(StartOffset), ShouldEqual, 0)
		So(progressOf(50), ShouldEqual, 0.5)
		So(progressOf(150), ShouldEqual, 1)
	})

	Convey("durations clamp and scale", t, func() {
		So(clampDuration(time.Second, 0, 50*time.Millisecond), ShouldEqual, 50*time.Millisecond)
		So(clampDuration(-time.Second, 0, 50*time.Millisecond), ShouldEqual, time.Duration(0))
		So(scaleDuration(100*time.Millisecond, 0.5), ShouldEqual, 50*time.Millisecond)
	})

	Convey("phases marshal as text", t, func() {
		b, err := Running.MarshalText()
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, "running")
		So(Phase(9).String(), ShouldEqual, "unknown")
		So(Finished.String(), ShouldEqual, "finished")

		var p Phase
		So(p.UnmarshalText([]byte("completed")), ShouldBeNil)
		So(p, ShouldEqual, Completed)
		So(p.UnmarshalText([]byte("sprinting")), ShouldNotBeNil)
	})
}
