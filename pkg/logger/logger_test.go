package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("When logging at info", func() {
			Get().Info(context.Background(), "race started", String("race", "r1"), Int("runners", 4))

			Convey("Then the message, fields and source land in the output", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "race started")
				So(out, ShouldContainSubstring, "race=r1")
				So(out, ShouldContainSubstring, "runners=4")
				So(out, ShouldContainSubstring, "source=logger_test.go")
			})
		})

		Convey("When debug is below the level", func() {
			Get().Debug(context.Background(), "noisy")
			So(buf.Len(), ShouldEqual, 0)

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(context.Background(), "noisy")
			So(buf.String(), ShouldContainSubstring, "noisy")
		})

		Convey("When a named logger is used", func() {
			Named("worker").Warn(context.Background(), "lagging", Duration("lag", time.Second))
			So(buf.String(), ShouldContainSubstring, "component=worker")
			So(buf.String(), ShouldContainSubstring, "lag=1s")
		})

		Convey("When a nil context is passed", func() {
			So(func() { Get().Info(nil, "no ctx") }, ShouldNotPanic) //nolint:staticcheck // nil ctx tolerated
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithJSON()), ShouldBeNil)

		Get().Error(context.Background(), "frame failed", Error(errors.New("boom")), Bool("stalled", true))

		Convey("Then each record is one JSON object", func() {
			var rec map[string]interface{}
			So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
			So(rec["msg"], ShouldEqual, "frame failed")
			So(rec["level"], ShouldEqual, "ERROR")
			So(rec["error"], ShouldEqual, "boom")
			So(rec["stalled"], ShouldEqual, true)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warn", "warning", " error "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}
