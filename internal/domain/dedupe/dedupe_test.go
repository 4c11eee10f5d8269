package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/coffeerun/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryCoalescer(t *testing.T) {
	Convey("Given a new coalescer", t, func() {
		ctx := context.Background()
		c := dedupe.NewInMemoryCoalescer()
		So(c.Size(), ShouldEqual, 0)

		Convey("When a session claims its first frame", func() {
			already := c.Claim(ctx, "session-1")

			Convey("Then the claim is new", func() {
				So(already, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And a second frame for the same session is coalesced", func() {
				So(c.Claim(ctx, "session-1"), ShouldBeTrue)
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And after release the session may claim again", func() {
				c.Release(ctx, "session-1")
				So(c.Size(), ShouldEqual, 0)
				So(c.Claim(ctx, "session-1"), ShouldBeFalse)
			})
		})

		Convey("When releasing an unknown session", func() {
			c.Release(ctx, "nobody")
			So(c.Size(), ShouldEqual, 0)
		})

		Convey("When claims are released out of order", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				So(c.Claim(ctx, id), ShouldBeFalse)
			}
			c.Release(ctx, "c")
			c.Release(ctx, "a")
			c.Release(ctx, "d")

			Convey("Then the remaining claim is intact", func() {
				So(c.Size(), ShouldEqual, 1)
				So(c.Claim(ctx, "b"), ShouldBeTrue)
				So(c.Claim(ctx, "a"), ShouldBeFalse)
			})
		})
	})
}

func TestCoalescerBound(t *testing.T) {
	Convey("Given a coalescer bounded to three pending sessions", t, func() {
		ctx := context.Background()
		c := dedupe.NewInMemoryCoalescer(dedupe.WithMaxPending(3))
		for _, id := range []string{"s1", "s2", "s3"} {
			c.Claim(ctx, id)
		}

		Convey("When a fourth session claims", func() {
			So(c.Claim(ctx, "s4"), ShouldBeFalse)

			Convey("Then the oldest claim is evicted", func() {
				So(c.Size(), ShouldEqual, 3)
				So(c.Claim(ctx, "s4"), ShouldBeTrue)
				So(c.Claim(ctx, "s3"), ShouldBeTrue)
				So(c.Claim(ctx, "s1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given an unbounded coalescer", t, func() {
		ctx := context.Background()
		c := dedupe.NewInMemoryCoalescer(dedupe.WithMaxPending(0))
		for i := 0; i < 1000; i++ {
			So(c.Claim(ctx, fmt.Sprintf("s%d", i)), ShouldBeFalse)
		}
		So(c.Size(), ShouldEqual, 1000)
	})
}

func TestCoalescerConcurrency(t *testing.T) {
	Convey("Given many goroutines claiming the same sessions", t, func() {
		ctx := context.Background()
		c := dedupe.NewInMemoryCoalescer()
		const goroutines = 10
		const sessions = 50

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won = map[string]int{}
		)
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for s := 0; s < sessions; s++ {
					id := fmt.Sprintf("s%d", s)
					if !c.Claim(ctx, id) {
						mu.Lock()
						won[id]++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one claim per session wins", func() {
			So(c.Size(), ShouldEqual, sessions)
			So(len(won), ShouldEqual, sessions)
			for _, n := range won {
				So(n, ShouldEqual, 1)
			}
		})
	})
}
