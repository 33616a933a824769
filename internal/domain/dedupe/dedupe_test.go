package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/dyscreen/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When a submission is new", func() {
			seen := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a submission is repeated", func() {
			d.SeenAndRecord(ctx, "sub-1")
			seen := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then it is reported as seen and not counted twice", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the limit is exceeded", func() {
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
			}

			Convey("Then the oldest ID is forgotten first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})

		Convey("When a submission is unrecorded", func() {
			d.SeenAndRecord(ctx, "sub-1")
			d.SeenAndRecord(ctx, "sub-2")
			d.Unrecord(ctx, "sub-1")

			Convey("Then it can be submitted again", func() {
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown ID is a no-op", func() {
				d.Unrecord(ctx, "nope")
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent submitters racing on the same IDs", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var fresh atomic.Int64
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i)) {
						fresh.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each ID is recorded exactly once", func() {
			So(fresh.Load(), ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
