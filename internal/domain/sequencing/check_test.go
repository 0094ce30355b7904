package sequencing_test

import (
	"testing"

	"github.com/okian/terimu/internal/domain/sequencing"
	. "github.com/smartystreets/goconvey/convey"
)

// arrange places the given ids into slots 0..n-1 in order.
func arrange(b *sequencing.Board, s sequencing.State, ids ...sequencing.ItemID) sequencing.State {
	for i, id := range ids {
		s, _ = b.ApplyDrop(s, id, sequencing.SlotTarget(i))
	}
	return s
}

func TestCheckCompletion(t *testing.T) {
	Convey("Given the correct order 1..8", t, func() {
		b := newBoard(t, 8, sequencing.WithSeed(11))
		s := b.Initialize()

		Convey("When no card has been placed", func() {
			next, res := b.CheckCompletion(s)

			Convey("Then the board is incomplete", func() {
				So(res, ShouldResemble, sequencing.Result{Verdict: sequencing.VerdictIncomplete})
				So(next.Verdict, ShouldEqual, sequencing.VerdictIncomplete)
				So(next.Status, ShouldEqual, sequencing.StatusInProgress)
			})
		})

		Convey("When seven of eight slots are filled correctly", func() {
			s = arrange(b, s, 1, 2, 3, 4, 5, 6, 7)
			_, res := b.CheckCompletion(s)

			Convey("Then the board is still incomplete", func() {
				So(res.Complete, ShouldBeFalse)
				So(res.Verdict, ShouldEqual, sequencing.VerdictIncomplete)
			})
		})

		Convey("When every card is placed in the correct order", func() {
			s = arrange(b, s, 1, 2, 3, 4, 5, 6, 7, 8)
			next, res := b.CheckCompletion(s)

			Convey("Then the check succeeds and the game completes", func() {
				So(res, ShouldResemble, sequencing.Result{Complete: true, Success: true, Verdict: sequencing.VerdictSuccess})
				So(next.Status, ShouldEqual, sequencing.StatusCompleted)
				So(len(next.Pool), ShouldEqual, 0)
			})

			Convey("And the input state keeps its previous result", func() {
				So(s.Status, ShouldEqual, sequencing.StatusInProgress)
				So(s.Verdict, ShouldEqual, sequencing.VerdictNone)
			})
		})

		Convey("When cards 1 and 2 are transposed", func() {
			s = arrange(b, s, 2, 1, 3, 4, 5, 6, 7, 8)
			next, res := b.CheckCompletion(s)

			Convey("Then the order is reported incorrect", func() {
				So(res, ShouldResemble, sequencing.Result{Complete: true, Verdict: sequencing.VerdictIncorrect})
				So(next.Status, ShouldEqual, sequencing.StatusInProgress)
			})
		})

		Convey("When the last two cards are transposed", func() {
			s = arrange(b, s, 1, 2, 3, 4, 5, 6, 8, 7)
			_, res := b.CheckCompletion(s)

			Convey("Then the order is reported incorrect", func() {
				So(res.Success, ShouldBeFalse)
				So(res.Verdict, ShouldEqual, sequencing.VerdictIncorrect)
			})
		})
	})
}

func TestMarks(t *testing.T) {
	Convey("Given a partly arranged board", t, func() {
		b := newBoard(t, 4, sequencing.WithShuffler(keepOrder{}))
		s := arrange(b, b.Initialize(), 1, 3)

		Convey("When per-slot marks are computed", func() {
			marks := b.Marks(s)

			Convey("Then each slot is judged on its own", func() {
				So(marks, ShouldResemble, []sequencing.SlotMark{
					sequencing.MarkCorrect,
					sequencing.MarkMisplaced,
					sequencing.MarkEmpty,
					sequencing.MarkEmpty,
				})
			})

			Convey("And a correct slot does not make the board complete", func() {
				_, res := b.CheckCompletion(s)
				So(res.Complete, ShouldBeFalse)
			})
		})
	})
}
