package multiverse

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewAmplitudeState(t *testing.T) {
	Convey("Given unnormalized amplitudes", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"up":   1 + 0i,
			"down": 1 + 0i,
		})

		Convey("Then construction normalizes them", func() {
			So(err, ShouldBeNil)
			probs := state.Probabilities()
			So(math.Abs(probs["up"]-0.5), ShouldBeLessThan, Eps)
			So(math.Abs(probs["down"]-0.5), ShouldBeLessThan, Eps)
		})
	})

	Convey("Given all-zero amplitudes", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"up":   0,
			"down": 0,
		})

		Convey("Then construction fails with a normalization error", func() {
			So(state, ShouldBeNil)
			So(err, ShouldWrap, ErrZeroState)
		})
	})

	Convey("Given complex phases", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"0": complex(0, 1),
			"1": complex(1, 0),
		})

		Convey("Then phases do not affect probabilities", func() {
			So(err, ShouldBeNil)
			probs := state.Probabilities()
			So(math.Abs(probs["0"]-0.5), ShouldBeLessThan, Eps)
			So(math.Abs(probs["1"]-0.5), ShouldBeLessThan, Eps)
		})
	})
}

func TestIsDefinite(t *testing.T) {
	Convey("Given a one-hot state", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"up":   1 + 0i,
			"down": 0,
		})
		So(err, ShouldBeNil)

		Convey("Then it is definite on its single label", func() {
			label, ok := state.IsDefinite()
			So(ok, ShouldBeTrue)
			So(label, ShouldEqual, "up")
		})
	})

	Convey("Given a superposition", t, func() {
		state, err := NewUniformState("up", "down")
		So(err, ShouldBeNil)

		Convey("Then it is not definite", func() {
			_, ok := state.IsDefinite()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSubsetOperations(t *testing.T) {
	Convey("Given a Bell-pair state over 00 and 11", t, func() {
		bell, err := NewUniformState("00", "11")
		So(err, ShouldBeNil)

		Convey("When marginalizing on the first qubit", func() {
			probs, err := bell.SubsetProbabilities([]int{0})

			Convey("Then each sub-label carries half the probability", func() {
				So(err, ShouldBeNil)
				So(len(probs), ShouldEqual, 2)
				So(math.Abs(probs["0"]-0.5), ShouldBeLessThan, Eps)
				So(math.Abs(probs["1"]-0.5), ShouldBeLessThan, Eps)
			})
		})

		Convey("Then no qubit is definite on its own", func() {
			_, ok := bell.IsDefiniteSubset([]int{0})
			So(ok, ShouldBeFalse)
			_, ok = bell.IsDefiniteSubset([]int{1})
			So(ok, ShouldBeFalse)
		})

		Convey("When collapsing the first qubit to 0", func() {
			collapsed, err := bell.CollapseOnSubset([]int{0}, "0")

			Convey("Then the entangled partner collapses with it", func() {
				So(err, ShouldBeNil)
				label, ok := collapsed.IsDefinite()
				So(ok, ShouldBeTrue)
				So(label, ShouldEqual, "00")
			})
		})

		Convey("When collapsing to an outcome with no survivors", func() {
			_, err := bell.CollapseOnSubset([]int{0}, "2")

			Convey("Then it fails", func() {
				So(err, ShouldWrap, ErrNoSurvivors)
			})
		})
	})

	Convey("Given labels of mismatched lengths", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"0":  1 + 0i,
			"00": 1 + 0i,
		})
		So(err, ShouldBeNil)

		Convey("Then any subset operation is fatal", func() {
			_, err := state.SubsetProbabilities([]int{0})
			So(err, ShouldWrap, ErrLabelLength)
		})
	})

	Convey("Given a state whose second qubit is already determined", t, func() {
		state, err := NewUniformState("00", "10")
		So(err, ShouldBeNil)

		Convey("Then that qubit subset is definite", func() {
			sub, ok := state.IsDefiniteSubset([]int{1})
			So(ok, ShouldBeTrue)
			So(sub, ShouldEqual, "0")
		})
	})
}
