package multiverse

import (
	"math"
	"math/cmplx"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEntangledPartialMeasurement(t *testing.T) {
	Convey("Given a branch holding a Bell pair over 00 and 11", t, func() {
		root := NewRootBranch(mustUniform("00", "11"), nil)

		Convey("When measuring only the first qubit", func() {
			_, err := root.Measure("first_qubit", 0)
			So(err, ShouldBeNil)
			children, err := root.Children()
			So(err, ShouldBeNil)

			Convey("Then exactly two branches appear, each half weight", func() {
				So(len(children), ShouldEqual, 2)
				for _, child := range children {
					So(math.Abs(child.Weight-0.5), ShouldBeLessThan, Eps)
				}
			})

			Convey("Then each branch has a single surviving definite label", func() {
				labels := make(map[string]bool)
				for _, child := range children {
					label, ok := child.System().IsDefinite()
					So(ok, ShouldBeTrue)
					labels[label] = true

					nonzero := 0
					for _, l := range child.System().Labels() {
						if cmplx.Abs(child.System().Amplitude(l)) > Eps {
							nonzero++
						}
					}
					So(nonzero, ShouldEqual, 1)
				}
				So(labels["00"], ShouldBeTrue)
				So(labels["11"], ShouldBeTrue)
			})
		})
	})
}

func TestMeasurementNoOps(t *testing.T) {
	Convey("Given a branch already in a definite state", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"up":   1 + 0i,
			"down": 0,
		})
		So(err, ShouldBeNil)
		root := NewRootBranch(state, nil)

		Convey("When measuring the whole system", func() {
			branches, err := root.Measure("spin_z")
			So(err, ShouldBeNil)

			Convey("Then nothing happens and the observable stays unrecorded", func() {
				So(branches, ShouldBeEmpty)
				So(root.HasMeasured("spin_z"), ShouldBeFalse)
				So(root.PendingOutcomes(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a composite whose measured subset is already determined", t, func() {
		root := NewRootBranch(mustUniform("00", "01"), nil)

		Convey("When measuring the first qubit only", func() {
			branches, err := root.Measure("first_qubit", 0)
			So(err, ShouldBeNil)

			Convey("Then no branches are recorded", func() {
				So(branches, ShouldBeEmpty)
				So(root.PendingOutcomes(), ShouldBeEmpty)
			})
		})

		Convey("When measuring the undetermined second qubit", func() {
			_, err := root.Measure("second_qubit", 1)
			So(err, ShouldBeNil)

			Convey("Then two branches are pending", func() {
				So(root.PendingOutcomes(), ShouldResemble, []string{"0", "1"})
			})
		})
	})
}

func TestMeasurementSubsetResolution(t *testing.T) {
	Convey("Given a two-qubit Bell pair", t, func() {
		root := NewRootBranch(mustUniform("00", "11"), nil)

		Convey("When the explicit subset enumerates every index", func() {
			_, err := root.Measure("all", 0, 1)
			So(err, ShouldBeNil)

			Convey("Then outcomes are full labels, not projections", func() {
				So(root.PendingOutcomes(), ShouldResemble, []string{"00", "11"})
			})
		})

		Convey("When the subset contains an out-of-range index", func() {
			_, err := root.Measure("bad", 7)

			Convey("Then the measurement is fatal", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the subset repeats an index", func() {
			_, err := root.Measure("dup", 0, 0)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given mismatched label lengths", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"0":  1 + 0i,
			"00": 1 + 0i,
		})
		So(err, ShouldBeNil)
		root := NewRootBranch(state, nil)

		Convey("When measuring a subset", func() {
			_, err := root.Measure("first_qubit", 0)

			Convey("Then it fails on the label-length check", func() {
				So(err, ShouldWrap, ErrLabelLength)
			})
		})

		Convey("When measuring the whole system", func() {
			_, err := root.Measure("everything")

			Convey("Then no length check applies", func() {
				So(err, ShouldBeNil)
				So(root.PendingOutcomes(), ShouldResemble, []string{"0", "00"})
			})
		})
	})
}

func TestMeasurementEpsilonFiltering(t *testing.T) {
	Convey("Given a state with a vanishing amplitude", t, func() {
		state, err := NewAmplitudeState(map[string]complex128{
			"up":      1 + 0i,
			"down":    1 + 0i,
			"strange": complex(1e-12, 0),
		})
		So(err, ShouldBeNil)
		root := NewRootBranch(state, nil)

		Convey("When measuring", func() {
			_, err := root.Measure("spin_z")
			So(err, ShouldBeNil)

			Convey("Then the vanishing outcome is dropped", func() {
				So(root.PendingOutcomes(), ShouldResemble, []string{"down", "up"})
			})
		})
	})
}
