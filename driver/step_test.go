package driver

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/schedsim/policy"
	"github.com/sarchlab/schedsim/process"
	"github.com/sarchlab/schedsim/scheduling"
)

func fcfsEngine(maxTicks int, procs ...*process.Process) *scheduling.Engine {
	e, err := scheduling.MakeBuilder().
		WithAlgorithm(policy.FCFS).
		WithMaxTicks(maxTicks).
		Build(procs)
	Expect(err).NotTo(HaveOccurred())

	return e
}

var _ = Describe("StepDriver", func() {
	It("should return one snapshot per tick and then the statistics", func() {
		d := NewStepDriver(fcfsEngine(scheduling.DefaultMaxTicks,
			process.MustNew(1, "", 5, 0),
			process.MustNew(2, "", 3, 1)))

		var ticks []int
		for {
			step, err := d.Advance()
			Expect(err).NotTo(HaveOccurred())

			if step.Done {
				Expect(step.Statistics.ByID()[2].Wait).To(Equal(4))
				break
			}

			ticks = append(ticks, step.Snapshot.Tick)
		}

		Expect(ticks).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7}))

		_, err := d.Advance()
		Expect(err).To(MatchError(ErrDriverFinished))
	})

	It("should return the abort error instead of statistics", func() {
		d := NewStepDriver(fcfsEngine(2, process.MustNew(1, "", 5, 0)))

		snapshots := 0
		_, err := d.Run(func(scheduling.Snapshot) { snapshots++ })

		var aErr *scheduling.SimulationAbortedError
		Expect(errors.As(err, &aErr)).To(BeTrue())
		Expect(snapshots).To(Equal(2))

		_, err = d.Advance()
		Expect(err).To(MatchError(ErrDriverFinished))
	})

	It("should run to the end with a nil visitor", func() {
		d := NewStepDriver(fcfsEngine(scheduling.DefaultMaxTicks,
			process.MustNew(1, "", 2, 0)))

		table, err := d.Run(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(table.Records).To(HaveLen(1))
		Expect(table.Records[0].Finish).To(Equal(2))
	})
})
