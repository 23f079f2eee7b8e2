package policy

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/schedsim/process"
)

func ids(procs []*process.Process) []int {
	out := make([]int, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.ID)
	}

	return out
}

func withRemaining(id, burst, remaining int) *process.Process {
	p := process.MustNew(id, "", burst, 0)
	for p.RemainingBurst() > remaining {
		p.ExecuteTick()
	}

	return p
}

var _ = Describe("ParseAlgorithm", func() {
	DescribeTable("should accept known names",
		func(name string, expected Algorithm) {
			a, err := ParseAlgorithm(name)

			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(expected))
		},
		Entry("fcfs", "fcfs", FCFS),
		Entry("SJF", "SJF", SJF),
		Entry("srtf", " srtf ", SRTF),
		Entry("RR", "RR", RoundRobin),
		Entry("Round Robin", "Round Robin", RoundRobin),
		Entry("round-robin", "round-robin", RoundRobin),
	)

	It("should reject unknown names", func() {
		_, err := ParseAlgorithm("lottery")

		var cErr *ConfigurationError
		Expect(errors.As(err, &cErr)).To(BeTrue())
		Expect(cErr.Field).To(Equal("algorithm"))
	})
})

var _ = Describe("New", func() {
	It("should require a positive quantum for Round Robin", func() {
		_, err := New(RoundRobin, 0)

		var cErr *ConfigurationError
		Expect(errors.As(err, &cErr)).To(BeTrue())
		Expect(cErr.Field).To(Equal("quantum"))
	})

	It("should ignore the quantum for other algorithms", func() {
		p, err := New(FCFS, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(p.Algorithm()).To(Equal(FCFS))
	})

	It("should reject unknown algorithms", func() {
		_, err := New(Algorithm("Priority"), 2)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Policies", func() {
	var p1, p2, p3 *process.Process

	BeforeEach(func() {
		p1 = process.MustNew(1, "", 5, 0)
		p2 = process.MustNew(2, "", 2, 0)
		p3 = process.MustNew(3, "", 2, 0)
	})

	Context("FCFS", func() {
		var pol Policy

		BeforeEach(func() {
			pol, _ = New(FCFS, 0)
		})

		It("should pop the head", func() {
			next, rest := pol.SelectNext([]*process.Process{p1, p2, p3})

			Expect(next).To(BeIdenticalTo(p1))
			Expect(ids(rest)).To(Equal([]int{2, 3}))
		})

		It("should never preempt", func() {
			Expect(pol.ShouldPreempt(p1, []*process.Process{p2}, 100)).
				To(BeFalse())
		})

		It("should display in insertion order", func() {
			Expect(ids(pol.DisplayOrder([]*process.Process{p3, p1, p2}))).
				To(Equal([]int{3, 1, 2}))
		})
	})

	Context("SJF", func() {
		var pol Policy

		BeforeEach(func() {
			pol, _ = New(SJF, 0)
		})

		It("should pick the shortest burst, keeping ties in order", func() {
			next, rest := pol.SelectNext([]*process.Process{p1, p3, p2})

			Expect(next).To(BeIdenticalTo(p3))
			Expect(ids(rest)).To(Equal([]int{2, 1}))
		})

		It("should rank by total burst, not remaining burst", func() {
			long := withRemaining(4, 6, 1)

			Expect(ids(pol.DisplayOrder([]*process.Process{long, p2}))).
				To(Equal([]int{2, 4}))
		})

		It("should never preempt", func() {
			Expect(pol.ShouldPreempt(p1, []*process.Process{p2}, 100)).
				To(BeFalse())
		})

		It("should not modify the given queue", func() {
			ready := []*process.Process{p1, p2, p3}
			pol.DisplayOrder(ready)
			pol.SelectNext(ready)

			Expect(ids(ready)).To(Equal([]int{1, 2, 3}))
		})
	})

	Context("SRTF", func() {
		var pol Policy

		BeforeEach(func() {
			pol, _ = New(SRTF, 0)
		})

		It("should pick the shortest remaining burst", func() {
			a := withRemaining(4, 9, 1)

			next, rest := pol.SelectNext([]*process.Process{p1, p2, a})

			Expect(next).To(BeIdenticalTo(a))
			Expect(ids(rest)).To(Equal([]int{2, 1}))
		})

		It("should preempt when a ready process is strictly shorter", func() {
			running := withRemaining(4, 6, 5)

			Expect(pol.ShouldPreempt(running, []*process.Process{p2}, 1)).
				To(BeTrue())
		})

		It("should not preempt on a tie", func() {
			running := withRemaining(4, 6, 2)

			Expect(pol.ShouldPreempt(running, []*process.Process{p2}, 1)).
				To(BeFalse())
		})

		It("should not preempt with an empty ready queue", func() {
			Expect(pol.ShouldPreempt(p1, nil, 1)).To(BeFalse())
		})

		It("should display by remaining burst", func() {
			a := withRemaining(4, 9, 3)

			Expect(ids(pol.DisplayOrder([]*process.Process{p1, a, p2}))).
				To(Equal([]int{2, 4, 1}))
		})
	})

	Context("Round Robin", func() {
		var pol Policy

		BeforeEach(func() {
			pol, _ = New(RoundRobin, 2)
		})

		It("should preempt once the quantum is used", func() {
			ready := []*process.Process{p2}

			Expect(pol.ShouldPreempt(p1, ready, 1)).To(BeFalse())
			Expect(pol.ShouldPreempt(p1, ready, 2)).To(BeTrue())
			Expect(pol.ShouldPreempt(p1, ready, 3)).To(BeTrue())
		})

		It("should pop the head and display in insertion order", func() {
			next, rest := pol.SelectNext([]*process.Process{p2, p1, p3})

			Expect(next).To(BeIdenticalTo(p2))
			Expect(ids(rest)).To(Equal([]int{1, 3}))
			Expect(ids(pol.DisplayOrder(rest))).To(Equal([]int{1, 3}))
		})
	})
})

var _ = Describe("Round Robin quantum", func() {
	It("should expose the quantum", func() {
		pol, err := New(RoundRobin, 5)
		Expect(err).NotTo(HaveOccurred())

		q, ok := pol.(interface{ Quantum() int })
		Expect(ok).To(BeTrue())
		Expect(q.Quantum()).To(Equal(5))
	})
})
