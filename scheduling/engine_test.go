package scheduling

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/schedsim/hooking"
	"github.com/sarchlab/schedsim/policy"
	"github.com/sarchlab/schedsim/process"
)

func runToEnd(e *Engine) []Snapshot {
	var snapshots []Snapshot
	for !e.Done() {
		s, err := e.Tick()
		Expect(err).NotTo(HaveOccurred())
		snapshots = append(snapshots, s)
	}

	return snapshots
}

func runningOrder(snapshots []Snapshot) []int {
	order := make([]int, 0, len(snapshots))
	for _, s := range snapshots {
		order = append(order, s.Running)
	}

	return order
}

func build(a policy.Algorithm, procs ...*process.Process) *Engine {
	e, err := MakeBuilder().WithAlgorithm(a).Build(procs)
	Expect(err).NotTo(HaveOccurred())

	return e
}

var _ = Describe("Engine", func() {
	It("should run FCFS in arrival order", func() {
		e := build(policy.FCFS,
			process.MustNew(1, "", 5, 0),
			process.MustNew(2, "", 3, 1))

		snapshots := runToEnd(e)

		Expect(runningOrder(snapshots)).To(Equal([]int{1, 1, 1, 1, 1, 2, 2, 2}))
		Expect(snapshots[0].States).To(Equal(map[int]string{1: "X", 2: ""}))
		Expect(snapshots[1].States).To(Equal(map[int]string{1: "X", 2: "1"}))
		Expect(snapshots[7].States).To(Equal(map[int]string{1: "", 2: "X"}))
		Expect(snapshots[0].RemainingWork).To(Equal(8))
		Expect(snapshots[7].RemainingWork).To(Equal(1))

		table, err := e.Statistics()
		Expect(err).NotTo(HaveOccurred())

		byID := table.ByID()
		Expect(byID[1].Finish).To(Equal(5))
		Expect(byID[1].Turnaround).To(Equal(5))
		Expect(byID[1].Wait).To(Equal(0))
		Expect(byID[1].ServiceIndex).To(BeNumerically("~", 1.0, 1e-9))
		Expect(byID[2].Finish).To(Equal(8))
		Expect(byID[2].Turnaround).To(Equal(7))
		Expect(byID[2].Wait).To(Equal(4))
		Expect(byID[2].ServiceIndex).To(BeNumerically("~", 0.4286, 1e-9))
	})

	It("should alternate Round Robin every quantum", func() {
		e, err := MakeBuilder().
			WithAlgorithm(policy.RoundRobin).
			WithQuantum(2).
			Build([]*process.Process{
				process.MustNew(1, "", 4, 0),
				process.MustNew(2, "", 4, 0),
			})
		Expect(err).NotTo(HaveOccurred())

		snapshots := runToEnd(e)

		Expect(runningOrder(snapshots)).To(Equal([]int{1, 1, 2, 2, 1, 1, 2, 2}))
		Expect(snapshots[2].States).To(Equal(map[int]string{1: "1", 2: "X"}))

		table, err := e.Statistics()
		Expect(err).NotTo(HaveOccurred())
		Expect(table.ByID()[1].Finish).To(Equal(6))
		Expect(table.ByID()[2].Finish).To(Equal(8))
		Expect(table.ByID()[2].Turnaround).To(Equal(8))
		Expect(table.ByID()[2].Wait).To(Equal(4))
		Expect(table.ByID()[2].ServiceIndex).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("should preempt for a shorter remaining burst under SRTF", func() {
		e := build(policy.SRTF,
			process.MustNew(1, "", 6, 0),
			process.MustNew(2, "", 2, 1))

		snapshots := runToEnd(e)

		Expect(runningOrder(snapshots)).To(Equal([]int{1, 2, 2, 1, 1, 1, 1, 1}))
		Expect(snapshots[1].States).To(Equal(map[int]string{1: "1", 2: "X"}))

		table, err := e.Statistics()
		Expect(err).NotTo(HaveOccurred())
		Expect(table.ByID()[2].Finish).To(Equal(3))
		Expect(table.ByID()[1].Finish).To(Equal(8))
	})

	It("should not preempt under SJF and rank by burst", func() {
		e := build(policy.SJF,
			process.MustNew(1, "", 6, 0),
			process.MustNew(2, "", 4, 1),
			process.MustNew(3, "", 2, 1))

		snapshots := runToEnd(e)

		Expect(runningOrder(snapshots)).To(Equal(
			[]int{1, 1, 1, 1, 1, 1, 3, 3, 2, 2, 2, 2}))
		Expect(snapshots[1].States).To(Equal(
			map[int]string{1: "X", 2: "2", 3: "1"}))
	})

	It("should leave the CPU idle until the next arrival", func() {
		e := build(policy.FCFS,
			process.MustNew(1, "", 2, 0),
			process.MustNew(2, "", 1, 5))

		snapshots := runToEnd(e)

		Expect(runningOrder(snapshots)).To(Equal([]int{1, 1, 0, 0, 0, 2}))
		Expect(snapshots[3].States).To(Equal(map[int]string{1: "", 2: ""}))
		Expect(snapshots[3].RemainingWork).To(Equal(1))

		finish, ok := e.FinishTime(2)
		Expect(ok).To(BeTrue())
		Expect(finish).To(Equal(6))
	})

	It("should not modify the given processes", func() {
		p := process.MustNew(1, "", 3, 0)
		e := build(policy.FCFS, p)

		runToEnd(e)

		Expect(p.RemainingBurst()).To(Equal(3))
		Expect(p.State).To(Equal(process.StateNew))
		Expect(e.Terminated()).To(HaveLen(1))
		Expect(e.Terminated()[0].State).To(Equal(process.StateTerminated))
	})

	It("should expose the ready queue in display order", func() {
		e := build(policy.SRTF,
			process.MustNew(1, "", 1, 0),
			process.MustNew(2, "", 5, 0),
			process.MustNew(3, "", 3, 0))

		_, err := e.Tick()
		Expect(err).NotTo(HaveOccurred())

		Expect(e.CurrentTime()).To(Equal(1))
		Expect(e.Running()).To(BeNil())

		ready := e.ReadyQueue()
		Expect(ready).To(HaveLen(2))
		Expect(ready[0].ID).To(Equal(3))
		Expect(ready[1].ID).To(Equal(2))
	})

	It("should reject invalid process sets", func() {
		_, err := MakeBuilder().Build([]*process.Process{
			process.MustNew(1, "", 1, 0),
			process.MustNew(1, "", 2, 0),
		})

		var vErr *process.ValidationError
		Expect(errors.As(err, &vErr)).To(BeTrue())
	})

	It("should reject Round Robin without a quantum", func() {
		_, err := MakeBuilder().
			WithAlgorithm(policy.RoundRobin).
			WithQuantum(0).
			Build([]*process.Process{process.MustNew(1, "", 1, 0)})

		var cErr *policy.ConfigurationError
		Expect(errors.As(err, &cErr)).To(BeTrue())
	})

	It("should reject a non-positive tick bound", func() {
		_, err := MakeBuilder().
			WithMaxTicks(0).
			Build([]*process.Process{process.MustNew(1, "", 1, 0)})

		var cErr *policy.ConfigurationError
		Expect(errors.As(err, &cErr)).To(BeTrue())
	})

	It("should refuse statistics while running and ticks once done", func() {
		e := build(policy.FCFS, process.MustNew(1, "", 2, 0))

		_, err := e.Tick()
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Statistics()
		Expect(err).To(MatchError(ErrRunInProgress))

		_, err = e.Tick()
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Tick()
		Expect(err).To(MatchError(ErrRunFinished))
	})

	It("should abort when the tick bound is reached", func() {
		e, err := MakeBuilder().
			WithMaxTicks(3).
			Build([]*process.Process{
				process.MustNew(1, "", 2, 0),
				process.MustNew(2, "", 5, 0),
			})
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 3; i++ {
			_, err = e.Tick()
			Expect(err).NotTo(HaveOccurred())
		}

		_, err = e.Tick()

		var aErr *SimulationAbortedError
		Expect(errors.As(err, &aErr)).To(BeTrue())
		Expect(aErr.MaxTicks).To(Equal(3))
		Expect(aErr.Unfinished).To(Equal([]int{2}))
		Expect(e.Err()).To(Equal(err))

		_, err = e.Tick()
		Expect(errors.As(err, &aErr)).To(BeTrue())

		_, err = e.Statistics()
		Expect(errors.As(err, &aErr)).To(BeTrue())
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should invoke hooks in tick order", func() {
			var positions []string
			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					positions = append(positions, ctx.Pos.Name)
				}).
				AnyTimes()

			e, err := MakeBuilder().
				WithAlgorithm(policy.RoundRobin).
				WithQuantum(1).
				WithHook(hook).
				Build([]*process.Process{
					process.MustNew(1, "", 2, 0),
					process.MustNew(2, "", 1, 0),
				})
			Expect(err).NotTo(HaveOccurred())

			runToEnd(e)

			Expect(positions).To(Equal([]string{
				"Admit", "Admit", "Dispatch", "Snapshot", "Execute",
				"Preempt", "Dispatch", "Snapshot", "Execute", "Terminate",
				"Dispatch", "Snapshot", "Execute", "Terminate",
			}))
		})

		It("should report the finish instant on termination", func() {
			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					if ctx.Pos == hooking.HookPosTerminate {
						Expect(ctx.Detail).To(Equal(3))
						Expect(ctx.Now).To(Equal(2))
					}
				}).
				AnyTimes()

			e, err := NewEngine(
				[]*process.Process{process.MustNew(1, "", 3, 0)},
				mustPolicy(policy.FCFS, 0),
				WithHook(hook))
			Expect(err).NotTo(HaveOccurred())

			runToEnd(e)
		})
	})
})

func mustPolicy(a policy.Algorithm, quantum int) policy.Policy {
	p, err := policy.New(a, quantum)
	if err != nil {
		panic(err)
	}

	return p
}

func randomWorkload(r *rand.Rand) []*process.Process {
	n := 1 + r.Intn(6)
	procs := make([]*process.Process, 0, n)
	for i := 1; i <= n; i++ {
		procs = append(procs,
			process.MustNew(i, "", 1+r.Intn(8), r.Intn(11)))
	}

	return procs
}

var _ = Describe("Engine properties", func() {
	const quantum = 3

	type tracker struct {
		consecutive map[int]int
		preempted   []int
		violations  []string
	}

	runTracked := func(
		a policy.Algorithm,
		procs []*process.Process,
	) (*Engine, *hooking.RunTimeCounter, *tracker, []Snapshot) {
		t := &tracker{consecutive: make(map[int]int)}
		counter := hooking.NewRunTimeCounter()

		var e *Engine
		check := hooking.HookFunc(func(ctx hooking.HookCtx) {
			p, _ := ctx.Item.(*process.Process)

			switch ctx.Pos {
			case hooking.HookPosDispatch:
				t.consecutive[p.ID] = 0
			case hooking.HookPosExecute:
				t.consecutive[p.ID]++
			case hooking.HookPosPreempt:
				t.preempted = append(t.preempted, p.ID)
				if a == policy.RoundRobin && t.consecutive[p.ID] < quantum {
					t.violations = append(t.violations, "early preemption")
				}
			case hooking.HookPosSnapshot:
				running := e.Running()
				if a == policy.SRTF && running != nil {
					for _, r := range e.ReadyQueue() {
						if running.RemainingBurst() > r.RemainingBurst() {
							t.violations = append(t.violations,
								"longer process running")
						}
					}
				}
			}
		})

		e, err := MakeBuilder().
			WithAlgorithm(a).
			WithQuantum(quantum).
			WithHook(counter).
			WithHook(check).
			Build(procs)
		Expect(err).NotTo(HaveOccurred())

		snapshots := runToEnd(e)

		return e, counter, t, snapshots
	}

	for _, a := range policy.Algorithms() {
		It("should hold for random workloads under "+string(a), func() {
			r := rand.New(rand.NewSource(42))

			for i := 0; i < 50; i++ {
				procs := randomWorkload(r)

				e, counter, t, snapshots := runTracked(a, procs)

				Expect(t.violations).To(BeEmpty())

				table, err := e.Statistics()
				Expect(err).NotTo(HaveOccurred())
				Expect(table.HasDegenerate()).To(BeFalse())

				for _, p := range procs {
					Expect(counter.Count(p.ID)).To(Equal(p.TotalBurst()))
				}

				if a == policy.FCFS || a == policy.SJF {
					Expect(t.preempted).To(BeEmpty())
				}

				_, _, _, again := runTracked(a, procs)
				Expect(again).To(Equal(snapshots))
			}
		})
	}
})
