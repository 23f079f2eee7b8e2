package monitoring

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/schedsim/driver"
	"github.com/sarchlab/schedsim/hooking"
	"github.com/sarchlab/schedsim/process"
	"github.com/sarchlab/schedsim/scheduling"
	"github.com/sarchlab/schedsim/stats"
)

type fakeController struct {
	calls []string
	state driver.State
	procs []*process.Process
}

func (c *fakeController) Pause()  { c.calls = append(c.calls, "pause") }
func (c *fakeController) Resume() { c.calls = append(c.calls, "resume") }
func (c *fakeController) Stop()   { c.calls = append(c.calls, "stop") }

func (c *fakeController) State() driver.State {
	return c.state
}

func (c *fakeController) Processes() []*process.Process {
	return c.procs
}

var _ = Describe("Monitor", func() {
	var (
		m          *Monitor
		controller *fakeController
		server     *httptest.Server
	)

	get := func(path string) (int, []byte) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	BeforeEach(func() {
		running := process.MustNew(1, "Editor", 5, 0)
		running.ExecuteTick()
		waiting := process.MustNew(2, "", 3, 1)

		controller = &fakeController{
			state: driver.State{
				Clock:   3,
				Running: running,
				Ready:   []*process.Process{waiting},
				Snapshot: scheduling.Snapshot{
					Tick:          2,
					States:        map[int]string{1: "X", 2: "1"},
					Running:       1,
					RemainingWork: 7,
				},
			},
			procs: []*process.Process{running, waiting},
		}

		m = NewMonitor(nil)
		m.RegisterController(controller)
		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should forward control requests", func() {
		for _, path := range []string{"/api/pause", "/api/continue", "/api/stop"} {
			code, _ := get(path)
			Expect(code).To(Equal(http.StatusOK))
		}

		Expect(controller.calls).To(Equal([]string{"pause", "resume", "stop"}))
	})

	It("should report the clock", func() {
		_, body := get("/api/now")

		Expect(body).To(MatchJSON(`{"now":3}`))
	})

	It("should report the state", func() {
		_, body := get("/api/state")

		var rsp stateRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.Now).To(Equal(3))
		Expect(rsp.Running.Label).To(Equal("Editor (P1)"))
		Expect(rsp.Running.Remaining).To(Equal(4))
		Expect(rsp.Ready).To(HaveLen(1))
		Expect(rsp.Ready[0].State).To(Equal("New"))
		Expect(rsp.Symbols).To(Equal(map[string]string{"1": "X", "2": "1"}))
		Expect(rsp.RemainingWork).To(Equal(7))
		Expect(rsp.Statistics).To(BeEmpty())
		Expect(rsp.Error).To(BeEmpty())
	})

	It("should report statistics and errors", func() {
		controller.state.Finished = true
		controller.state.Statistics = stats.Compute(
			controller.procs, map[int]int{1: 5, 2: 8})
		controller.state.Err = errors.New("boom")

		_, body := get("/api/state")

		var rsp stateRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.Statistics).To(HaveLen(2))
		Expect(rsp.Statistics[1].Wait).To(Equal(4))
		Expect(rsp.AverageIndex).To(BeNumerically(">", 0))
		Expect(rsp.Error).To(Equal("boom"))
	})

	It("should serialize a process", func() {
		code, body := get("/api/process/2")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("Process 2"))
	})

	It("should reject unknown or malformed process ids", func() {
		code, _ := get("/api/process/9")
		Expect(code).To(Equal(http.StatusNotFound))

		code, _ = get("/api/process/abc")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should report run times", func() {
		counter := hooking.NewRunTimeCounter()
		counter.Func(hooking.HookCtx{
			Pos:  hooking.HookPosExecute,
			Item: controller.procs[0],
		})
		m.RegisterRunTimeCounter(counter)

		_, body := get("/api/runtime")

		Expect(body).To(MatchJSON(`{"1":1}`))
	})

	It("should track progress through the hook", func() {
		bar := m.CreateProgressBar("Work", 8)
		hook := NewProgressHook(bar)

		hook.Func(hooking.HookCtx{Pos: hooking.HookPosExecute})
		hook.Func(hooking.HookCtx{Pos: hooking.HookPosSnapshot})
		hook.Func(hooking.HookCtx{Pos: hooking.HookPosExecute})

		_, body := get("/api/progress")

		var views []progressBarView
		Expect(json.Unmarshal(body, &views)).To(Succeed())
		Expect(views).To(HaveLen(1))
		Expect(views[0].Name).To(Equal("Work"))
		Expect(views[0].Total).To(Equal(uint64(8)))
		Expect(views[0].Finished).To(Equal(uint64(2)))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(body).To(MatchJSON(`[]`))
	})

	It("should fall back to a random port for reserved ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should not start without a controller", func() {
		_, err := NewMonitor(nil).StartServer()

		Expect(err).To(HaveOccurred())
	})
})
