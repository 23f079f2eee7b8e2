// Package monitoring serves an HTTP interface that inspects and controls a
// realtime scheduling run.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/schedsim/driver"
	"github.com/sarchlab/schedsim/hooking"
	schedproc "github.com/sarchlab/schedsim/process"
)

// A Controller is a run that the monitor can inspect and control.
type Controller interface {
	Pause()
	Resume()
	Stop()
	State() driver.State
	Processes() []*schedproc.Process
}

// Monitor can turn a realtime run into a server and allows external
// monitoring and controlling of the run.
type Monitor struct {
	controller  Controller
	runTimes    *hooking.RunTimeCounter
	portNumber  int
	openBrowser bool
	logger      *slog.Logger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor. A nil logger discards logs.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Monitor{logger: logger.With("component", "monitor")}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port not allowed, using a random port instead",
			"port", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in a web browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterController registers the run to monitor.
func (m *Monitor) RegisterController(c Controller) {
	m.controller = c
}

// RegisterRunTimeCounter exposes the per-process run times.
func (m *Monitor) RegisterRunTimeCounter(c *hooking.RunTimeCounter) {
	m.runTimes = c
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := newProgressBar(name, total)

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the HTTP routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.resume)
	r.HandleFunc("/api/stop", m.stop)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/process/{id}", m.processDetails)
	r.HandleFunc("/api/runtime", m.runTime)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	if m.controller == nil {
		return "", errors.New("monitor: no controller registered")
	}

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitor: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor server failed", "error", err)
		}
	}()

	m.logger.Info("monitoring run", "url", url)

	if m.openBrowser {
		if err := browser.OpenURL(url + "/api/state"); err != nil {
			m.logger.Warn("cannot open browser", "error", err)
		}
	}

	return url, nil
}

// Shutdown stops the server.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.controller.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	m.controller.Resume()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) stop(w http.ResponseWriter, _ *http.Request) {
	m.controller.Stop()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.controller.State().Clock)
}

type processRsp struct {
	ID        int    `json:"id"`
	Label     string `json:"label"`
	Arrival   int    `json:"arrival"`
	Burst     int    `json:"burst"`
	Remaining int    `json:"remaining"`
	State     string `json:"state"`
}

type recordRsp struct {
	ID           int     `json:"id"`
	Label        string  `json:"label"`
	Arrival      int     `json:"arrival"`
	Burst        int     `json:"burst"`
	Finish       int     `json:"finish"`
	Turnaround   int     `json:"turnaround"`
	Wait         int     `json:"wait"`
	ServiceIndex float64 `json:"service_index"`
}

type stateRsp struct {
	Now           int               `json:"now"`
	Running       *processRsp       `json:"running"`
	Ready         []processRsp      `json:"ready"`
	Terminated    []processRsp      `json:"terminated"`
	Symbols       map[string]string `json:"symbols"`
	RemainingWork int               `json:"remaining_work"`
	Paused        bool              `json:"paused"`
	Stopped       bool              `json:"stopped"`
	Finished      bool              `json:"finished"`
	Error         string            `json:"error,omitempty"`
	Statistics    []recordRsp       `json:"statistics,omitempty"`
	AverageIndex  float64           `json:"average_service_index,omitempty"`
}

func toProcessRsp(p *schedproc.Process) processRsp {
	return processRsp{
		ID:        p.ID,
		Label:     p.Label(),
		Arrival:   p.Arrival,
		Burst:     p.TotalBurst(),
		Remaining: p.RemainingBurst(),
		State:     p.State.String(),
	}
}

func toProcessRsps(procs []*schedproc.Process) []processRsp {
	rsps := make([]processRsp, 0, len(procs))
	for _, p := range procs {
		rsps = append(rsps, toProcessRsp(p))
	}

	return rsps
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	s := m.controller.State()

	rsp := stateRsp{
		Now:           s.Clock,
		Ready:         toProcessRsps(s.Ready),
		Terminated:    toProcessRsps(s.Terminated),
		Symbols:       make(map[string]string, len(s.Snapshot.States)),
		RemainingWork: s.Snapshot.RemainingWork,
		Paused:        s.Paused,
		Stopped:       s.Stopped,
		Finished:      s.Finished,
	}

	if s.Running != nil {
		running := toProcessRsp(s.Running)
		rsp.Running = &running
	}

	for id, symbol := range s.Snapshot.States {
		rsp.Symbols[strconv.Itoa(id)] = symbol
	}

	if s.Err != nil {
		rsp.Error = s.Err.Error()
	}

	if s.Finished {
		for _, r := range s.Statistics.Records {
			rsp.Statistics = append(rsp.Statistics, recordRsp{
				ID:           r.ProcessID,
				Label:        r.Label,
				Arrival:      r.Arrival,
				Burst:        r.Burst,
				Finish:       r.Finish,
				Turnaround:   r.Turnaround,
				Wait:         r.Wait,
				ServiceIndex: r.ServiceIndex,
			})
		}
		rsp.AverageIndex = s.Statistics.AverageServiceIndex()
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) processDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid process id", http.StatusBadRequest)
		return
	}

	var found *schedproc.Process
	for _, p := range m.controller.Processes() {
		if p.ID == id {
			found = p
		}
	}

	if found == nil {
		http.Error(w, "Process not found", http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(found)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		m.logger.Error("cannot serialize process", "id", id, "error", err)
	}
}

func (m *Monitor) runTime(w http.ResponseWriter, _ *http.Request) {
	counts := map[string]int{}
	if m.runTimes != nil {
		for id, n := range m.runTimes.Counts() {
			counts[strconv.Itoa(id)] = n
		}
	}

	m.writeJSON(w, counts)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]progressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.view())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, views)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.fail(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.fail(w, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		m.fail(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		m.fail(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.fail(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		m.logger.Warn("cannot write response", "error", err)
	}
}

func (m *Monitor) fail(w http.ResponseWriter, err error) {
	m.logger.Error("monitor request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
