package hooking

// HookPosAdmit triggers when a process arrives and joins the ready queue.
// Item is the process.
var HookPosAdmit = &HookPos{Name: "Admit"}

// HookPosPreempt triggers when the running process is sent back to the ready
// queue. Item is the process.
var HookPosPreempt = &HookPos{Name: "Preempt"}

// HookPosDispatch triggers when a process is given the CPU. Item is the
// process.
var HookPosDispatch = &HookPos{Name: "Dispatch"}

// HookPosSnapshot triggers when the snapshot of a tick is taken. Item is the
// snapshot.
var HookPosSnapshot = &HookPos{Name: "Snapshot"}

// HookPosExecute triggers after the running process consumed one tick. Item
// is the process.
var HookPosExecute = &HookPos{Name: "Execute"}

// HookPosTerminate triggers when a process finishes. Item is the process and
// Detail is the finish instant.
var HookPosTerminate = &HookPos{Name: "Terminate"}

// HookPosAbort triggers when a run hits its tick bound. Item is the error.
var HookPosAbort = &HookPos{Name: "Abort"}
