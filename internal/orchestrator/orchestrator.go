// Package orchestrator implements the Control Orchestrator (C8): the
// top-level mode-selector loop that repeatedly reads Control.Mode and
// dispatches to the Mode Executor. A Running flag, a Stop channel, and a
// *sync.WaitGroup let the caller wait for clean shutdown.
package orchestrator

import (
	"log"
	"sync"

	"github.com/pifire-go/pifire-core/internal/mode"
	"github.com/pifire-go/pifire-core/internal/store"
)

// Orchestrator owns the mode.Executor and the top-level dispatch loop.
type Orchestrator struct {
	exec    *mode.Executor
	control *store.ControlStore

	errLog, infoLog *log.Logger

	WaitGroup *sync.WaitGroup
	Stop      chan struct{}
	Running   bool
}

func New(deps mode.Deps, control *store.ControlStore, errLog, infoLog *log.Logger) *Orchestrator {
	if errLog == nil {
		errLog = log.Default()
	}
	if infoLog == nil {
		infoLog = log.Default()
	}
	return &Orchestrator{
		exec:    mode.NewExecutor(deps),
		control: control,
		errLog:  errLog,
		infoLog: infoLog,
		Stop:    make(chan struct{}),
	}
}

// Run dispatches to the Mode Executor in a loop until Stop is signaled.
// Each RunMode call returns once its mode's loop exits (control.updated,
// a selector-switch flip to OEM, or a terminal timeout); the orchestrator
// then clears the updated flag, so the next mode's loop does not exit on
// the same request, and re-reads Control.Mode to dispatch again.
func (o *Orchestrator) Run() {
	o.infoLog.Printf("starting control orchestrator\n")
	o.Running = true
	if o.WaitGroup != nil {
		o.WaitGroup.Add(1)
	}
	defer func() {
		o.Running = false
		if o.WaitGroup != nil {
			o.WaitGroup.Done()
		}
		o.infoLog.Printf("stopped control orchestrator\n")
	}()

	// RunMode blocks inside its own 50ms-period loop; the only way to
	// unstick it on shutdown is to make it observe control.updated like
	// any other mode change would, so a stop request is turned into one.
	go func() {
		<-o.Stop
		if err := o.control.Update(func(c *store.Control) error {
			c.Updated = true
			return nil
		}); err != nil {
			o.errLog.Printf("orchestrator: failed to signal stop via control.updated: %v\n", err)
		}
	}()

	for o.Running {
		select {
		case <-o.Stop:
			return
		default:
		}

		ctrl, err := o.control.Read()
		if err != nil {
			o.errLog.Printf("orchestrator: control read failed: %v\n", err)
			continue
		}

		currentMode := ctrl.Mode
		o.infoLog.Printf("orchestrator: entering mode %s\n", currentMode)

		reason, err := o.exec.RunMode(currentMode)
		if err != nil {
			o.errLog.Printf("orchestrator: mode %s exited with error: %v\n", currentMode, err)
		} else {
			o.infoLog.Printf("orchestrator: mode %s exited (%s)\n", currentMode, reason)
		}

		if err == nil && reason == mode.ExitTerminalTimeout &&
			(currentMode == store.ModeStartup || currentMode == store.ModeReignite) {
			o.advanceAfterStartup()
		}

		select {
		case <-o.Stop:
			return
		default:
		}

		if err := o.control.ClearUpdated(); err != nil {
			o.errLog.Printf("orchestrator: failed to clear updated flag: %v\n", err)
		}
	}
}

// advanceAfterStartup implements spec §4.8: once Startup/Reignite reaches
// its 240s timeout without a safety trip, that's normal completion, not a
// failure — select the mode the original requester intended to enter next
// (control.next_mode), defaulting to Hold if none was recorded.
func (o *Orchestrator) advanceAfterStartup() {
	if err := o.control.Update(func(c *store.Control) error {
		next := c.NextMode
		if next == "" {
			next = store.ModeHold
		}
		c.Mode = next
		return nil
	}); err != nil {
		o.errLog.Printf("orchestrator: failed to advance past startup: %v\n", err)
	}
}
