package store

import "log"

// ControlStore wraps FileStore[Control] with the convenience operations
// the mode executor and orchestrator need.
type ControlStore struct {
	*FileStore[Control]
}

func NewControlStore(path string, errLog *log.Logger) *ControlStore {
	return &ControlStore{FileStore: NewFileStore(path, DefaultControl, errLog)}
}

// RequestMode is how an external collaborator asks the control loop to
// switch modes: set mode and updated=true in one atomic update, per spec
// §3/§5 ("external collaborators set updated=true and wait").
func (c *ControlStore) RequestMode(mode Mode) error {
	return c.Update(func(ctrl *Control) error {
		ctrl.Mode = mode
		ctrl.Updated = true
		return nil
	})
}

// RequestHold validates the spec §3 invariant that setpoints.grill must be
// positive before Hold is accepted; returns ErrHoldRejected otherwise.
func (c *ControlStore) RequestHold(grillSetpoint float64) error {
	if grillSetpoint <= 0 {
		return ErrHoldRejected
	}
	return c.Update(func(ctrl *Control) error {
		ctrl.Setpoints.Grill = grillSetpoint
		ctrl.Mode = ModeHold
		ctrl.Updated = true
		return nil
	})
}

// ErrHoldRejected is returned by RequestHold when setpoints.grill <= 0.
var ErrHoldRejected = errHoldRejected{}

type errHoldRejected struct{}

func (errHoldRejected) Error() string { return "hold rejected: setpoints.grill must be > 0" }

// RequestStartup asks the control loop to run a Startup session and, once
// it completes normally (spec §4.8), auto-advance into next — the mode the
// requester actually wanted, typically Smoke or Hold. next is persisted as
// NextMode so it survives however many Reignite retries startup takes.
func (c *ControlStore) RequestStartup(next Mode) error {
	if next != ModeSmoke && next != ModeHold {
		return ErrInvalidNextMode
	}
	return c.Update(func(ctrl *Control) error {
		ctrl.Mode = ModeStartup
		ctrl.NextMode = next
		ctrl.Updated = true
		return nil
	})
}

// ErrInvalidNextMode is returned by RequestStartup when next isn't Smoke or Hold.
var ErrInvalidNextMode = errInvalidNextMode{}

type errInvalidNextMode struct{}

func (errInvalidNextMode) Error() string { return "startup next mode must be Smoke or Hold" }

// ClearUpdated acknowledges a pending mode-change request; called by the
// orchestrator once it has dispatched to the requested mode.
func (c *ControlStore) ClearUpdated() error {
	return c.Update(func(ctrl *Control) error {
		ctrl.Updated = false
		return nil
	})
}
