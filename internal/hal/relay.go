package hal

import "sync"

// PinWriter is a single raw GPIO pin, written/read at the physical level
// (0/1), with no notion of trigger-level polarity. A real backend
// implements this against pigpio/periph/tinygo machine pins; see
// epicfatigue-drivers/pcf8575 for the shape this is grounded on.
type PinWriter interface {
	Write(high bool) error
	Read() (bool, error)
}

// PWMWriter drives a single hardware PWM channel.
type PWMWriter interface {
	SetDutyCycle(percent int) error
}

// RelayOutputs implements Outputs over four PinWriters and one PWMWriter,
// translating the engine's logical On()/Off() calls to the correct
// physical level for the configured TriggerLevel.
type RelayOutputs struct {
	mu sync.Mutex

	trigger TriggerLevel

	power, auger, fan, igniter PinWriter
	selector                   PinWriter
	pwm                        PWMWriter

	fanToggleAlt bool // tracks FanToggle's duty-cycle alternation (25/65)
}

func NewRelayOutputs(trigger TriggerLevel, power, auger, fan, igniter, selector PinWriter, pwm PWMWriter) *RelayOutputs {
	return &RelayOutputs{
		trigger:  trigger,
		power:    power,
		auger:    auger,
		fan:      fan,
		igniter:  igniter,
		selector: selector,
		pwm:      pwm,
	}
}

// physicalOn returns the physical pin level that corresponds to logical ON
// given the configured trigger polarity.
func (r *RelayOutputs) physicalOn() bool {
	return r.trigger == ActiveHigh
}

func (r *RelayOutputs) set(pin PinWriter, on bool) error {
	high := r.physicalOn()
	if !on {
		high = !high
	}
	return pin.Write(high)
}

func (r *RelayOutputs) logical(pin PinWriter) (Logical, error) {
	high, err := pin.Read()
	if err != nil {
		return Off, err
	}
	on := high == r.physicalOn()
	return Logical(on), nil
}

func (r *RelayOutputs) PowerOn() error  { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.power, true) }
func (r *RelayOutputs) PowerOff() error { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.power, false) }

func (r *RelayOutputs) AugerOn() error  { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.auger, true) }
func (r *RelayOutputs) AugerOff() error { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.auger, false) }

func (r *RelayOutputs) FanOn() error  { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.fan, true) }
func (r *RelayOutputs) FanOff() error { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.fan, false) }

// FanToggle flips the fan relay and, matching the original FanToggle,
// alternates the PWM duty between 65% and 25% each time it's called.
func (r *RelayOutputs) FanToggle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	on, err := r.logical(r.fan)
	if err != nil {
		return err
	}
	if err := r.set(r.fan, !bool(on)); err != nil {
		return err
	}
	if r.fanToggleAlt {
		r.fanToggleAlt = false
		return r.pwm.SetDutyCycle(25)
	}
	r.fanToggleAlt = true
	return r.pwm.SetDutyCycle(65)
}

func (r *RelayOutputs) IgniterOn() error  { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.igniter, true) }
func (r *RelayOutputs) IgniterOff() error { r.mu.Lock(); defer r.mu.Unlock(); return r.set(r.igniter, false) }

func (r *RelayOutputs) FanDutyCycle(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pwm.SetDutyCycle(percent)
}

// FanRamp exercises the fan from min to max and back in steps of 10, a
// boot-time smoke test for the fan's PWM wiring.
func (r *RelayOutputs) FanRamp(min, max int) error {
	for duty := min; duty <= max; duty += 10 {
		if err := r.FanDutyCycle(duty); err != nil {
			return err
		}
	}
	for duty := max; duty >= min; duty -= 10 {
		if err := r.FanDutyCycle(duty); err != nil {
			return err
		}
	}
	return nil
}

func (r *RelayOutputs) GetOutputStatus() (OutputStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.logical(r.power)
	if err != nil {
		return OutputStatus{}, err
	}
	a, err := r.logical(r.auger)
	if err != nil {
		return OutputStatus{}, err
	}
	f, err := r.logical(r.fan)
	if err != nil {
		return OutputStatus{}, err
	}
	ig, err := r.logical(r.igniter)
	if err != nil {
		return OutputStatus{}, err
	}
	return OutputStatus{Power: p, Auger: a, Fan: f, Igniter: ig}, nil
}

func (r *RelayOutputs) GetInputStatus() (SelectorPosition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	high, err := r.selector.Read()
	if err != nil {
		return SelectorController, err
	}
	if high {
		return SelectorOEM, nil
	}
	return SelectorController, nil
}
