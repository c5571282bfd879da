package hal

import "sync"

// simPin is an in-memory PinWriter used by Sim and by tests.
type simPin struct {
	mu   sync.Mutex
	high bool
}

func (p *simPin) Write(high bool) error { p.mu.Lock(); defer p.mu.Unlock(); p.high = high; return nil }
func (p *simPin) Read() (bool, error)   { p.mu.Lock(); defer p.mu.Unlock(); return p.high, nil }

// simPWM is an in-memory PWMWriter.
type simPWM struct {
	mu      sync.Mutex
	percent int
}

func (p *simPWM) SetDutyCycle(percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent = percent
	return nil
}

func (p *simPWM) DutyCycle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

// NewSimOutputs builds a RelayOutputs wired entirely to in-memory pins,
// for tests and for running the control loop without hardware attached.
func NewSimOutputs(trigger TriggerLevel) *RelayOutputs {
	outputs, _ := NewSimOutputsWithSelector(trigger)
	return outputs
}

// NewSimOutputsWithSelector is NewSimOutputs plus a setter for the
// simulated selector-switch pin, for tests that need to exercise the
// OEM-mode selector-switch path without real hardware.
func NewSimOutputsWithSelector(trigger TriggerLevel) (*RelayOutputs, func(oem bool)) {
	selector := &simPin{}
	outputs := NewRelayOutputs(trigger,
		&simPin{}, &simPin{}, &simPin{}, &simPin{}, selector, &simPW{},
	)
	setSelector := func(oem bool) {
		_ = selector.Write(oem)
	}
	return outputs, setSelector
}

// simPW exists only so NewSimOutputs reads cleanly; it's the same type as
// simPWM, kept distinct to avoid an import-order surprise in small diffs.
type simPW = simPWM

// SimADC is a deterministic in-memory ADC returning settable voltages,
// used for tests and local development.
type SimADC struct {
	mu       sync.Mutex
	profiles [3]ProbeProfile
	Reading  ADCReading
}

func NewSimADC() *SimADC {
	return &SimADC{Reading: ADCReading{GrillV: 1.5, Probe1V: 1.5, Probe2V: 1.5}}
}

func (s *SimADC) SetProfiles(grill, p1, p2 ProbeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = [3]ProbeProfile{grill, p1, p2}
	return nil
}

func (s *SimADC) ReadAllPorts() (ADCReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Reading, nil
}

// SetReading lets tests/dev tooling push a new simulated sample.
func (s *SimADC) SetReading(r ADCReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reading = r
}

// SimDistance is a fixed/settable hopper-level sensor.
type SimDistance struct {
	mu      sync.Mutex
	Percent float64
}

func NewSimDistance(percent float64) *SimDistance { return &SimDistance{Percent: percent} }

func (s *SimDistance) GetLevel() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Percent, nil
}

// SimDisplay discards DisplayStatus/DisplayText calls but records the last
// of each for assertions in tests.
type SimDisplay struct {
	mu         sync.Mutex
	LastIn     DisplayInData
	LastStatus DisplayStatusData
	LastText   string
}

func NewSimDisplay() *SimDisplay { return &SimDisplay{} }

func (d *SimDisplay) DisplayStatus(in DisplayInData, status DisplayStatusData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.LastIn = in
	d.LastStatus = status
	return nil
}

func (d *SimDisplay) DisplayText(msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.LastText = msg
	return nil
}

func (d *SimDisplay) EventDetect() error { return nil }
