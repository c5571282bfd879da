package store

import "time"

// Mode is the exhaustive tagged variant replacing the source's free-form
// control['mode'] string (spec §9).
type Mode string

const (
	ModeStop     Mode = "Stop"
	ModeStartup  Mode = "Startup"
	ModeSmoke    Mode = "Smoke"
	ModeHold     Mode = "Hold"
	ModeShutdown Mode = "Shutdown"
	ModeReignite Mode = "Reignite"
	ModeMonitor  Mode = "Monitor"
	ModeManual   Mode = "Manual"
	ModeError    Mode = "Error"
)

// TriggerLevel mirrors hal.TriggerLevel at the settings layer so the store
// package doesn't need to import hal.
type TriggerLevel string

const (
	TriggerActiveHigh TriggerLevel = "ActiveHigh"
	TriggerActiveLow  TriggerLevel = "ActiveLow"
)

// Units is the display/storage temperature scale.
type Units string

const (
	UnitsF Units = "F"
	UnitsC Units = "C"
)

// ProbeProfile mirrors settings.probe_profiles[id] (spec §3).
type ProbeProfile struct {
	Name string  `json:"name"`
	Vs   float64 `json:"vs"`
	Rd   float64 `json:"rd"`
	A    float64 `json:"a"`
	B    float64 `json:"b"`
	C    float64 `json:"c"`
}

// CycleData mirrors settings.cycle_data (spec §3), including the
// fast-first-cycle and fan-strategy extensions from SPEC_FULL.md's Open
// Question decisions.
type CycleData struct {
	PMode           int     `json:"p_mode"`
	HoldCycleTimeS  float64 `json:"hold_cycle_time_s"`
	SmokeCycleTimeS float64 `json:"smoke_cycle_time_s"`
	PB              float64 `json:"pb"`
	Ti              float64 `json:"ti"`
	Td              float64 `json:"td"`
	UMin            float64 `json:"u_min"`
	UMax            float64 `json:"u_max"`
	Center          float64 `json:"center"`
	FastFirstCycle  bool    `json:"fast_first_cycle"`
	FanStrategy     string  `json:"fan_strategy"` // "stepwise" (default) or "pid"
	MinFanPercent   float64 `json:"min_fan_percent"`
	MaxFanPercent   float64 `json:"max_fan_percent"`
	MaxCycleRatio   float64 `json:"max_cycle_ratio"`
}

// SmokePlus mirrors settings.smoke_plus (spec §3).
type SmokePlus struct {
	Enabled    bool    `json:"enabled"`
	MinTemp    float64 `json:"min_temp"`
	MaxTemp    float64 `json:"max_temp"`
	CycleS     float64 `json:"cycle_s"`
	DutyCycle  int     `json:"duty_cycle"`
	FanRamp    bool    `json:"fan_ramp"`
	OnTimeS    float64 `json:"on_time_s"`
	OffTimeS   float64 `json:"off_time_s"`
}

// Safety mirrors settings.safety (spec §3), plus the startup-temp
// multiplier that SPEC_FULL.md exposes instead of hardcoding 0.4.
type Safety struct {
	MinStartupTemp       float64 `json:"min_startup_temp"`
	MaxStartupTemp       float64 `json:"max_startup_temp"`
	MaxTemp              float64 `json:"max_temp"`
	ReigniteRetries      int     `json:"reignite_retries"`
	StartupTempMultiplier float64 `json:"startup_temp_multiplier"`
}

// PelletLevel mirrors settings.pelletlevel.
type PelletLevel struct {
	WarningLevel    float64 `json:"warning_level"`
	WarningEnabled  bool    `json:"warning_enabled"`
}

// Settings is immutable per mode session: the mode executor reads it once
// at each mode entry (spec §3/§6).
type Settings struct {
	TriggerLevel  TriggerLevel            `json:"trigger_level"`
	ProbeProfiles map[string]ProbeProfile `json:"probe_profiles"`
	CycleData     CycleData               `json:"cycle_data"`
	SmokePlus     SmokePlus               `json:"smoke_plus"`
	Safety        Safety                  `json:"safety"`
	PelletLevel   PelletLevel             `json:"pelletlevel"`
	Units         Units                   `json:"units"`
	ShutdownTimerS float64                `json:"shutdown_timer_s"`
}

// Setpoints mirrors control.setpoints.
type Setpoints struct {
	Grill  float64 `json:"grill"`
	Probe1 float64 `json:"probe1"`
	Probe2 float64 `json:"probe2"`
}

// NotifyRequest mirrors control.notify_req: arm/disarm thresholds.
type NotifyRequest struct {
	Grill  bool `json:"grill"`
	Probe1 bool `json:"probe1"`
	Probe2 bool `json:"probe2"`
	Timer  bool `json:"timer"`
}

// NotifyData mirrors control.notify_data: post-trigger actions.
type NotifyData struct {
	P1Shutdown    bool `json:"p1_shutdown"`
	P2Shutdown    bool `json:"p2_shutdown"`
	TimerShutdown bool `json:"timer_shutdown"`
}

// Timer mirrors control.timer; epoch-seconds per spec §3.
type Timer struct {
	Start  int64 `json:"start"`
	End    int64 `json:"end"`
	Paused int64 `json:"paused"`
}

// Armed reports whether the timer is currently armed (End > Start >= 0).
func (t Timer) Armed() bool { return t.End > t.Start && t.Start >= 0 }

// SafetyState mirrors control.safety: the live safety-supervisor state,
// distinct from the immutable settings.safety tunables.
type SafetyState struct {
	StartupTemp        float64 `json:"startup_temp"`
	AfterStartTemp      float64 `json:"after_start_temp"`
	ReigniteRetries     int     `json:"reignite_retries"`
	ReigniteLastState   Mode    `json:"reignite_last_state"`
}

// Manual mirrors control.manual.
type Manual struct {
	Change  bool `json:"change"`
	Fan     bool `json:"fan"`
	Auger   bool `json:"auger"`
	Igniter bool `json:"igniter"`
	Power   bool `json:"power"`
	PWM     int  `json:"pwm"`
}

// Control is the mutable, shared runtime state (spec §3). Every mutation
// MUST go through ControlStore.Update (or an equivalent read-modify-write)
// to avoid the "documented source bug" in spec §4.7/§9: overwriting a
// concurrently-mutated snapshot with stale data.
type Control struct {
	Mode    Mode `json:"mode"`
	Updated bool `json:"updated"`

	// NextMode is the mode the requester intended to enter once Startup or
	// Reignite completes normally (typically Smoke or Hold); the Control
	// Orchestrator reads it once the 240s startup timeout is reached
	// without a safety trip (spec §4.8). Untouched by Reignite retries, so
	// the original intent survives however many reignite attempts it takes.
	NextMode Mode `json:"next_mode"`

	Setpoints Setpoints `json:"setpoints"`

	NotifyReq  NotifyRequest `json:"notify_req"`
	NotifyData NotifyData    `json:"notify_data"`

	Timer Timer `json:"timer"`

	Safety SafetyState `json:"safety"`

	Manual Manual `json:"manual"`

	SPlus              bool `json:"s_plus"`
	HopperCheck        bool `json:"hopper_check"`
	ProbeProfileUpdate bool `json:"probe_profile_update"`
	TuningMode         bool `json:"tuning_mode"`
}

// DefaultControl is the boot-time Control value (spec §3 lifecycle: "created
// at boot with defaults").
func DefaultControl() Control {
	return Control{
		Mode: ModeStop,
	}
}

// PelletDB mirrors the pelletdb JSON file (spec §6).
type PelletDB struct {
	CurrentPelletID string             `json:"current_pellet_id"`
	HopperLevel     float64            `json:"hopper_level"`
	Archive         []PelletArchiveRow `json:"archive"`
	Log             []PelletLogRow     `json:"log"`
}

type PelletArchiveRow struct {
	ID     string    `json:"id"`
	Brand  string    `json:"brand"`
	Wood   string    `json:"wood"`
	Loaded time.Time `json:"loaded"`
}

type PelletLogRow struct {
	When  time.Time `json:"when"`
	Event string    `json:"event"`
}

// HistorySample is one appended time-series row (spec §6).
type HistorySample struct {
	At         time.Time `json:"at"`
	Mode       Mode      `json:"mode"`
	GrillTemp  float64   `json:"grill_temp"`
	Probe1Temp float64   `json:"probe1_temp"`
	Probe2Temp float64   `json:"probe2_temp"`
	SetGrill   float64   `json:"set_grill"`
	SetProbe1  float64   `json:"set_probe1"`
	SetProbe2  float64   `json:"set_probe2"`
}

// History is the append-only time-series file.
type History struct {
	Samples []HistorySample `json:"samples"`
}
