package robot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"wheelbot/core"
	"wheelbot/host/mcu"
)

var (
	ErrShutdown = errors.New("firmware is shut down")
	ErrAdapter  = errors.New("firmware pin adapter failed")
	ErrInvalid  = errors.New("firmware rejected the arguments")
)

// Query timeouts. Timed maneuvers add their duration to motionTimeout.
const (
	queryTimeout  = time.Second
	motionTimeout = 2 * time.Second
)

// Remote drives firmware through an MCU connection.
type Remote struct {
	mu  sync.Mutex
	mcu *mcu.MCU
}

var _ Controller = (*Remote)(nil)

// NewRemote wraps an MCU whose dictionary is already retrieved.
func NewRemote(m *mcu.MCU) *Remote {
	return &Remote{mcu: m}
}

// MCU returns the underlying connection.
func (r *Remote) MCU() *mcu.MCU {
	return r.mcu
}

func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mcu.Close()
}

func (r *Remote) motion(name string, timeout time.Duration, args ...int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.mcu.Query(name, "motion_done", timeout, args...)
	if err != nil {
		return err
	}
	switch p.Uint("status") {
	case core.MotionOK:
		return nil
	case core.MotionShutdown:
		return fmt.Errorf("%s: %w", name, ErrShutdown)
	case core.MotionInvalid:
		return fmt.Errorf("%s: %w", name, ErrInvalid)
	default:
		return fmt.Errorf("%s: %w", name, ErrAdapter)
	}
}

func (r *Remote) send(name string, args ...int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mcu.Send(name, args...)
}

func (r *Remote) SetMotor(side core.Side, speed int) error {
	if side > core.All {
		return core.ErrInvalidSide
	}
	return r.motion("set_motor", motionTimeout, int64(side), int64(core.ClampSpeed(speed)))
}

func (r *Remote) DriveStraight(speed int) error {
	return r.motion("drive", motionTimeout, int64(core.ClampSpeed(speed)))
}

func (r *Remote) DriveStraightTimed(speed int, d time.Duration) error {
	ms := d.Milliseconds()
	return r.motion("drive_timed", motionTimeout+durationOrZero(d), int64(core.ClampSpeed(speed)), ms)
}

func (r *Remote) Turn(dir core.SteerDirection, speed int) error {
	return r.motion("turn", motionTimeout, int64(dir), int64(core.ClampSpeed(speed)))
}

func (r *Remote) TurnTimed(dir core.SteerDirection, speed int, d time.Duration) error {
	ms := d.Milliseconds()
	return r.motion("turn_timed", motionTimeout+durationOrZero(d), int64(dir), int64(core.ClampSpeed(speed)), ms)
}

func (r *Remote) Stop() error {
	return r.motion("stop", motionTimeout)
}

func (r *Remote) MeasureDistance(unit core.DistanceUnit) (uint32, error) {
	if unit > core.Inches {
		return 0, core.ErrInvalidUnit
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.mcu.Query("query_distance", "distance", queryTimeout, int64(unit))
	if err != nil {
		return 0, err
	}
	return p.Uint("value"), nil
}

func (r *Remote) ReadLine(side core.Side) (bool, error) {
	if side > core.Right {
		return false, core.ErrInvalidSide
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.mcu.Query("query_line", "line_state", queryTimeout, int64(side))
	if err != nil {
		return false, err
	}
	return p.Uint("value") != 0, nil
}

func (r *Remote) ReadLight(side core.Side) (uint16, error) {
	if side > core.Right {
		return 0, core.ErrInvalidSide
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.mcu.Query("query_light", "light_state", queryTimeout, int64(side))
	if err != nil {
		return 0, err
	}
	return uint16(p.Uint("value")), nil
}

func (r *Remote) SetBuzzer(on bool) error {
	var v int64
	if on {
		v = 1
	}
	return r.send("set_buzzer", v)
}

func (r *Remote) SetLED(index int, c core.Color) error {
	return r.send("led_set", int64(index), int64(c))
}

func (r *Remote) FillLEDs(c core.Color) error {
	return r.send("led_fill", int64(c))
}

func (r *Remote) ClearLEDs() error {
	return r.send("led_clear")
}

func (r *Remote) SetLEDBrightness(b uint8) error {
	return r.send("led_brightness", int64(b))
}

func (r *Remote) RainbowLEDs() error {
	return r.send("led_rainbow")
}

func (r *Remote) ShiftLEDs(n int) error {
	return r.send("led_shift", int64(n))
}

func (r *Remote) RotateLEDs(n int) error {
	return r.send("led_rotate", int64(n))
}

// EmergencyStop halts the robot and latches the firmware shutdown.
func (r *Remote) EmergencyStop() error {
	return r.send("emergency_stop")
}

// ClearShutdown lifts the emergency stop latch.
func (r *Remote) ClearShutdown() error {
	return r.send("clear_shutdown")
}

// Shutdown reports the firmware's shutdown latch.
func (r *Remote) Shutdown() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.mcu.Query("get_config", "config", queryTimeout)
	if err != nil {
		return false, err
	}
	return p.Uint("is_shutdown") != 0, nil
}

// Uptime returns the firmware's time since boot.
func (r *Remote) Uptime() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.mcu.Query("get_uptime", "uptime", queryTimeout)
	if err != nil {
		return 0, err
	}
	us := uint64(p.Uint("high"))<<32 | uint64(p.Uint("clock"))
	return time.Duration(us) * time.Microsecond, nil
}

func durationOrZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
