package core

import (
	"sync"
	"time"
)

// Options tunes a Robot.
type Options struct {
	// LEDs opens the LED strip writer. It is called once, on first LED use.
	// Nil means the board has no usable strip.
	LEDs func() (PixelWriter, error)
}

// Robot is the driver layer for one board. Each method holds the robot for
// its whole duration, so a timed maneuver or a ping owns the wheels and the
// sonar pin until it returns.
type Robot struct {
	mu sync.Mutex

	pins  PinIO
	board Board

	motors  *MotorDriver
	drive   *Sequencer
	ranger  *Ranger
	sensors *Sensors

	openLEDs func() (PixelWriter, error)
	ledsOnce sync.Once
	leds     *LEDStrip
	ledsErr  error
}

func NewRobot(pins PinIO, board Board, opts Options) *Robot {
	r := &Robot{
		pins:     pins,
		board:    board,
		openLEDs: opts.LEDs,
	}
	r.motors = NewMotorDriver(pins, &r.board)
	r.drive = NewSequencer(r.motors, pins)
	r.ranger = NewRanger(pins, r.board.Sonar)
	r.sensors = NewSensors(pins, &r.board)
	return r
}

// Board returns the pin assignment in use.
func (r *Robot) Board() Board {
	return r.board
}

func (r *Robot) SetMotor(side Side, speed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.motors.SetMotor(side, speed)
}

func (r *Robot) DriveStraight(speed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drive.DriveStraight(speed)
}

func (r *Robot) DriveStraightTimed(speed int, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drive.DriveStraightTimed(speed, d)
}

func (r *Robot) Turn(dir SteerDirection, speed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drive.Turn(dir, speed)
}

func (r *Robot) TurnTimed(dir SteerDirection, speed int, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drive.TurnTimed(dir, speed, d)
}

func (r *Robot) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drive.Stop()
}

func (r *Robot) MeasureDistance(unit DistanceUnit) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ranger.MeasureDistance(unit)
}

func (r *Robot) ReadLine(side Side) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sensors.ReadLine(side)
}

func (r *Robot) ReadLight(side Side) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sensors.ReadLight(side)
}

func (r *Robot) SetBuzzer(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sensors.SetBuzzer(on)
}

// LEDs returns the strip, creating it on first use.
func (r *Robot) LEDs() (*LEDStrip, error) {
	r.ledsOnce.Do(func() {
		if r.openLEDs == nil {
			r.ledsErr = ErrNoLEDs
			return
		}
		w, err := r.openLEDs()
		if err != nil {
			r.ledsErr = err
			return
		}
		r.leds = NewLEDStrip(w, r.board.LEDCount)
	})
	return r.leds, r.ledsErr
}

// withLEDs applies fn to the strip and shows the result.
func (r *Robot) withLEDs(fn func(l *LEDStrip)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, err := r.LEDs()
	if err != nil {
		return err
	}
	fn(l)
	return l.Show()
}

func (r *Robot) SetLED(index int, c Color) error {
	return r.withLEDs(func(l *LEDStrip) { l.SetPixel(index, c) })
}

func (r *Robot) FillLEDs(c Color) error {
	return r.withLEDs(func(l *LEDStrip) { l.Fill(c) })
}

func (r *Robot) ClearLEDs() error {
	return r.withLEDs(func(l *LEDStrip) { l.Clear() })
}

func (r *Robot) SetLEDBrightness(b uint8) error {
	return r.withLEDs(func(l *LEDStrip) { l.SetBrightness(b) })
}

func (r *Robot) RainbowLEDs() error {
	return r.withLEDs(func(l *LEDStrip) { l.Rainbow() })
}

func (r *Robot) ShiftLEDs(n int) error {
	return r.withLEDs(func(l *LEDStrip) { l.Shift(n) })
}

func (r *Robot) RotateLEDs(n int) error {
	return r.withLEDs(func(l *LEDStrip) { l.Rotate(n) })
}

// Global robot used by command handlers.
var robot *Robot

// SetRobot is called by target-specific code once its pins are ready.
func SetRobot(r *Robot) {
	robot = r
}

// MustRobot returns the configured robot or panics if missing.
func MustRobot() *Robot {
	if robot == nil {
		panic("robot not configured")
	}
	return robot
}
