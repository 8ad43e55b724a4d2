// Package sim provides a simulated Bit:Bot board: a core.PinIO that records
// every write, serves scripted sensor inputs and keeps a virtual clock.
package sim

import (
	"errors"
	"sync"
	"time"

	"wheelbot/core"
)

var ErrPinFault = errors.New("simulated pin fault")

// Options configures a simulated board.
type Options struct {
	// ObstacleCM is the distance the sonar sees when no echo is queued.
	// Zero means nothing in range.
	ObstacleCM uint32

	// RealTime makes delays sleep as well as advance the virtual clock.
	RealTime bool

	// HistoryLimit caps the recorded events; older ones are dropped.
	// Zero means 1024.
	HistoryLimit int
}

// Op names a recorded pin operation.
type Op uint8

const (
	OpDigitalWrite Op = iota + 1
	OpAnalogWrite
	OpPulseIn
	OpSetPull
	OpDelay
)

func (o Op) String() string {
	switch o {
	case OpDigitalWrite:
		return "digital"
	case OpAnalogWrite:
		return "analog"
	case OpPulseIn:
		return "pulse"
	case OpSetPull:
		return "pull"
	case OpDelay:
		return "delay"
	default:
		return "op?"
	}
}

// Event is one recorded pin operation at virtual time At.
type Event struct {
	At    time.Duration
	Op    Op
	Pin   core.Pin
	Value uint32
}

// Pins simulates the board behind a core.PinIO. Safe for concurrent use.
type Pins struct {
	mu    sync.Mutex
	board core.Board
	opts  Options

	digital map[core.Pin]core.Level
	analog  map[core.Pin]uint16
	pulls   map[core.Pin]core.PullMode
	inputs  map[core.Pin]core.Level
	light   [2]uint16
	echoes  []uint32
	faults  map[core.Pin]bool

	clock   time.Duration
	history []Event
}

var _ core.PinIO = (*Pins)(nil)

func New(board core.Board, opts Options) *Pins {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 1024
	}
	return &Pins{
		board:   board,
		opts:    opts,
		digital: make(map[core.Pin]core.Level),
		analog:  make(map[core.Pin]uint16),
		pulls:   make(map[core.Pin]core.PullMode),
		inputs:  make(map[core.Pin]core.Level),
		faults:  make(map[core.Pin]bool),
	}
}

func (p *Pins) record(op Op, pin core.Pin, v uint32) {
	p.history = append(p.history, Event{At: p.clock, Op: op, Pin: pin, Value: v})
	if over := len(p.history) - p.opts.HistoryLimit; over > 0 {
		p.history = append(p.history[:0], p.history[over:]...)
	}
}

func (p *Pins) DigitalWrite(pin core.Pin, level core.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faults[pin] {
		return ErrPinFault
	}
	p.digital[pin] = level
	p.record(OpDigitalWrite, pin, uint32(level))
	return nil
}

// DigitalRead returns the scripted input level, or the last level written
// when the pin has no input set.
func (p *Pins) DigitalRead(pin core.Pin) (core.Level, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faults[pin] {
		return core.Low, ErrPinFault
	}
	if level, ok := p.inputs[pin]; ok {
		return level, nil
	}
	return p.digital[pin], nil
}

func (p *Pins) AnalogWrite(pin core.Pin, value uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faults[pin] {
		return ErrPinFault
	}
	if value > core.AnalogMax {
		value = core.AnalogMax
	}
	p.analog[pin] = value
	p.record(OpAnalogWrite, pin, uint32(value))
	return nil
}

// AnalogRead serves the light sensor picked by the select pin on the board's
// light input, and 0 elsewhere.
func (p *Pins) AnalogRead(pin core.Pin) (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faults[pin] {
		return 0, ErrPinFault
	}
	if pin != p.board.LightRead {
		return 0, nil
	}
	return p.light[p.digital[p.board.LightSelect]&1], nil
}

// PulseIn returns the next queued echo, else the echo of the configured
// obstacle. Widths beyond timeoutMicros read as no echo.
func (p *Pins) PulseIn(pin core.Pin, level core.Level, timeoutMicros uint32) (uint32, error) {
	p.mu.Lock()
	if p.faults[pin] {
		p.mu.Unlock()
		return 0, ErrPinFault
	}
	var width uint32
	if len(p.echoes) > 0 {
		width = p.echoes[0]
		p.echoes = p.echoes[1:]
	} else {
		width = p.opts.ObstacleCM * core.MicrosPerCentimeter
	}
	if width > timeoutMicros {
		width = 0
	}
	p.record(OpPulseIn, pin, width)
	wait := width
	if wait == 0 {
		wait = timeoutMicros
	}
	p.mu.Unlock()

	p.advance(time.Duration(wait) * time.Microsecond)
	return width, nil
}

func (p *Pins) DelayMicros(n uint32) {
	p.advance(time.Duration(n) * time.Microsecond)
}

func (p *Pins) DelayMillis(n uint32) {
	p.mu.Lock()
	p.record(OpDelay, 0, n)
	p.mu.Unlock()
	p.advance(time.Duration(n) * time.Millisecond)
}

func (p *Pins) SetPull(pin core.Pin, mode core.PullMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faults[pin] {
		return ErrPinFault
	}
	p.pulls[pin] = mode
	p.record(OpSetPull, pin, uint32(mode))
	return nil
}

// advance moves the virtual clock, sleeping for d in real time mode. The lock
// is not held while sleeping.
func (p *Pins) advance(d time.Duration) {
	if p.opts.RealTime {
		time.Sleep(d)
	}
	p.mu.Lock()
	p.clock += d
	p.mu.Unlock()
}

// SetObstacle moves the obstacle the sonar sees; 0 clears it.
func (p *Pins) SetObstacle(cm uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.ObstacleCM = cm
}

// QueueEcho scripts the widths, in microseconds, of the next pings.
func (p *Pins) QueueEcho(widths ...uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.echoes = append(p.echoes, widths...)
}

// SetLine sets what a line sensor sees.
func (p *Pins) SetLine(side core.Side, onLine bool) {
	pin := p.board.LineLeft
	if side == core.Right {
		pin = p.board.LineRight
	}
	p.SetDigitalInput(pin, levelOf(onLine))
}

// SetLight sets the reading of one light sensor.
func (p *Pins) SetLight(side core.Side, value uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.light[side&1] = value
}

// SetDigitalInput drives pin from outside the board.
func (p *Pins) SetDigitalInput(pin core.Pin, level core.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs[pin] = level
}

// Fault makes every operation on pin fail until cleared.
func (p *Pins) Fault(pin core.Pin, failing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if failing {
		p.faults[pin] = true
	} else {
		delete(p.faults, pin)
	}
}

// Digital returns the level last written to pin.
func (p *Pins) Digital(pin core.Pin) core.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.digital[pin]
}

// Analog returns the duty last written to pin.
func (p *Pins) Analog(pin core.Pin) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analog[pin]
}

// Pull returns the pull mode last set on pin.
func (p *Pins) Pull(pin core.Pin) core.PullMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pulls[pin]
}

// Wheel returns the duty and direction currently on one wheel.
func (p *Pins) Wheel(side core.Side) core.WheelCommand {
	speed, dir := p.board.LeftSpeed, p.board.LeftDir
	if side == core.Right {
		speed, dir = p.board.RightSpeed, p.board.RightDir
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.WheelCommand{
		Side:      side,
		Duty:      p.analog[speed],
		Direction: core.Direction(p.digital[dir]),
	}
}

// Buzzing reports whether the buzzer pin is high.
func (p *Pins) Buzzing() bool {
	return p.Digital(p.board.Buzzer) == core.High
}

// Elapsed returns the virtual time spent in delays and pings.
func (p *Pins) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock
}

// History returns a copy of the recorded events, oldest first.
func (p *Pins) History() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.history...)
}

// ClearHistory drops the recorded events.
func (p *Pins) ClearHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = p.history[:0]
}

func levelOf(b bool) core.Level {
	if b {
		return core.High
	}
	return core.Low
}
