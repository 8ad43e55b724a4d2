// Package periphpins drives the wheelbot core from Raspberry Pi GPIO. Board
// pin numbers are BCM GPIO numbers.
package periphpins

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"wheelbot/core"
)

// ErrNoADC is returned by AnalogRead; a Pi has no analog inputs.
var ErrNoADC = errors.New("no ADC on this host")

// PWMFrequency is the motor PWM frequency.
const PWMFrequency = physic.KiloHertz

// Lookup resolves a pin name such as "GPIO17".
type Lookup func(name string) gpio.PinIO

// Pins implements core.PinIO on periph.io GPIO.
type Pins struct {
	mu     sync.Mutex
	lookup Lookup
	pins   map[core.Pin]gpio.PinIO
	pulls  map[core.Pin]gpio.Pull
}

var _ core.PinIO = (*Pins)(nil)

// Open initialises the host drivers and resolves pins through gpioreg.
func Open() (*Pins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return New(gpioreg.ByName), nil
}

// New resolves pins with lookup.
func New(lookup Lookup) *Pins {
	return &Pins{
		lookup: lookup,
		pins:   make(map[core.Pin]gpio.PinIO),
		pulls:  make(map[core.Pin]gpio.Pull),
	}
}

// PinName returns the gpioreg name of a board pin.
func PinName(p core.Pin) string {
	return "GPIO" + strconv.Itoa(int(p))
}

func (p *Pins) pin(n core.Pin) (gpio.PinIO, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pin, ok := p.pins[n]; ok {
		return pin, nil
	}
	pin := p.lookup(PinName(n))
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %s", PinName(n))
	}
	p.pins[n] = pin
	return pin, nil
}

func (p *Pins) pull(n core.Pin) gpio.Pull {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pull, ok := p.pulls[n]; ok {
		return pull
	}
	return gpio.Float
}

func (p *Pins) DigitalWrite(n core.Pin, level core.Level) error {
	pin, err := p.pin(n)
	if err != nil {
		return err
	}
	return pin.Out(level == core.High)
}

func (p *Pins) DigitalRead(n core.Pin) (core.Level, error) {
	pin, err := p.pin(n)
	if err != nil {
		return core.Low, err
	}
	if err := pin.In(p.pull(n), gpio.NoEdge); err != nil {
		return core.Low, err
	}
	if pin.Read() == gpio.High {
		return core.High, nil
	}
	return core.Low, nil
}

func (p *Pins) AnalogWrite(n core.Pin, value uint16) error {
	pin, err := p.pin(n)
	if err != nil {
		return err
	}
	if value > core.AnalogMax {
		value = core.AnalogMax
	}
	duty := gpio.Duty(uint64(gpio.DutyMax) * uint64(value) / core.AnalogMax)
	return pin.PWM(duty, PWMFrequency)
}

func (p *Pins) AnalogRead(n core.Pin) (uint16, error) {
	return 0, ErrNoADC
}

// PulseIn watches both edges: it waits for the pin to reach level, then
// times how long it stays there.
func (p *Pins) PulseIn(n core.Pin, level core.Level, timeoutMicros uint32) (uint32, error) {
	pin, err := p.pin(n)
	if err != nil {
		return 0, err
	}
	if err := pin.In(p.pull(n), gpio.BothEdges); err != nil {
		return 0, err
	}
	want := gpio.Level(level == core.High)
	timeout := time.Duration(timeoutMicros) * time.Microsecond
	deadline := time.Now().Add(timeout)

	for pin.Read() != want {
		left := time.Until(deadline)
		if left <= 0 || !pin.WaitForEdge(left) {
			return 0, nil
		}
	}
	start := time.Now()
	for pin.Read() == want {
		left := timeout - time.Since(start)
		if left <= 0 || !pin.WaitForEdge(left) {
			return 0, nil
		}
	}
	return uint32(time.Since(start) / time.Microsecond), nil
}

func (p *Pins) DelayMicros(n uint32) {
	time.Sleep(time.Duration(n) * time.Microsecond)
}

func (p *Pins) DelayMillis(n uint32) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

func (p *Pins) SetPull(n core.Pin, mode core.PullMode) error {
	var pull gpio.Pull
	switch mode {
	case core.PullUp:
		pull = gpio.PullUp
	case core.PullDown:
		pull = gpio.PullDown
	default:
		pull = gpio.Float
	}
	p.mu.Lock()
	p.pulls[n] = pull
	p.mu.Unlock()
	return nil
}

// Halt stops every pin used so far.
func (p *Pins) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for _, pin := range p.pins {
		if err := pin.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
