package periphpins

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"wheelbot/core"
)

// echoPin plays back a scripted series of edges.
type echoPin struct {
	gpiotest.Pin
	edges []gpio.Level
	hold  time.Duration
}

func (e *echoPin) WaitForEdge(timeout time.Duration) bool {
	if len(e.edges) == 0 {
		return false
	}
	time.Sleep(e.hold)
	e.Pin.L = e.edges[0]
	e.edges = e.edges[1:]
	return true
}

func (e *echoPin) Read() gpio.Level {
	return e.Pin.L
}

func fakePins(pins ...gpio.PinIO) *Pins {
	byName := make(map[string]gpio.PinIO)
	for _, p := range pins {
		byName[p.Name()] = p
	}
	return New(func(name string) gpio.PinIO { return byName[name] })
}

func TestDigitalWriteAndPWM(t *testing.T) {
	left := &gpiotest.Pin{N: "GPIO12", Num: 12}
	dir := &gpiotest.Pin{N: "GPIO8", Num: 8}
	p := fakePins(left, dir)

	if err := p.DigitalWrite(8, core.High); err != nil {
		t.Fatal(err)
	}
	if dir.L != gpio.High {
		t.Error("GPIO8 not high")
	}
	if err := p.AnalogWrite(12, core.AnalogMax); err != nil {
		t.Fatal(err)
	}
	if left.D != gpio.DutyMax || left.F != PWMFrequency {
		t.Errorf("pwm duty=%v freq=%v", left.D, left.F)
	}
	if err := p.AnalogWrite(12, 0); err != nil || left.D != 0 {
		t.Errorf("zero duty = %v, %v", left.D, err)
	}
}

func TestUnknownPin(t *testing.T) {
	p := fakePins()
	if err := p.DigitalWrite(3, core.Low); err == nil {
		t.Error("write to a missing pin succeeded")
	}
}

func TestAnalogReadUnsupported(t *testing.T) {
	p := fakePins()
	if _, err := p.AnalogRead(2); !errors.Is(err, ErrNoADC) {
		t.Errorf("err = %v", err)
	}
}

func TestPulseIn(t *testing.T) {
	echo := &echoPin{
		Pin:   gpiotest.Pin{N: "GPIO15", Num: 15, EdgesChan: make(chan gpio.Level)},
		edges: []gpio.Level{gpio.High, gpio.Low},
		hold:  2 * time.Millisecond,
	}
	p := fakePins(echo)

	width, err := p.PulseIn(15, core.High, core.EchoTimeoutMicros)
	if err != nil {
		t.Fatal(err)
	}
	if width < 1500 || width > core.EchoTimeoutMicros {
		t.Errorf("width = %dµs, want about 2000", width)
	}

	echo.edges = nil
	if width, _ := p.PulseIn(15, core.High, 1000); width != 0 {
		t.Errorf("no echo: width = %d", width)
	}
}

func TestRangerOnPeriph(t *testing.T) {
	echo := &echoPin{
		Pin:   gpiotest.Pin{N: "GPIO15", Num: 15, EdgesChan: make(chan gpio.Level)},
		edges: []gpio.Level{gpio.High, gpio.Low},
		hold:  3 * time.Millisecond,
	}
	r := core.NewRanger(fakePins(echo), 15)

	cm, err := r.MeasureDistance(core.Centimeters)
	if err != nil {
		t.Fatal(err)
	}
	// 3ms of echo is about 51cm.
	if cm < 40 || cm > 100 {
		t.Errorf("distance = %dcm", cm)
	}
}
