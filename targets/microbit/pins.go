//go:build microbit_v2

package main

import (
	"errors"
	"machine"
	"time"

	"wheelbot/core"
)

var errNoPWM = errors.New("pin has no PWM channel")

// edgePins maps edge connector numbers to nRF52 pins.
var edgePins = [...]machine.Pin{
	machine.P0, machine.P1, machine.P2, machine.P3, machine.P4,
	machine.P5, machine.P6, machine.P7, machine.P8, machine.P9,
	machine.P10, machine.P11, machine.P12, machine.P13, machine.P14,
	machine.P15, machine.P16,
}

// pwmPeriod is 1 kHz, in nanoseconds.
const pwmPeriod = 1e6

// microbitPins implements core.PinIO on the micro:bit. Pins are reconfigured
// on demand, so the shared sonar pin can flip between output and input.
type microbitPins struct {
	modes    map[core.Pin]machine.PinMode
	pulls    map[core.Pin]core.PullMode
	channels map[core.Pin]uint8
	adcs     map[core.Pin]machine.ADC
}

func newMicrobitPins() *microbitPins {
	machine.InitADC()
	machine.PWM0.Configure(machine.PWMConfig{Period: pwmPeriod})
	return &microbitPins{
		modes:    make(map[core.Pin]machine.PinMode),
		pulls:    make(map[core.Pin]core.PullMode),
		channels: make(map[core.Pin]uint8),
		adcs:     make(map[core.Pin]machine.ADC),
	}
}

func (m *microbitPins) pin(p core.Pin) machine.Pin {
	if int(p) >= len(edgePins) {
		return machine.NoPin
	}
	return edgePins[p]
}

func (m *microbitPins) setMode(p core.Pin, mode machine.PinMode) {
	if cur, ok := m.modes[p]; ok && cur == mode {
		return
	}
	m.pin(p).Configure(machine.PinConfig{Mode: mode})
	m.modes[p] = mode
}

func (m *microbitPins) inputMode(p core.Pin) machine.PinMode {
	switch m.pulls[p] {
	case core.PullUp:
		return machine.PinInputPullup
	case core.PullDown:
		return machine.PinInputPulldown
	default:
		return machine.PinInput
	}
}

func (m *microbitPins) DigitalWrite(p core.Pin, level core.Level) error {
	delete(m.channels, p)
	m.setMode(p, machine.PinOutput)
	m.pin(p).Set(level == core.High)
	return nil
}

func (m *microbitPins) DigitalRead(p core.Pin) (core.Level, error) {
	m.setMode(p, m.inputMode(p))
	if m.pin(p).Get() {
		return core.High, nil
	}
	return core.Low, nil
}

func (m *microbitPins) AnalogWrite(p core.Pin, value uint16) error {
	ch, ok := m.channels[p]
	if !ok {
		var err error
		ch, err = machine.PWM0.Channel(m.pin(p))
		if err != nil {
			return errNoPWM
		}
		m.channels[p] = ch
		delete(m.modes, p)
	}
	if value > core.AnalogMax {
		value = core.AnalogMax
	}
	machine.PWM0.Set(ch, machine.PWM0.Top()*uint32(value)/core.AnalogMax)
	return nil
}

// AnalogRead scales the 16-bit ADC reading to 10 bits.
func (m *microbitPins) AnalogRead(p core.Pin) (uint16, error) {
	adc, ok := m.adcs[p]
	if !ok {
		adc = machine.ADC{Pin: m.pin(p)}
		adc.Configure(machine.ADCConfig{})
		m.adcs[p] = adc
		delete(m.modes, p)
	}
	return adc.Get() >> 6, nil
}

// PulseIn busy-waits for the pulse start and end.
func (m *microbitPins) PulseIn(p core.Pin, level core.Level, timeoutMicros uint32) (uint32, error) {
	m.setMode(p, m.inputMode(p))
	pin := m.pin(p)
	want := level == core.High
	timeout := time.Duration(timeoutMicros) * time.Microsecond

	deadline := time.Now().Add(timeout)
	for pin.Get() == want {
		if time.Now().After(deadline) {
			return 0, nil
		}
	}
	for pin.Get() != want {
		if time.Now().After(deadline) {
			return 0, nil
		}
	}
	start := time.Now()
	for pin.Get() == want {
		if time.Since(start) > timeout {
			return 0, nil
		}
	}
	return uint32(time.Since(start) / time.Microsecond), nil
}

func (m *microbitPins) DelayMicros(n uint32) {
	time.Sleep(time.Duration(n) * time.Microsecond)
}

func (m *microbitPins) DelayMillis(n uint32) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

func (m *microbitPins) SetPull(p core.Pin, mode core.PullMode) error {
	m.pulls[p] = mode
	if cur, ok := m.modes[p]; ok && cur != machine.PinOutput {
		m.setMode(p, m.inputMode(p))
	}
	return nil
}
