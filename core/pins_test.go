package core

import (
	"errors"
	"image/color"
	"testing"
)

type pinCall struct {
	Op    string
	Pin   Pin
	Value uint32
}

// mockPins records every pin operation and serves canned inputs.
type mockPins struct {
	calls   []pinCall
	digital map[Pin]Level
	analog  map[Pin]uint16
	echo    uint32

	// failPin makes every write to it return failErr.
	failPin Pin
	failErr error

	sleptMillis uint32
}

var errPinFault = errors.New("pin fault")

func newMockPins() *mockPins {
	return &mockPins{
		digital: make(map[Pin]Level),
		analog:  make(map[Pin]uint16),
		failPin: 255,
	}
}

func (m *mockPins) record(op string, pin Pin, v uint32) error {
	m.calls = append(m.calls, pinCall{op, pin, v})
	if pin == m.failPin {
		return m.failErr
	}
	return nil
}

func (m *mockPins) DigitalWrite(pin Pin, level Level) error {
	return m.record("digital", pin, uint32(level))
}

func (m *mockPins) DigitalRead(pin Pin) (Level, error) {
	return m.digital[pin], nil
}

func (m *mockPins) AnalogWrite(pin Pin, value uint16) error {
	return m.record("analog", pin, uint32(value))
}

func (m *mockPins) AnalogRead(pin Pin) (uint16, error) {
	return m.analog[pin], nil
}

func (m *mockPins) PulseIn(pin Pin, level Level, timeoutMicros uint32) (uint32, error) {
	if err := m.record("pulse", pin, timeoutMicros); err != nil {
		return 0, err
	}
	if m.echo > timeoutMicros {
		return 0, nil
	}
	return m.echo, nil
}

func (m *mockPins) DelayMicros(n uint32) {
	m.calls = append(m.calls, pinCall{"delay_us", 0, n})
}

func (m *mockPins) DelayMillis(n uint32) {
	m.sleptMillis += n
	m.calls = append(m.calls, pinCall{"delay_ms", 0, n})
}

func (m *mockPins) SetPull(pin Pin, mode PullMode) error {
	return m.record("pull", pin, uint32(mode))
}

// writes returns the recorded calls of one kind.
func (m *mockPins) writes(op string) []pinCall {
	var out []pinCall
	for _, c := range m.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// lastWrite returns the last value written to pin by op.
func (m *mockPins) lastWrite(op string, pin Pin) (uint32, bool) {
	for i := len(m.calls) - 1; i >= 0; i-- {
		if c := m.calls[i]; c.Op == op && c.Pin == pin {
			return c.Value, true
		}
	}
	return 0, false
}

// mockStrip keeps the last frame written.
type mockStrip struct {
	frames [][]color.RGBA
	err    error
}

func (s *mockStrip) WriteColors(buf []color.RGBA) error {
	s.frames = append(s.frames, append([]color.RGBA(nil), buf...))
	return s.err
}

func (s *mockStrip) last() []color.RGBA {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func TestPinDriverRegistration(t *testing.T) {
	t.Cleanup(func() { SetPinDriver(nil) })

	SetPinDriver(nil)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("MustPins did not panic without a driver")
			}
		}()
		MustPins()
	}()

	pins := newMockPins()
	SetPinDriver(pins)
	if MustPins() != PinIO(pins) {
		t.Error("MustPins returned a different driver")
	}
}
