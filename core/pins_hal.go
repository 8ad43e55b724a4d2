package core

// Pin identifies a board pin by its edge connector number.
type Pin uint8

// Level is a digital pin level.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// PullMode selects the pin's internal resistor.
type PullMode uint8

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)

// AnalogMax is the top of the 10-bit analog range used by AnalogWrite and
// AnalogRead.
const AnalogMax = 1023

// PinIO is the pin capability set the driver layer is written against.
// Platform code provides the implementation.
type PinIO interface {
	DigitalWrite(pin Pin, level Level) error
	DigitalRead(pin Pin) (Level, error)

	// AnalogWrite sets a PWM duty cycle in 0..AnalogMax.
	AnalogWrite(pin Pin, value uint16) error

	// AnalogRead samples an analog input scaled to 0..AnalogMax.
	AnalogRead(pin Pin) (uint16, error)

	// PulseIn waits for the next pulse at level and returns its width in
	// microseconds, or 0 if no complete pulse arrives within timeoutMicros.
	PulseIn(pin Pin, level Level, timeoutMicros uint32) (uint32, error)

	DelayMicros(n uint32)
	DelayMillis(n uint32)

	SetPull(pin Pin, mode PullMode) error
}

// Global singleton used by target code.
var pinDriver PinIO

// SetPinDriver is called by target-specific code to register its driver.
func SetPinDriver(d PinIO) {
	pinDriver = d
}

// MustPins returns the configured driver or panics if missing.
func MustPins() PinIO {
	if pinDriver == nil {
		panic("pin driver not configured")
	}
	return pinDriver
}
