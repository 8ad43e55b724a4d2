package core

import "errors"

// Board assigns pins to the roles the driver layer drives. The assignment is
// fixed per board revision.
type Board struct {
	Name string `yaml:"name"`

	LeftSpeed  Pin `yaml:"left_speed"`
	LeftDir    Pin `yaml:"left_dir"`
	RightSpeed Pin `yaml:"right_speed"`
	RightDir   Pin `yaml:"right_dir"`

	Buzzer    Pin `yaml:"buzzer"`
	LineLeft  Pin `yaml:"line_left"`
	LineRight Pin `yaml:"line_right"`

	LightSelect Pin `yaml:"light_select"`
	LightRead   Pin `yaml:"light_read"`

	Sonar Pin `yaml:"sonar"`

	LEDData  Pin `yaml:"led_data"`
	LEDCount int `yaml:"led_count"`
}

// BitBot is the 4tronix Bit:Bot wiring on the micro:bit edge connector.
var BitBot = Board{
	Name:        "bitbot",
	LeftSpeed:   0,
	LeftDir:     8,
	RightSpeed:  1,
	RightDir:    12,
	Buzzer:      14,
	LineLeft:    11,
	LineRight:   5,
	LightSelect: 16,
	LightRead:   2,
	Sonar:       15,
	LEDData:     13,
	LEDCount:    12,
}

// wheelPins returns the duty and direction pins of one wheel.
func (b *Board) wheelPins(side Side) (speed, dir Pin) {
	if side == Left {
		return b.LeftSpeed, b.LeftDir
	}
	return b.RightSpeed, b.RightDir
}

// Pin and strip limits.
const (
	// MaxEdgePin is P20, the last micro:bit edge connector pin.
	MaxEdgePin Pin = 20
	// MaxLEDCount fits the led_count byte of the config response.
	MaxLEDCount = 255
)

var ErrBadBoard = errors.New("invalid board")

// BoardError names the field that failed Board.Validate. It matches
// ErrBadBoard under errors.Is.
type BoardError struct {
	Field string
	Value int
}

func (e *BoardError) Error() string {
	return "invalid board: " + e.Field + " = " + itoa(e.Value)
}

func (e *BoardError) Is(target error) bool {
	return target == ErrBadBoard
}

// Validate checks every pin is at most maxPin and the LED count fits.
func (b *Board) Validate(maxPin Pin) error {
	pins := []struct {
		field string
		pin   Pin
	}{
		{"left_speed", b.LeftSpeed},
		{"left_dir", b.LeftDir},
		{"right_speed", b.RightSpeed},
		{"right_dir", b.RightDir},
		{"buzzer", b.Buzzer},
		{"line_left", b.LineLeft},
		{"line_right", b.LineRight},
		{"light_select", b.LightSelect},
		{"light_read", b.LightRead},
		{"sonar", b.Sonar},
		{"led_data", b.LEDData},
	}
	for _, p := range pins {
		if p.pin > maxPin {
			return &BoardError{Field: p.field, Value: int(p.pin)}
		}
	}
	if b.LEDCount < 0 || b.LEDCount > MaxLEDCount {
		return &BoardError{Field: "led_count", Value: b.LEDCount}
	}
	return nil
}
