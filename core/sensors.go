package core

// Sensors reads the line and light sensors and drives the buzzer.
type Sensors struct {
	pins  PinIO
	board *Board
}

func NewSensors(pins PinIO, board *Board) *Sensors {
	return &Sensors{pins: pins, board: board}
}

// ReadLine reports whether side's line sensor sees a line.
func (s *Sensors) ReadLine(side Side) (bool, error) {
	var pin Pin
	switch side {
	case Left:
		pin = s.board.LineLeft
	case Right:
		pin = s.board.LineRight
	default:
		return false, ErrInvalidSide
	}
	level, err := s.pins.DigitalRead(pin)
	return level == High, err
}

// ReadLight selects side's light sensor and samples the shared analog input.
func (s *Sensors) ReadLight(side Side) (uint16, error) {
	var sel Level
	switch side {
	case Left:
		sel = Low
	case Right:
		sel = High
	default:
		return 0, ErrInvalidSide
	}
	if err := s.pins.DigitalWrite(s.board.LightSelect, sel); err != nil {
		return 0, err
	}
	return s.pins.AnalogRead(s.board.LightRead)
}

// SetBuzzer turns the buzzer on or off.
func (s *Sensors) SetBuzzer(on bool) error {
	level := Low
	if on {
		level = High
	}
	return s.pins.DigitalWrite(s.board.Buzzer, level)
}
