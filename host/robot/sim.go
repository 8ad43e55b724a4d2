package robot

import (
	"fmt"

	"wheelbot/core"
	"wheelbot/host/mcu"
	"wheelbot/sim"
)

// SimRobot is a Remote talking to simulated firmware in this process.
type SimRobot struct {
	*Remote
	Firmware *sim.Firmware
}

// Simulated boots simulated firmware on board and connects to it through
// the full serial protocol.
func Simulated(board core.Board, opts sim.Options) (*SimRobot, error) {
	port, fw := sim.StartFirmware(board, opts)
	m := mcu.New(port)
	if err := m.RetrieveDictionary(); err != nil {
		m.Close()
		fw.Close()
		return nil, fmt.Errorf("simulated firmware: %w", err)
	}
	if err := m.CheckVersion(""); err != nil {
		m.Close()
		fw.Close()
		return nil, err
	}
	return &SimRobot{Remote: NewRemote(m), Firmware: fw}, nil
}

// Close disconnects and stops the simulated firmware.
func (s *SimRobot) Close() error {
	err := s.Remote.Close()
	if ferr := s.Firmware.Close(); err == nil {
		err = ferr
	}
	return err
}
