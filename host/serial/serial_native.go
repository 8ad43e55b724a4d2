//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// The DAPLink interface chip drops and re-adds its CDC port for a moment after
// the board is flashed or reset, so Open retries a few times.
const (
	openAttempts = 5
	openBackoff  = 200 * time.Millisecond
)

var ErrNoDevice = errors.New("no serial device given")

// openPort is replaced in tests.
var openPort = func(c *serial.Config) (port, error) { return serial.OpenPort(c) }

// port is the part of *serial.Port the wrapper uses.
type port interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	Close() error
	Flush() error
}

// boardPort is a micro:bit USB serial port opened with tarm/serial.
type boardPort struct {
	port
	device string
}

// Open opens cfg.Device and discards whatever the board sent before the host
// was listening.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, ErrNoDevice
	}

	sc := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	var p port
	var err error
	for attempt := 0; attempt < openAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(openBackoff)
		}
		if p, err = openPort(sc); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	if err := p.Flush(); err != nil {
		p.Close()
		return nil, fmt.Errorf("flushing %s: %w", cfg.Device, err)
	}
	return &boardPort{port: p, device: cfg.Device}, nil
}

func (p *boardPort) String() string {
	return p.device
}
