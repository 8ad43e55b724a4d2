//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DAPLinkVID is the USB vendor ID of the micro:bit's interface chip (Arm).
const DAPLinkVID = "0D28"

var ErrNoBoard = errors.New("no micro:bit found")

// PortInfo describes one serial port on the host.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

func (p PortInfo) String() string {
	if !p.IsUSB {
		return p.Name
	}
	return fmt.Sprintf("%s (USB %s:%s %s)", p.Name, p.VID, p.PID, p.Product)
}

// detailedPorts is replaced in tests.
var detailedPorts = enumerator.GetDetailedPortsList

// ListPorts lists the serial ports present on the host.
func ListPorts() ([]PortInfo, error) {
	details, err := detailedPorts()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          strings.ToUpper(d.VID),
			PID:          strings.ToUpper(d.PID),
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}

// FindBoard returns the first port behind a micro:bit interface chip.
func FindBoard() (PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return PortInfo{}, err
	}
	for _, p := range ports {
		if p.IsUSB && p.VID == DAPLinkVID {
			return p, nil
		}
	}
	return PortInfo{}, ErrNoBoard
}
