//go:build microbit_v2

package main

import (
	"machine"
	"time"

	"wheelbot/core"
)

var (
	link      *core.Link
	msgerrors uint32
)

func main() {
	core.SetPinDriver(newMicrobitPins())
	robot := core.NewRobot(core.MustPins(), core.BitBot, core.Options{LEDs: openStrip})
	core.InitFirmware(robot, "tinygo-microbit_v2")

	link = core.NewLink(writeSerial)
	core.SetGlobalTransport(link.Transport())

	// Motors off until the host says otherwise.
	_ = robot.Stop()

	buf := make([]byte, 64)
	for {
		n := readSerial(buf)
		if n == 0 {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		feed(buf[:n])
	}
}

// feed hands bytes to the link, recovering from handler panics so the
// firmware keeps answering.
func feed(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			link.Reset()
			core.TryShutdown("panic in command handler")
		}
	}()
	link.Feed(data)
}

func readSerial(buf []byte) int {
	n := 0
	for n < len(buf) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	return n
}

func writeSerial(data []byte) error {
	_, err := machine.Serial.Write(data)
	return err
}
