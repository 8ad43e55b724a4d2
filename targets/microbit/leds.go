//go:build microbit_v2

package main

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"wheelbot/core"
)

// openStrip starts the ws2812 chain on the board's LED data pin.
func openStrip() (core.PixelWriter, error) {
	pin := edgePins[core.BitBot.LEDData]
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dev := ws2812.New(pin)
	return &dev, nil
}
