package mcu

import (
	"errors"
	"strings"
	"testing"
	"time"

	"wheelbot/core"
	"wheelbot/sim"
)

func connectSim(t *testing.T, opts sim.Options) (*MCU, *sim.Firmware) {
	t.Helper()
	port, fw := sim.StartFirmware(core.BitBot, opts)
	m := New(port)
	t.Cleanup(func() {
		m.Close()
		fw.Close()
	})
	if err := m.RetrieveDictionary(); err != nil {
		t.Fatal(err)
	}
	return m, fw
}

func TestRetrieveDictionary(t *testing.T) {
	m, _ := connectSim(t, sim.Options{})

	dict := m.GetDictionary()
	if dict.Version != "wheelbot-0.2.0" {
		t.Errorf("version = %q", dict.Version)
	}
	if dict.Responses["identify_response offset=%u data=%*s"] != 0 {
		t.Errorf("identify_response not at 0: %v", dict.Responses)
	}
	if v, ok := m.Constant("LED_COUNT"); !ok || v != "12" {
		t.Errorf("LED_COUNT = %q, %v", v, ok)
	}
	if _, ok := dict.Commands["drive_timed speed=%i ms=%i"]; !ok {
		t.Errorf("drive_timed missing: %v", dict.Commands)
	}

	var sb strings.Builder
	m.PrintDictionary(&sb)
	if !strings.Contains(sb.String(), "set_motor side=%c speed=%i") {
		t.Errorf("summary = %s", sb.String())
	}
}

func TestCheckVersion(t *testing.T) {
	m, _ := connectSim(t, sim.Options{})

	if err := m.CheckVersion(""); err != nil {
		t.Errorf("default constraint: %v", err)
	}
	if err := m.CheckVersion(">= 1.0.0"); !errors.Is(err, ErrIncompatibleFirmware) {
		t.Errorf(">= 1.0.0: err = %v", err)
	}
	if err := m.CheckVersion("not a constraint"); err == nil {
		t.Error("bad constraint accepted")
	}

	m.dictionary.Version = "wheelbot-dev"
	if err := m.CheckVersion(">= 5.0.0"); err != nil {
		t.Errorf("dev build: %v", err)
	}
}

func TestQueryDistance(t *testing.T) {
	m, _ := connectSim(t, sim.Options{ObstacleCM: 25})

	p, err := m.Query("query_distance", "distance", time.Second, int64(core.Centimeters))
	if err != nil {
		t.Fatal(err)
	}
	if p.Uint("value") != 25 || p.Uint("unit") != uint32(core.Centimeters) {
		t.Errorf("distance = %v", p)
	}
}

func TestSendDrivesWheels(t *testing.T) {
	m, fw := connectSim(t, sim.Options{})

	p, err := m.Query("set_motor", "motion_done", time.Second, int64(core.Left), -200)
	if err != nil {
		t.Fatal(err)
	}
	if p.Uint("status") != 0 {
		t.Errorf("status = %d", p.Uint("status"))
	}
	w := fw.Pins.Wheel(core.Left)
	if w.Duty != 390 || w.Direction != core.Reverse {
		t.Errorf("left wheel = %+v", w)
	}

	if err := m.Send("led_fill", int64(core.Red)); err != nil {
		t.Fatal(err)
	}
}

func TestUnknownCommand(t *testing.T) {
	m, _ := connectSim(t, sim.Options{})

	if err := m.Send("fly", 1); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v", err)
	}
	if _, err := m.Query("stop", "nope", time.Second); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v", err)
	}
	if err := m.Send("drive"); !errors.Is(err, ErrArgCount) {
		t.Errorf("err = %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	m, _ := connectSim(t, sim.Options{})
	m.Close()
	if err := m.Send("stop"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v", err)
	}
}
