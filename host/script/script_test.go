package script

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"wheelbot/core"
	"wheelbot/sim"
)

// recorder is a Controller that logs each call.
type recorder struct {
	calls []string
	fail  error
}

func (r *recorder) log(format string, args ...interface{}) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return r.fail
}

func (r *recorder) SetMotor(side core.Side, speed int) error {
	return r.log("motor %v %d", side, speed)
}
func (r *recorder) DriveStraight(speed int) error { return r.log("drive %d", speed) }
func (r *recorder) DriveStraightTimed(speed int, d time.Duration) error {
	return r.log("drive %d %v", speed, d)
}
func (r *recorder) Turn(dir core.SteerDirection, speed int) error {
	return r.log("turn %v %d", dir, speed)
}
func (r *recorder) TurnTimed(dir core.SteerDirection, speed int, d time.Duration) error {
	return r.log("turn %v %d %v", dir, speed, d)
}
func (r *recorder) Stop() error { return r.log("stop") }
func (r *recorder) MeasureDistance(unit core.DistanceUnit) (uint32, error) {
	return 42, r.log("distance %v", unit)
}
func (r *recorder) ReadLine(side core.Side) (bool, error) {
	return side == core.Left, r.log("line %v", side)
}
func (r *recorder) ReadLight(side core.Side) (uint16, error) {
	return 777, r.log("light %v", side)
}
func (r *recorder) SetBuzzer(on bool) error          { return r.log("buzzer %v", on) }
func (r *recorder) SetLED(i int, c core.Color) error { return r.log("led set %d %06x", i, uint32(c)) }
func (r *recorder) FillLEDs(c core.Color) error      { return r.log("led fill %06x", uint32(c)) }
func (r *recorder) ClearLEDs() error                 { return r.log("led clear") }
func (r *recorder) SetLEDBrightness(b uint8) error   { return r.log("led brightness %d", b) }
func (r *recorder) RainbowLEDs() error               { return r.log("led rainbow") }
func (r *recorder) ShiftLEDs(n int) error            { return r.log("led shift %d", n) }
func (r *recorder) RotateLEDs(n int) error           { return r.log("led rotate %d", n) }

func stubSleep(t *testing.T) *[]time.Duration {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = time.Sleep })
	return &slept
}

func TestExec(t *testing.T) {
	Convey("Exec dispatches to the controller", t, func() {
		ctl := &recorder{}
		out := &bytes.Buffer{}
		slept := stubSleep(t)

		exec := func(line string) error {
			return Exec(ctl, strings.Fields(line), out)
		}

		Convey("motion commands", func() {
			So(exec("motor left -200"), ShouldBeNil)
			So(exec("motor all 300"), ShouldBeNil)
			So(exec("drive 500"), ShouldBeNil)
			So(exec("drive 500 750"), ShouldBeNil)
			So(exec("turn right 400"), ShouldBeNil)
			So(exec("turn left 400 250"), ShouldBeNil)
			So(exec("STOP"), ShouldBeNil)
			So(ctl.calls, ShouldResemble, []string{
				"motor left -200",
				"motor all 300",
				"drive 500",
				"drive 500 750ms",
				"turn right 400",
				"turn left 400 250ms",
				"stop",
			})
		})

		Convey("an explicit duration is always timed, even zero or negative", func() {
			So(exec("drive 400 0"), ShouldBeNil)
			So(exec("drive 400 -5"), ShouldBeNil)
			So(exec("turn left 300 0"), ShouldBeNil)
			So(ctl.calls, ShouldResemble, []string{
				"drive 400 0s",
				"drive 400 -5ms",
				"turn left 300 0s",
			})
		})

		Convey("sensor commands print readings", func() {
			So(exec("distance"), ShouldBeNil)
			So(exec("distance in"), ShouldBeNil)
			So(exec("line left"), ShouldBeNil)
			So(exec("line right"), ShouldBeNil)
			So(exec("light right"), ShouldBeNil)
			So(out.String(), ShouldEqual,
				"42 cm\n42 in\nleft: on line\nright: off line\nright: 777\n")
		})

		Convey("buzz with a duration beeps", func() {
			So(exec("buzz 120"), ShouldBeNil)
			So(ctl.calls, ShouldResemble, []string{"buzzer true", "buzzer false"})
			So(*slept, ShouldResemble, []time.Duration{120 * time.Millisecond})
		})

		Convey("led operations", func() {
			So(exec("led fill red"), ShouldBeNil)
			So(exec("led set 2 #102030"), ShouldBeNil)
			So(exec("led brightness 90"), ShouldBeNil)
			So(exec("led shift"), ShouldBeNil)
			So(exec("led rotate -2"), ShouldBeNil)
			So(exec("led rainbow"), ShouldBeNil)
			So(exec("led clear"), ShouldBeNil)
			So(ctl.calls, ShouldResemble, []string{
				"led fill ff0000",
				"led set 2 102030",
				"led brightness 90",
				"led shift 1",
				"led rotate -2",
				"led rainbow",
				"led clear",
			})
		})

		Convey("wait sleeps without touching the robot", func() {
			So(exec("wait 1500"), ShouldBeNil)
			So(ctl.calls, ShouldBeEmpty)
			So(*slept, ShouldResemble, []time.Duration{1500 * time.Millisecond})
		})

		Convey("bad input is rejected before reaching the robot", func() {
			So(errors.Is(exec("fly 10"), ErrUnknownCommand), ShouldBeTrue)
			So(errors.Is(exec("motor left"), ErrUsage), ShouldBeTrue)
			So(errors.Is(exec("motor middle 10"), core.ErrInvalidSide), ShouldBeTrue)
			So(errors.Is(exec("line all"), core.ErrInvalidSide), ShouldBeTrue)
			So(errors.Is(exec("distance furlong"), core.ErrInvalidUnit), ShouldBeTrue)
			So(exec("drive fast"), ShouldNotBeNil)
			So(exec("drive 10 soon"), ShouldNotBeNil)
			So(exec("turn up 10"), ShouldNotBeNil)
			So(exec("led brightness 300"), ShouldNotBeNil)
			So(exec("led sparkle"), ShouldNotBeNil)
			So(exec("led fill mauve"), ShouldNotBeNil)
			So(ctl.calls, ShouldBeEmpty)
		})

		Convey("controller errors come back unchanged", func() {
			ctl.fail = core.ErrShutdown
			So(exec("drive 100"), ShouldEqual, core.ErrShutdown)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Run reads a script", t, func() {
		ctl := &recorder{}
		out := &bytes.Buffer{}
		stubSleep(t)

		Convey("skipping blanks and comments", func() {
			src := `
# square dance
drive 400 500

turn "left" 300 200   
  # done
stop
`
			So(Run(ctl, strings.NewReader(src), out), ShouldBeNil)
			So(ctl.calls, ShouldResemble, []string{
				"drive 400 500ms",
				"turn left 300 200ms",
				"stop",
			})
		})

		Convey("errors carry the line number and stop the script", func() {
			src := "drive 100\nmotor sideways 5\nstop\n"
			err := Run(ctl, strings.NewReader(src), out)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldStartWith, "line 2:")
			So(errors.Is(err, core.ErrInvalidSide), ShouldBeTrue)
			So(ctl.calls, ShouldResemble, []string{"drive 100"})
		})

		Convey("unterminated quotes are a line error", func() {
			err := Run(ctl, strings.NewReader(`led fill "red`), out)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldStartWith, "line 1:")
		})
	})
}

func TestRunOnSimulatedBoard(t *testing.T) {
	Convey("a script drives the simulated board", t, func() {
		pins := sim.New(core.BitBot, sim.Options{ObstacleCM: 33})
		strip := &sim.Strip{}
		r := core.NewRobot(pins, core.BitBot, core.Options{
			LEDs: func() (core.PixelWriter, error) { return strip, nil },
		})
		out := &bytes.Buffer{}

		src := "motor right -1000\ndistance cm\nled fill green\n"
		So(Run(r, strings.NewReader(src), out), ShouldBeNil)
		So(out.String(), ShouldEqual, "33 cm\n")
		So(pins.Wheel(core.Right), ShouldResemble, core.WheelCommand{
			Side: core.Right, Duty: 23, Direction: core.Reverse,
		})
		So(strip.Frames(), ShouldBeGreaterThan, 0)
	})
}

func TestZeroDurationStopsOnSimulatedBoard(t *testing.T) {
	Convey("a zero or negative duration still stops the wheels", t, func() {
		pins := sim.New(core.BitBot, sim.Options{})
		r := core.NewRobot(pins, core.BitBot, core.Options{})
		out := &bytes.Buffer{}
		stopped := func() {
			So(pins.Wheel(core.Left).Duty, ShouldEqual, uint16(0))
			So(pins.Wheel(core.Right).Duty, ShouldEqual, uint16(0))
		}

		So(Exec(r, []string{"drive", "400", "0"}, out), ShouldBeNil)
		stopped()
		So(Exec(r, []string{"turn", "left", "300", "0"}, out), ShouldBeNil)
		stopped()
		So(Exec(r, []string{"drive", "400", "-5"}, out), ShouldBeNil)
		stopped()
	})
}

func TestCommandsTable(t *testing.T) {
	Convey("every verb is listed with help", t, func() {
		names := []string{}
		for _, c := range Commands() {
			So(c.Help, ShouldNotBeEmpty)
			So(c.Run, ShouldNotBeNil)
			names = append(names, c.Name)
		}
		So(names, ShouldResemble, []string{
			"buzz", "distance", "drive", "led", "light",
			"line", "motor", "stop", "turn", "wait",
		})
	})
}
