package script

import (
	"fmt"
	"io"

	"wheelbot/core"
	"wheelbot/host/robot"
)

func init() {
	register(motorCmd)
	register(driveCmd)
	register(turnCmd)
	register(&Command{
		Name: "stop",
		Help: "stop both wheels",
		Run: func(ctl robot.Controller, args []string, out io.Writer) error {
			return ctl.Stop()
		},
	})
	register(distanceCmd)
	register(lineCmd)
	register(lightCmd)
	register(buzzCmd)
	register(ledCmd)
	register(waitCmd)
}

var motorCmd = &Command{
	Name:  "motor",
	Usage: "<left|right|all> <speed>",
	Help:  "set one or both wheels, -1023..1023",
}

var driveCmd = &Command{
	Name:  "drive",
	Usage: "<speed> [ms]",
	Help:  "drive straight; with ms, stop after ms (0 or less stops at once)",
}

var turnCmd = &Command{
	Name:  "turn",
	Usage: "<left|right> <speed> [ms]",
	Help:  "pivot on the spot, stopping after ms if given",
}

var distanceCmd = &Command{
	Name:  "distance",
	Usage: "[cm|in|raw]",
	Help:  "ping the sonar",
}

var lineCmd = &Command{
	Name:  "line",
	Usage: "<left|right>",
	Help:  "read a line sensor",
}

var lightCmd = &Command{
	Name:  "light",
	Usage: "<left|right>",
	Help:  "read a light sensor",
}

var buzzCmd = &Command{
	Name:  "buzz",
	Usage: "<on|off|ms>",
	Help:  "switch the buzzer, or beep for ms",
}

var ledCmd = &Command{
	Name:  "led",
	Usage: "<fill <color>|set <index> <color>|clear|brightness <0-255>|rainbow|shift [n]|rotate [n]>",
	Help:  "drive the LED strip",
}

var waitCmd = &Command{
	Name:  "wait",
	Usage: "<ms>",
	Help:  "pause the script",
}

// Bound here since the run funcs reference their Command, which would be an
// initialization cycle in the literals.
func init() {
	motorCmd.Run = runMotor
	driveCmd.Run = runDrive
	turnCmd.Run = runTurn
	distanceCmd.Run = runDistance
	lineCmd.Run = runLine
	lightCmd.Run = runLight
	buzzCmd.Run = runBuzz
	ledCmd.Run = runLED
	waitCmd.Run = runWait
}

func runMotor(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) != 2 {
		return usage(motorCmd)
	}
	side, err := robot.ParseSide(args[0], true)
	if err != nil {
		return err
	}
	speed, err := parseInt(args[1])
	if err != nil {
		return err
	}
	return ctl.SetMotor(side, speed)
}

func runDrive(ctl robot.Controller, args []string, out io.Writer) error {
	speed, d, timed, err := speedAndDuration(driveCmd, args)
	if err != nil {
		return err
	}
	if timed {
		return ctl.DriveStraightTimed(speed, d)
	}
	return ctl.DriveStraight(speed)
}

func runTurn(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) < 1 {
		return usage(turnCmd)
	}
	dir, err := robot.ParseSteer(args[0])
	if err != nil {
		return err
	}
	speed, d, timed, err := speedAndDuration(turnCmd, args[1:])
	if err != nil {
		return err
	}
	if timed {
		return ctl.TurnTimed(dir, speed, d)
	}
	return ctl.Turn(dir, speed)
}

func runDistance(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) > 1 {
		return usage(distanceCmd)
	}
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	unit, err := core.ParseDistanceUnit(name)
	if err != nil {
		return err
	}
	v, err := ctl.MeasureDistance(unit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d %s\n", v, unit)
	return nil
}

func sensorSide(c *Command, args []string) (core.Side, error) {
	if len(args) != 1 {
		return 0, usage(c)
	}
	return robot.ParseSide(args[0], false)
}

func runLine(ctl robot.Controller, args []string, out io.Writer) error {
	side, err := sensorSide(lineCmd, args)
	if err != nil {
		return err
	}
	on, err := ctl.ReadLine(side)
	if err != nil {
		return err
	}
	state := "off line"
	if on {
		state = "on line"
	}
	fmt.Fprintf(out, "%s: %s\n", side, state)
	return nil
}

func runLight(ctl robot.Controller, args []string, out io.Writer) error {
	side, err := sensorSide(lightCmd, args)
	if err != nil {
		return err
	}
	v, err := ctl.ReadLight(side)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d\n", side, v)
	return nil
}

func runBuzz(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usage(buzzCmd)
	}
	switch args[0] {
	case "on":
		return ctl.SetBuzzer(true)
	case "off":
		return ctl.SetBuzzer(false)
	}
	d, err := parseMillis(args[0])
	if err != nil {
		return err
	}
	if err := ctl.SetBuzzer(true); err != nil {
		return err
	}
	sleep(d)
	return ctl.SetBuzzer(false)
}

func runLED(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usage(ledCmd)
	}
	op, args := args[0], args[1:]
	switch op {
	case "fill":
		if len(args) != 1 {
			return usage(ledCmd)
		}
		c, err := robot.ParseColor(args[0])
		if err != nil {
			return err
		}
		return ctl.FillLEDs(c)
	case "set":
		if len(args) != 2 {
			return usage(ledCmd)
		}
		i, err := parseInt(args[0])
		if err != nil {
			return err
		}
		c, err := robot.ParseColor(args[1])
		if err != nil {
			return err
		}
		return ctl.SetLED(i, c)
	case "clear":
		return ctl.ClearLEDs()
	case "brightness":
		if len(args) != 1 {
			return usage(ledCmd)
		}
		b, err := parseInt(args[0])
		if err != nil {
			return err
		}
		if b < 0 || b > 255 {
			return fmt.Errorf("brightness must be 0-255, got %d", b)
		}
		return ctl.SetLEDBrightness(uint8(b))
	case "rainbow":
		return ctl.RainbowLEDs()
	case "shift", "rotate":
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = parseInt(args[0]); err != nil {
				return err
			}
		} else if len(args) > 1 {
			return usage(ledCmd)
		}
		if op == "shift" {
			return ctl.ShiftLEDs(n)
		}
		return ctl.RotateLEDs(n)
	}
	return usage(ledCmd)
}

func runWait(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usage(waitCmd)
	}
	d, err := parseMillis(args[0])
	if err != nil {
		return err
	}
	sleep(d)
	return nil
}
