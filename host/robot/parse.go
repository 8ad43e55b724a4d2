package robot

import (
	"errors"
	"strconv"
	"strings"

	"wheelbot/core"
)

var (
	ErrBadDirection = errors.New("direction must be left or right")
	ErrBadColor     = errors.New("color must be a name or RRGGBB hex")
)

var colorNames = map[string]core.Color{
	"off":    core.Off,
	"black":  core.Off,
	"red":    core.Red,
	"green":  core.Green,
	"blue":   core.Blue,
	"white":  core.White,
	"yellow": core.Yellow,
	"purple": core.Purple,
}

// ParseSide reads "left", "right" and, when allowAll is set, "all".
func ParseSide(s string, allowAll bool) (core.Side, error) {
	switch strings.ToLower(s) {
	case "left", "l":
		return core.Left, nil
	case "right", "r":
		return core.Right, nil
	case "all", "both":
		if allowAll {
			return core.All, nil
		}
	}
	return 0, core.ErrInvalidSide
}

// ParseSteer reads the wheel that runs backwards during a turn.
func ParseSteer(s string) (core.SteerDirection, error) {
	switch strings.ToLower(s) {
	case "left", "l":
		return core.SteerLeft, nil
	case "right", "r":
		return core.SteerRight, nil
	}
	return 0, ErrBadDirection
}

// ParseColor accepts a color name, "RRGGBB", "#RRGGBB" or "0xRRGGBB".
func ParseColor(s string) (core.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colorNames[s]; ok {
		return c, nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if len(s) != 6 {
		return 0, ErrBadColor
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, ErrBadColor
	}
	return core.Color(v), nil
}
