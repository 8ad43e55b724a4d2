package mcu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// DefaultConstraint accepts the firmware releases this host speaks to.
const DefaultConstraint = ">= 0.2.0, < 1.0.0"

var ErrIncompatibleFirmware = errors.New("incompatible firmware")

// FirmwareVersion returns the dictionary version without its product prefix.
func (m *MCU) FirmwareVersion() (string, error) {
	if m.dictionary == nil {
		return "", ErrNoDictionary
	}
	return strings.TrimPrefix(m.dictionary.Version, "wheelbot-"), nil
}

// CheckVersion refuses firmware outside constraint. An empty constraint
// means DefaultConstraint. Development builds report "dev" and always pass.
func (m *MCU) CheckVersion(constraint string) error {
	if constraint == "" {
		constraint = DefaultConstraint
	}
	raw, err := m.FirmwareVersion()
	if err != nil {
		return err
	}
	if strings.EqualFold(raw, "dev") {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("bad version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrIncompatibleFirmware, raw, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: firmware %s, require %s", ErrIncompatibleFirmware, v, constraint)
	}
	return nil
}
