// Package script runs robot commands written as text, one per line, for the
// console and for -script files.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"wheelbot/host/robot"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Command is one verb of the script language.
type Command struct {
	Name  string
	Usage string
	Help  string
	Run   func(ctl robot.Controller, args []string, out io.Writer) error
}

var commands = map[string]*Command{}

func register(c *Command) {
	commands[c.Name] = c
}

// Commands lists the verbs sorted by name.
func Commands() []*Command {
	list := make([]*Command, 0, len(commands))
	for _, c := range commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func usage(c *Command) error {
	return fmt.Errorf("%w: %s %s", ErrUsage, c.Name, c.Usage)
}

// Exec runs one command. args[0] is the verb.
func Exec(ctl robot.Controller, args []string, out io.Writer) error {
	if len(args) == 0 {
		return nil
	}
	c, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return c.Run(ctl, args[1:], out)
}

// Run executes every line of r, stopping at the first failure.
func Run(ctl robot.Controller, r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		args, err := shlex.Split(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := Exec(ctl, args, out); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func parseMillis(s string) (time.Duration, error) {
	ms, err := parseInt(s)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("duration must not be negative, got %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// speedAndDuration reads "<speed> [ms]". timed is set whenever ms is given,
// including zero and negative values, which still stop right after starting.
func speedAndDuration(c *Command, args []string) (speed int, d time.Duration, timed bool, err error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, false, usage(c)
	}
	if speed, err = parseInt(args[0]); err != nil {
		return 0, 0, false, err
	}
	if len(args) == 2 {
		ms, err := parseInt(args[1])
		if err != nil {
			return 0, 0, false, err
		}
		return speed, time.Duration(ms) * time.Millisecond, true, nil
	}
	return speed, 0, false, nil
}
