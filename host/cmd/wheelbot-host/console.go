package main

import (
	"errors"
	"fmt"

	"github.com/abiosoft/ishell/v2"

	"wheelbot/host/script"
	"wheelbot/host/serial"
)

// shellWriter sends command output through the shell.
type shellWriter struct {
	c *ishell.Context
}

func (w shellWriter) Write(p []byte) (int, error) {
	w.c.Print(string(p))
	return len(p), nil
}

func runConsole(s *session) {
	shell := ishell.New()
	shell.Println("Wheelbot console (type 'help' for commands, 'exit' to quit)")

	for _, cmd := range script.Commands() {
		name := cmd.Name
		shell.AddCmd(&ishell.Cmd{
			Name: name,
			Help: fmt.Sprintf("%s %s: %s", name, cmd.Usage, cmd.Help),
			Func: func(c *ishell.Context) {
				args := append([]string{name}, c.Args...)
				if err := script.Exec(s.ctl, args, shellWriter{c}); err != nil {
					c.Err(err)
				}
			},
		})
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "dict",
		Help: "print the firmware dictionary",
		Func: func(c *ishell.Context) {
			if s.mcu == nil {
				c.Err(errors.New("no firmware dictionary in gpio mode"))
				return
			}
			s.mcu.PrintDictionary(shellWriter{c})
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := serial.ListPorts()
			if err != nil {
				c.Err(err)
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	})

	shell.Run()
	shell.Close()
	s.ctl.Stop()
}
