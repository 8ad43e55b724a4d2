package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wheelbot/core"
	"wheelbot/host/api"
	"wheelbot/host/config"
	"wheelbot/host/mcu"
	"wheelbot/host/periphpins"
	"wheelbot/host/robot"
	"wheelbot/host/script"
	"wheelbot/host/serial"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	mode       = flag.String("mode", "", "serial, sim or gpio (overrides config)")
	device     = flag.String("device", "", "Serial device path (default: auto-detect)")
	scriptPath = flag.String("script", "", "Run a command script and exit (- for stdin)")
	httpAddr   = flag.String("http", "", "Serve the HTTP API on this address (sets http.serve)")
	list       = flag.Bool("list", false, "List serial ports and exit")
	debug      = flag.Bool("debug", false, "Print firmware debug output to stderr")
)

// session is a connected robot plus whatever must be released with it.
type session struct {
	ctl   robot.Controller
	mcu   *mcu.MCU
	close func() error
}

func main() {
	flag.Parse()

	if *list {
		if err := listPorts(); err != nil {
			fatal(err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *httpAddr != "" {
		cfg.HTTP.Listen = *httpAddr
		cfg.HTTP.Serve = true
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if cfg.Debug {
		core.SetDebugWriter(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}

	s, err := connect(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.close()
	stopOnSignal(s)

	switch {
	case *scriptPath != "":
		err = runScript(s.ctl, *scriptPath)
	case cfg.HTTP.Serve:
		fmt.Printf("Serving API on http://%s\n", cfg.HTTP.Listen)
		err = http.ListenAndServe(cfg.HTTP.Listen, api.New(s.ctl, cfg.DistanceInterval()).Routes())
	default:
		runConsole(s)
	}
	if err != nil {
		s.ctl.Stop()
		s.close()
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func connect(cfg *config.Config) (*session, error) {
	switch cfg.Mode {
	case config.ModeSim:
		fmt.Println("Starting simulated firmware...")
		sr, err := robot.Simulated(cfg.Board, cfg.SimOptions())
		if err != nil {
			return nil, err
		}
		return &session{ctl: sr, mcu: sr.MCU(), close: sr.Close}, nil

	case config.ModeGPIO:
		fmt.Printf("Opening GPIO for board %q...\n", cfg.Board.Name)
		pins, err := periphpins.Open()
		if err != nil {
			return nil, err
		}
		r := core.NewRobot(pins, cfg.Board, core.Options{})
		return &session{ctl: r, close: pins.Halt}, nil
	}

	dev := cfg.Serial.Device
	if dev == "" {
		port, err := serial.FindBoard()
		if err != nil {
			return nil, err
		}
		fmt.Printf("Found %s\n", port)
		dev = port.Name
	}

	fmt.Printf("Connecting to wheelbot on %s...\n", dev)
	m, err := mcu.Connect(cfg.SerialPort(dev))
	if err != nil {
		return nil, err
	}
	if err := m.RetrieveDictionary(); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to retrieve dictionary: %w", err)
	}
	if err := m.CheckVersion(cfg.Firmware.Constraint); err != nil {
		m.Close()
		return nil, err
	}
	if v, err := m.FirmwareVersion(); err == nil {
		fmt.Printf("Connected, firmware %s\n", v)
	}
	r := robot.NewRemote(m)
	return &session{ctl: r, mcu: m, close: r.Close}, nil
}

// stopOnSignal halts the wheels before exiting on Ctrl-C.
func stopOnSignal(s *session) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		s.ctl.Stop()
		s.close()
		os.Exit(130)
	}()
}

func runScript(ctl robot.Controller, path string) error {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return script.Run(ctl, in, os.Stdout)
}

func listPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}
