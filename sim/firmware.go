package sim

import (
	"io"
	"net"
	"sync"

	"wheelbot/core"
)

// Firmware runs the wheelbot firmware on a simulated board, reachable through
// an in-memory serial link. The command handlers are process-wide, so only
// one Firmware should run at a time.
type Firmware struct {
	Pins  *Pins
	Strip *Strip
	Robot *core.Robot

	conn      net.Conn
	link      *core.Link
	done      chan struct{}
	closeOnce sync.Once
}

// StartFirmware boots a simulated board and returns the host end of its
// serial link.
func StartFirmware(board core.Board, opts Options) (io.ReadWriteCloser, *Firmware) {
	hostEnd, boardEnd := net.Pipe()

	fw := &Firmware{
		Pins:  New(board, opts),
		Strip: &Strip{},
		conn:  boardEnd,
		done:  make(chan struct{}),
	}
	fw.Robot = core.NewRobot(fw.Pins, board, core.Options{
		LEDs: func() (core.PixelWriter, error) { return fw.Strip, nil },
	})
	core.InitFirmware(fw.Robot, "go-sim")
	core.ResetFirmwareState()

	fw.link = core.NewLink(func(b []byte) error {
		_, err := boardEnd.Write(b)
		return err
	})
	core.SetGlobalTransport(fw.link.Transport())

	go fw.serve()
	return hostEnd, fw
}

func (fw *Firmware) serve() {
	defer close(fw.done)
	buf := make([]byte, 256)
	for {
		n, err := fw.conn.Read(buf)
		if n > 0 {
			fw.link.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// Close disconnects the board and waits for its loop to exit.
func (fw *Firmware) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		err = fw.conn.Close()
		<-fw.done
	})
	return err
}
