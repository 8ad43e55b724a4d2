package core

import "wheelbot/protocol"

// Link pumps bytes between a serial stream and the command registry. Output
// is pushed through write after every ACK and at the end of every Feed.
// Not safe for concurrent use.
type Link struct {
	input     *protocol.FifoBuffer
	output    *protocol.ScratchOutput
	transport *protocol.Transport
	write     func([]byte) error

	// Dropped counts input bytes lost to a full buffer.
	Dropped uint32
	// WriteErrors counts failed flushes; their output is discarded.
	WriteErrors uint32
}

// NewLink builds a link dispatching to the global registry.
func NewLink(write func([]byte) error) *Link {
	l := &Link{
		input:  protocol.NewFifoBuffer(256),
		output: protocol.NewScratchOutput(),
		write:  write,
	}
	l.transport = protocol.NewTransport(l.output, func(cmdID uint16, data *[]byte) error {
		return DispatchCommand(cmdID, data)
	})
	l.transport.SetFlushCallback(l.Flush)
	l.transport.SetResetCallback(ResetFirmwareState)
	return l
}

// Transport returns the link's transport, for SetGlobalTransport.
func (l *Link) Transport() *protocol.Transport {
	return l.transport
}

// Feed processes newly received bytes.
func (l *Link) Feed(data []byte) {
	for len(data) > 0 {
		n := l.input.Write(data)
		data = data[n:]
		before := l.input.Available()
		l.transport.Receive(l.input)
		if n == 0 && l.input.Available() == before {
			l.Dropped += uint32(len(data))
			DebugAsync("[link] input full, dropped " + itoa(len(data)) + " bytes")
			break
		}
	}
	l.Flush()
}

// Flush writes any buffered output.
func (l *Link) Flush() {
	out := l.output.Result()
	if len(out) == 0 {
		return
	}
	if err := l.write(out); err != nil {
		l.WriteErrors++
		DebugAsync("[link] write failed: " + err.Error())
	}
	l.output.Reset()
}

// Reset drops buffered bytes and restarts the sequence.
func (l *Link) Reset() {
	l.input.Reset()
	l.output.Reset()
	l.transport.Reset()
}
