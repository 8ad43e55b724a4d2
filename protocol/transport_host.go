package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrAckTimeout      = errors.New("ACK timeout")
	ErrNoResponse      = errors.New("response timeout")
)

// ResponseHandler observes every response frame as it arrives.
type ResponseHandler func(cmdID uint16, data *[]byte) error

// Message is a frame received from the firmware.
type Message struct {
	Sequence uint8
	Payload  []byte
}

// HostTransport is the host side of the link: it frames commands, waits for
// their ACK and queues responses.
type HostTransport struct {
	port io.ReadWriteCloser

	sendMu sync.Mutex
	seq    uint8

	scanner *Scanner
	input   *FifoBuffer

	ackChan      chan Message
	responseChan chan Message

	handlerMu       sync.Mutex
	responseHandler ResponseHandler

	closeOnce sync.Once
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewHostTransport starts reading from port immediately.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		seq:          MessageDest,
		scanner:      NewScanner(false),
		input:        NewFifoBuffer(4 * MessageLengthMax * 2),
		ackChan:      make(chan Message, 4),
		responseChan: make(chan Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends cmdID with args and waits for its ACK.
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, 2*time.Second)
}

// SendCommandWithTimeout is SendCommand with a custom ACK timeout. A NAK
// (ACK for an unexpected sequence) adopts the firmware's sequence and
// retransmits once.
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}
	payload := scratch.Result()

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		t.drainAcks()
		msg, err := AppendFrame(nil, t.seq, payload)
		if err != nil {
			return fmt.Errorf("failed to build command %d: %w", cmdID, err)
		}
		if _, err := t.port.Write(msg); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}

		ack, err := t.waitForAck(timeout)
		if err != nil {
			return err
		}
		want := NextSequence(t.seq)
		if ack.Sequence == want {
			t.seq = want
			return nil
		}
		t.seq = ack.Sequence | MessageDest
	}
	return fmt.Errorf("sequence mismatch after retransmit (now 0x%02x)", t.seq)
}

func (t *HostTransport) drainAcks() {
	for {
		select {
		case <-t.ackChan:
		default:
			return
		}
	}
}

func (t *HostTransport) waitForAck(timeout time.Duration) (Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ack := <-t.ackChan:
		return ack, nil
	case <-timer.C:
		return Message{}, fmt.Errorf("%w after %v", ErrAckTimeout, timeout)
	case <-t.stopChan:
		return Message{}, ErrTransportClosed
	}
}

// ReceiveResponse returns the oldest queued response.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-timer.C:
		return Message{}, fmt.Errorf("%w after %v", ErrNoResponse, timeout)
	case <-t.stopChan:
		return Message{}, ErrTransportClosed
	}
}

// SetResponseHandler installs a callback run on the reader goroutine for
// each response, before it is queued.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	t.responseHandler = handler
	t.handlerMu.Unlock()
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.input.Write(buf[:n])
			consumed := t.scanner.Scan(t.input.Data(), t.dispatch)
			t.input.Pop(consumed)
		}
		if err != nil {
			select {
			case <-t.stopChan:
				return
			default:
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) dispatch(f Frame) {
	msg := Message{Sequence: f.Sequence, Payload: append([]byte(nil), f.Payload...)}
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	t.handlerMu.Lock()
	handler := t.responseHandler
	t.handlerMu.Unlock()
	if handler != nil {
		data := msg.Payload
		if cmdID, err := DecodeVLQUint(&data); err == nil {
			_ = handler(uint16(cmdID), &data)
		}
	}

	// Full queue: drop the oldest response.
	for {
		select {
		case t.responseChan <- msg:
			return
		default:
		}
		select {
		case <-t.responseChan:
		default:
		}
	}
}

// Close stops the reader and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}

// DrainResponses drops queued responses, such as late answers to a query
// that already timed out.
func (t *HostTransport) DrainResponses() {
	for {
		select {
		case <-t.responseChan:
		default:
			return
		}
	}
}

// Reset restarts the sequence and drops anything queued.
func (t *HostTransport) Reset() {
	t.sendMu.Lock()
	t.seq = MessageDest
	t.sendMu.Unlock()
	t.drainAcks()
	t.DrainResponses()
}

// CurrentSequence returns the sequence the next command will carry.
func (t *HostTransport) CurrentSequence() uint8 {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.seq
}
