package protocol

// CommandHandler decodes and runs one command. It consumes its arguments from
// data; the transport loops until the frame payload is exhausted.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware side of the link. It verifies incoming frames,
// acknowledges them and dispatches their commands. Not safe for concurrent use.
type Transport struct {
	scanner *Scanner
	nextSeq uint8
	output  OutputBuffer
	handler CommandHandler

	resetCallback func()
	flushCallback func()

	// Errors counts handler failures and malformed payloads.
	Errors uint32
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		scanner: NewScanner(true),
		nextSeq: MessageDest,
		output:  output,
		handler: handler,
	}
	t.scanner.OnResync = t.encodeAckNak
	return t
}

// Receive consumes complete frames from input.
func (t *Transport) Receive(input InputBuffer) {
	n := t.scanner.Scan(input.Data(), t.handleFrame)
	input.Pop(n)
}

func (t *Transport) handleFrame(f Frame) {
	// A host that restarts begins again at MessageDest.
	if f.Sequence == MessageDest && t.nextSeq != MessageDest {
		t.nextSeq = MessageDest
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}
	if f.Sequence != t.nextSeq {
		// NAK: an empty frame carrying the sequence we still expect.
		t.encodeAckNak()
		return
	}
	t.nextSeq = NextSequence(f.Sequence)

	// The ACK goes out before the commands run; a timed maneuver may block
	// for seconds and the host only waits a short while for the ACK.
	t.encodeAckNak()
	t.parseFrame(f.Payload)
}

func (t *Transport) parseFrame(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.Errors++
			t.scanner.synced = false
		}
	}()

	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.Errors++
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			t.Errors++
			return
		}
	}
}

func (t *Transport) encodeAckNak() {
	var buf [MessageLengthMin]byte
	ack, _ := AppendFrame(buf[:0], t.nextSeq, nil)
	t.output.Output(ack)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()
	t.output.Output([]byte{0, t.nextSeq})
	frameData(t.output)

	n := len(t.output.DataSince(cursor)) + MessageTrailerSize
	t.output.Update(cursor+MessagePositionLen, uint8(n))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendCommand writes a frame holding cmdID followed by args.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset forgets the sequence state, as after a reconnect.
func (t *Transport) Reset() {
	t.scanner.Reset()
	t.nextSeq = MessageDest
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback registers fn to run when the host restarts its sequence.
func (t *Transport) SetResetCallback(fn func()) {
	t.resetCallback = fn
}

// SetFlushCallback registers fn to push buffered output to the wire. It runs
// after every ACK so the host sees it before any blocking command work.
func (t *Transport) SetFlushCallback(fn func()) {
	t.flushCallback = fn
}

// NextSequence returns the sequence expected in the next host frame.
func (t *Transport) NextSequence() uint8 {
	return t.nextSeq
}
