package protocol

// InputBuffer is a queue of received bytes awaiting frame parsing.
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer accumulates outgoing frames. Positions let a writer patch the
// length byte of a frame after its payload is known.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// ScratchOutput is a fixed size OutputBuffer. Bytes past ScratchSize are
// dropped, so callers flush after each frame.
type ScratchOutput struct {
	buf [ScratchSize]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a byte queue that keeps its contents contiguous, so Data
// never copies. Free space is reclaimed by compacting on Write.
type FifoBuffer struct {
	buf        []byte
	start, end int
}

func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write queues as much of data as fits and returns the count queued.
func (f *FifoBuffer) Write(data []byte) int {
	if f.end+len(data) > len(f.buf) && f.start > 0 {
		f.end = copy(f.buf, f.buf[f.start:f.end])
		f.start = 0
	}
	n := copy(f.buf[f.end:], data)
	f.end += n
	return n
}

// Read dequeues up to len(data) bytes.
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.buf[f.start:f.end])
	f.Pop(n)
	return n
}

func (f *FifoBuffer) Data() []byte {
	return f.buf[f.start:f.end]
}

func (f *FifoBuffer) Available() int {
	return f.end - f.start
}

func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available()
}

func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.start += n
	if f.start == f.end {
		f.Reset()
	}
}

func (f *FifoBuffer) IsEmpty() bool {
	return f.start == f.end
}

func (f *FifoBuffer) Reset() {
	f.start, f.end = 0, 0
}
