package protocol

import (
	"bytes"
	"errors"
)

var ErrFrameTooLong = errors.New("frame exceeds maximum length")

// Frame is a verified frame. Payload aliases the scanned data.
type Frame struct {
	Sequence uint8
	Payload  []byte
}

// AppendFrame appends a complete frame carrying payload to dst.
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := MessageLengthMin + len(payload)
	if n > MessageLengthMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, uint8(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// Scanner splits a byte stream into verified frames. After a bad length,
// sequence, trailer or checksum it drops bytes up to the next sync byte.
type Scanner struct {
	synced bool

	// RequireDest rejects frames whose sequence lacks the MessageDest bit.
	RequireDest bool

	// OnResync runs each time sync is regained after discarding data.
	OnResync func()
}

func NewScanner(requireDest bool) *Scanner {
	return &Scanner{synced: true, RequireDest: requireDest}
}

// Synchronized reports whether the scanner is aligned on frame boundaries.
func (s *Scanner) Synchronized() bool {
	return s.synced
}

// Reset puts the scanner back in sync, as at construction.
func (s *Scanner) Reset() {
	s.synced = true
}

// Scan calls fn for each complete frame in data and returns the number of
// bytes consumed. A trailing partial frame is left unconsumed.
func (s *Scanner) Scan(data []byte, fn func(Frame)) int {
	pos := 0
	for pos < len(data) {
		rest := data[pos:]
		if !s.synced {
			i := bytes.IndexByte(rest, MessageValueSync)
			if i < 0 {
				return len(data)
			}
			pos += i + 1
			s.synced = true
			if s.OnResync != nil {
				s.OnResync()
			}
			continue
		}
		if rest[0] == MessageValueSync {
			pos++
			continue
		}
		if len(rest) < MessageLengthMin {
			break
		}
		n := int(rest[MessagePositionLen])
		if n < MessageLengthMin || n > MessageLengthMax {
			s.synced = false
			continue
		}
		seq := rest[MessagePositionSeq]
		if s.RequireDest && seq&^MessageSeqMask != MessageDest {
			s.synced = false
			continue
		}
		if len(rest) < n {
			break
		}
		if rest[n-1] != MessageValueSync {
			s.synced = false
			continue
		}
		crc := uint16(rest[n-3])<<8 | uint16(rest[n-2])
		if CRC16(rest[:n-MessageTrailerSize]) != crc {
			s.synced = false
			continue
		}
		pos += n
		fn(Frame{Sequence: seq, Payload: rest[MessageHeaderSize : n-MessageTrailerSize]})
	}
	return pos
}
