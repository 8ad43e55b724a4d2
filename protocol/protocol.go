// Package protocol implements the framed wire protocol spoken between the
// robot firmware and a host.
//
// A frame is: length, sequence, payload..., crc16 high, crc16 low, 0x7E.
// The payload is a run of VLQ encoded command IDs and their arguments.
package protocol

// Version is the firmware protocol version reported in the dictionary.
const Version = "0.2.0"

// Frame layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F
)

// ScratchSize bounds the bytes buffered between two output flushes.
const ScratchSize = 512

// NextSequence returns the sequence number following seq.
// Sequence numbers cycle through 0x10..0x1F.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
