package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Mod is the sequence-number space size; seq/acknum arithmetic is
	// modulo Mod.
	Mod = 8

	// Window is the Selective Repeat window size on both sides.
	Window = 4

	// MaxPayload is the largest DATA payload a single frame may carry;
	// longer messages are segmented by the sender.
	MaxPayload = 100

	// crcSeed is the CRC-16/CCITT initial value.
	crcSeed = 0xFFFF

	// HeaderLen is the number of header bytes covered by the CRC, ahead
	// of the payload in the wire layout: is_ack, seq, acknum, length.
	HeaderLen = 4
	headerLen = HeaderLen

	// trailerLen is the big-endian CRC-16 trailer length.
	trailerLen = 2
)

// ErrShortFrame is returned by Decode when the buffer is too small to
// contain a well-formed header and trailer.
var ErrShortFrame = errors.New("frame: buffer shorter than header+trailer")

// ErrTruncatedPayload is returned by Decode when the declared length
// field does not fit in the remaining buffer.
var ErrTruncatedPayload = errors.New("frame: declared length exceeds buffer")

// Frame is the wire unit exchanged between Sender and Receiver: a DATA
// frame (IsAck == false) carrying a payload chunk, or an ACK frame
// (IsAck == true) carrying a cumulative acknowledgement number.
type Frame struct {
	IsAck   bool
	Seq     uint8
	AckNum  uint8
	Payload []byte
	Length  uint8
	CRC     uint16
}

// NewData constructs a DATA frame for seq, piggybacking acknum, with the
// given payload. The CRC is computed over the header and payload at
// construction time.
func NewData(seq, acknum uint8, payload []byte) *Frame {
	return build(seq, acknum, false, payload)
}

// NewAck constructs a cumulative ACK frame naming acknum as the last
// in-order DATA frame accepted by the receiver.
func NewAck(acknum uint8) *Frame {
	return build(0, acknum, true, nil)
}

func build(seq, acknum uint8, isAck bool, payload []byte) *Frame {
	f := &Frame{
		IsAck:   isAck,
		Seq:     seq % Mod,
		AckNum:  acknum % Mod,
		Payload: payload,
		Length:  uint8(len(payload)),
	}
	f.CRC = crc16CCITT(append(f.headerBytes(), f.Payload...), crcSeed)
	return f
}

// headerBytes returns the four header bytes covered by the CRC:
// is_ack, seq, acknum, length.
func (f *Frame) headerBytes() []byte {
	isAckByte := uint8(0)
	if f.IsAck {
		isAckByte = 1
	}
	return []byte{isAckByte, f.Seq, f.AckNum, f.Length}
}

// VerifyCRC recomputes the CRC over the current payload view and
// reports whether it matches the stored CRC. A payload mutated after
// construction (by the channel simulator) will fail verification with
// overwhelming probability.
func (f *Frame) VerifyCRC() bool {
	return crc16CCITT(append(f.headerBytes(), f.Payload...), crcSeed) == f.CRC
}

// Encode serializes the frame to its wire layout:
// [is_ack:1][seq:1][acknum:1][length:1][payload:length][crc:2 big-endian].
func (f *Frame) Encode() []byte {
	buf := make([]byte, headerLen+int(f.Length)+trailerLen)
	copy(buf, f.headerBytes())
	copy(buf[headerLen:], f.Payload)
	binary.BigEndian.PutUint16(buf[headerLen+int(f.Length):], f.CRC)
	return buf
}

// Decode parses the wire layout produced by Encode. The CRC is not
// verified here; call VerifyCRC on the result.
func Decode(buf []byte) (*Frame, error) {
	if len(buf) < headerLen+trailerLen {
		return nil, ErrShortFrame
	}
	length := buf[3]
	if len(buf) < headerLen+int(length)+trailerLen {
		return nil, ErrTruncatedPayload
	}
	payload := make([]byte, length)
	copy(payload, buf[headerLen:headerLen+int(length)])
	f := &Frame{
		IsAck:   buf[0] != 0,
		Seq:     buf[1],
		AckNum:  buf[2],
		Payload: payload,
		Length:  length,
		CRC:     binary.BigEndian.Uint16(buf[headerLen+int(length):]),
	}
	return f, nil
}

// String renders the frame the way the protocol's logs do: a compact
// repr suitable as a structured log field.
func (f *Frame) String() string {
	kind := "DATA"
	if f.IsAck {
		kind = "ACK"
	}
	return fmt.Sprintf("<%s seq=%d ack=%d len=%d crc=%04X>", kind, f.Seq, f.AckNum, f.Length, f.CRC)
}
