// Package bpp implements the SSH Binary Packet Protocol framing used to carry
// payloads over a byte stream:
//
//	uint32    packet_length
//	byte      padding_length
//	byte[n1]  payload; n1 = packet_length - padding_length - 1
//	byte[n2]  random padding; n2 = padding_length
//
// No MAC is appended; the frame is sent unencrypted.
package bpp

import (
	"encoding/binary"
	"fmt"
)

const (
	// lengthFieldLen is the size of the packet_length field.
	lengthFieldLen = 4
	// headerLen covers packet_length and padding_length.
	headerLen = lengthFieldLen + 1

	BlockSize      = 8
	MinFrameLen    = 16
	MaxFrameLen    = 35000
	MinPaddingLen  = 4
	MaxPaddingLen  = 255
	minRandPadding = 8
)

// Packet is one outbound or decoded frame. It is immutable once built and may
// be serialized only once.
type Packet struct {
	payload  string
	padding  []byte
	consumed bool
}

// Payload returns the payload text.
func (p *Packet) Payload() string {
	return p.payload
}

// PaddingLength returns the number of random padding bytes.
func (p *Packet) PaddingLength() int {
	return len(p.padding)
}

// Padding returns a copy of the padding bytes.
func (p *Packet) Padding() []byte {
	out := make([]byte, len(p.padding))
	copy(out, p.padding)
	return out
}

// PacketLength is the value of the packet_length field. It does not include
// the field itself.
func (p *Packet) PacketLength() uint32 {
	return uint32(1 + len(p.payload) + len(p.padding))
}

// FrameLength is the full serialized size in bytes.
func (p *Packet) FrameLength() int {
	return headerLen + len(p.payload) + len(p.padding)
}

// Serialize writes the packet into its wire form and validates the size
// constraints of the assembled frame. The packet cannot be serialized twice.
func (p *Packet) Serialize() ([]byte, error) {
	if p.consumed {
		return nil, ErrPacketConsumed
	}
	p.consumed = true

	buf := make([]byte, p.FrameLength())
	binary.BigEndian.PutUint32(buf[0:lengthFieldLen], p.PacketLength())
	buf[lengthFieldLen] = byte(len(p.padding))
	n := copy(buf[headerLen:], p.payload)
	copy(buf[headerLen+n:], p.padding)

	if err := validateFrameLen(len(buf)); err != nil {
		return nil, err
	}

	return buf, nil
}

func validateFrameLen(n int) error {
	switch {
	case n < MinFrameLen:
		return fmt.Errorf("%w: %d < %d", ErrFrameTooSmall, n, MinFrameLen)
	case n%BlockSize != 0:
		return fmt.Errorf("%w: %d", ErrFrameMisaligned, n)
	case n > MaxFrameLen:
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, MaxFrameLen)
	}
	return nil
}
