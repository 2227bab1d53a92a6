package bpp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Decode parses exactly one serialized frame.
func Decode(frame []byte) (*Packet, error) {
	if len(frame) < headerLen {
		return nil, ErrTruncated
	}

	frameLen, err := frameLenFromHeader(frame[:lengthFieldLen])
	if err != nil {
		return nil, err
	}

	if len(frame) < frameLen {
		return nil, fmt.Errorf("%w: have %d of %d bytes", ErrTruncated, len(frame), frameLen)
	}
	if len(frame) > frameLen {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadPacketLength, len(frame)-frameLen)
	}

	paddingLen := int(frame[lengthFieldLen])
	if paddingLen < MinPaddingLen || headerLen+paddingLen > frameLen {
		return nil, fmt.Errorf("%w: padding length %d", ErrBadPacketLength, paddingLen)
	}

	payloadEnd := frameLen - paddingLen
	padding := make([]byte, paddingLen)
	copy(padding, frame[payloadEnd:])

	return &Packet{
		payload: string(frame[headerLen:payloadEnd]),
		padding: padding,
	}, nil
}

// ReadFrame reads one packet_length-prefixed frame from r.
func ReadFrame(r io.Reader) (*Packet, error) {
	var lenField [lengthFieldLen]byte
	if _, err := io.ReadFull(r, lenField[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	frameLen, err := frameLenFromHeader(lenField[:])
	if err != nil {
		return nil, err
	}

	frame := make([]byte, frameLen)
	copy(frame, lenField[:])
	if _, err := io.ReadFull(r, frame[lengthFieldLen:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	return Decode(frame)
}

func frameLenFromHeader(b []byte) (int, error) {
	packetLen := binary.BigEndian.Uint32(b)
	if packetLen > MaxFrameLen {
		return 0, fmt.Errorf("%w: packet length %d", ErrFrameTooLarge, packetLen)
	}

	frameLen := lengthFieldLen + int(packetLen)
	if err := validateFrameLen(frameLen); err != nil {
		return 0, err
	}

	return frameLen, nil
}
