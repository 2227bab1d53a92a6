package bpp

import "errors"

var (
	ErrFrameTooSmall   = errors.New("bpp: frame too small")
	ErrFrameMisaligned = errors.New("bpp: frame length not a multiple of block size")
	ErrFrameTooLarge   = errors.New("bpp: frame too large")
	ErrPacketConsumed  = errors.New("bpp: packet already serialized")
	ErrPaddingLength   = errors.New("bpp: padding length out of range")
	ErrEntropy         = errors.New("bpp: random source failed")
	ErrTruncated       = errors.New("bpp: truncated frame")
	ErrBadPacketLength = errors.New("bpp: invalid packet length")
)
