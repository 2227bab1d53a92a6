package bpp

import (
	"crypto/rand"
	"fmt"
	"io"
)

// paddingChoices is the size of the [minRandPadding, MaxPaddingLen) range
// random padding lengths are drawn from.
const paddingChoices = MaxPaddingLen - minRandPadding

// Codec builds packets, drawing padding lengths and padding bytes from an
// injected random source.
type Codec struct {
	random io.Reader
}

// NewCodec returns a codec reading entropy from random. A nil reader selects
// crypto/rand.
func NewCodec(random io.Reader) *Codec {
	if random == nil {
		random = rand.Reader
	}

	return &Codec{random: random}
}

// Build creates a packet for payload with a random padding length, adjusted
// so the serialized frame is block aligned.
func (c *Codec) Build(payload string) (*Packet, error) {
	paddingLen, err := c.randomPaddingLength()
	if err != nil {
		return nil, err
	}

	return c.BuildWithPadding(payload, alignPadding(len(payload), paddingLen))
}

// BuildWithPadding creates a packet with exactly paddingLength random padding
// bytes. No alignment is applied.
func (c *Codec) BuildWithPadding(payload string, paddingLength int) (*Packet, error) {
	if paddingLength < MinPaddingLen || paddingLength > MaxPaddingLen {
		return nil, fmt.Errorf("%w: %d", ErrPaddingLength, paddingLength)
	}

	padding := make([]byte, paddingLength)
	if _, err := io.ReadFull(c.random, padding); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntropy, err)
	}

	return &Packet{payload: payload, padding: padding}, nil
}

// Encode builds and serializes a packet for payload.
func (c *Codec) Encode(payload string) ([]byte, error) {
	p, err := c.Build(payload)
	if err != nil {
		return nil, err
	}

	return p.Serialize()
}

// randomPaddingLength draws uniformly from [minRandPadding, MaxPaddingLen)
// by rejection sampling single bytes.
func (c *Codec) randomPaddingLength() (int, error) {
	var b [1]byte
	for {
		if _, err := io.ReadFull(c.random, b[:]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEntropy, err)
		}
		if int(b[0]) < paddingChoices {
			return minRandPadding + int(b[0]), nil
		}
	}
}

// alignPadding rounds paddingLen up so header, payload and padding fill a
// whole number of blocks, stepping back one block when that would overflow
// the padding_length byte.
func alignPadding(payloadLen, paddingLen int) int {
	if rem := (headerLen + payloadLen + paddingLen) % BlockSize; rem != 0 {
		paddingLen += BlockSize - rem
	}
	if paddingLen > MaxPaddingLen {
		paddingLen -= BlockSize
	}
	return paddingLen
}
