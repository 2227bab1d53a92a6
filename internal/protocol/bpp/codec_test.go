package bpp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deterministicSource(b ...byte) io.Reader {
	return bytes.NewReader(b)
}

func padBytes(start byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = start + byte(i)
	}
	return out
}

func TestCodec_EncodeExactBytes(t *testing.T) {
	// length draw 0 -> 8, aligned up to 10 for a 9 byte payload
	src := deterministicSource(append([]byte{0x00}, padBytes(0xA0, 10)...)...)
	codec := NewCodec(src)

	frame, err := codec.Encode("echo test")
	require.NoError(t, err)

	want := []byte{0x00, 0x00, 0x00, 0x14, 0x0A}
	want = append(want, "echo test"...)
	want = append(want, padBytes(0xA0, 10)...)

	assert.Equal(t, want, frame)
	assert.Len(t, frame, 24)
}

func TestCodec_BuildProperties(t *testing.T) {
	codec := NewCodec(nil)

	for l := 0; l <= 600; l++ {
		payload := strings.Repeat("x", l)

		p, err := codec.Build(payload)
		require.NoError(t, err)

		pad := p.PaddingLength()
		assert.GreaterOrEqual(t, pad, minRandPadding)
		assert.LessOrEqual(t, pad, MaxPaddingLen)

		frame, err := p.Serialize()
		require.NoError(t, err, "payload length %d", l)

		assert.Equal(t, 0, len(frame)%BlockSize, "payload length %d", l)
		assert.GreaterOrEqual(t, len(frame), MinFrameLen)
		assert.LessOrEqual(t, len(frame), MaxFrameLen)

		packetLen := binary.BigEndian.Uint32(frame[:4])
		assert.Equal(t, uint32(1+l+pad), packetLen)
		assert.Equal(t, len(frame), 5+l+pad)
		assert.Equal(t, byte(pad), frame[4])
		assert.Equal(t, payload, string(frame[5:5+l]))
	}
}

func TestCodec_EmptyPayload(t *testing.T) {
	codec := NewCodec(nil)

	for i := 0; i < 200; i++ {
		frame, err := codec.Encode("")
		require.NoError(t, err)
		assert.Equal(t, 0, len(frame)%BlockSize)
		assert.GreaterOrEqual(t, len(frame), MinFrameLen)
	}
}

func TestCodec_PaddingLengthSelection(t *testing.T) {
	tests := []struct {
		name        string
		draws       []byte
		payload     string
		wantPadding int
	}{
		{
			name:        "minimum draw aligned upward",
			draws:       []byte{0x00},
			payload:     "",
			wantPadding: 11,
		},
		{
			name:        "out of range draws are rejected",
			draws:       []byte{0xFF, 0xF7, 0x03},
			payload:     "",
			wantPadding: 11,
		},
		{
			name:        "already aligned",
			draws:       []byte{0x03},
			payload:     "12345678",
			wantPadding: 11,
		},
		{
			name:        "overflow steps back one block",
			draws:       []byte{0xF6},
			payload:     "",
			wantPadding: 251,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := append(append([]byte{}, tt.draws...), bytes.Repeat([]byte{0x5A}, 255)...)
			codec := NewCodec(bytes.NewReader(src))

			p, err := codec.Build(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPadding, p.PaddingLength())
			assert.Equal(t, 0, p.FrameLength()%BlockSize)
		})
	}
}

func TestCodec_IndependentPadding(t *testing.T) {
	codec := NewCodec(nil)

	a, err := codec.Build("same")
	require.NoError(t, err)
	b, err := codec.Build("same")
	require.NoError(t, err)

	if a.PaddingLength() == b.PaddingLength() {
		assert.NotEqual(t, a.Padding(), b.Padding())
	}
}

func TestCodec_EntropyFailure(t *testing.T) {
	codec := NewCodec(deterministicSource())

	_, err := codec.Build("ls")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntropy)
	assert.ErrorIs(t, err, io.EOF)

	// length drawn, padding short
	codec = NewCodec(deterministicSource(0x00, 0x01, 0x02))
	_, err = codec.Build("ls")
	assert.ErrorIs(t, err, ErrEntropy)
}

func TestCodec_BuildWithPaddingRange(t *testing.T) {
	codec := NewCodec(nil)

	for _, n := range []int{-1, 0, 3, 256, 1000} {
		_, err := codec.BuildWithPadding("x", n)
		assert.ErrorIs(t, err, ErrPaddingLength, "padding %d", n)
	}

	for _, n := range []int{4, 255} {
		p, err := codec.BuildWithPadding("x", n)
		require.NoError(t, err)
		assert.Equal(t, n, p.PaddingLength())
	}
}

func TestPacket_SerializeValidation(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		paddingLen int
		wantErr    error
	}{
		{
			name:       "too small",
			payload:    "",
			paddingLen: 4,
			wantErr:    ErrFrameTooSmall,
		},
		{
			name:       "too small and misaligned reports too small",
			payload:    "abc",
			paddingLen: 5,
			wantErr:    ErrFrameTooSmall,
		},
		{
			name:       "misaligned",
			payload:    "abcdefgh",
			paddingLen: 4,
			wantErr:    ErrFrameMisaligned,
		},
		{
			name:       "too large",
			payload:    strings.Repeat("a", 35003),
			paddingLen: 8,
			wantErr:    ErrFrameTooLarge,
		},
		{
			name:       "minimum frame",
			payload:    "",
			paddingLen: 11,
		},
		{
			name:       "maximum frame",
			payload:    strings.Repeat("a", 34987),
			paddingLen: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewCodec(nil).BuildWithPadding(tt.payload, tt.paddingLen)
			require.NoError(t, err)

			frame, err := p.Serialize()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, frame)
				return
			}

			require.NoError(t, err)
			assert.Len(t, frame, 5+len(tt.payload)+tt.paddingLen)
		})
	}
}

func TestCodec_OversizedPayload(t *testing.T) {
	_, err := NewCodec(nil).Encode(strings.Repeat("a", 40000))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestPacket_SerializeOnce(t *testing.T) {
	p, err := NewCodec(nil).Build("whoami")
	require.NoError(t, err)

	_, err = p.Serialize()
	require.NoError(t, err)

	frame, err := p.Serialize()
	assert.Nil(t, frame)
	assert.True(t, errors.Is(err, ErrPacketConsumed))
}

func TestAlignPadding(t *testing.T) {
	for payloadLen := 0; payloadLen < 64; payloadLen++ {
		for pad := minRandPadding; pad < MaxPaddingLen; pad++ {
			got := alignPadding(payloadLen, pad)
			require.GreaterOrEqual(t, got, minRandPadding)
			require.LessOrEqual(t, got, MaxPaddingLen)
			require.Zero(t, (headerLen+payloadLen+got)%BlockSize)
		}
	}
}
