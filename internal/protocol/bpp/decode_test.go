package bpp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	codec := NewCodec(nil)

	for _, payload := range []string{"", "ls -la", "echo 'héllo wörld'", string(bytes.Repeat([]byte{'z'}, 1000))} {
		p, err := codec.Build(payload)
		require.NoError(t, err)
		padding := p.Padding()

		frame, err := p.Serialize()
		require.NoError(t, err)

		got, err := Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, payload, got.Payload())
		assert.Equal(t, padding, got.Padding())
		assert.Equal(t, p.PacketLength(), got.PacketLength())
		assert.Equal(t, len(frame), got.FrameLength())
	}
}

func TestDecode_Errors(t *testing.T) {
	valid, err := NewCodec(nil).Encode("uptime")
	require.NoError(t, err)

	tests := []struct {
		name    string
		frame   []byte
		wantErr error
	}{
		{
			name:    "short header",
			frame:   []byte{0x00, 0x00, 0x00},
			wantErr: ErrTruncated,
		},
		{
			name:    "truncated body",
			frame:   valid[:len(valid)-1],
			wantErr: ErrTruncated,
		},
		{
			name:    "trailing bytes",
			frame:   append(append([]byte{}, valid...), 0x00),
			wantErr: ErrBadPacketLength,
		},
		{
			name:    "length below minimum frame",
			frame:   []byte{0x00, 0x00, 0x00, 0x04, 0x04, 0x00, 0x00, 0x00},
			wantErr: ErrFrameTooSmall,
		},
		{
			name:    "misaligned length",
			frame:   append([]byte{0x00, 0x00, 0x00, 0x0D, 0x04}, make([]byte, 12)...),
			wantErr: ErrFrameMisaligned,
		},
		{
			name:    "length above maximum",
			frame:   []byte{0x7F, 0xFF, 0xFF, 0xFF, 0x04},
			wantErr: ErrFrameTooLarge,
		},
		{
			name:    "padding below minimum",
			frame:   append([]byte{0x00, 0x00, 0x00, 0x0C, 0x02}, make([]byte, 11)...),
			wantErr: ErrBadPacketLength,
		},
		{
			name:    "padding exceeds packet",
			frame:   append([]byte{0x00, 0x00, 0x00, 0x0C, 0x20}, make([]byte, 11)...),
			wantErr: ErrBadPacketLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.frame)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestReadFrame(t *testing.T) {
	codec := NewCodec(nil)

	var stream bytes.Buffer
	for _, cmd := range []string{"whoami", "", "cat /etc/hostname"} {
		frame, err := codec.Encode(cmd)
		require.NoError(t, err)
		stream.Write(frame)
	}

	for _, want := range []string{"whoami", "", "cat /etc/hostname"} {
		p, err := ReadFrame(&stream)
		require.NoError(t, err)
		assert.Equal(t, want, p.Payload())
	}

	_, err := ReadFrame(&stream)
	assert.Error(t, err)
}

func TestReadFrame_Truncated(t *testing.T) {
	frame, err := NewCodec(nil).Encode("df -h")
	require.NoError(t, err)

	_, err = ReadFrame(bytes.NewReader(frame[:2]))
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = ReadFrame(bytes.NewReader(frame[:len(frame)-3]))
	assert.ErrorIs(t, err, ErrTruncated)
}
