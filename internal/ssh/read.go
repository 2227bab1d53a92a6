package ssh

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// Read returns at most one read buffer of data from the stream as text.
// Invalid UTF-8 is replaced with U+FFFD. An empty string with a nil error
// means the peer closed the stream.
func (c *Conn) Read() (string, error) {
	if c.state != StateConnected {
		return "", ErrNotConnected
	}

	buf := make([]byte, c.readBufferSize)
	n, err := c.stream.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %w", ErrRead, err)
	}
	if n == 0 {
		return "", nil
	}

	return decodeLossy(buf[:n]), nil
}

func decodeLossy(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
