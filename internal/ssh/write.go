package ssh

import (
	"fmt"
	"io"
)

// maxStalledWrites bounds consecutive writes that make no progress.
const maxStalledWrites = 3

// Send frames command and writes the whole frame to the stream. It does not
// wait for a response.
func (c *Conn) Send(command string) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}

	frame, err := c.codec.Encode(command)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if err = writeFull(c.stream, frame); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

// writeFull retries short writes until b is written or the writer fails.
func writeFull(w io.Writer, b []byte) error {
	stalled := 0

	for len(b) > 0 {
		n, err := w.Write(b)
		if n < 0 || n > len(b) {
			return fmt.Errorf("invalid write count %d", n)
		}
		b = b[n:]

		if err != nil {
			return err
		}

		if n == 0 {
			stalled++
			if stalled >= maxStalledWrites {
				return fmt.Errorf("%w: %d bytes unwritten", io.ErrNoProgress, len(b))
			}
			continue
		}
		stalled = 0
	}

	return nil
}
