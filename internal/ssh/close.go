package ssh

import "fmt"

// Disconnect shuts the stream down and retires the Conn. The Conn is closed
// even when shutdown fails; further operations return ErrNotConnected and
// Connect returns ErrClosed.
func (c *Conn) Disconnect() error {
	if c.state != StateConnected {
		return ErrNotConnected
	}

	stream := c.stream
	c.stream = nil
	c.state = StateClosed

	if err := stream.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrDisconnect, err)
	}

	return nil
}
