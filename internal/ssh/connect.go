package ssh

import "fmt"

// Connect opens the stream to the endpoint. On failure the Conn stays
// disconnected and Connect may be called again.
func (c *Conn) Connect() error {
	switch c.state {
	case StateConnected:
		return ErrAlreadyConnected
	case StateClosed:
		return ErrClosed
	}

	if err := c.endpoint.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	stream, err := c.dialer.Dial(c.endpoint.Address())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if stream == nil {
		return fmt.Errorf("%w: dialer returned no stream for %s", ErrConnect, c.endpoint.Address())
	}

	c.stream = stream
	c.state = StateConnected

	return nil
}
