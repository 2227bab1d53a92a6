package ssh

import (
	"io"
	"time"

	"github.com/rcarmo/go-minissh/internal/transport/tcp"
)

// Stream is an ordered, reliable byte stream owned by a connected Conn.
type Stream interface {
	io.Reader
	io.Writer
	// Shutdown closes both directions and releases the stream.
	Shutdown() error
}

// Dialer opens streams to host:port addresses.
type Dialer interface {
	Dial(address string) (Stream, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(address string) (Stream, error)

func (f DialerFunc) Dial(address string) (Stream, error) {
	return f(address)
}

// TCPDialer returns a Dialer opening plain TCP streams. A zero ioTimeout
// leaves reads and writes without deadlines.
func TCPDialer(connectTimeout, ioTimeout time.Duration) Dialer {
	d := tcp.NewDialer(connectTimeout, ioTimeout)

	return DialerFunc(func(address string) (Stream, error) {
		conn, err := d.Dial(address)
		if err != nil {
			return nil, err
		}
		return conn, nil
	})
}
