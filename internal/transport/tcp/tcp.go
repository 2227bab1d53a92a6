// Package tcp provides the plain TCP byte stream used underneath SSH
// connections.
package tcp

import (
	"errors"
	"fmt"
	"net"
	"time"
)

type Dialer struct {
	connectTimeout time.Duration
	ioTimeout      time.Duration
}

// NewDialer returns a dialer with the given connect timeout. When ioTimeout
// is positive each Read and Write gets its own deadline.
func NewDialer(connectTimeout, ioTimeout time.Duration) *Dialer {
	return &Dialer{
		connectTimeout: connectTimeout,
		ioTimeout:      ioTimeout,
	}
}

func (d *Dialer) Dial(address string) (*Conn, error) {
	nd := net.Dialer{Timeout: d.connectTimeout}

	nc, err := nd.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("tcp connect: %w", err)
	}

	return NewConn(nc, d.ioTimeout), nil
}

// Conn wraps a net.Conn with per-operation deadlines and a two-way shutdown.
type Conn struct {
	nc        net.Conn
	ioTimeout time.Duration
}

func NewConn(nc net.Conn, ioTimeout time.Duration) *Conn {
	return &Conn{nc: nc, ioTimeout: ioTimeout}
}

func (c *Conn) Read(b []byte) (int, error) {
	if c.ioTimeout > 0 {
		if err := c.nc.SetReadDeadline(time.Now().Add(c.ioTimeout)); err != nil {
			return 0, err
		}
	}
	return c.nc.Read(b)
}

func (c *Conn) Write(b []byte) (int, error) {
	if c.ioTimeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(c.ioTimeout)); err != nil {
			return 0, err
		}
	}
	return c.nc.Write(b)
}

type halfCloser interface {
	CloseWrite() error
	CloseRead() error
}

// Shutdown half-closes both directions when the connection supports it and
// then closes it. The connection is always closed.
func (c *Conn) Shutdown() error {
	var errs []error

	if hc, ok := c.nc.(halfCloser); ok {
		errs = append(errs, hc.CloseWrite(), hc.CloseRead())
	}
	errs = append(errs, c.nc.Close())

	return errors.Join(errs...)
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}
