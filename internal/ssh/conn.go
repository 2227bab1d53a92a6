// Package ssh drives the connect, send, read and disconnect lifecycle of a
// single SSH connection over a byte stream. Commands are framed with the
// binary packet protocol; key exchange, encryption and authentication are
// not performed.
//
// A Conn is not safe for concurrent use. Callers that share one must
// serialize access themselves.
package ssh

import (
	"time"

	"github.com/rcarmo/go-minissh/internal/protocol/bpp"
)

const (
	tcpConnectionTimeout = 5 * time.Second
	readBufferSize       = 128
)

// State is the lifecycle state of a Conn.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	// StateClosed is terminal: the Conn was disconnected and cannot be
	// reconnected.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Option func(*Conn)

// WithDialer replaces the TCP dialer used by Connect.
func WithDialer(d Dialer) Option {
	return func(c *Conn) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithCodec replaces the packet codec, e.g. to inject a deterministic random
// source.
func WithCodec(codec *bpp.Codec) Option {
	return func(c *Conn) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithReadBufferSize sets the maximum number of bytes returned by one Read.
func WithReadBufferSize(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.readBufferSize = n
		}
	}
}

type Conn struct {
	endpoint Endpoint
	dialer   Dialer
	codec    *bpp.Codec

	readBufferSize int

	state  State
	stream Stream
}

// New returns a disconnected Conn for endpoint.
func New(endpoint Endpoint, opts ...Option) *Conn {
	c := &Conn{
		endpoint:       endpoint,
		dialer:         TCPDialer(tcpConnectionTimeout, 0),
		codec:          bpp.NewCodec(nil),
		readBufferSize: readBufferSize,
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) Endpoint() Endpoint {
	return c.endpoint
}

func (c *Conn) State() State {
	return c.state
}
