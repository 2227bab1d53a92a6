package ssh

import "errors"

// Connection errors. Failures carrying an underlying cause wrap it, so both
// the kind and the cause match with errors.Is.
var (
	ErrConnect          = errors.New("ssh connect")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrClosed           = errors.New("connection closed by disconnect")
	ErrEncode           = errors.New("encode packet")
	ErrWrite            = errors.New("write to stream")
	ErrRead             = errors.New("read from stream")
	ErrDisconnect       = errors.New("shutdown stream")
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
)
