package ssh

import (
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultHostname = "127.0.0.1"
	DefaultPort     = "22"
	DefaultUser     = "user"
)

// Endpoint identifies the remote target. User is carried as metadata only;
// no authentication is performed with it.
type Endpoint struct {
	Hostname string
	Port     string
	User     string
}

// DefaultEndpoint returns the loopback endpoint on the standard SSH port.
func DefaultEndpoint() Endpoint {
	return Endpoint{
		Hostname: DefaultHostname,
		Port:     DefaultPort,
		User:     DefaultUser,
	}
}

// Address returns the dialable host:port form.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Hostname, e.Port)
}

func (e Endpoint) String() string {
	if e.User == "" {
		return e.Address()
	}
	return e.User + "@" + e.Address()
}

// Validate checks the hostname is set and the port is a TCP port number.
func (e Endpoint) Validate() error {
	if e.Hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidEndpoint)
	}

	if port, err := strconv.Atoi(e.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: invalid port %q", ErrInvalidEndpoint, e.Port)
	}

	return nil
}
