package ssh

import (
	"bytes"
	"errors"
)

// mockStream records every call made by a Conn.
type mockStream struct {
	readData    []byte
	readErr     error
	writeErr    error
	writeLimit  int  // max bytes accepted per Write, 0 means unlimited
	stallWrites bool // every Write reports 0 bytes and no error
	shutdownErr error

	written bytes.Buffer

	readCalls     int
	writeCalls    int
	shutdownCalls int
}

func (m *mockStream) Read(p []byte) (int, error) {
	m.readCalls++
	if m.readErr != nil {
		return 0, m.readErr
	}
	n := copy(p, m.readData)
	m.readData = m.readData[n:]
	return n, nil
}

func (m *mockStream) Write(p []byte) (int, error) {
	m.writeCalls++
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if m.stallWrites {
		return 0, nil
	}
	if m.writeLimit > 0 && len(p) > m.writeLimit {
		p = p[:m.writeLimit]
	}
	return m.written.Write(p)
}

func (m *mockStream) Shutdown() error {
	m.shutdownCalls++
	return m.shutdownErr
}

func (m *mockStream) calls() int {
	return m.readCalls + m.writeCalls + m.shutdownCalls
}

// mockDialer hands out queued results in order.
type mockDialer struct {
	results   []dialResult
	addresses []string
}

type dialResult struct {
	stream Stream
	err    error
}

func (d *mockDialer) Dial(address string) (Stream, error) {
	d.addresses = append(d.addresses, address)
	if len(d.results) == 0 {
		return nil, errors.New("no dial result queued")
	}
	r := d.results[0]
	d.results = d.results[1:]
	return r.stream, r.err
}

func connectedConn(stream *mockStream, opts ...Option) *Conn {
	d := &mockDialer{results: []dialResult{{stream: stream}}}
	c := New(DefaultEndpoint(), append([]Option{WithDialer(d)}, opts...)...)
	if err := c.Connect(); err != nil {
		panic(err)
	}
	return c
}
