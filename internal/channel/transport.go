package channel

import (
	"os"
	"sync"
	"time"
)

// Transport moves opaque frames to and from one peer. Implementations are
// reliable and ordered; Recv blocks up to the given timeout (zero blocks
// forever). A transport is used by one caller at a time.
type Transport interface {
	Send(p []byte) error
	Recv(timeout time.Duration) ([]byte, error)
	Close() error
}

// Pipe returns two connected in-memory transports. Closing either side
// tears down both. Used by tests and in-process peers.
func Pipe() (Transport, Transport) {
	ab := make(chan []byte, 256)
	ba := make(chan []byte, 256)
	done := make(chan struct{})
	once := new(sync.Once)
	a := &pipe{out: ab, in: ba, done: done, once: once}
	b := &pipe{out: ba, in: ab, done: done, once: once}
	return a, b
}

type pipe struct {
	out  chan []byte
	in   chan []byte
	done chan struct{}
	once *sync.Once
}

func (p *pipe) Send(b []byte) error {
	select {
	case p.out <- b:
		return nil
	case <-p.done:
		return os.ErrClosed
	}
}

func (p *pipe) Recv(timeout time.Duration) ([]byte, error) {
	// Drain buffered frames before reporting closure.
	select {
	case b := <-p.in:
		return b, nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case b := <-p.in:
		return b, nil
	case <-expired:
		return nil, os.ErrDeadlineExceeded
	case <-p.done:
		return nil, os.ErrClosed
	}
}

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
