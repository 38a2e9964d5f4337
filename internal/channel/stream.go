package channel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// maxFrameSize bounds a single frame so a corrupt length prefix cannot
// trigger an absurd allocation.
const maxFrameSize = 64 << 20

// Stream is a Transport over a pair of byte streams carrying 4-byte
// big-endian length-prefixed frames. This is the format used with FIFO
// endpoints.
type Stream struct {
	r  io.ReadCloser
	w  io.WriteCloser
	br *bufio.Reader
}

// NewStream wraps a read side and a write side. If r supports read
// deadlines (os.File pipes and net.Conn do), Recv timeouts are enforced.
func NewStream(r io.ReadCloser, w io.WriteCloser) *Stream {
	return &Stream{r: r, w: w, br: bufio.NewReader(r)}
}

// OpenFIFO opens the named pipe pair for one peer. The open blocks until
// the peer has the other ends open, which is why all channels are opened
// before any of them is used.
func OpenFIFO(inPath, outPath string) (*Stream, error) {
	in, err := os.OpenFile(inPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s for reading: %w", inPath, err)
	}
	out, err := os.OpenFile(outPath, os.O_WRONLY, 0)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("opening %s for writing: %w", outPath, err)
	}
	return NewStream(in, out), nil
}

func (s *Stream) Send(p []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(p)))
	if _, err := s.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := s.w.Write(p)
	return err
}

func (s *Stream) Recv(timeout time.Duration) ([]byte, error) {
	type deadliner interface {
		SetReadDeadline(t time.Time) error
	}
	if d, ok := s.r.(deadliner); ok {
		if timeout > 0 {
			d.SetReadDeadline(time.Now().Add(timeout))
		} else {
			d.SetReadDeadline(time.Time{})
		}
	}

	var hdr [4]byte
	if _, err := io.ReadFull(s.br, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(s.br, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Stream) Close() error {
	err := s.r.Close()
	if werr := s.w.Close(); err == nil {
		err = werr
	}
	return err
}
