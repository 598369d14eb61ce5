// Package transport turns a raw TCP byte stream into discrete
// newline-delimited messages, tolerating partial arrivals.
package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultBufferSize = 4096
	readChunkSize     = 1024
)

var ErrClosed = errors.New("transport: stream closed")

// Stream frames newline-delimited messages over a net.Conn. It keeps a
// growable buffer with read/write cursors; a partial message lacking '\n'
// stays buffered until later reads complete it. Reads belong to the one
// goroutine owning the connection; writes are serialized by a mutex so
// server-initiated pushes can interleave with responses.
type Stream struct {
	conn   net.Conn
	buf    []byte
	rpos   int
	wpos   int
	closed atomic.Bool

	wmu sync.Mutex
}

func NewStream(conn net.Conn) *Stream {
	return &Stream{
		conn: conn,
		buf:  make([]byte, defaultBufferSize),
	}
}

// ReadMessage returns the next message with its '\n' delimiter stripped.
// Messages already buffered are returned in order without touching the
// socket. A timeout is not an error: it returns ("", nil) so the caller
// can run liveness checks. EOF or a hard read error closes the stream.
func (s *Stream) ReadMessage(timeout time.Duration) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	if msg, ok := s.extract(); ok {
		return msg, nil
	}

	// One absolute deadline for the whole call. A peer dripping bytes
	// without a delimiter must not keep re-arming the window and starve
	// the caller's liveness checks.
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if err := s.fill(deadline); err != nil {
			if isTimeout(err) {
				return "", nil
			}
			s.Close()
			if errors.Is(err, io.EOF) {
				return "", ErrClosed
			}
			return "", err
		}
		if msg, ok := s.extract(); ok {
			return msg, nil
		}
	}
}

// WriteMessage sends text followed by '\n' (appended if absent), looping
// until every byte is out. A partial write is never reported as success;
// any write error closes the stream.
func (s *Stream) WriteMessage(text string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	data := []byte(text)
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	sent := 0
	for sent < len(data) {
		n, err := s.conn.Write(data[sent:])
		sent += n
		if err != nil {
			if isTimeout(err) && n > 0 {
				continue
			}
			s.Close()
			return err
		}
	}
	return nil
}

func (s *Stream) Connected() bool {
	return !s.closed.Load()
}

func (s *Stream) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.conn.Close()
	s.rpos = 0
	s.wpos = 0
}

// fill reads one chunk from the socket into the buffer. Data that arrives
// together with an error is kept; the error resurfaces on the next call.
// A zero deadline blocks indefinitely.
func (s *Stream) fill(deadline time.Time) error {
	s.ensureCapacity(readChunkSize)

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return err
	}

	n, err := s.conn.Read(s.buf[s.wpos:])
	if n > 0 {
		s.wpos += n
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

// extract pops the next complete message from the buffer, compacting
// opportunistically once the read cursor passes the midpoint.
func (s *Stream) extract() (string, bool) {
	if s.rpos >= s.wpos {
		return "", false
	}

	idx := bytes.IndexByte(s.buf[s.rpos:s.wpos], '\n')
	if idx < 0 {
		return "", false
	}

	msg := string(s.buf[s.rpos : s.rpos+idx])
	s.rpos += idx + 1

	if s.rpos > len(s.buf)/2 {
		s.compact()
	}
	return msg, true
}

func (s *Stream) compact() {
	if s.rpos >= s.wpos {
		s.rpos = 0
		s.wpos = 0
		return
	}
	n := copy(s.buf, s.buf[s.rpos:s.wpos])
	s.rpos = 0
	s.wpos = n
}

// ensureCapacity guarantees room for at least n more bytes, first by
// compacting and then by doubling the buffer.
func (s *Stream) ensureCapacity(n int) {
	if len(s.buf)-s.wpos >= n {
		return
	}
	s.compact()
	if len(s.buf)-s.wpos >= n {
		return
	}
	size := len(s.buf) * 2
	for size-s.wpos < n {
		size *= 2
	}
	grown := make([]byte, size)
	copy(grown, s.buf[:s.wpos])
	s.buf = grown
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
