// Package iobuf provides the buffered byte-stream substrate shared by the
// CBOR decoder and encoder.
//
// # Overview
//
// Input holds a fixed-capacity byte buffer that is refilled from an
// underlying io.Reader on demand. Output holds a growable byte buffer that
// is drained to an underlying io.Writer on demand. Both exist so that the
// decoder and encoder's inner loops can assume contiguous memory instead of
// juggling io.Reader/io.Writer short reads and writes on every byte.
//
// # Dependencies
//
//   - github.com/pkg/errors: wraps I/O failures so a caller can recover the
//     original cause with errors.Cause while still matching sentinel errors
//     with errors.Is.
//   - github.com/sirupsen/logrus: traces buffer growth and refill at Debug
//     level; silent by default.
//
// # Thread Safety
//
// Neither Input nor Output is safe for concurrent use. Each decoder/encoder
// owns exactly one of each for its lifetime.
package iobuf

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is used when a caller constructs an Input or Output
// without specifying a capacity.
const DefaultBufferSize = 8192

// ErrBufferTooSmall is returned by Ensure when the requested run of
// contiguous bytes exceeds the buffer's fixed capacity. Unlike Output,
// Input never grows: growing would defeat the point of bounding memory use
// against a hostile or merely very large input stream.
var ErrBufferTooSmall = errors.New("iobuf: requested span exceeds input buffer capacity")

// ErrUnexpectedEOF reports that the underlying reader ran dry in the middle
// of a token the caller expected to be able to complete.
var ErrUnexpectedEOF = errors.New("iobuf: unexpected end of input")

// Input is a recyclable, fixed-capacity read buffer over an io.Reader.
//
// Fields:
//
//	buf: owned byte buffer, capacity fixed at construction
//	pos: read pointer; bytes [pos:limit) are unread and valid
//	limit: end of valid (unread) data in buf
type Input struct {
	r     io.Reader
	buf   []byte
	pos   int
	limit int

	// consumed counts bytes handed to the caller via NextByte/Ensure-backed
	// reads, across refills. Used only for diagnostics.
	consumed uint64

	log *logrus.Entry
}

// NewInput constructs an Input reading from r with the given buffer
// capacity. A non-positive size falls back to DefaultBufferSize.
func NewInput(r io.Reader, size int) *Input {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Input{
		r:   r,
		buf: make([]byte, size),
		log: logrus.WithField("component", "iobuf.Input"),
	}
}

// Reset rebinds the Input to a new reader and discards any buffered bytes,
// so that a decoder can be returned to a pool and reused for a fresh stream.
func (in *Input) Reset(r io.Reader) {
	in.r = r
	in.pos = 0
	in.limit = 0
	in.consumed = 0
}

// Cap reports the fixed buffer capacity.
func (in *Input) Cap() int { return len(in.buf) }

// Buffered reports how many unread bytes are currently held in memory.
func (in *Input) Buffered() int { return in.limit - in.pos }

// TotalConsumed reports the number of bytes handed to the caller so far,
// across all refills. Useful for error messages ("malformed input at byte
// N").
func (in *Input) TotalConsumed() uint64 { return in.consumed }

// LoadMore performs a single refill attempt, compacting unread bytes to the
// front of the buffer first. It returns false (with a nil error) at a clean
// EOF, and an error on any other read failure, including a zero-byte read
// from a reader that has not signaled EOF (treated as a protocol violation
// by the reader, per spec: "zero-byte read with an open stream is an I/O
// error").
func (in *Input) LoadMore() (bool, error) {
	if in.pos > 0 {
		n := copy(in.buf, in.buf[in.pos:in.limit])
		in.limit = n
		in.pos = 0
	}
	if in.limit == len(in.buf) {
		// Buffer is already full; nothing more to load.
		return true, nil
	}
	n, err := in.r.Read(in.buf[in.limit:])
	if n > 0 {
		in.limit += n
		in.log.WithField("n", n).Debug("loaded more input")
		return true, nil
	}
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "iobuf: read failed")
	}
	return false, errors.New("iobuf: zero-byte read on open stream")
}

// Ensure guarantees that at least n contiguous unread bytes are available
// starting at the read pointer, compacting and refilling as needed. It
// fails with ErrBufferTooSmall if n exceeds the buffer's capacity, and with
// ErrUnexpectedEOF if the stream ends before n bytes are available.
func (in *Input) Ensure(n int) error {
	if n > len(in.buf) {
		return ErrBufferTooSmall
	}
	for in.limit-in.pos < n {
		ok, err := in.LoadMore()
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnexpectedEOF
		}
	}
	return nil
}

// Peek returns a slice over the next n unread bytes without consuming them.
// The caller must call Ensure(n) first; Peek does not refill.
func (in *Input) Peek(n int) []byte {
	return in.buf[in.pos : in.pos+n]
}

// Advance consumes n bytes previously returned by Peek.
func (in *Input) Advance(n int) {
	in.pos += n
	in.consumed += uint64(n)
}

// NextByte consumes and returns the single next byte, refilling if needed.
// Returns ErrUnexpectedEOF at a hard EOF.
func (in *Input) NextByte() (byte, error) {
	if in.pos >= in.limit {
		if err := in.Ensure(1); err != nil {
			return 0, err
		}
	}
	b := in.buf[in.pos]
	in.pos++
	in.consumed++
	return b, nil
}

// PeekByte returns the next byte without consuming it. The caller must
// already know a byte is available (e.g. via a prior Ensure(1)), or be
// prepared for io errors on the implicit refill.
func (in *Input) PeekByte() (byte, error) {
	if in.pos >= in.limit {
		if err := in.Ensure(1); err != nil {
			return 0, err
		}
	}
	return in.buf[in.pos], nil
}

// AtEOF reports whether the stream is exhausted: no buffered bytes remain
// and a refill attempt yields EOF. It performs at most one refill attempt.
func (in *Input) AtEOF() (bool, error) {
	if in.pos < in.limit {
		return false, nil
	}
	ok, err := in.LoadMore()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ReadInto copies exactly n bytes into dst starting at the read pointer,
// refilling the internal buffer as many times as necessary. Unlike
// Ensure+Peek, this path supports n larger than the buffer's capacity (the
// decoder's "long path" for strings/binary that exceed buffer capacity).
func (in *Input) ReadInto(dst []byte) error {
	n := len(dst)
	off := 0
	for off < n {
		if in.pos >= in.limit {
			ok, err := in.LoadMore()
			if err != nil {
				return err
			}
			if !ok {
				return ErrUnexpectedEOF
			}
		}
		avail := in.limit - in.pos
		want := n - off
		if avail > want {
			avail = want
		}
		copy(dst[off:off+avail], in.buf[in.pos:in.pos+avail])
		in.pos += avail
		in.consumed += uint64(avail)
		off += avail
	}
	return nil
}

// Skip discards n unread bytes, refilling as necessary. Used to skip the
// payload of a lazy string/binary token that the caller never materialized.
func (in *Input) Skip(n int) error {
	for n > 0 {
		if in.pos >= in.limit {
			ok, err := in.LoadMore()
			if err != nil {
				return err
			}
			if !ok {
				return ErrUnexpectedEOF
			}
		}
		avail := in.limit - in.pos
		if avail > n {
			avail = n
		}
		in.pos += avail
		in.consumed += uint64(avail)
		n -= avail
	}
	return nil
}

// ReleaseBuffered hands any unread buffered bytes to sink and marks the
// buffer empty. Used when a caller (e.g. AUTO_CLOSE_SOURCE=false) wants to
// reclaim bytes the Input over-read from a shared stream.
func (in *Input) ReleaseBuffered(sink io.Writer) (int, error) {
	if in.pos >= in.limit {
		return 0, nil
	}
	n, err := sink.Write(in.buf[in.pos:in.limit])
	in.pos = in.limit
	return n, err
}
