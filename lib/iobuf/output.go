package iobuf

import (
	"io"
	"slices"

	"github.com/sirupsen/logrus"
)

// Output is a recyclable, growable write buffer over an io.Writer.
//
// Fields:
//
//	buf: owned byte buffer; grows on demand, never shrinks on its own
//	flushed: number of bytes already handed to w, via Flush or the
//	  WriteBytes large-payload bypass
type Output struct {
	w   io.Writer
	buf []byte

	flushed uint64
	log     *logrus.Entry
}

// NewOutput constructs an Output writing to w with an initial buffer
// capacity. A non-positive size falls back to DefaultBufferSize.
func NewOutput(w io.Writer, size int) *Output {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Output{
		w:   w,
		buf: make([]byte, 0, size),
		log: logrus.WithField("component", "iobuf.Output"),
	}
}

// Reset rebinds the Output to a new writer and discards any buffered
// (unflushed) bytes.
func (out *Output) Reset(w io.Writer) {
	out.w = w
	out.buf = out.buf[:0]
	out.flushed = 0
}

// Len reports the number of buffered, not-yet-flushed bytes.
func (out *Output) Len() int { return len(out.buf) }

// Flushed reports the cumulative number of bytes handed to the underlying
// writer so far.
func (out *Output) Flushed() uint64 { return out.flushed }

// grow ensures capacity for at least n more bytes, doubling (or using the
// requested size if larger) so that total reallocation cost across many
// small writes stays O(total bytes written).
func (out *Output) grow(n int) {
	if cap(out.buf) < len(out.buf)+n {
		capacity := max(cap(out.buf)*2, len(out.buf)+n)
		out.buf = slices.Grow(out.buf, capacity-len(out.buf))
		out.log.WithField("capacity", capacity).Debug("grew output buffer")
	}
}

// EnsureRoom guarantees that at least n bytes can be appended without a
// reallocation on the next WriteByte/WriteBytes call, e.g. to reserve
// space before writing a placeholder byte that PatchByte later fills in.
func (out *Output) EnsureRoom(n int) {
	out.grow(n)
}

// WriteByte appends a single byte.
func (out *Output) WriteByte(b byte) error {
	out.grow(1)
	out.buf = append(out.buf, b)
	return nil
}

// WriteBytes appends p in full. Payloads larger than 4*DefaultBufferSize
// are written straight through (after a Flush of what is buffered) to the underlying writer instead of
// growing the buffer to accommodate a one-off large binary/string chunk.
func (out *Output) WriteBytes(p []byte) error {
	if len(p) > 4*DefaultBufferSize {
		if err := out.Flush(); err != nil {
			return err
		}
		n, err := out.w.Write(p)
		out.flushed += uint64(n)
		return err
	}
	out.grow(len(p))
	out.buf = append(out.buf, p...)
	return nil
}

// Bytes returns the currently buffered (unflushed) bytes. The slice is
// invalidated by the next Flush or Reset.
func (out *Output) Bytes() []byte { return out.buf }

// Flush drains the buffered bytes to the underlying writer and resets the
// buffer to empty (retaining its capacity).
func (out *Output) Flush() error {
	if len(out.buf) == 0 {
		return nil
	}
	total := len(out.buf)
	n, err := out.w.Write(out.buf)
	out.flushed += uint64(n)
	out.buf = out.buf[:0]
	if err != nil {
		return err
	}
	if n < total {
		return io.ErrShortWrite
	}
	return nil
}

// PatchByte overwrites a single already-written (but not yet flushed) byte
// at the given offset from the start of the current buffer window, for a
// caller that back-patches a length token once a byte count is known. The
// encoder does not use it: it writes each text header with the exact byte
// length up front.
func (out *Output) PatchByte(offset int, b byte) {
	out.buf[offset] = b
}
