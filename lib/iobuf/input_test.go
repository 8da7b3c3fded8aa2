package iobuf

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestInputNextByte(t *testing.T) {
	in := NewInput(bytes.NewReader([]byte{0x01, 0x02, 0x03}), 2)
	for i, want := range []byte{0x01, 0x02, 0x03} {
		b, err := in.NextByte()
		if err != nil {
			t.Fatalf("NextByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("NextByte %d = %#x, want %#x", i, b, want)
		}
	}
	if _, err := in.NextByte(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("NextByte at EOF = %v, want ErrUnexpectedEOF", err)
	}
}

func TestInputEnsureTooSmall(t *testing.T) {
	in := NewInput(bytes.NewReader(make([]byte, 100)), 4)
	if err := in.Ensure(5); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Ensure(5) on 4-byte buffer = %v, want ErrBufferTooSmall", err)
	}
}

func TestInputEnsureCompactsAndRefills(t *testing.T) {
	in := NewInput(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}), 4)
	if err := in.Ensure(4); err != nil {
		t.Fatalf("Ensure(4): %v", err)
	}
	in.Advance(3)
	// Only 1 byte left in the buffer; Ensure(3) must compact then refill.
	if err := in.Ensure(3); err != nil {
		t.Fatalf("Ensure(3) after compaction: %v", err)
	}
	got := in.Peek(3)
	want := []byte{4, 5, 6}
	if !bytes.Equal(got, want) {
		t.Errorf("Peek(3) = %v, want %v", got, want)
	}
}

func TestInputReadIntoLargerThanBuffer(t *testing.T) {
	data := make([]byte, 50)
	for i := range data {
		data[i] = byte(i)
	}
	in := NewInput(bytes.NewReader(data), 8)
	dst := make([]byte, 50)
	if err := in.ReadInto(dst); err != nil {
		t.Fatalf("ReadInto: %v", err)
	}
	if !bytes.Equal(dst, data) {
		t.Errorf("ReadInto mismatch")
	}
}

func TestInputSkip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	in := NewInput(bytes.NewReader(data), 4)
	if err := in.Skip(5); err != nil {
		t.Fatalf("Skip(5): %v", err)
	}
	b, err := in.NextByte()
	if err != nil {
		t.Fatalf("NextByte: %v", err)
	}
	if b != 6 {
		t.Errorf("NextByte after Skip = %d, want 6", b)
	}
}

func TestInputZeroByteReadIsError(t *testing.T) {
	in := NewInput(&zeroByteReader{}, 4)
	if _, err := in.NextByte(); err == nil {
		t.Errorf("NextByte on zero-byte reader should fail")
	}
}

type zeroByteReader struct{}

func (zeroByteReader) Read(p []byte) (int, error) { return 0, nil }

func TestInputReleaseBuffered(t *testing.T) {
	in := NewInput(bytes.NewReader([]byte{1, 2, 3, 4}), 4)
	if err := in.Ensure(4); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	in.Advance(1)
	var sink bytes.Buffer
	n, err := in.ReleaseBuffered(&sink)
	if err != nil {
		t.Fatalf("ReleaseBuffered: %v", err)
	}
	if n != 3 {
		t.Errorf("ReleaseBuffered returned %d, want 3", n)
	}
	if !bytes.Equal(sink.Bytes(), []byte{2, 3, 4}) {
		t.Errorf("ReleaseBuffered sink = %v", sink.Bytes())
	}
}

var _ io.Reader = (*zeroByteReader)(nil)
