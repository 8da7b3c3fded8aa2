package decoder

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
)

// header encodes a CBOR major-type/length initial byte (plus its
// 1/2-byte suffix) the same way writeHeader would for any length this
// package's own tests need, without pulling in the encoder package and
// its write-context bookkeeping.
func header(major byte, n int) []byte {
	switch {
	case n <= int(cbor.MaxInlineValue):
		return []byte{major<<cbor.MajorShift | byte(n)}
	case n <= 0xFF:
		return []byte{major<<cbor.MajorShift | cbor.Info1Byte, byte(n)}
	default:
		b := make([]byte, 3)
		b[0] = major<<cbor.MajorShift | cbor.Info2Byte
		binary.BigEndian.PutUint16(b[1:], uint16(n))
		return b
	}
}

func TestDecodeBinaryShortPath(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, 20)
	payload := append(header(cbor.MajorByteString, len(data)), data...)
	d := New(bytes.NewReader(payload), nil)
	if k := mustNextToken(t, d); k != cbor.EmbeddedObject {
		t.Fatalf("kind = %v, want EmbeddedObject", k)
	}
	got, err := d.GetBinary()
	if err != nil {
		t.Fatalf("GetBinary: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("GetBinary() = % x, want % x", got, data)
	}
}

// TestDecodeBinaryLongPath forces the "declared length exceeds buffer
// capacity" path (spec.md §4.6.1's long path) by configuring a small input
// buffer and decoding a payload larger than it - the same shape spec.md
// §8 scenario S4 describes as "BUFFER + 500 bytes."
func TestDecodeBinaryLongPath(t *testing.T) {
	const bufSize = 16
	data := make([]byte, bufSize+500)
	for i := range data {
		data[i] = byte(i)
	}
	payload := append(header(cbor.MajorByteString, len(data)), data...)
	d := New(bytes.NewReader(payload), nil, cbor.WithInputBufferSize(bufSize))
	if k := mustNextToken(t, d); k != cbor.EmbeddedObject {
		t.Fatalf("kind = %v, want EmbeddedObject", k)
	}
	got, err := d.GetBinary()
	if err != nil {
		t.Fatalf("GetBinary: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("GetBinary() returned %d bytes, want %d matching bytes", len(got), len(data))
	}
}

func buildChunkedByteString(chunks ...[]byte) []byte {
	out := []byte{cbor.ByteIndefiniteBytes}
	for _, c := range chunks {
		out = append(out, header(cbor.MajorByteString, len(c))...)
		out = append(out, c...)
	}
	out = append(out, cbor.ByteBreak)
	return out
}

func TestDecodeBinaryChunkedPath(t *testing.T) {
	c1 := bytes.Repeat([]byte{0x01}, 10)
	c2 := bytes.Repeat([]byte{0x02}, 5)
	payload := buildChunkedByteString(c1, c2)
	d := New(bytes.NewReader(payload), nil)
	if k := mustNextToken(t, d); k != cbor.EmbeddedObject {
		t.Fatalf("kind = %v, want EmbeddedObject", k)
	}
	got, err := d.GetBinary()
	if err != nil {
		t.Fatalf("GetBinary: %v", err)
	}
	want := append(append([]byte{}, c1...), c2...)
	if !bytes.Equal(got, want) {
		t.Errorf("GetBinary() = % x, want % x", got, want)
	}
}

func TestReadBinaryStreamsWithoutMaterializingLongPayload(t *testing.T) {
	const bufSize = 16
	data := make([]byte, bufSize+500)
	for i := range data {
		data[i] = byte(i * 3)
	}
	payload := append(header(cbor.MajorByteString, len(data)), data...)
	d := New(bytes.NewReader(payload), nil, cbor.WithInputBufferSize(bufSize))
	if k := mustNextToken(t, d); k != cbor.EmbeddedObject {
		t.Fatalf("kind = %v, want EmbeddedObject", k)
	}
	var sink bytes.Buffer
	n, err := d.ReadBinary(&sink)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	if int(n) != len(data) {
		t.Errorf("ReadBinary returned n=%d, want %d", n, len(data))
	}
	if !bytes.Equal(sink.Bytes(), data) {
		t.Errorf("streamed bytes mismatch")
	}
}

func TestReadBinaryStreamsChunked(t *testing.T) {
	c1 := bytes.Repeat([]byte{0xaa}, 7)
	c2 := bytes.Repeat([]byte{0xbb}, 3)
	payload := buildChunkedByteString(c1, c2)
	d := New(bytes.NewReader(payload), nil)
	if k := mustNextToken(t, d); k != cbor.EmbeddedObject {
		t.Fatalf("kind = %v, want EmbeddedObject", k)
	}
	var sink bytes.Buffer
	if _, err := d.ReadBinary(&sink); err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	want := append(append([]byte{}, c1...), c2...)
	if !bytes.Equal(sink.Bytes(), want) {
		t.Errorf("streamed bytes = % x, want % x", sink.Bytes(), want)
	}
}
