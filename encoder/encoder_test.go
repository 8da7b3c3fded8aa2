package encoder

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
)

func TestWriteSmallPositiveInteger(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	if err := e.WriteInt32(10); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := []byte{0x0a}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteDefiniteArray(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	if err := e.WriteStartArrayWithLength(2); err != nil {
		t.Fatalf("WriteStartArrayWithLength: %v", err)
	}
	if err := e.WriteInt32(1); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if err := e.WriteInt32(2); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if err := e.WriteEndArray(); err != nil {
		t.Fatalf("WriteEndArray: %v", err)
	}
	e.Flush()
	want := []byte{0x82, 0x01, 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteDefiniteArrayLengthMismatchErrors(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	e.WriteStartArrayWithLength(2)
	e.WriteInt32(1)
	if err := e.WriteEndArray(); err == nil {
		t.Fatalf("expected a length-mismatch error")
	}
}

func TestWriteIndefiniteObject(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	e.WriteStartObject()
	e.WriteFieldName("a")
	e.WriteInt32(1)
	if err := e.WriteEndObject(); err != nil {
		t.Fatalf("WriteEndObject: %v", err)
	}
	e.Flush()
	want := []byte{0xbf, 0x61, 'a', 0x01, 0xff}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteFieldNameOutsideObjectFails(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	if err := e.WriteFieldName("a"); err == nil {
		t.Fatalf("expected an error writing a field name at the root")
	}
}

func TestWriteValueWhileExpectingNameFails(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	e.WriteStartObject()
	if err := e.WriteInt32(1); err == nil {
		t.Fatalf("expected an error writing a value where a field name was expected")
	}
}

func TestWriteBigIntFallsBackToTag(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	v := new(big.Int)
	v.SetString("18446744073709551616", 10) // 2^64
	if err := e.WriteBigInt(v); err != nil {
		t.Fatalf("WriteBigInt: %v", err)
	}
	e.Flush()
	want := []byte{0xc2, 0x49, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteBigDecimal(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	dec := cbor.BigDecimal{Unscaled: big.NewInt(27315), Scale: 2}
	if err := e.WriteBigDecimal(dec); err != nil {
		t.Fatalf("WriteBigDecimal: %v", err)
	}
	e.Flush()
	want := []byte{0xc4, 0x82, 0x21, 0x19, 0x6a, 0xb3}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteTagSelfDescribe(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	if err := e.WriteTag(cbor.TagSelfDescribeCBOR); err != nil {
		t.Fatalf("WriteTag: %v", err)
	}
	if err := e.WriteBool(true); err != nil {
		t.Fatalf("WriteBool: %v", err)
	}
	e.Flush()
	want := []byte{0xd9, 0xd9, 0xf7, 0xf5}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

// TestRoundTripTable exercises every row of spec.md §6's encoding
// table that isn't covered by a dedicated test (big integers, big
// decimals, the self-describe tag, and the positive-bignum row have their
// own tests in this file, the sizer row in the sizer package; the rest are
// asserted here row by row).
func TestRoundTripTable(t *testing.T) {
	tests := []struct {
		name  string
		write func(e *Encoder) error
		want  []byte
	}{
		{"true", func(e *Encoder) error { return e.WriteBool(true) }, []byte{0xf5}},
		{"false", func(e *Encoder) error { return e.WriteBool(false) }, []byte{0xf4}},
		{"null", func(e *Encoder) error { return e.WriteNull() }, []byte{0xf6}},
		{"zero", func(e *Encoder) error { return e.WriteInt32(0) }, []byte{0x00}},
		{"twenty_three", func(e *Encoder) error { return e.WriteInt32(23) }, []byte{0x17}},
		{"twenty_four", func(e *Encoder) error { return e.WriteInt32(24) }, []byte{0x18, 0x18}},
		{"negative_one", func(e *Encoder) error { return e.WriteInt32(-1) }, []byte{0x20}},
		{"negative_256", func(e *Encoder) error { return e.WriteInt32(-256) }, []byte{0x38, 0xff}},
		{"0xFEDC", func(e *Encoder) error { return e.WriteInt32(0xFEDC) }, []byte{0x19, 0xfe, 0xdc}},
		{"1.25_f32", func(e *Encoder) error { return e.WriteFloat32(1.25) }, []byte{0xfa, 0x3f, 0xa0, 0x00, 0x00}},
		{"0.75_f64", func(e *Encoder) error { return e.WriteFloat64(0.75) }, []byte{0xfb, 0x3f, 0xe8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"empty_string", func(e *Encoder) error { return e.WriteString("") }, []byte{0x60}},
		{"abc_string", func(e *Encoder) error { return e.WriteString("abc") }, []byte{0x63, 'a', 'b', 'c'}},
		{"indefinite_array", func(e *Encoder) error {
			if err := e.WriteStartArray(); err != nil {
				return err
			}
			return e.WriteEndArray()
		}, []byte{0x9f, 0xff}},
		{"indefinite_object", func(e *Encoder) error {
			if err := e.WriteStartObject(); err != nil {
				return err
			}
			return e.WriteEndObject()
		}, []byte{0xbf, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := New(&buf)
			if err := tt.write(e); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := e.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), tt.want) {
				t.Errorf("got % x, want % x", buf.Bytes(), tt.want)
			}
		})
	}
}

// TestWritePositiveBignumTag covers spec.md §6's "positive bignum 1"
// row. WriteBigInt narrows any *big.Int that fits an int64 (including
// 1) to a plain integer header, so this exercises writeBigIntRaw
// directly - the path a data-binding layer reaches when the source
// value is already typed as an arbitrary-precision integer rather than
// a machine int, and must stay tagged even though its magnitude is
// small.
func TestWritePositiveBignumTag(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	if err := e.writeBigIntRaw(big.NewInt(1)); err != nil {
		t.Fatalf("writeBigIntRaw: %v", err)
	}
	e.Flush()
	want := []byte{0xc2, 0x41, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestAutoCloseContentClosesOpenContainers(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf, cbor.WithAutoCloseContent(true))
	e.WriteStartArray()
	e.WriteStartObject()
	e.WriteFieldName("a")
	e.WriteInt32(1)
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := []byte{0x9f, 0xbf, 0x61, 'a', 0x01, 0xff, 0xff}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}
