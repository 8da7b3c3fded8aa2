// Package encoder implements the push-style CBOR encoder: a streaming
// generator that writes RFC 7049 CBOR directly to an io.Writer, choosing
// indefinite-length container framing by default (the natural shape for a
// generator that does not know an array/map's element count up front) and
// definite-length framing when the caller supplies a count.
//
// See the sibling sizer package for automatic definite-length framing when
// neither the caller nor the encoder knows element counts in advance.
package encoder

import (
	"encoding/binary"
	"io"
	"math"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/cborctx"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/iobuf"
)

// Encoder writes a sequence of CBOR values to an underlying io.Writer. An
// Encoder is owned by one caller at a time and is not safe for concurrent
// use.
type Encoder struct {
	w   io.Writer
	out *iobuf.Output
	cfg cbor.Config
	log *logrus.Entry

	ctx *cborctx.WriteContext
	// expectedLens mirrors the ctx chain: -1 for an indefinite-length
	// frame (WriteContext itself carries no notion of a declared count),
	// otherwise the element count WriteStartArrayWithLength/
	// WriteStartObjectWithLength promised, checked against ctx.Seen() at
	// the matching End call.
	expectedLens []int

	closed bool
}

// New constructs an Encoder writing CBOR to w.
func New(w io.Writer, opts ...cbor.Option) *Encoder {
	cfg := cbor.Apply(cbor.DefaultConfig(), opts...)
	return &Encoder{
		w:   w,
		out: iobuf.NewOutput(w, cfg.OutputBufferSize),
		cfg: cfg,
		ctx: cborctx.NewRootWriteContext(),
		log: logrus.WithField("component", "encoder.Encoder"),
	}
}

// WriteStartArray begins an indefinite-length array.
func (e *Encoder) WriteStartArray() error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := writeIndefiniteHeader(e.out, cbor.MajorArray); err != nil {
		return err
	}
	e.ctx = e.ctx.CreateChildArray()
	e.expectedLens = append(e.expectedLens, -1)
	return nil
}

// WriteStartArrayWithLength begins a definite-length array of n elements.
// The caller must write exactly n values before the matching WriteEndArray.
func (e *Encoder) WriteStartArrayWithLength(n int) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := writeHeader(e.out, cbor.MajorArray, uint64(n)); err != nil {
		return err
	}
	e.ctx = e.ctx.CreateChildArray()
	e.expectedLens = append(e.expectedLens, n)
	return nil
}

// WriteEndArray closes the innermost array, emitting a break byte if it
// was opened as indefinite-length, or verifying the declared count was
// matched exactly if not.
func (e *Encoder) WriteEndArray() error {
	if e.ctx.Kind() != cborctx.Array {
		return cbor.ErrEndArrayNotInArray()
	}
	return e.closeContainer()
}

// WriteStartObject begins an indefinite-length object (map).
func (e *Encoder) WriteStartObject() error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := writeIndefiniteHeader(e.out, cbor.MajorMap); err != nil {
		return err
	}
	e.ctx = e.ctx.CreateChildObject(e.cfg.StrictDuplicateDetection)
	e.expectedLens = append(e.expectedLens, -1)
	return nil
}

// WriteStartObjectWithLength begins a definite-length object of n
// key/value pairs.
func (e *Encoder) WriteStartObjectWithLength(n int) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := writeHeader(e.out, cbor.MajorMap, uint64(n)); err != nil {
		return err
	}
	e.ctx = e.ctx.CreateChildObject(e.cfg.StrictDuplicateDetection)
	e.expectedLens = append(e.expectedLens, n)
	return nil
}

// WriteEndObject closes the innermost object.
func (e *Encoder) WriteEndObject() error {
	if e.ctx.Kind() != cborctx.Object {
		return cbor.ErrEndObjectNotInObject()
	}
	return e.closeContainer()
}

func (e *Encoder) closeContainer() error {
	n := len(e.expectedLens) - 1
	expected := e.expectedLens[n]
	e.expectedLens = e.expectedLens[:n]
	if expected < 0 {
		if err := e.out.WriteByte(cbor.ByteBreak); err != nil {
			return err
		}
	} else if e.ctx.Seen() != expected {
		return cbor.Newf(cbor.WriteContextViolation, "container declared %d elements, got %d", expected, e.ctx.Seen())
	}
	e.ctx = e.ctx.Parent()
	return nil
}

// WriteFieldName writes an object key. Only valid when the current
// context is an Object expecting a name.
func (e *Encoder) WriteFieldName(name string) error {
	if err := e.ctx.WriteFieldName(name); err != nil {
		return err
	}
	return e.writeTextBytes([]byte(name))
}

// WriteTag writes a CBOR tag (major type 6) header wrapping whatever value
// write follows it. It does not itself consume a WriteContext value slot:
// the wrapped value's own Write* call does that, so a tag plus the single
// value it wraps together count as the one element/pair slot spec.md
// describes a tag as transparently decorating. A tag written where no
// value write follows (or followed by a field name) leaves a dangling
// header; callers are responsible for always pairing WriteTag with exactly
// one subsequent value write, the same contract writeBigIntRaw/
// WriteBigDecimal rely on for tags 2/3/4.
func (e *Encoder) WriteTag(tag uint64) error {
	return writeHeader(e.out, cbor.MajorTag, tag)
}

// WriteString writes a CBOR text string value.
func (e *Encoder) WriteString(s string) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	return e.writeTextBytes([]byte(s))
}

func (e *Encoder) writeTextBytes(b []byte) error {
	if err := writeHeader(e.out, cbor.MajorTextString, uint64(len(b))); err != nil {
		return err
	}
	return e.out.WriteBytes(b)
}

// WriteBinary writes a CBOR byte string value (decoded back as an
// EmbeddedObject token).
func (e *Encoder) WriteBinary(data []byte) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := writeHeader(e.out, cbor.MajorByteString, uint64(len(data))); err != nil {
		return err
	}
	return e.out.WriteBytes(data)
}

// WriteInt64 writes a signed 64-bit integer value, choosing major type 0
// or 1 by sign and the shortest additional-info width for its magnitude.
func (e *Encoder) WriteInt64(v int64) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	return e.writeInt64Raw(v)
}

func (e *Encoder) writeInt64Raw(v int64) error {
	if v >= 0 {
		return writeHeader(e.out, cbor.MajorUnsignedInt, uint64(v))
	}
	return writeHeader(e.out, cbor.MajorNegativeInt, uint64(-1-v))
}

// WriteInt32 writes a signed 32-bit integer value.
func (e *Encoder) WriteInt32(v int32) error {
	return e.WriteInt64(int64(v))
}

// WriteBigInt writes an arbitrary-precision integer, falling back to a
// plain major 0/1 integer when v fits in an int64 and to a tag 2/3 bignum
// (RFC 7049 §2.4.2) otherwise.
func (e *Encoder) WriteBigInt(v *big.Int) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if v.IsInt64() {
		return e.writeInt64Raw(v.Int64())
	}
	return e.writeBigIntRaw(v)
}

// writeBigIntRaw emits the tag+byte-string pair for v without touching the
// write context, so it can also be used from the decimal-fraction mantissa
// path, which writes its own two-element array by hand.
func (e *Encoder) writeBigIntRaw(v *big.Int) error {
	tag := uint64(cbor.TagPositiveBigNum)
	mag := v
	if v.Sign() < 0 {
		tag = cbor.TagNegativeBigNum
		mag = new(big.Int).Neg(v)
		mag.Sub(mag, big.NewInt(1))
	}
	if err := writeHeader(e.out, cbor.MajorTag, tag); err != nil {
		return err
	}
	bytes := mag.Bytes()
	if err := writeHeader(e.out, cbor.MajorByteString, uint64(len(bytes))); err != nil {
		return err
	}
	return e.out.WriteBytes(bytes)
}

// WriteFloat32 writes an IEEE 754 binary32 value.
func (e *Encoder) WriteFloat32(v float32) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := e.out.WriteByte(cbor.ByteFloat32); err != nil {
		return err
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return e.out.WriteBytes(b[:])
}

// WriteFloat64 writes an IEEE 754 binary64 value.
func (e *Encoder) WriteFloat64(v float64) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := e.out.WriteByte(cbor.ByteFloat64); err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return e.out.WriteBytes(b[:])
}

// WriteBigDecimal writes a decimal fraction (RFC 7049 §2.4.3, tag 4): a
// two-element array of [exponent, mantissa] such that the represented
// value is mantissa * 10^exponent. d.Scale is the Jackson/Java-style
// convention (value == unscaled * 10^-scale), so exponent == -d.Scale.
func (e *Encoder) WriteBigDecimal(d cbor.BigDecimal) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if err := writeHeader(e.out, cbor.MajorTag, cbor.TagDecimalFraction); err != nil {
		return err
	}
	if err := writeHeader(e.out, cbor.MajorArray, 2); err != nil {
		return err
	}
	if err := e.writeInt64Raw(int64(-d.Scale)); err != nil {
		return err
	}
	unscaled := d.Unscaled
	if unscaled == nil {
		unscaled = big.NewInt(0)
	}
	if unscaled.IsInt64() {
		return e.writeInt64Raw(unscaled.Int64())
	}
	return e.writeBigIntRaw(unscaled)
}

// WriteBool writes a boolean value.
func (e *Encoder) WriteBool(v bool) error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	if v {
		return e.out.WriteByte(cbor.ByteTrue)
	}
	return e.out.WriteByte(cbor.ByteFalse)
}

// WriteNull writes a null value. Earlier revisions of this generator let
// WriteNull bypass context validation entirely (so null could be written
// as a bare value between a field name and its value's sibling); it is now
// routed through WriteValue like every other scalar.
func (e *Encoder) WriteNull() error {
	if err := e.ctx.WriteValue(); err != nil {
		return err
	}
	return e.out.WriteByte(cbor.ByteNull)
}

// Flush drains any buffered bytes to the underlying writer, and, if
// cbor.Config.FlushPassedToStream is set and w implements an explicit
// Flush() error method, calls that too.
func (e *Encoder) Flush() error {
	if err := e.out.Flush(); err != nil {
		return err
	}
	if e.cfg.FlushPassedToStream {
		if f, ok := e.w.(interface{ Flush() error }); ok {
			return f.Flush()
		}
	}
	return nil
}

// Close finishes the document. If cbor.Config.AutoCloseContent is set,
// every still-open array/object is closed with the indefinite-length
// break-byte form (the declared-count check in closeContainer is skipped
// for auto-closed frames, since the caller never finished supplying
// values). It then flushes and, if cbor.Config.AutoCloseTarget is set and
// w implements io.Closer, closes the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.cfg.AutoCloseContent {
		for e.ctx.Kind() != cborctx.Root {
			if err := e.out.WriteByte(cbor.ByteBreak); err != nil {
				return err
			}
			e.expectedLens = e.expectedLens[:len(e.expectedLens)-1]
			e.ctx = e.ctx.Parent()
		}
	}
	if err := e.Flush(); err != nil {
		return err
	}
	if e.cfg.AutoCloseTarget {
		if wc, ok := e.w.(io.Closer); ok {
			return wc.Close()
		}
	}
	return nil
}
