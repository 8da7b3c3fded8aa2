// Package sizer automatically computes definite-length array/map headers
// for a caller that does not know element counts up front, by buffering
// each container's contents as a tree of DeferredEvent values and replaying
// it through an encoder.Encoder once the matching End call reveals the
// count - rather than patching a header in place (CBOR's variable-width
// length prefix makes that impossible once a bigger width is needed, unlike
// the teacher's fixed-width bit-level PatchByte).
package sizer

import (
	"io"
	"math/big"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/encoder"
)

// DeferredEvent is one buffered write call: exactly one of its payload
// fields is meaningful, selected by Kind. StartArray/StartObject events
// carry their entire contents as Children, with no matching End event
// stored (the close is implicit once the frame is popped).
type DeferredEvent struct {
	Kind cbor.Kind

	Name string // FieldName

	I64     int64 // Integer (NumberI32/NumberI64)
	Big     *big.Int
	F32     float32
	F64     float64
	Dec     cbor.BigDecimal
	NumType cbor.NumberType

	Str string // String
	Bin []byte // EmbeddedObject
	Bool bool  // Boolean

	Children []DeferredEvent // StartArray / StartObject
}

// Sizer buffers a document's events and, on Flush, replays them through a
// freshly created encoder.Encoder with definite-length headers throughout.
type Sizer struct {
	root  []DeferredEvent
	stack [][]DeferredEvent // one slice per open container; last is innermost
}

// New returns an empty Sizer.
func New() *Sizer {
	return &Sizer{}
}

func (s *Sizer) append(ev DeferredEvent) {
	if len(s.stack) == 0 {
		s.root = append(s.root, ev)
		return
	}
	top := len(s.stack) - 1
	s.stack[top] = append(s.stack[top], ev)
}

// WriteStartArray opens a new buffered array frame.
func (s *Sizer) WriteStartArray() { s.stack = append(s.stack, nil) }

// WriteEndArray closes the innermost buffered frame as an array.
func (s *Sizer) WriteEndArray() error { return s.closeFrame(cbor.StartArray) }

// WriteStartObject opens a new buffered object frame.
func (s *Sizer) WriteStartObject() { s.stack = append(s.stack, nil) }

// WriteEndObject closes the innermost buffered frame as an object.
func (s *Sizer) WriteEndObject() error { return s.closeFrame(cbor.StartObject) }

func (s *Sizer) closeFrame(kind cbor.Kind) error {
	if len(s.stack) == 0 {
		return cbor.NewError(cbor.WriteContextViolation, "End called with no open frame")
	}
	n := len(s.stack) - 1
	children := s.stack[n]
	s.stack = s.stack[:n]
	s.append(DeferredEvent{Kind: kind, Children: children})
	return nil
}

// WriteFieldName buffers an object key.
func (s *Sizer) WriteFieldName(name string) { s.append(DeferredEvent{Kind: cbor.FieldName, Name: name}) }

// WriteString buffers a text string value.
func (s *Sizer) WriteString(v string) { s.append(DeferredEvent{Kind: cbor.String, Str: v}) }

// WriteBinary buffers a byte string value.
func (s *Sizer) WriteBinary(v []byte) { s.append(DeferredEvent{Kind: cbor.EmbeddedObject, Bin: v}) }

// WriteInt32 buffers a 32-bit integer value.
func (s *Sizer) WriteInt32(v int32) {
	s.append(DeferredEvent{Kind: cbor.Integer, I64: int64(v), NumType: cbor.NumberI32})
}

// WriteInt64 buffers a 64-bit integer value.
func (s *Sizer) WriteInt64(v int64) {
	s.append(DeferredEvent{Kind: cbor.Integer, I64: v, NumType: cbor.NumberI64})
}

// WriteBigInt buffers an arbitrary-precision integer value.
func (s *Sizer) WriteBigInt(v *big.Int) {
	s.append(DeferredEvent{Kind: cbor.Integer, Big: v, NumType: cbor.NumberBigInt})
}

// WriteFloat32 buffers a binary32 float value.
func (s *Sizer) WriteFloat32(v float32) {
	s.append(DeferredEvent{Kind: cbor.Float, F32: v, NumType: cbor.NumberF32})
}

// WriteFloat64 buffers a binary64 float value.
func (s *Sizer) WriteFloat64(v float64) {
	s.append(DeferredEvent{Kind: cbor.Float, F64: v, NumType: cbor.NumberF64})
}

// WriteBigDecimal buffers an arbitrary-precision decimal value.
func (s *Sizer) WriteBigDecimal(v cbor.BigDecimal) {
	s.append(DeferredEvent{Kind: cbor.Float, Dec: v, NumType: cbor.NumberBigDecimal})
}

// WriteBool buffers a boolean value.
func (s *Sizer) WriteBool(v bool) { s.append(DeferredEvent{Kind: cbor.Boolean, Bool: v}) }

// WriteNull buffers a null value.
func (s *Sizer) WriteNull() { s.append(DeferredEvent{Kind: cbor.Null}) }

// Flush replays every buffered top-level event to w through a fresh
// encoder.Encoder, emitting a definite-length header for every array/object
// whose element count the buffering phase has by now fully determined. It
// fails if any frame opened with WriteStartArray/WriteStartObject was never
// closed.
func (s *Sizer) Flush(w io.Writer, opts ...cbor.Option) error {
	if len(s.stack) != 0 {
		return cbor.Newf(cbor.WriteContextViolation, "%d container(s) still open", len(s.stack))
	}
	enc := encoder.New(w, opts...)
	for _, ev := range s.root {
		if err := replay(enc, ev); err != nil {
			return err
		}
	}
	return enc.Flush()
}

func replay(enc *encoder.Encoder, ev DeferredEvent) error {
	switch ev.Kind {
	case cbor.StartArray:
		if err := enc.WriteStartArrayWithLength(len(ev.Children)); err != nil {
			return err
		}
		for _, child := range ev.Children {
			if err := replay(enc, child); err != nil {
				return err
			}
		}
		return enc.WriteEndArray()
	case cbor.StartObject:
		pairs := 0
		for _, child := range ev.Children {
			if child.Kind != cbor.FieldName {
				pairs++
			}
		}
		if err := enc.WriteStartObjectWithLength(pairs); err != nil {
			return err
		}
		for _, child := range ev.Children {
			if err := replay(enc, child); err != nil {
				return err
			}
		}
		return enc.WriteEndObject()
	case cbor.FieldName:
		return enc.WriteFieldName(ev.Name)
	case cbor.String:
		return enc.WriteString(ev.Str)
	case cbor.EmbeddedObject:
		return enc.WriteBinary(ev.Bin)
	case cbor.Integer:
		switch ev.NumType {
		case cbor.NumberBigInt:
			return enc.WriteBigInt(ev.Big)
		default:
			return enc.WriteInt64(ev.I64)
		}
	case cbor.Float:
		switch ev.NumType {
		case cbor.NumberF32:
			return enc.WriteFloat32(ev.F32)
		case cbor.NumberBigDecimal:
			return enc.WriteBigDecimal(ev.Dec)
		default:
			return enc.WriteFloat64(ev.F64)
		}
	case cbor.Boolean:
		return enc.WriteBool(ev.Bool)
	case cbor.Null:
		return enc.WriteNull()
	default:
		return cbor.Newf(cbor.Unsupported, "unexpected deferred event kind %v", ev.Kind)
	}
}
