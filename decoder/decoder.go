// Package decoder implements the pull-style CBOR decoder: byte-accurate
// consumption of RFC 7049 CBOR into the shared cbor.Kind event vocabulary,
// with lazy materialization of strings/binary, indefinite-length handling,
// and the numeric promotion ladder described in spec.md §4.6.
package decoder

import (
	"encoding/binary"
	"io"
	"math"
	"math/big"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/x448/float16"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/cborctx"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/iobuf"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/symtab"
)

// Decoder consumes a byte stream and produces a sequence of cbor.Kind
// tokens. A Decoder is owned by one caller at a time and is not safe for
// concurrent use; see lib/symtab.Table for the one structure in this
// module built for cross-goroutine sharing.
type Decoder struct {
	r   io.Reader
	in  *iobuf.Input
	cfg cbor.Config
	tab *symtab.Table
	log *logrus.Entry

	ctx *cborctx.ReadContext

	kind    cbor.Kind
	name    string
	num     numericValue
	numType cbor.NumberType
	boolVal bool

	pending pendingPayload

	closed bool
}

// New constructs a Decoder reading CBOR from r. tab is the shared symbol
// table to use when cbor.Config.InternFieldNames is set; pass nil to
// always allocate a fresh string per field name instead.
func New(r io.Reader, tab *symtab.Table, opts ...cbor.Option) *Decoder {
	cfg := cbor.Apply(cbor.DefaultConfig(), opts...)
	return &Decoder{
		r:   r,
		in:  iobuf.NewInput(r, cfg.InputBufferSize),
		cfg: cfg,
		tab: tab,
		ctx: cborctx.NewRootReadContext(),
		log: logrus.WithField("component", "decoder.Decoder"),
	}
}

// CurrentKind returns the kind of the most recently produced token.
func (d *Decoder) CurrentKind() cbor.Kind { return d.kind }

// CurrentName returns the most recently decoded field name in the
// enclosing object scope, or "" outside an object / before any field name.
func (d *Decoder) CurrentName() string { return d.name }

// GetBool returns the current Boolean token's value.
func (d *Decoder) GetBool() bool { return d.boolVal }

// Close releases the Decoder's resources. If cbor.Config.AutoCloseSource
// is set and the underlying reader implements io.Closer, it is closed
// too. Close does not itself synthesize any events; an encoder's
// AUTO_CLOSE_CONTENT has no read-side analogue.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.cfg.AutoCloseSource {
		if rc, ok := d.r.(io.Closer); ok {
			return rc.Close()
		}
	}
	return nil
}

// NextToken advances the decoder and returns the next token's kind. It
// returns cbor.NoToken, nil at a clean end-of-document boundary (hard EOF
// at the root), which is not an error.
func (d *Decoder) NextToken() (cbor.Kind, error) {
	if d.closed {
		return cbor.NoToken, cbor.NewError(cbor.IOError, "NextToken called on a closed decoder")
	}
	if err := d.skipCurrentIfUnconsumed(); err != nil {
		return cbor.NoToken, err
	}
	d.num = numericValue{}
	d.name = ""

	ctx := d.ctx
	if ctx.Kind() != cborctx.Root {
		if ctx.HasExpectedLength() {
			if !ctx.ExpectMoreValues() {
				return d.closeContainer()
			}
		} else {
			atBreak, err := d.peekIsBreak()
			if err != nil {
				return cbor.NoToken, err
			}
			if atBreak {
				if ctx.Kind() == cborctx.Object && !ctx.ExpectingName() {
					return cbor.NoToken, cbor.NewError(cbor.MalformedInput, "break byte between field name and value")
				}
				d.in.Advance(1)
				return d.closeContainer()
			}
		}
	} else {
		atEOF, err := d.in.AtEOF()
		if err != nil {
			return cbor.NoToken, err
		}
		if atEOF {
			d.kind = cbor.NoToken
			return cbor.NoToken, nil
		}
	}

	var (
		kind cbor.Kind
		err  error
	)
	if ctx.Kind() == cborctx.Object && ctx.ExpectingName() {
		kind, err = d.decodeFieldName()
	} else {
		kind, err = d.decodeValue()
	}
	if err != nil {
		return cbor.NoToken, err
	}
	d.kind = kind
	return kind, nil
}

func (d *Decoder) peekIsBreak() (bool, error) {
	if err := d.in.Ensure(1); err != nil {
		return false, wrapEOF(err)
	}
	return d.in.Peek(1)[0] == cbor.ByteBreak, nil
}

func (d *Decoder) closeContainer() (cbor.Kind, error) {
	ctx := d.ctx
	var kind cbor.Kind
	switch ctx.Kind() {
	case cborctx.Array:
		kind = cbor.EndArray
	case cborctx.Object:
		kind = cbor.EndObject
	default:
		return cbor.NoToken, cbor.NewError(cbor.MalformedInput, "unexpected container close")
	}
	d.ctx = ctx.Parent()
	d.kind = kind
	return kind, nil
}

// readAdditional decodes the additional-info-driven length/value field
// following an initial byte's major/info split, servicing every major
// type that carries a non-negative-binary-integer-shaped field: positive
// and negative integers, string/array/map lengths, and tag values.
func (d *Decoder) readAdditional(major, info byte) (value uint64, indefinite bool, err error) {
	switch {
	case info <= cbor.MaxInlineValue:
		return uint64(info), false, nil
	case info == cbor.Info1Byte:
		if err := d.in.Ensure(1); err != nil {
			return 0, false, wrapEOF(err)
		}
		v := uint64(d.in.Peek(1)[0])
		d.in.Advance(1)
		return v, false, nil
	case info == cbor.Info2Byte:
		if err := d.in.Ensure(2); err != nil {
			return 0, false, wrapEOF(err)
		}
		v := uint64(binary.BigEndian.Uint16(d.in.Peek(2)))
		d.in.Advance(2)
		return v, false, nil
	case info == cbor.Info4Byte:
		if err := d.in.Ensure(4); err != nil {
			return 0, false, wrapEOF(err)
		}
		v := uint64(binary.BigEndian.Uint32(d.in.Peek(4)))
		d.in.Advance(4)
		return v, false, nil
	case info == cbor.Info8Byte:
		if err := d.in.Ensure(8); err != nil {
			return 0, false, wrapEOF(err)
		}
		v := binary.BigEndian.Uint64(d.in.Peek(8))
		d.in.Advance(8)
		return v, false, nil
	case info == cbor.InfoIndefinite:
		return 0, true, nil
	default:
		return 0, false, cbor.ErrInvalidAdditionalInfo(major, info)
	}
}

// decodeValue implements the major-type dispatch of spec.md §4.6's
// per-byte decoding table for a value position (as opposed to a field-name
// position; see decodeFieldName).
func (d *Decoder) decodeValue() (cbor.Kind, error) {
	parent := d.ctx
	b, err := d.in.NextByte()
	if err != nil {
		return cbor.NoToken, wrapEOF(err)
	}
	major := b >> cbor.MajorShift
	info := b & cbor.InfoMask

	switch major {
	case cbor.MajorUnsignedInt:
		value, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		if indef {
			return cbor.NoToken, cbor.ErrInvalidAdditionalInfo(major, info)
		}
		d.num = positiveIntValue(value)
		d.numType = d.num.primary
		parent.RecordValue()
		return cbor.Integer, nil

	case cbor.MajorNegativeInt:
		value, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		if indef {
			return cbor.NoToken, cbor.ErrInvalidAdditionalInfo(major, info)
		}
		d.num = negativeIntValue(value)
		d.numType = d.num.primary
		parent.RecordValue()
		return cbor.Integer, nil

	case cbor.MajorByteString:
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		d.armPending(true, indef, int64(length))
		parent.RecordValue()
		return cbor.EmbeddedObject, nil

	case cbor.MajorTextString:
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		d.armPending(false, indef, int64(length))
		parent.RecordValue()
		return cbor.String, nil

	case cbor.MajorArray:
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		expectedLen := cborctx.NoExpectedLength
		if !indef {
			expectedLen = int(length)
		}
		child := parent.CreateChildArray(expectedLen)
		d.ctx = child
		parent.RecordValue()
		return cbor.StartArray, nil

	case cbor.MajorMap:
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		expectedLen := cborctx.NoExpectedLength
		if !indef {
			expectedLen = int(length) * 2
		}
		child := parent.CreateChildObject(expectedLen, d.cfg.StrictDuplicateDetection)
		d.ctx = child
		parent.RecordValue()
		return cbor.StartObject, nil

	case cbor.MajorTag:
		value, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		if indef {
			return cbor.NoToken, cbor.ErrInvalidAdditionalInfo(major, info)
		}
		parent.SetPendingTag(int64(value))
		kind, handled, err := d.tryDecodeTagged(value, parent)
		if handled || err != nil {
			return kind, err
		}
		// Transparent: tag recorded, wrapped token delivered unchanged.
		return d.decodeValue()

	case cbor.MajorSimple:
		return d.decodeSimple(info, parent)

	default:
		return cbor.NoToken, cbor.ErrInvalidInitialByte(b)
	}
}

func (d *Decoder) decodeSimple(info byte, parent *cborctx.ReadContext) (cbor.Kind, error) {
	switch info {
	case cbor.SimpleFalse:
		d.boolVal = false
		parent.RecordValue()
		return cbor.Boolean, nil
	case cbor.SimpleTrue:
		d.boolVal = true
		parent.RecordValue()
		return cbor.Boolean, nil
	case cbor.SimpleNull:
		parent.RecordValue()
		return cbor.Null, nil
	case cbor.SimpleHalf:
		if err := d.in.Ensure(2); err != nil {
			return cbor.NoToken, wrapEOF(err)
		}
		bits := binary.BigEndian.Uint16(d.in.Peek(2))
		d.in.Advance(2)
		v := float64(float16.Frombits(bits).Float32())
		d.num = numF64(v)
		d.numType = cbor.NumberF64
		parent.RecordValue()
		return cbor.Float, nil
	case cbor.SimpleFloat:
		if err := d.in.Ensure(4); err != nil {
			return cbor.NoToken, wrapEOF(err)
		}
		bits := binary.BigEndian.Uint32(d.in.Peek(4))
		d.in.Advance(4)
		d.num = numF32(math.Float32frombits(bits))
		d.numType = cbor.NumberF32
		parent.RecordValue()
		return cbor.Float, nil
	case cbor.SimpleDouble:
		if err := d.in.Ensure(8); err != nil {
			return cbor.NoToken, wrapEOF(err)
		}
		bits := binary.BigEndian.Uint64(d.in.Peek(8))
		d.in.Advance(8)
		d.num = numF64(math.Float64frombits(bits))
		d.numType = cbor.NumberF64
		parent.RecordValue()
		return cbor.Float, nil
	case cbor.SimpleBreak:
		return cbor.NoToken, cbor.ErrBreakOutsideIndefinite()
	default:
		return cbor.NoToken, cbor.ErrInvalidAdditionalInfo(cbor.MajorSimple, info)
	}
}

// decodeFieldName decodes an object key. Text keys are the required case
// (§4.6.2); positive/negative integer keys are accepted as a compatibility
// concession and stringified to their actual decimal value. A byte-string
// key (major 2) is accepted too and decoded exactly like a text key: some
// encoders in the wild (Perl's CBOR::XS among them, for an ASCII-only key
// with no UTF8 flag set) emit map keys as byte strings rather than text
// strings, and a reader that rejects them outright cannot interoperate
// with documents those encoders produce. Any other major type is fatal.
func (d *Decoder) decodeFieldName() (cbor.Kind, error) {
	ctx := d.ctx
	b, err := d.in.NextByte()
	if err != nil {
		return cbor.NoToken, wrapEOF(err)
	}
	major := b >> cbor.MajorShift
	info := b & cbor.InfoMask

	var name string
	switch major {
	case cbor.MajorTextString, cbor.MajorByteString:
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		name, err = d.decodeFieldNameText(length, indef)
		if err != nil {
			return cbor.NoToken, err
		}
	case cbor.MajorUnsignedInt, cbor.MajorNegativeInt:
		value, indef, err := d.readAdditional(major, info)
		if err != nil {
			return cbor.NoToken, err
		}
		if indef {
			return cbor.NoToken, cbor.ErrInvalidAdditionalInfo(major, info)
		}
		name = integerKeyText(major, value)
	default:
		return cbor.NoToken, cbor.ErrUnsupportedKeyType(major)
	}

	d.name = name
	if err := ctx.RecordFieldName(name); err != nil {
		return cbor.NoToken, err
	}
	return cbor.FieldName, nil
}

// decodeFieldNameText implements the symbol-table fast path: short and
// medium keys are probed as raw bytes before any UTF-8 decode happens, and
// only a miss pays for decode-then-intern.
func (d *Decoder) decodeFieldNameText(length uint64, indefinite bool) (string, error) {
	if !indefinite && int(length) <= d.in.Cap() {
		n := int(length)
		if err := d.in.Ensure(n); err != nil {
			return "", wrapEOF(err)
		}
		raw := d.in.Peek(n)
		if d.cfg.InternFieldNames && d.tab != nil {
			if nm, ok := d.tab.Find(raw); ok {
				d.in.Advance(n)
				return nm.String(), nil
			}
		}
		rawCopy := append([]byte(nil), raw...)
		decoded, _, derr := decodeUTF8(raw)
		d.in.Advance(n)
		if derr != nil {
			return "", derr
		}
		if d.cfg.InternFieldNames && d.tab != nil {
			return d.tab.Intern(rawCopy, decoded).String(), nil
		}
		return decoded, nil
	}

	d.pending = pendingPayload{active: true, indefinite: indefinite, declaredLen: int64(length)}
	if err := d.materializeText(); err != nil {
		return "", err
	}
	name := d.pending.textValue
	d.pending.active = false
	return name, nil
}

func positiveIntValue(n uint64) numericValue {
	switch {
	case n <= math.MaxInt32:
		return numI32(int32(n))
	case n <= math.MaxInt64:
		return numI64(int64(n))
	default:
		return numBig(new(big.Int).SetUint64(n))
	}
}

func negativeIntValue(n uint64) numericValue {
	if n <= math.MaxInt64 {
		v := -1 - int64(n)
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return numI32(int32(v))
		}
		return numI64(v)
	}
	magnitude := new(big.Int).SetUint64(n)
	magnitude.Add(magnitude, big.NewInt(1))
	magnitude.Neg(magnitude)
	return numBig(magnitude)
}

func integerKeyText(major byte, value uint64) string {
	if major == cbor.MajorUnsignedInt {
		return strconv.FormatUint(value, 10)
	}
	if value <= math.MaxInt64 {
		return strconv.FormatInt(-1-int64(value), 10)
	}
	magnitude := new(big.Int).SetUint64(value)
	magnitude.Add(magnitude, big.NewInt(1))
	magnitude.Neg(magnitude)
	return magnitude.String()
}
