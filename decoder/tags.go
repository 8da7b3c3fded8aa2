package decoder

import (
	"math/big"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/cborctx"
)

// tryDecodeTagged implements the symmetric decode half of spec.md's
// bignum/decimal-fraction handling: tags 2 and 3 (positive/negative
// bignum, RFC 7049 §2.4.2) collapse a wrapped byte string directly into a
// NumberBigInt token, and tag 4 (decimal fraction, §2.4.3) collapses a
// wrapped two-element array into a NumberBigDecimal token, bypassing the
// normal context push/pop machinery entirely.
//
// It reports handled=false when the tag is unrecognized, or when the
// following token's shape does not structurally match what the tag
// promises (e.g. tag 2 wrapping something other than a byte string) -
// the caller then falls through to fully transparent tag delivery and the
// mismatch, if any, surfaces from whatever decodes the wrapped value.
func (d *Decoder) tryDecodeTagged(tag uint64, parent *cborctx.ReadContext) (cbor.Kind, bool, error) {
	switch tag {
	case cbor.TagPositiveBigNum, cbor.TagNegativeBigNum:
		return d.tryDecodeBigNum(tag, parent)
	case cbor.TagDecimalFraction:
		return d.tryDecodeDecimalFraction(parent)
	default:
		return cbor.NoToken, false, nil
	}
}

func (d *Decoder) tryDecodeBigNum(tag uint64, parent *cborctx.ReadContext) (cbor.Kind, bool, error) {
	peek, err := d.in.PeekByte()
	if err != nil {
		return cbor.NoToken, false, err
	}
	if peek>>cbor.MajorShift != cbor.MajorByteString {
		return cbor.NoToken, false, nil
	}
	data, err := d.decodeByteStringEager()
	if err != nil {
		return cbor.NoToken, true, err
	}
	mag := new(big.Int).SetBytes(data)
	if tag == cbor.TagNegativeBigNum {
		mag.Add(mag, big.NewInt(1))
		mag.Neg(mag)
	}
	d.num = numBig(mag)
	d.numType = d.num.primary
	parent.ConsumePendingTag()
	parent.RecordValue()
	return cbor.Integer, true, nil
}

func (d *Decoder) tryDecodeDecimalFraction(parent *cborctx.ReadContext) (cbor.Kind, bool, error) {
	peek, err := d.in.PeekByte()
	if err != nil {
		return cbor.NoToken, false, err
	}
	// Only the canonical definite-length 2-element array shape is
	// recognized; anything else (indefinite array, wrong arity) falls
	// through to transparent delivery as a plain StartArray.
	if peek != byte(cbor.MajorArray<<cbor.MajorShift|2) {
		return cbor.NoToken, false, nil
	}
	d.in.Advance(1)

	exponent, err := d.decodeSignedIntEager()
	if err != nil {
		return cbor.NoToken, true, err
	}
	unscaled, err := d.decodeIntOrBigNumEager()
	if err != nil {
		return cbor.NoToken, true, err
	}

	// The wire carries the exponent (value == mantissa * 10^exponent);
	// BigDecimal.Scale is its negation, the inverse of encoder.WriteBigDecimal.
	dec := cbor.BigDecimal{Unscaled: unscaled, Scale: int32(-exponent)}
	d.num = numDec(dec)
	d.numType = d.num.primary
	parent.ConsumePendingTag()
	parent.RecordValue()
	return cbor.Float, true, nil
}

// decodeByteStringEager reads one complete byte-string value (definite or
// indefinite/chunked) right now, bypassing the lazy pendingPayload path
// used for ordinary EmbeddedObject tokens. Used only for bignum payloads,
// which must be fully available before they can be folded into a single
// Integer token.
func (d *Decoder) decodeByteStringEager() ([]byte, error) {
	b, err := d.in.NextByte()
	if err != nil {
		return nil, wrapEOF(err)
	}
	major := b >> cbor.MajorShift
	if major != cbor.MajorByteString {
		return nil, cbor.NewError(cbor.MalformedInput, "bignum tag does not wrap a byte string")
	}
	info := b & cbor.InfoMask
	length, indef, err := d.readAdditional(major, info)
	if err != nil {
		return nil, err
	}
	saved := d.pending
	d.pending = pendingPayload{active: true, binary: true, indefinite: indef, declaredLen: int64(length)}
	data, err := d.readPendingBytes()
	d.pending = saved
	return data, err
}

// decodeSignedIntEager reads one plain (untagged) CBOR integer value,
// as required for a decimal fraction's exponent, which RFC 7049 requires
// to be a normal integer regardless of how large the mantissa is.
func (d *Decoder) decodeSignedIntEager() (int64, error) {
	b, err := d.in.NextByte()
	if err != nil {
		return 0, wrapEOF(err)
	}
	major := b >> cbor.MajorShift
	info := b & cbor.InfoMask
	value, indef, err := d.readAdditional(major, info)
	if err != nil {
		return 0, err
	}
	if indef {
		return 0, cbor.NewError(cbor.MalformedInput, "indefinite length where an integer was expected")
	}
	switch major {
	case cbor.MajorUnsignedInt:
		return int64(value), nil
	case cbor.MajorNegativeInt:
		return -1 - int64(value), nil
	default:
		return 0, cbor.NewError(cbor.MalformedInput, "decimal-fraction exponent is not an integer")
	}
}

// decodeIntOrBigNumEager reads a decimal fraction's mantissa, which may be
// a plain integer or, for magnitudes too large to fit one, a nested
// tag-2/3 bignum.
func (d *Decoder) decodeIntOrBigNumEager() (*big.Int, error) {
	peek, err := d.in.PeekByte()
	if err != nil {
		return nil, err
	}
	major := peek >> cbor.MajorShift
	if major == cbor.MajorTag {
		d.in.Advance(1)
		info := peek & cbor.InfoMask
		tagVal, indef, err := d.readAdditional(major, info)
		if err != nil {
			return nil, err
		}
		if indef {
			return nil, cbor.NewError(cbor.MalformedInput, "indefinite tag where a bignum was expected")
		}
		if tagVal != cbor.TagPositiveBigNum && tagVal != cbor.TagNegativeBigNum {
			return nil, cbor.NewError(cbor.MalformedInput, "unsupported nested tag in decimal-fraction mantissa")
		}
		data, err := d.decodeByteStringEager()
		if err != nil {
			return nil, err
		}
		mag := new(big.Int).SetBytes(data)
		if tagVal == cbor.TagNegativeBigNum {
			mag.Add(mag, big.NewInt(1))
			mag.Neg(mag)
		}
		return mag, nil
	}

	b, err := d.in.NextByte()
	if err != nil {
		return nil, wrapEOF(err)
	}
	info := b & cbor.InfoMask
	value, indef, err := d.readAdditional(major, info)
	if err != nil {
		return nil, err
	}
	if indef {
		return nil, cbor.NewError(cbor.MalformedInput, "indefinite length where a mantissa was expected")
	}
	switch major {
	case cbor.MajorUnsignedInt:
		return new(big.Int).SetUint64(value), nil
	case cbor.MajorNegativeInt:
		mag := new(big.Int).SetUint64(value)
		mag.Add(mag, big.NewInt(1))
		mag.Neg(mag)
		return mag, nil
	default:
		return nil, cbor.NewError(cbor.MalformedInput, "decimal-fraction mantissa is not an integer")
	}
}
