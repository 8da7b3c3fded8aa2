package decoder

import (
	"math"
	"math/big"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
)

// numericValue holds the decoder's natural (as-decoded) numeric
// representation plus a lazily-populated cache of the other
// representations an accessor might request, per spec.md §4.6.3's
// promotion ladder: i32, i64, big_integer, f32/f64, big_decimal.
//
// Only the "primary" field matching the NumberType the decoder actually
// produced is populated at decode time; every other accessor computes and
// caches its result on first use, checking range where narrowing could
// lose information.
type numericValue struct {
	primary cbor.NumberType

	i64 int64
	big *big.Int
	f32 float32
	f64 float64
	dec cbor.BigDecimal

	// cache holds representations computed lazily by an accessor, keyed by
	// the bit for that representation in 'have'.
	have    uint8
	cI32    int32
	cI64    int64
	cBig    *big.Int
	cF64    float64
	cDec    cbor.BigDecimal
}

const (
	haveI32 uint8 = 1 << iota
	haveI64
	haveBig
	haveF64
	haveDec
)

func numI32(v int32) numericValue {
	return numericValue{primary: cbor.NumberI32, i64: int64(v)}
}

func numI64(v int64) numericValue {
	return numericValue{primary: cbor.NumberI64, i64: v}
}

func numBig(v *big.Int) numericValue {
	return numericValue{primary: cbor.NumberBigInt, big: v}
}

func numF32(v float32) numericValue {
	return numericValue{primary: cbor.NumberF32, f32: v}
}

func numF64(v float64) numericValue {
	return numericValue{primary: cbor.NumberF64, f64: v}
}

func numDec(v cbor.BigDecimal) numericValue {
	return numericValue{primary: cbor.NumberBigDecimal, dec: v}
}

// NumberType returns the primitive width the decoder produced for the
// current Integer/Float token, without computing anything.
func (d *Decoder) NumberType() cbor.NumberType { return d.num.primary }

// asBigInt renders whichever primary representation is set as a
// math/big.Int: integers exactly, a big_decimal by scaling its unscaled
// value by 10^-scale (truncating toward zero), and floats by truncating
// their float64 value to an int64.
func (n *numericValue) asBigInt() *big.Int {
	switch n.primary {
	case cbor.NumberI32, cbor.NumberI64:
		return big.NewInt(n.i64)
	case cbor.NumberBigInt:
		return n.big
	case cbor.NumberBigDecimal:
		if n.dec.Scale <= 0 {
			scaled := new(big.Int).Set(n.dec.Unscaled)
			if n.dec.Scale < 0 {
				mul := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.dec.Scale)), nil)
				scaled.Mul(scaled, mul)
			}
			return scaled
		}
		div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.dec.Scale)), nil)
		q := new(big.Int)
		q.Quo(n.dec.Unscaled, div)
		return q
	default:
		return big.NewInt(int64(n.asFloat64()))
	}
}

func (n *numericValue) asFloat64() float64 {
	switch n.primary {
	case cbor.NumberI32, cbor.NumberI64:
		return float64(n.i64)
	case cbor.NumberBigInt:
		f := new(big.Float).SetInt(n.big)
		v, _ := f.Float64()
		return v
	case cbor.NumberF32:
		return float64(n.f32)
	case cbor.NumberF64:
		return n.f64
	case cbor.NumberBigDecimal:
		v, _ := n.dec.Float64()
		return v
	default:
		return 0
	}
}

// GetInt32 narrows the current number to int32, failing with a
// NumericOverflow error if the value is out of range or (for floats) not
// integral.
func (d *Decoder) GetInt32() (int32, error) {
	n := &d.num
	if n.have&haveI32 != 0 {
		return n.cI32, nil
	}
	v, err := d.computeInt64()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, cbor.ErrOverflow("int32")
	}
	n.cI32 = int32(v)
	n.have |= haveI32
	return n.cI32, nil
}

func (d *Decoder) computeInt64() (int64, error) {
	n := &d.num
	if n.have&haveI64 != 0 {
		return n.cI64, nil
	}
	var v int64
	switch n.primary {
	case cbor.NumberI32, cbor.NumberI64:
		v = n.i64
	case cbor.NumberBigInt:
		if !n.big.IsInt64() {
			return 0, cbor.ErrOverflow("int64")
		}
		v = n.big.Int64()
	case cbor.NumberF32:
		if float64(n.f32) != math.Trunc(float64(n.f32)) || n.f32 < math.MinInt64 || n.f32 > math.MaxInt64 {
			return 0, cbor.ErrOverflow("int64")
		}
		v = int64(n.f32)
	case cbor.NumberF64:
		if n.f64 != math.Trunc(n.f64) || n.f64 < math.MinInt64 || n.f64 > math.MaxInt64 {
			return 0, cbor.ErrOverflow("int64")
		}
		v = int64(n.f64)
	case cbor.NumberBigDecimal:
		bi := n.asBigInt()
		if !bi.IsInt64() {
			return 0, cbor.ErrOverflow("int64")
		}
		v = bi.Int64()
	}
	n.cI64 = v
	n.have |= haveI64
	return v, nil
}

// GetInt64 narrows the current number to int64, failing the same way
// GetInt32 does.
func (d *Decoder) GetInt64() (int64, error) {
	return d.computeInt64()
}

// GetBigInt widens the current number to an arbitrary-precision integer.
// Never fails: every supported primary representation has a well-defined
// integer value (floats truncate toward zero; a big_decimal divides
// unscaled by 10^scale).
func (d *Decoder) GetBigInt() *big.Int {
	n := &d.num
	if n.have&haveBig != 0 {
		return n.cBig
	}
	n.cBig = n.asBigInt()
	n.have |= haveBig
	return n.cBig
}

// GetFloat32 narrows/widens the current number to float32.
func (d *Decoder) GetFloat32() float32 {
	if d.num.primary == cbor.NumberF32 {
		return d.num.f32
	}
	return float32(d.GetFloat64())
}

// GetFloat64 widens the current number to float64.
func (d *Decoder) GetFloat64() float64 {
	n := &d.num
	if n.have&haveF64 != 0 {
		return n.cF64
	}
	n.cF64 = n.asFloat64()
	n.have |= haveF64
	return n.cF64
}

// GetBigDecimal widens the current number to a BigDecimal. Per spec.md
// §4.6.3, a double is routed through its canonical textual representation
// rather than constructed directly from the IEEE 754 bit pattern, to avoid
// binary-rounding artifacts (e.g. 0.1 must print as "0.1", not as the
// nearest double's exact binary value).
func (d *Decoder) GetBigDecimal() cbor.BigDecimal {
	n := &d.num
	if n.have&haveDec != 0 {
		return n.cDec
	}
	switch n.primary {
	case cbor.NumberBigDecimal:
		n.cDec = n.dec
	case cbor.NumberF32:
		n.cDec = cbor.NewBigDecimalFromFloat64(float64(n.f32))
	case cbor.NumberF64:
		n.cDec = cbor.NewBigDecimalFromFloat64(n.f64)
	case cbor.NumberBigInt:
		n.cDec = cbor.BigDecimal{Unscaled: new(big.Int).Set(n.big), Scale: 0}
	default:
		n.cDec = cbor.BigDecimal{Unscaled: big.NewInt(n.i64), Scale: 0}
	}
	n.have |= haveDec
	return n.cDec
}
