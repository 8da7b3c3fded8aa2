// Package cbor holds the types shared by the decoder, encoder, and sizer
// packages: the event-kind vocabulary, the numeric primitive-width
// attribute, configuration flags, and the closed set of error kinds.
//
// A higher-level data-binding layer is expected to be written against this
// vocabulary the same way it would be written against a JSON event stream;
// this package intentionally does not know about struct reflection or tree
// construction.
package cbor

// Kind identifies the shape of the token last produced by a Decoder or
// last requested of an Encoder. It mirrors the closed event set from the
// specification: structural start/end markers, field names, and scalar
// values, plus a width-carrying pair of number kinds collapsed into the
// single Integer/Float kinds with a NumberType attribute.
type Kind uint8

const (
	NoToken Kind = iota
	StartArray
	EndArray
	StartObject
	EndObject
	FieldName
	String
	Integer
	Float
	Boolean
	Null
	EmbeddedObject
)

func (k Kind) String() string {
	switch k {
	case NoToken:
		return "NoToken"
	case StartArray:
		return "StartArray"
	case EndArray:
		return "EndArray"
	case StartObject:
		return "StartObject"
	case EndObject:
		return "EndObject"
	case FieldName:
		return "FieldName"
	case String:
		return "String"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Boolean:
		return "Boolean"
	case Null:
		return "Null"
	case EmbeddedObject:
		return "EmbeddedObject"
	default:
		return "Unknown"
	}
}

// NumberType is the "natural representation produced by the decoder"
// attribute carried alongside Integer and Float events.
type NumberType uint8

const (
	NumberNone NumberType = iota
	NumberI32
	NumberI64
	NumberBigInt
	NumberF32
	NumberF64
	NumberBigDecimal
)

func (n NumberType) String() string {
	switch n {
	case NumberI32:
		return "i32"
	case NumberI64:
		return "i64"
	case NumberBigInt:
		return "big_integer"
	case NumberF32:
		return "f32"
	case NumberF64:
		return "f64"
	case NumberBigDecimal:
		return "big_decimal"
	default:
		return "none"
	}
}

// MatchStrength is the result of format sniffing (has_format).
type MatchStrength uint8

const (
	MatchNone MatchStrength = iota
	MatchWeak
	MatchStrong
)
