package encoder

import (
	"encoding/binary"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/iobuf"
)

// writeHeader emits the minimal-width initial byte (and, if needed,
// 1/2/4/8-byte length suffix) for major carrying value, per RFC 7049's
// rule that an encoder should always choose the shortest representation
// that can hold the value.
func writeHeader(out *iobuf.Output, major byte, value uint64) error {
	switch {
	case value <= cbor.MaxInlineValue:
		return out.WriteByte(major<<cbor.MajorShift | byte(value))
	case value <= 0xFF:
		if err := out.WriteByte(major<<cbor.MajorShift | cbor.Info1Byte); err != nil {
			return err
		}
		return out.WriteByte(byte(value))
	case value <= 0xFFFF:
		if err := out.WriteByte(major<<cbor.MajorShift | cbor.Info2Byte); err != nil {
			return err
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(value))
		return out.WriteBytes(b[:])
	case value <= 0xFFFFFFFF:
		if err := out.WriteByte(major<<cbor.MajorShift | cbor.Info4Byte); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(value))
		return out.WriteBytes(b[:])
	default:
		if err := out.WriteByte(major<<cbor.MajorShift | cbor.Info8Byte); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], value)
		return out.WriteBytes(b[:])
	}
}

// writeIndefiniteHeader emits the indefinite-length initial byte for major
// (array, map, byte string, or text string).
func writeIndefiniteHeader(out *iobuf.Output, major byte) error {
	return out.WriteByte(major<<cbor.MajorShift | cbor.InfoIndefinite)
}
