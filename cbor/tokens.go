package cbor

// Wire-level constants: major type shifts, additional-info sentinels, and
// the fixed one-byte tokens for the major-7 simple values and break marker.
// Kept in one place so encoder and decoder agree on the exact bit patterns
// spec.md §6's round-trip table requires.
const (
	MajorShift = 5
	InfoMask   = 0x1F

	MajorUnsignedInt = 0
	MajorNegativeInt = 1
	MajorByteString  = 2
	MajorTextString  = 3
	MajorArray       = 4
	MajorMap         = 5
	MajorTag         = 6
	MajorSimple      = 7

	// Additional-info selectors for the 1/2/4/8-byte suffix lengths.
	Info1Byte     = 24
	Info2Byte     = 25
	Info4Byte     = 26
	Info8Byte     = 27
	InfoIndefinite = 31

	// Inline values encode directly in additional-info when < 24.
	MaxInlineValue = 23

	// Major-7 simple-value additional-info codes.
	SimpleFalse = 20
	SimpleTrue  = 21
	SimpleNull  = 22
	SimpleHalf  = 25
	SimpleFloat = 26
	SimpleDouble = 27
	SimpleBreak  = 31

	// Fully-formed initial bytes for the fixed-shape values in spec.md §6's
	// round-trip table.
	ByteFalse = byte(MajorSimple<<MajorShift | SimpleFalse)
	ByteTrue  = byte(MajorSimple<<MajorShift | SimpleTrue)
	ByteNull  = byte(MajorSimple<<MajorShift | SimpleNull)
	ByteBreak = byte(MajorSimple<<MajorShift | SimpleBreak)

	ByteFloat16 = byte(MajorSimple<<MajorShift | SimpleHalf)
	ByteFloat32 = byte(MajorSimple<<MajorShift | SimpleFloat)
	ByteFloat64 = byte(MajorSimple<<MajorShift | SimpleDouble)

	ByteIndefiniteArray = byte(MajorArray<<MajorShift | InfoIndefinite)
	ByteIndefiniteMap   = byte(MajorMap<<MajorShift | InfoIndefinite)
	ByteIndefiniteBytes = byte(MajorByteString<<MajorShift | InfoIndefinite)
	ByteIndefiniteText  = byte(MajorTextString<<MajorShift | InfoIndefinite)

	// Tag values the encoder emits and the decoder recognizes symmetrically.
	TagPositiveBigNum = 2
	TagNegativeBigNum = 3
	TagDecimalFraction = 4
	TagSelfDescribeCBOR = 0xD9F7
)
