package decoder

import "github.com/FasterXML/jackson-dataformat-cbor/cbor"

// HasFormat sniffs a leading slice of an input stream for the likelihood
// that it is CBOR, per spec.md's format-detection rules. A self-describe
// tag (0xD9D9F7) is a strong signal; a top-level array or map header is
// also strong (little else produces those exact leading bytes in the
// wild); anything else is at best a weak match, since CBOR's single-byte
// scalar encodings collide with arbitrary binary data.
func HasFormat(prefix []byte) cbor.MatchStrength {
	if len(prefix) == 0 {
		return cbor.MatchNone
	}
	if len(prefix) >= 3 && prefix[0] == 0xD9 && prefix[1] == 0xD9 && prefix[2] == 0xF7 {
		return cbor.MatchStrong
	}
	major := prefix[0] >> cbor.MajorShift
	switch major {
	case cbor.MajorArray, cbor.MajorMap:
		return cbor.MatchStrong
	default:
		return cbor.MatchWeak
	}
}
