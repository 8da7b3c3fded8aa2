package decoder

import (
	"io"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/iobuf"
)

// pendingPayload is the PendingPayload the decoder owns for the current
// String/EmbeddedObject token: the type byte and length are known
// immediately, but the bytes themselves are only decoded on first access,
// or skipped outright if the caller moves on to the next token first.
type pendingPayload struct {
	active       bool
	binary       bool // true: byte string (EmbeddedObject); false: text string (String)
	indefinite   bool
	declaredLen  int64
	materialized bool

	textValue    string
	textUTF16Len int
	binaryValue  []byte
}

func (d *Decoder) armPending(binary, indefinite bool, declaredLen int64) {
	d.pending = pendingPayload{
		active:      true,
		binary:      binary,
		indefinite:  indefinite,
		declaredLen: declaredLen,
	}
}

// skipCurrentIfUnconsumed implements the first step of NextToken: if the
// previous token was a lazy string/binary whose payload was never
// materialized, its bytes must still be consumed from the stream before
// the next token can be parsed.
func (d *Decoder) skipCurrentIfUnconsumed() error {
	p := &d.pending
	if !p.active || p.materialized {
		p.active = false
		return nil
	}
	defer func() { p.active = false }()
	if !p.indefinite {
		return d.in.Skip(int(p.declaredLen))
	}
	wantMajor := byte(cbor.MajorTextString)
	if p.binary {
		wantMajor = cbor.MajorByteString
	}
	for {
		b, err := d.in.NextByte()
		if err != nil {
			return err
		}
		if b == cbor.ByteBreak {
			return nil
		}
		major := b >> cbor.MajorShift
		if major != wantMajor {
			return cbor.ErrChunkMajorMismatch(wantMajor, major)
		}
		info := b & cbor.InfoMask
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return err
		}
		if indef {
			return cbor.NewError(cbor.MalformedInput, "nested indefinite-length chunk")
		}
		if err := d.in.Skip(int(length)); err != nil {
			return err
		}
	}
}

// materializeText decodes the current pending text payload, using the
// short in-place path when the declared length fits within the input
// buffer's capacity, the long path (copy through a freshly allocated
// slice) otherwise, and the chunked path for indefinite-length text.
func (d *Decoder) materializeText() error {
	p := &d.pending
	if p.materialized {
		return nil
	}
	data, err := d.readPendingBytes()
	if err != nil {
		return err
	}
	s, utf16Len, err := decodeUTF8(data)
	if err != nil {
		return err
	}
	p.textValue = s
	p.textUTF16Len = utf16Len
	p.materialized = true
	return nil
}

// materializeBinary decodes the current pending binary payload into a
// single contiguous byte slice.
func (d *Decoder) materializeBinary() error {
	p := &d.pending
	if p.materialized {
		return nil
	}
	data, err := d.readPendingBytes()
	if err != nil {
		return err
	}
	p.binaryValue = data
	p.materialized = true
	return nil
}

// readPendingBytes collects the full payload of the current pending
// string/binary token into one slice, without interpreting it.
func (d *Decoder) readPendingBytes() ([]byte, error) {
	p := &d.pending
	if !p.indefinite {
		n := int(p.declaredLen)
		if n == 0 {
			return nil, nil
		}
		if n <= d.in.Cap() {
			if err := d.in.Ensure(n); err != nil {
				return nil, wrapEOF(err)
			}
			data := append([]byte(nil), d.in.Peek(n)...)
			d.in.Advance(n)
			return data, nil
		}
		data := make([]byte, n)
		if err := d.in.ReadInto(data); err != nil {
			return nil, wrapEOF(err)
		}
		return data, nil
	}

	wantMajor := byte(cbor.MajorTextString)
	if p.binary {
		wantMajor = cbor.MajorByteString
	}
	var all []byte
	for {
		b, err := d.in.NextByte()
		if err != nil {
			return nil, err
		}
		if b == cbor.ByteBreak {
			break
		}
		major := b >> cbor.MajorShift
		if major != wantMajor {
			return nil, cbor.ErrChunkMajorMismatch(wantMajor, major)
		}
		info := b & cbor.InfoMask
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return nil, err
		}
		if indef {
			return nil, cbor.NewError(cbor.MalformedInput, "nested indefinite-length chunk")
		}
		chunk := make([]byte, length)
		if err := d.in.ReadInto(chunk); err != nil {
			return nil, wrapEOF(err)
		}
		all = append(all, chunk...)
	}
	return all, nil
}

// GetText materializes (if needed) and returns the current token's text.
// Valid only when CurrentKind is String or FieldName.
func (d *Decoder) GetText() (string, error) {
	if d.kind == cbor.FieldName {
		return d.name, nil
	}
	if err := d.materializeText(); err != nil {
		return "", err
	}
	return d.pending.textValue, nil
}

// GetTextLength returns the UTF-16 code-unit length of the current text,
// materializing it first if needed.
func (d *Decoder) GetTextLength() (int, error) {
	if err := d.materializeText(); err != nil {
		return 0, err
	}
	return d.pending.textUTF16Len, nil
}

// HasCurrentTextCharacters reports whether the current text token's
// characters are already available without further decoding work.
func (d *Decoder) HasCurrentTextCharacters() bool {
	return d.pending.active && !d.pending.binary && d.pending.materialized
}

// GetBinary materializes (if needed) and returns the current token's raw
// bytes. Valid only when CurrentKind is EmbeddedObject.
func (d *Decoder) GetBinary() ([]byte, error) {
	if err := d.materializeBinary(); err != nil {
		return nil, err
	}
	return d.pending.binaryValue, nil
}

// ReadBinary streams the current token's bytes to sink without
// materializing them into a single in-memory slice first (unless they
// already were), per spec.md §4.6.4. It returns the number of bytes
// written.
func (d *Decoder) ReadBinary(sink io.Writer) (int64, error) {
	p := &d.pending
	if !p.active {
		return 0, cbor.NewError(cbor.MalformedInput, "ReadBinary called without a pending binary token")
	}
	if p.materialized {
		n, err := sink.Write(p.binaryValue)
		return int64(n), err
	}
	defer func() { p.active = false; p.materialized = true }()

	if !p.indefinite {
		return copyThroughBuffer(d.in, sink, int(p.declaredLen))
	}

	var total int64
	for {
		b, err := d.in.NextByte()
		if err != nil {
			return total, err
		}
		if b == cbor.ByteBreak {
			return total, nil
		}
		major := b >> cbor.MajorShift
		if major != cbor.MajorByteString {
			return total, cbor.ErrChunkMajorMismatch(cbor.MajorByteString, major)
		}
		info := b & cbor.InfoMask
		length, indef, err := d.readAdditional(major, info)
		if err != nil {
			return total, err
		}
		if indef {
			return total, cbor.NewError(cbor.MalformedInput, "nested indefinite-length chunk")
		}
		n, err := copyThroughBuffer(d.in, sink, int(length))
		total += n
		if err != nil {
			return total, err
		}
	}
}

// copyThroughBuffer streams exactly n bytes from in to sink using a small
// fixed scratch buffer, never materializing the whole payload at once.
func copyThroughBuffer(in *iobuf.Input, sink io.Writer, n int) (int64, error) {
	var scratch [4096]byte
	var total int64
	for n > 0 {
		chunk := len(scratch)
		if chunk > n {
			chunk = n
		}
		if err := in.ReadInto(scratch[:chunk]); err != nil {
			return total, wrapEOF(err)
		}
		w, err := sink.Write(scratch[:chunk])
		total += int64(w)
		if err != nil {
			return total, err
		}
		n -= chunk
	}
	return total, nil
}

func wrapEOF(err error) error {
	if err == iobuf.ErrUnexpectedEOF {
		return cbor.ErrUnexpectedEOFMidToken()
	}
	return cbor.Wrap(cbor.IOError, err, "i/o failure while reading payload")
}
