package decoder

import (
	"bytes"
	"testing"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/encoder"
)

// TestEncodeDecodeImageDocumentRoundTrip exercises spec.md §8 scenario
// S1: encode the canonical nested Image/Thumbnail/IDs document with the
// indefinite-length encoder, then decode it back and check every event
// and scalar accessor against the original values exactly. Thumbnail's
// "Width" is deliberately the string "100", not a number, unlike
// Image's own numeric "Width" - the decode side must come back as Kind
// String, not Integer, for that one field.
func TestEncodeDecodeImageDocumentRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := encoder.New(&buf)

	e.WriteStartObject()
	e.WriteFieldName("Image")
	e.WriteStartObject()
	e.WriteFieldName("Width")
	e.WriteInt32(800)
	e.WriteFieldName("Height")
	e.WriteInt32(600)
	e.WriteFieldName("Title")
	e.WriteString("View from 15th Floor")
	e.WriteFieldName("Thumbnail")
	e.WriteStartObject()
	e.WriteFieldName("Url")
	e.WriteString("http://www.example.com/image/481989943")
	e.WriteFieldName("Height")
	e.WriteInt32(125)
	e.WriteFieldName("Width")
	e.WriteString("100")
	if err := e.WriteEndObject(); err != nil {
		t.Fatalf("WriteEndObject (Thumbnail): %v", err)
	}
	e.WriteFieldName("IDs")
	e.WriteStartArray()
	for _, id := range []int32{116, 943, 234, 38793} {
		e.WriteInt32(id)
	}
	if err := e.WriteEndArray(); err != nil {
		t.Fatalf("WriteEndArray (IDs): %v", err)
	}
	if err := e.WriteEndObject(); err != nil {
		t.Fatalf("WriteEndObject (Image): %v", err)
	}
	if err := e.WriteEndObject(); err != nil {
		t.Fatalf("WriteEndObject (root): %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	d := New(bytes.NewReader(buf.Bytes()), nil)

	expectKind := func(want cbor.Kind) {
		t.Helper()
		if k := mustNextToken(t, d); k != want {
			t.Fatalf("kind = %v, want %v", k, want)
		}
	}
	expectField := func(name string) {
		t.Helper()
		expectKind(cbor.FieldName)
		if d.CurrentName() != name {
			t.Fatalf("CurrentName() = %q, want %q", d.CurrentName(), name)
		}
	}
	expectInt := func(name string, want int32) {
		t.Helper()
		expectField(name)
		expectKind(cbor.Integer)
		got, err := d.GetInt32()
		if err != nil {
			t.Fatalf("GetInt32(%s): %v", name, err)
		}
		if got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	expectString := func(name, want string) {
		t.Helper()
		expectField(name)
		expectKind(cbor.String)
		got, err := d.GetText()
		if err != nil {
			t.Fatalf("GetText(%s): %v", name, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	expectKind(cbor.StartObject)
	expectField("Image")
	expectKind(cbor.StartObject)
	expectInt("Width", 800)
	expectInt("Height", 600)
	expectString("Title", "View from 15th Floor")
	expectField("Thumbnail")
	expectKind(cbor.StartObject)
	expectString("Url", "http://www.example.com/image/481989943")
	expectInt("Height", 125)
	expectString("Width", "100") // string, not a number, even though Image.Width is one
	expectKind(cbor.EndObject)   // Thumbnail
	expectField("IDs")
	expectKind(cbor.StartArray)
	for _, want := range []int32{116, 943, 234, 38793} {
		expectKind(cbor.Integer)
		got, err := d.GetInt32()
		if err != nil {
			t.Fatalf("GetInt32(IDs[]): %v", err)
		}
		if got != want {
			t.Errorf("IDs element = %d, want %d", got, want)
		}
	}
	expectKind(cbor.EndArray)
	expectKind(cbor.EndObject) // Image
	expectKind(cbor.EndObject) // root
	if k := mustNextToken(t, d); k != cbor.NoToken {
		t.Errorf("trailing kind = %v, want NoToken", k)
	}
}
