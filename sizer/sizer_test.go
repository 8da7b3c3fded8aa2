package sizer

import (
	"bytes"
	"testing"
)

func TestSizerComputesArrayLength(t *testing.T) {
	s := New()
	s.WriteStartArray()
	s.WriteInt32(1)
	s.WriteInt32(2)
	s.WriteInt32(3)
	if err := s.WriteEndArray(); err != nil {
		t.Fatalf("WriteEndArray: %v", err)
	}
	var buf bytes.Buffer
	if err := s.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := []byte{0x83, 0x01, 0x02, 0x03}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestSizerComputesObjectLength(t *testing.T) {
	s := New()
	s.WriteStartObject()
	s.WriteFieldName("a")
	s.WriteInt32(1)
	s.WriteFieldName("b")
	s.WriteInt32(2)
	if err := s.WriteEndObject(); err != nil {
		t.Fatalf("WriteEndObject: %v", err)
	}
	var buf bytes.Buffer
	if err := s.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'b', 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestSizerNestedContainers(t *testing.T) {
	s := New()
	s.WriteStartArray()
	s.WriteStartArray()
	s.WriteInt32(1)
	if err := s.WriteEndArray(); err != nil {
		t.Fatalf("WriteEndArray (inner): %v", err)
	}
	if err := s.WriteEndArray(); err != nil {
		t.Fatalf("WriteEndArray (outer): %v", err)
	}
	var buf bytes.Buffer
	if err := s.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := []byte{0x81, 0x81, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

// TestSizerComputesDefiniteHeaderForLargeArray exercises spec.md §8
// scenario S6: a 32-element array gets a definite-length header (major 4,
// 1-byte length suffix 0x20), never an indefinite 9F...FF opener. The
// elements 0..23 encode inline in one byte each; 24..31 need the 1-byte
// suffix form (0x18 nn), two bytes each.
func TestSizerComputesDefiniteHeaderForLargeArray(t *testing.T) {
	const n = 32
	s := New()
	s.WriteStartArray()
	for i := int32(0); i < n; i++ {
		s.WriteInt32(i)
	}
	if err := s.WriteEndArray(); err != nil {
		t.Fatalf("WriteEndArray: %v", err)
	}
	var buf bytes.Buffer
	if err := s.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got := buf.Bytes()
	wantLen := 2 + 24 + 2*(n-24)
	if len(got) != wantLen {
		t.Fatalf("total length = %d, want %d (2-byte header + 24 1-byte and %d 2-byte integers)", len(got), wantLen, n-24)
	}
	wantHeader := []byte{0x98, 0x20}
	if !bytes.Equal(got[:2], wantHeader) {
		t.Fatalf("header = % x, want % x (definite-length, never indefinite 9F)", got[:2], wantHeader)
	}
	if got[2] != 0x00 || got[len(got)-1] != 0x1f { // 0 .. 31
		t.Errorf("first/last element bytes = %02x/%02x, want 00/1f", got[2], got[len(got)-1])
	}
}

func TestSizerFlushFailsWithOpenFrame(t *testing.T) {
	s := New()
	s.WriteStartArray()
	var buf bytes.Buffer
	if err := s.Flush(&buf); err == nil {
		t.Fatalf("expected an error flushing with an open frame")
	}
}
