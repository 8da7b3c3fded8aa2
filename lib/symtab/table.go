// Package symtab canonicalizes decoded CBOR object-key bytes into shared,
// interned names. A single Table is normally owned by a factory/session and
// shared across many Decoder lifetimes so that a vocabulary of field names
// (e.g. repeated keys across many documents of the same shape) is decoded
// to UTF-8 exactly once per distinct name.
//
// # Dependencies
//
//   - github.com/puzpuzpuz/xsync/v4: a sharded, lock-free-read concurrent
//     map, used instead of a single striped mutex over a stdlib map so that
//     concurrent Find calls from multiple decoders never block each other;
//     only a genuinely new name takes the (rare, amortized) slow path.
package symtab

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/sirupsen/logrus"
)

// Name is the canonical, shared representation of a decoded field name.
// Content equality is by String(); two decoders racing to intern the same
// bytes always end up pointing at the same *Name (first writer wins).
type Name struct {
	value string
}

// String returns the canonical UTF-8 text of the name.
func (n *Name) String() string { return n.value }

// Table is the shared canonicalizer. The zero value is not usable; use New.
type Table struct {
	m     *xsync.Map[string, *Name]
	max   int
	count atomic.Int64
	log   *logrus.Entry
}

// New creates a Table. maxNames caps the number of distinct interned names;
// once reached, Intern still succeeds but returns an uninterned *Name that
// is not stored in the table. Zero means unlimited.
func New(maxNames int) *Table {
	return &Table{
		m:   xsync.NewMap[string, *Name](),
		max: maxNames,
		log: logrus.WithField("component", "symtab.Table"),
	}
}

// Size reports the number of distinct interned names currently held.
func (t *Table) Size() int { return int(t.count.Load()) }

// Find looks up raw (the undecoded name bytes, used verbatim as the
// canonicalization key — byte-for-byte equality is exactly quad-for-quad
// equality, so no UTF-8 decoding happens on a hit) and returns the
// canonical Name if already interned.
//
// Callers on the decoder's fast path are expected to call Find before
// committing to a UTF-8 decode of a candidate field name; a hit means that
// work can be skipped entirely.
func (t *Table) Find(raw []byte) (*Name, bool) {
	return t.m.Load(string(raw))
}

// Intern returns the canonical Name for decoded (already UTF-8-validated)
// text, storing it the first time a given byte sequence is seen. Ties
// between concurrent first-time interners of the same bytes resolve to
// whichever insertion xsync.Map's LoadOrStore linearizes first; both
// callers receive the same *Name.
func (t *Table) Intern(raw []byte, decoded string) *Name {
	if t.max > 0 && t.Size() >= t.max {
		// Budget spent: hand back an uninterned name rather than growing
		// the table further.
		return &Name{value: decoded}
	}
	candidate := &Name{value: decoded}
	actual, loaded := t.m.LoadOrStore(string(raw), candidate)
	if !loaded {
		n := t.count.Add(1)
		if n == 1 || n%1024 == 0 {
			t.log.WithField("size", n).Debug("symbol table grew")
		}
	}
	return actual
}

// PackQuads packs name into 32-bit little-endian quads, four bytes at a
// time, zero-padding the final partial quad. It is exposed for tests and
// for callers that want the spec's literal "packed quad" view of a name
// (e.g. to compare two raw key candidates without allocating a string) even
// though Table's own index is keyed directly on the raw bytes.
func PackQuads(name []byte) []uint32 {
	n := (len(name) + 3) / 4
	quads := make([]uint32, n)
	for i := 0; i < n; i++ {
		var q uint32
		base := i * 4
		for j := 0; j < 4; j++ {
			if base+j < len(name) {
				q |= uint32(name[base+j]) << (8 * j)
			}
		}
		quads[i] = q
	}
	return quads
}
