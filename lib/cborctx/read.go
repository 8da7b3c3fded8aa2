package cborctx

import "github.com/FasterXML/jackson-dataformat-cbor/cbor"

// NoExpectedLength marks a container as indefinite-length: its element
// count is not known up front and it closes on a break byte instead of a
// count reaching zero.
const NoExpectedLength = -1

// ReadContext is a single frame of the decoder's context stack: the read
// counterpart to WriteContext, additionally tracking the declared element
// count (if any) for definite-length containers.
type ReadContext struct {
	parent *ReadContext
	kind   Kind

	expectedLen int // NoExpectedLength if indefinite
	seen        int

	// expectName mirrors WriteContext: true when, in an Object, the next
	// token the decoder must produce is a FieldName rather than a value.
	expectName bool

	currentName string

	dupCheck  bool
	seenNames map[string]struct{}

	// tag is the most recently read tag value in this scope, or -1 if none
	// is pending. It is consumed (reset to -1) when a tag 2/3/4 is folded
	// into a single number token; a tag delivered transparently stays
	// recorded until a later tag in this scope replaces it.
	tag int64
}

// NewRootReadContext returns the root frame.
func NewRootReadContext() *ReadContext {
	return &ReadContext{kind: Root, expectedLen: NoExpectedLength, tag: -1}
}

func (c *ReadContext) Kind() Kind             { return c.kind }
func (c *ReadContext) Parent() *ReadContext   { return c.parent }
func (c *ReadContext) HasExpectedLength() bool { return c.expectedLen != NoExpectedLength }
func (c *ReadContext) ExpectedLength() int    { return c.expectedLen }
func (c *ReadContext) Seen() int              { return c.seen }
func (c *ReadContext) CurrentName() string    { return c.currentName }

// ExpectingName reports whether the next token must be a FieldName.
func (c *ReadContext) ExpectingName() bool { return c.kind == Object && c.expectName }

// PendingTag returns the tag most recently recorded on this scope and
// still unconsumed, or -1 if none.
func (c *ReadContext) PendingTag() int64 { return c.tag }

// SetPendingTag records a tag value read from the stream, to be attached
// to whichever token comes next.
func (c *ReadContext) SetPendingTag(tag int64) { c.tag = tag }

// ConsumePendingTag clears and returns the pending tag (-1 if none).
func (c *ReadContext) ConsumePendingTag() int64 {
	t := c.tag
	c.tag = -1
	return t
}

// CreateChildArray pushes a new Array frame. expectedLen is
// NoExpectedLength for an indefinite-length array.
func (c *ReadContext) CreateChildArray(expectedLen int) *ReadContext {
	return &ReadContext{parent: c, kind: Array, expectedLen: expectedLen, tag: -1}
}

// CreateChildObject pushes a new Object frame.
func (c *ReadContext) CreateChildObject(expectedLen int, dupCheck bool) *ReadContext {
	return &ReadContext{
		parent:      c,
		kind:        Object,
		expectedLen: expectedLen,
		expectName:  true,
		dupCheck:    dupCheck,
		tag:         -1,
	}
}

// ExpectMoreValues reports whether this frame's declared length (if any)
// has not yet been reached. Always true for an indefinite-length frame;
// the break byte is what ends those.
func (c *ReadContext) ExpectMoreValues() bool {
	if !c.HasExpectedLength() {
		return true
	}
	return c.seen < c.expectedLen
}

// RecordValue advances the frame's seen-value counter and, in an Object,
// flips back to expecting a field name. Call once per value token (a
// nested container counts once, when its Start* token is read; its End*
// is not recorded again), never for the FieldName token itself.
func (c *ReadContext) RecordValue() {
	c.seen++
	if c.kind == Object {
		c.expectName = true
	}
}

// RecordFieldName validates and records a decoded field name.
func (c *ReadContext) RecordFieldName(name string) error {
	if c.dupCheck {
		if c.seenNames == nil {
			c.seenNames = make(map[string]struct{})
		}
		if _, dup := c.seenNames[name]; dup {
			return cbor.ErrDuplicateFieldName(name)
		}
		c.seenNames[name] = struct{}{}
	}
	c.currentName = name
	c.expectName = false
	// A field name counts toward the pair's element count in a
	// definite-length object (CBOR map length counts key+value pairs, while
	// this context's "seen" tracks raw element slots consumed; the decoder
	// therefore sets expectedLen to twice the pair count).
	c.seen++
	return nil
}
