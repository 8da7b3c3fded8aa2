// Package cborctx implements the write and read context stacks: one frame
// per open container, tracking name/value alternation inside objects and
// (on the read side) expected element counts for definite-length
// containers.
//
// Frames are linked via a parent pointer rather than held in a slice-backed
// stack, matching the teacher repo's preference for small value-ish types
// over a stdlib container for what is, per container nesting depth, a
// short-lived chain.
package cborctx

import "github.com/FasterXML/jackson-dataformat-cbor/cbor"

// Kind identifies what a context frame represents.
type Kind uint8

const (
	Root Kind = iota
	Array
	Object
)

// WriteContext is a single frame of the encoder's context stack.
type WriteContext struct {
	parent *WriteContext
	kind   Kind

	// expectName is true exactly when, in an Object context, the next
	// write must be a field name rather than a value. A fresh Object frame
	// starts true; it flips to false after WriteFieldName and back to true
	// after the paired value is written.
	expectName bool

	currentName string
	seen        int

	dupCheck bool
	// seenNames is allocated lazily: nil until the first duplicate check
	// actually needs to record a name, so the common (check disabled) path
	// never allocates.
	seenNames map[string]struct{}
}

// NewRootWriteContext returns a fresh root frame: not inside any array or
// object, so WriteValue is always permitted and WriteFieldName is not.
func NewRootWriteContext() *WriteContext {
	return &WriteContext{kind: Root}
}

// Kind reports this frame's container kind.
func (c *WriteContext) Kind() Kind { return c.kind }

// Parent returns the enclosing frame, or nil at the root.
func (c *WriteContext) Parent() *WriteContext { return c.parent }

// CreateChildArray pushes and returns a new Array frame nested under c.
func (c *WriteContext) CreateChildArray() *WriteContext {
	return &WriteContext{parent: c, kind: Array}
}

// CreateChildObject pushes and returns a new Object frame nested under c.
// dupCheck enables STRICT_DUPLICATE_DETECTION for this scope only.
func (c *WriteContext) CreateChildObject(dupCheck bool) *WriteContext {
	return &WriteContext{parent: c, kind: Object, expectName: true, dupCheck: dupCheck}
}

// WriteValue validates that a scalar, StartArray, or StartObject may be
// written now. Its only observable effect, per spec, is rejecting a value
// written where an Object context still expects a field name.
func (c *WriteContext) WriteValue() error {
	if c.kind == Object && c.expectName {
		return cbor.ErrExpectFieldName()
	}
	if c.kind == Object {
		c.expectName = true
	}
	c.seen++
	return nil
}

// WriteFieldName validates and records a field name write. It is only
// valid in an Object context that is currently expecting a name.
func (c *WriteContext) WriteFieldName(name string) error {
	if c.kind != Object {
		return cbor.NewError(cbor.WriteContextViolation, "field name written outside an object")
	}
	if !c.expectName {
		return cbor.NewError(cbor.WriteContextViolation, "field name written where a value was expected")
	}
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
	return nil
}

// CurrentName returns the most recently written field name in this Object
// scope, or "" if none (or not in an Object).
func (c *WriteContext) CurrentName() string { return c.currentName }

// ExpectingName reports whether the next write in this Object scope must
// be a field name.
func (c *WriteContext) ExpectingName() bool { return c.kind == Object && c.expectName }

// Seen returns the number of values (field names not counted individually,
// only their paired value) written directly in this scope so far.
func (c *WriteContext) Seen() int { return c.seen }
