package cbor

// Config is the explicit configuration struct for decoders and encoders,
// replacing a Java-style feature bit-field with named booleans per the
// redesign direction in DESIGN NOTES. Zero value is the conservative
// default: no interning cap, duplicate detection off, streams not
// auto-closed.
type Config struct {
	// InternFieldNames routes decoded object-key bytes through the shared
	// symbol table (lib/symtab) instead of allocating a fresh string per
	// occurrence.
	InternFieldNames bool

	// StrictDuplicateDetection rejects a second FieldName within the same
	// object scope carrying a name already seen in that scope.
	StrictDuplicateDetection bool

	// AutoCloseSource closes the underlying io.Reader when the Decoder is
	// closed, if it implements io.Closer.
	AutoCloseSource bool

	// AutoCloseTarget closes the underlying io.Writer when the Encoder is
	// closed, if it implements io.Closer.
	AutoCloseTarget bool

	// FlushPassedToStream calls Flush on the underlying writer (if it
	// implements an explicit Flush() error method) whenever the Encoder's
	// own Flush is called.
	FlushPassedToStream bool

	// AutoCloseContent synthesizes the matching EndArray/EndObject for
	// every still-open container before an Encoder's Close flushes and
	// (if AutoCloseTarget) closes the underlying writer.
	AutoCloseContent bool

	// MaxCanonicalNames is carried for callers that size a symbol table
	// from the Config. The decoder does not read it: the cap a Table
	// enforces is the maxNames argument given to symtab.New.
	MaxCanonicalNames int

	// InputBufferSize and OutputBufferSize size the Input/Output buffers a
	// Decoder/Encoder allocates. Non-positive values fall back to
	// iobuf.DefaultBufferSize.
	InputBufferSize  int
	OutputBufferSize int
}

// DefaultConfig returns the conservative zero-value configuration. It
// exists as a named constructor, in the style of the pack's own
// "defaultOptions" package variable, so call sites read
// cbor.DefaultConfig() rather than a bare literal.
func DefaultConfig() Config {
	return Config{}
}

// Option mutates a Config in place; used by decoder.New/encoder.New's
// variadic option lists.
type Option func(*Config)

func WithInternFieldNames(v bool) Option {
	return func(c *Config) { c.InternFieldNames = v }
}

func WithStrictDuplicateDetection(v bool) Option {
	return func(c *Config) { c.StrictDuplicateDetection = v }
}

func WithAutoCloseSource(v bool) Option {
	return func(c *Config) { c.AutoCloseSource = v }
}

func WithAutoCloseTarget(v bool) Option {
	return func(c *Config) { c.AutoCloseTarget = v }
}

func WithFlushPassedToStream(v bool) Option {
	return func(c *Config) { c.FlushPassedToStream = v }
}

func WithAutoCloseContent(v bool) Option {
	return func(c *Config) { c.AutoCloseContent = v }
}

func WithMaxCanonicalNames(n int) Option {
	return func(c *Config) { c.MaxCanonicalNames = n }
}

func WithInputBufferSize(n int) Option {
	return func(c *Config) { c.InputBufferSize = n }
}

func WithOutputBufferSize(n int) Option {
	return func(c *Config) { c.OutputBufferSize = n }
}

// Apply folds a list of Options into base and returns the result.
func Apply(base Config, opts ...Option) Config {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}
