// Command cbortool is a small debugging binary for the CBOR codec: it
// walks a decoded event stream and prints it, or reads a minimal
// line-oriented scalar script and emits the CBOR bytes for it, either
// streaming (encode) or with sizer-computed definite lengths
// (sizer-encode). It is not a general object mapper.
package main

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FasterXML/jackson-dataformat-cbor/cbor"
	"github.com/FasterXML/jackson-dataformat-cbor/decoder"
	"github.com/FasterXML/jackson-dataformat-cbor/encoder"
	"github.com/FasterXML/jackson-dataformat-cbor/lib/symtab"
	"github.com/FasterXML/jackson-dataformat-cbor/sizer"
)

func main() {
	var (
		inPath  string
		outPath string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "cbortool",
		Short: "Decode, encode, and inspect CBOR byte streams",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&inPath, "in", "", "input file (default: stdin)")
	root.PersistentFlags().StringVar(&outPath, "out", "", "output file (default: stdout)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(decodeCmd(&inPath))
	root.AddCommand(encodeCmd(&inPath, &outPath))
	root.AddCommand(sizerEncodeCmd(&inPath, &outPath))
	root.AddCommand(formatCmd(&inPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openIn(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOut(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func decodeCmd(inPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "Print a text rendering of a CBOR byte stream's event sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openIn(*inPath)
			if err != nil {
				return err
			}
			defer r.Close()
			return dumpEvents(cmd.OutOrStdout(), r)
		},
	}
}

func dumpEvents(w io.Writer, r io.Reader) error {
	tab := symtab.New(0)
	d := decoder.New(r, tab, cbor.WithInternFieldNames(true))
	depth := 0
	for {
		kind, err := d.NextToken()
		if err != nil {
			return err
		}
		if kind == cbor.NoToken {
			return nil
		}
		indent := strings.Repeat("  ", depth)
		switch kind {
		case cbor.StartArray, cbor.StartObject:
			fmt.Fprintf(w, "%s%s\n", indent, kind)
			depth++
		case cbor.EndArray, cbor.EndObject:
			depth--
			fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), kind)
		case cbor.FieldName:
			fmt.Fprintf(w, "%s%s %q\n", indent, kind, d.CurrentName())
		case cbor.String:
			text, err := d.GetText()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%s %q\n", indent, kind, text)
		case cbor.EmbeddedObject:
			data, err := d.GetBinary()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%s %x\n", indent, kind, data)
		case cbor.Integer:
			switch d.NumberType() {
			case cbor.NumberBigInt:
				fmt.Fprintf(w, "%s%s(%s) %s\n", indent, kind, d.NumberType(), d.GetBigInt().String())
			default:
				v, err := d.GetInt64()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s%s(%s) %d\n", indent, kind, d.NumberType(), v)
			}
		case cbor.Float:
			switch d.NumberType() {
			case cbor.NumberBigDecimal:
				fmt.Fprintf(w, "%s%s(%s) %s\n", indent, kind, d.NumberType(), d.GetBigDecimal().String())
			default:
				fmt.Fprintf(w, "%s%s(%s) %v\n", indent, kind, d.NumberType(), d.GetFloat64())
			}
		case cbor.Boolean:
			fmt.Fprintf(w, "%s%s %v\n", indent, kind, d.GetBool())
		case cbor.Null:
			fmt.Fprintf(w, "%s%s\n", indent, kind)
		}
	}
}

func formatCmd(inPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Sniff whether a byte stream's leading bytes look like CBOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openIn(*inPath)
			if err != nil {
				return err
			}
			defer r.Close()
			var prefix [8]byte
			n, _ := io.ReadFull(r, prefix[:])
			fmt.Fprintln(cmd.OutOrStdout(), decoder.HasFormat(prefix[:n]))
			return nil
		},
	}
}

// scriptWriter is the minimal interface encode and sizer-encode both drive
// from the same line-oriented script, so the parsing logic is not
// duplicated between the streaming and sizer-buffered paths.
type scriptWriter interface {
	WriteStartArray() error
	WriteEndArray() error
	WriteStartObject() error
	WriteEndObject() error
	WriteFieldNameScript(name string) error
	WriteString(string) error
	WriteBinary([]byte) error
	WriteInt64(int64) error
	WriteBigInt(*big.Int) error
	WriteFloat64(float64) error
	WriteBigDecimal(cbor.BigDecimal) error
	WriteBool(bool) error
	WriteNull() error
}

func runScript(w scriptWriter, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		op := fields[0]
		rest := ""
		if len(fields) > 1 {
			rest = fields[1]
		}
		if err := applyOp(w, op, rest); err != nil {
			return fmt.Errorf("line %q: %w", line, err)
		}
	}
	return scanner.Err()
}

func applyOp(w scriptWriter, op, rest string) error {
	switch op {
	case "startarray":
		return w.WriteStartArray()
	case "endarray":
		return w.WriteEndArray()
	case "startobject":
		return w.WriteStartObject()
	case "endobject":
		return w.WriteEndObject()
	case "field":
		return w.WriteFieldNameScript(rest)
	case "str":
		return w.WriteString(rest)
	case "bin":
		data, err := decodeHex(rest)
		if err != nil {
			return err
		}
		return w.WriteBinary(data)
	case "int":
		v, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return err
		}
		return w.WriteInt64(v)
	case "bigint":
		v, ok := new(big.Int).SetString(rest, 10)
		if !ok {
			return fmt.Errorf("invalid bigint %q", rest)
		}
		return w.WriteBigInt(v)
	case "float":
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return err
		}
		return w.WriteFloat64(v)
	case "bigdecimal":
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) != 2 {
			return fmt.Errorf("bigdecimal requires <unscaled> <scale>")
		}
		unscaled, ok := new(big.Int).SetString(parts[0], 10)
		if !ok {
			return fmt.Errorf("invalid unscaled value %q", parts[0])
		}
		scale, err := strconv.Atoi(parts[1])
		if err != nil {
			return err
		}
		return w.WriteBigDecimal(cbor.BigDecimal{Unscaled: unscaled, Scale: int32(scale)})
	case "bool":
		return w.WriteBool(rest == "true")
	case "null":
		return w.WriteNull()
	default:
		return fmt.Errorf("unknown op %q", op)
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		var b byte
		if _, err := fmt.Sscanf(s[i:i+2], "%02x", &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// encodeAdapter and sizerAdapter implement scriptWriter over
// encoder.Encoder and sizer.Sizer respectively.

type encodeAdapter struct{ enc *encoder.Encoder }

func (a encodeAdapter) WriteStartArray() error          { return a.enc.WriteStartArray() }
func (a encodeAdapter) WriteEndArray() error            { return a.enc.WriteEndArray() }
func (a encodeAdapter) WriteStartObject() error         { return a.enc.WriteStartObject() }
func (a encodeAdapter) WriteEndObject() error           { return a.enc.WriteEndObject() }
func (a encodeAdapter) WriteFieldNameScript(n string) error { return a.enc.WriteFieldName(n) }
func (a encodeAdapter) WriteString(v string) error            { return a.enc.WriteString(v) }
func (a encodeAdapter) WriteBinary(v []byte) error            { return a.enc.WriteBinary(v) }
func (a encodeAdapter) WriteInt64(v int64) error               { return a.enc.WriteInt64(v) }
func (a encodeAdapter) WriteBigInt(v *big.Int) error           { return a.enc.WriteBigInt(v) }
func (a encodeAdapter) WriteFloat64(v float64) error           { return a.enc.WriteFloat64(v) }
func (a encodeAdapter) WriteBigDecimal(v cbor.BigDecimal) error { return a.enc.WriteBigDecimal(v) }
func (a encodeAdapter) WriteBool(v bool) error                 { return a.enc.WriteBool(v) }
func (a encodeAdapter) WriteNull() error                       { return a.enc.WriteNull() }

type sizerAdapter struct{ s *sizer.Sizer }

func (a sizerAdapter) WriteStartArray() error          { a.s.WriteStartArray(); return nil }
func (a sizerAdapter) WriteEndArray() error            { return a.s.WriteEndArray() }
func (a sizerAdapter) WriteStartObject() error         { a.s.WriteStartObject(); return nil }
func (a sizerAdapter) WriteEndObject() error           { return a.s.WriteEndObject() }
func (a sizerAdapter) WriteFieldNameScript(n string) error {
	a.s.WriteFieldName(n)
	return nil
}
func (a sizerAdapter) WriteString(v string) error            { a.s.WriteString(v); return nil }
func (a sizerAdapter) WriteBinary(v []byte) error            { a.s.WriteBinary(v); return nil }
func (a sizerAdapter) WriteInt64(v int64) error               { a.s.WriteInt64(v); return nil }
func (a sizerAdapter) WriteBigInt(v *big.Int) error           { a.s.WriteBigInt(v); return nil }
func (a sizerAdapter) WriteFloat64(v float64) error           { a.s.WriteFloat64(v); return nil }
func (a sizerAdapter) WriteBigDecimal(v cbor.BigDecimal) error { a.s.WriteBigDecimal(v); return nil }
func (a sizerAdapter) WriteBool(v bool) error                 { a.s.WriteBool(v); return nil }
func (a sizerAdapter) WriteNull() error                       { a.s.WriteNull(); return nil }

func encodeCmd(inPath, outPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "encode",
		Short: "Read a line-oriented scalar script and stream it out as CBOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openIn(*inPath)
			if err != nil {
				return err
			}
			defer r.Close()
			w, err := openOut(*outPath)
			if err != nil {
				return err
			}
			defer w.Close()
			enc := encoder.New(w, cbor.WithAutoCloseContent(true))
			if err := runScript(encodeAdapter{enc}, r); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func sizerEncodeCmd(inPath, outPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sizer-encode",
		Short: "Read a line-oriented scalar script and emit CBOR with computed definite lengths",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openIn(*inPath)
			if err != nil {
				return err
			}
			defer r.Close()
			w, err := openOut(*outPath)
			if err != nil {
				return err
			}
			defer w.Close()
			s := sizer.New()
			if err := runScript(sizerAdapter{s}, r); err != nil {
				return err
			}
			return s.Flush(w)
		},
	}
}
