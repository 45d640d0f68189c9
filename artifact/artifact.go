/*
Package artifact writes the generated C++ header and source pair holding a
model's dimensions, palette and run-length encoded voxels.

Both files start with a "#version:N#" marker so a build step can tell when
they were produced by an older generator. When Options carry a fingerprint an
"#options:X#" marker follows it so changed settings are noticed too.
*/
package artifact

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bodgit/vox2rle/palette"
)

// Options control the naming and layout of the generated code.
type Options struct {
	Namespace      string
	Struct         string
	Version        int
	Wrap           int
	HeaderIncludes []string
	SourceIncludes []string

	// Fingerprint identifies the settings the artifacts were generated
	// with, empty omits the options marker
	Fingerprint string
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Namespace:      "Oryol",
		Struct:         "Vox",
		Version:        1,
		Wrap:           32,
		HeaderIncludes: []string{"Core/Types.h"},
		SourceIncludes: []string{"Pre.h"},
	}
}

// Data is everything that ends up in the generated code.
type Data struct {
	X, Y, Z int
	Palette palette.Palette
	RLE     []byte
}

// Marker returns the version marker written into every artifact
func Marker(version int) string {
	return fmt.Sprintf("#version:%d#", version)
}

// OptionsMarker returns the marker recording the settings fingerprint
func OptionsMarker(fingerprint string) string {
	return fmt.Sprintf("#options:%s#", fingerprint)
}

func writeOptions(b *bytes.Buffer, o Options) {
	if o.Fingerprint != "" {
		fmt.Fprintf(b, "// %s\n", OptionsMarker(o.Fingerprint))
	}
}

func openNamespace(b *bytes.Buffer, o Options) {
	if o.Namespace != "" {
		fmt.Fprintf(b, "namespace %s {\n", o.Namespace)
	}
}

func closeNamespace(b *bytes.Buffer, o Options) {
	if o.Namespace != "" {
		b.WriteString("}\n")
	}
}

// Header returns the declaration artifact.
func Header(d *Data, o Options) []byte {
	b := new(bytes.Buffer)
	b.WriteString("#pragma once\n")
	fmt.Fprintf(b, "// %s\n", Marker(o.Version))
	writeOptions(b, o)
	b.WriteString("// machine generated, do not edit!\n")
	for _, inc := range o.HeaderIncludes {
		fmt.Fprintf(b, "#include \"%s\"\n", inc)
	}
	openNamespace(b, o)
	fmt.Fprintf(b, "struct %s {\n", o.Struct)
	fmt.Fprintf(b, "    static const int X = %d;\n", d.X)
	fmt.Fprintf(b, "    static const int Y = %d;\n", d.Y)
	fmt.Fprintf(b, "    static const int Z = %d;\n", d.Z)
	fmt.Fprintf(b, "    static const uint8_t Palette[%d][4];\n", len(d.Palette))
	fmt.Fprintf(b, "    static const uint8_t VoxelsRLE[%d];\n", len(d.RLE))
	b.WriteString("};\n")
	closeNamespace(b, o)
	return b.Bytes()
}

// Source returns the definition artifact. header is the name the source
// uses to include the declaration artifact.
func Source(d *Data, o Options, header string) []byte {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "// %s machine generated, do not edit!\n", Marker(o.Version))
	writeOptions(b, o)
	for _, inc := range o.SourceIncludes {
		fmt.Fprintf(b, "#include \"%s\"\n", inc)
	}
	fmt.Fprintf(b, "#include \"%s\"\n", header)
	openNamespace(b, o)

	fmt.Fprintf(b, "const uint8_t %s::Palette[%d][4] = {\n", o.Struct, len(d.Palette))
	for _, c := range d.Palette {
		fmt.Fprintf(b, "  { %d, %d, %d, %d },\n", c.R, c.G, c.B, c.A)
	}
	b.WriteString("};\n")

	fmt.Fprintf(b, "const uint8_t %s::VoxelsRLE[%d] = {\n", o.Struct, len(d.RLE))
	wrap := o.Wrap
	if wrap < 1 {
		wrap = len(d.RLE)
	}
	for i := 0; i < len(d.RLE); i += wrap {
		end := i + wrap
		if end > len(d.RLE) {
			end = len(d.RLE)
		}
		values := make([]string, 0, end-i)
		for _, v := range d.RLE[i:end] {
			values = append(values, fmt.Sprint(v))
		}
		fmt.Fprintf(b, "  %s,\n", strings.Join(values, ","))
	}
	b.WriteString("};\n")

	closeNamespace(b, o)
	return b.Bytes()
}
