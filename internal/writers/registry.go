// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"geneannot/pkg/api"
)

// Target is where a format writes: a stream, or a file path for formats
// that need one.
type Target struct {
	W    io.Writer
	Path string
}

// Format is one registered output format.
type Format struct {
	Name      string
	NeedsPath bool
	Write     func(t Target, ann *api.AnnotationV1) error
}

var formats = map[string]Format{}

// Register adds f, replacing any format of the same name.
func Register(f Format) { formats[f.Name] = f }

// Lookup returns the format called name.
func Lookup(name string) (Format, error) {
	f, ok := formats[name]
	if !ok {
		return Format{}, fmt.Errorf("unknown output format %q (have %v)", name, Names())
	}
	return f, nil
}

// Names lists registered formats, sorted.
func Names() []string {
	out := make([]string, 0, len(formats))
	for n := range formats {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Write dispatches ann to the named format.
func Write(name string, t Target, ann *api.AnnotationV1) error {
	f, err := Lookup(name)
	if err != nil {
		return err
	}
	if f.NeedsPath && (t.Path == "" || t.Path == "-") {
		return fmt.Errorf("format %q needs --output FILE", name)
	}
	if !f.NeedsPath && t.W == nil {
		return fmt.Errorf("format %q: no output stream", name)
	}
	return f.Write(t, ann)
}
