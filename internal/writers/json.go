// internal/writers/json.go
package writers

import (
	"bufio"
	"encoding/json"

	"geneannot/pkg/api"
)

func init() {
	Register(Format{Name: "json", Write: writeJSON})
	Register(Format{Name: "jsonl", Write: writeJSONL})
}

// writeJSON writes the whole document, indented.
func writeJSON(t Target, ann *api.AnnotationV1) error {
	bw := bufio.NewWriter(t.W)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ann); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil && !IsBrokenPipe(err) {
		return err
	}
	return nil
}

// writeJSONL writes one record per line. Metadata is not part of the
// stream.
func writeJSONL(t Target, ann *api.AnnotationV1) error {
	in, done := StartJSONL[any](t.W, 256)
	for _, r := range ann.Annotation {
		in <- r
	}
	close(in)
	return <-done
}
