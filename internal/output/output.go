// Package output converts between in-memory annotations and the v1 wire
// schema.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"geneannot-core/parse"
	"geneannot-core/record"

	"geneannot/pkg/api"
)

// ToAPI builds the wire document. A nil metadata map becomes empty and a
// nil record set becomes an empty array.
func ToAPI(metadata map[string]any, recs record.Set) *api.AnnotationV1 {
	if metadata == nil {
		metadata = map[string]any{}
	}
	out := make([]record.Record, len(recs))
	copy(out, recs)
	return &api.AnnotationV1{Metadata: metadata, Annotation: out}
}

// Decode reads an annotation document.
func Decode(r io.Reader) (*api.AnnotationV1, error) {
	var doc api.AnnotationV1
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("annotation: %w", err)
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	return &doc, nil
}

// ReadFile reads an annotation file written by the json format; gzip and
// "-" are accepted.
func ReadFile(path string) (*api.AnnotationV1, error) {
	rc, err := parse.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	doc, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
