// pkg/api/annotation_v1.go
package api

import "geneannot-core/record"

// AnnotationV1 is the stable JSON schema of an annotation file.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type AnnotationV1 struct {
	Metadata   map[string]any  `json:"metadata"`
	Annotation []record.Record `json:"annotation"`
}
