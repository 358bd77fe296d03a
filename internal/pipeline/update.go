// internal/pipeline/update.go
package pipeline

import (
	"context"
	"maps"

	"go.uber.org/zap"

	"geneannot-core/record"

	"geneannot/internal/config"
)

// Strip returns a copy of ann without the fields and metadata of prefixes.
// A row left equal to the row before it is collapsed into it, which undoes
// the expansion of a one-to-many merge. A row left with no field other than
// cytoband is dropped. ann is not modified.
func Strip(ann *Annotation, prefixes []string) *Annotation {
	out := &Annotation{Metadata: maps.Clone(ann.Metadata)}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	for _, p := range prefixes {
		delete(out.Metadata, p)
	}

	var prev record.Record
	for _, rec := range ann.Records {
		kept := make(record.Record, len(rec))
		for name, v := range rec {
			if !owned(name, prefixes) {
				kept[name] = v
			}
		}
		if _, cyto := kept[record.CytobandField]; len(kept) == 0 || (cyto && len(kept) == 1) {
			continue
		}
		if prev != nil && kept.Equal(prev) {
			continue
		}
		out.Records = append(out.Records, kept)
		prev = kept
	}
	return out
}

func owned(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if record.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Update strips the removed and replaced prefixes from base, then folds the
// replacement and added sources onto the result.
func (p *Pipeline) Update(ctx context.Context, u config.Update, base *Annotation) (*Annotation, error) {
	if base == nil {
		base = &Annotation{}
	}
	stripped := Strip(base, u.Stripped())
	p.logger.Info("prefixes stripped",
		zap.Strings("prefixes", u.Stripped()),
		zap.Int("records_before", len(base.Records)),
		zap.Int("records_after", len(stripped.Records)))
	return p.Run(ctx, u.Sources(), stripped)
}
