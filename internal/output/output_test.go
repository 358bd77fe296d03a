package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geneannot-core/record"

	"geneannot/internal/writers"
)

func TestRoundTripThroughJSONWriter(t *testing.T) {
	recs := record.Set{{"gene.id": record.Scalar("G1"), "gene.syn": record.List("A", "B")}}
	doc := ToAPI(map[string]any{"gene": "v1"}, recs)

	var buf bytes.Buffer
	require.NoError(t, writers.Write("json", writers.Target{W: &buf}, doc))

	path := filepath.Join(t.TempDir(), "ann.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	back, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, back.Annotation, 1)
	assert.True(t, recs[0].Equal(back.Annotation[0]))
	assert.Equal(t, "v1", back.Metadata["gene"])
}

func TestToAPIEmpty(t *testing.T) {
	doc := ToAPI(nil, nil)
	assert.NotNil(t, doc.Metadata)
	assert.NotNil(t, doc.Annotation)
}

func TestDecodeRejectsOtherDocuments(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"products": []}`))
	assert.Error(t, err)
	_, err = Decode(strings.NewReader(`{"annotation": [{"a": 1}]}`))
	assert.Error(t, err, "values must be strings or string arrays")
}
