package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geneannot-core/diag"
	"geneannot-core/record"
)

var valueCmp = cmp.Comparer(func(a, b record.Value) bool { return a.Equal(b) })

func TestSplitPicksIndexedPiece(t *testing.T) {
	tr := New(Options{Splits: []Split{{Name: "mid", Character: ":", Field: "raw", Index: 1}}})
	got, ok := tr.Transform(record.Record{"raw": record.Scalar("A:B:C")})
	require.True(t, ok)
	assert.Equal(t, "B", got["mid"].String())
}

func TestSplitMissingCharacterOmitsField(t *testing.T) {
	rep := diag.New(true)
	tr := New(Options{
		Splits: []Split{{Name: "mid", Character: ":", Field: "raw", Index: 1}},
		Report: rep,
	})
	got, ok := tr.Transform(record.Record{"raw": record.Scalar("ABC")})
	require.True(t, ok)
	_, has := got["mid"]
	assert.False(t, has)
	assert.Equal(t, 1, rep.Count(diag.KindTransform))
}

func TestFilterOutKeepsRecordsLackingField(t *testing.T) {
	rep := diag.New(false)
	tr := New(Options{FilterOut: map[string][]string{"status": {"deprecated"}}, Report: rep})

	_, ok := tr.Transform(record.Record{"id": record.Scalar("1"), "status": record.Scalar("deprecated")})
	assert.False(t, ok)
	_, ok = tr.Transform(record.Record{"id": record.Scalar("2"), "status": record.Scalar("live")})
	assert.True(t, ok)
	_, ok = tr.Transform(record.Record{"id": record.Scalar("3")})
	assert.True(t, ok)
	assert.Equal(t, 1, rep.FilteredCount())
}

func TestFilterInRequiresField(t *testing.T) {
	tr := New(Options{FilterIn: map[string][]string{"type": {"gene"}}})
	_, ok := tr.Transform(record.Record{"id": record.Scalar("1")})
	assert.False(t, ok)
	_, ok = tr.Transform(record.Record{"type": record.List("pseudo", "gene")})
	assert.True(t, ok, "any list element may match")
}

func TestCleanStripsAndDropsEmpty(t *testing.T) {
	tr := New(Options{Strip: ` "`, EmptyFields: []string{"", "NA"}})
	got, ok := tr.Transform(record.Record{
		"a": record.Scalar(` "x" `),
		"b": record.Scalar("NA"),
		"c": record.List("NA", " y", ""),
		"d": record.List("NA"),
	})
	require.True(t, ok)
	want := record.Record{"a": record.Scalar("x"), "c": record.List("y")}
	if diff := cmp.Diff(want, got, valueCmp); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestKeepThenDropAndPrefix(t *testing.T) {
	tr := New(Options{
		Prefix: "gene",
		Keep:   []string{"id", "name", "cytoband"},
		Drop:   []string{"name"},
	})
	got, ok := tr.Transform(record.Record{
		"id":       record.Scalar("1"),
		"name":     record.Scalar("TP53"),
		"cytoband": record.Scalar("17p13.1"),
		"other":    record.Scalar("z"),
	})
	require.True(t, ok)
	want := record.Record{"gene.id": record.Scalar("1"), "cytoband": record.Scalar("17p13.1")}
	if diff := cmp.Diff(want, got, valueCmp); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestReplacementAppliesToListElements(t *testing.T) {
	tr := New(Options{Replacements: map[string]map[string]string{"chrom": {"23": "X", "24": "Y"}}})
	got, ok := tr.Transform(record.Record{"chrom": record.List("23", "1")})
	require.True(t, ok)
	assert.Equal(t, []string{"X", "1"}, got["chrom"].Items())
}

func TestIdempotentWithoutPrefix(t *testing.T) {
	tr := New(Options{
		Keep:         []string{"a", "b"},
		Drop:         []string{"b"},
		Replacements: map[string]map[string]string{"a": {"old": "new"}},
	})
	in := record.Record{"a": record.Scalar("old"), "b": record.Scalar("1"), "c": record.Scalar("2")}
	once, ok := tr.Transform(in)
	require.True(t, ok)
	twice, ok := tr.Transform(once)
	require.True(t, ok)
	if diff := cmp.Diff(once, twice, valueCmp); diff != "" {
		t.Fatalf("second pass changed record:\n%s", diff)
	}
	assert.Equal(t, "old", in["a"].String(), "input untouched")
}

func TestRecordWithoutFieldsIsFiltered(t *testing.T) {
	rep := diag.New(false)
	tr := New(Options{Keep: []string{"x"}, Report: rep})
	_, ok := tr.Transform(record.Record{"y": record.Scalar("1")})
	assert.False(t, ok)
	assert.Equal(t, 1, rep.FilteredCount())
}
