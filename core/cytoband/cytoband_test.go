package cytoband

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geneannot-core/diag"
	"geneannot-core/record"
)

const ucsc = "chr1\t0\t2300000\tp36.33\tgneg\n" +
	"chr1\t2300000\t5300000\tp36.32\tgpos25\n" +
	"chr1\t5300000\t7100000\tp36.31\tgneg\n" +
	"chrX\t0\t4400000\tp22.33\tgneg\n"

func TestZeroBasedQueryAtOrigin(t *testing.T) {
	tab := NewTable(map[string][]Band{"1": {{Start: 1, End: 100, Label: "1p36.33"}}})
	got, ok := tab.Resolve("1", 0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, "1p36.33", got)
}

func TestReadConvertsToOneBased(t *testing.T) {
	tab, err := Read(strings.NewReader(ucsc))
	require.NoError(t, err)
	assert.Equal(t, 2, tab.Chromosomes())

	got, ok := tab.Resolve("chr1", 2300000, 2300000, 1)
	require.True(t, ok)
	assert.Equal(t, "1p36.33", got, "1-based 2300000 is the last base of p36.33")

	got, ok = tab.Resolve("1", 2300000, 2300000, 0)
	require.True(t, ok)
	assert.Equal(t, "1p36.32", got, "0-based 2300000 is 1-based 2300001")
}

func TestSpanningQueryJoinsLabels(t *testing.T) {
	tab, err := Read(strings.NewReader(ucsc))
	require.NoError(t, err)
	got, ok := tab.Resolve("1", 2000000, 6000000, 1)
	require.True(t, ok)
	assert.Equal(t, "1p36.33-1p36.32-1p36.31", got)
}

func TestNoOverlap(t *testing.T) {
	tab, err := Read(strings.NewReader(ucsc))
	require.NoError(t, err)
	_, ok := tab.Resolve("1", 9000000, 9000001, 1)
	assert.False(t, ok)
	_, ok = tab.Resolve("7", 1, 1, 1)
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	var re *ReferenceError
	require.True(t, errors.As(err, &re))

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("chr1\tx\t10\tp1\n"), 0o644))
	_, err = Load(bad)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Line)
	assert.Equal(t, bad, re.Path)
}

func TestAnnotator(t *testing.T) {
	tab, err := Read(strings.NewReader(ucsc))
	require.NoError(t, err)
	rep := diag.New(false)
	a := &Annotator{
		Spec:   Spec{Chromosome: "g.chrom", Start: "g.start", End: "g.end", PositionIndex: 1},
		Table:  tab,
		Report: rep,
	}
	rec := record.Record{"g.chrom": record.Scalar("X"), "g.start": record.Scalar("10"), "g.end": record.Scalar("20")}
	a.Annotate(rec)
	assert.Equal(t, "Xp22.33", rec[record.CytobandField].String())

	partial := record.Record{"g.chrom": record.Scalar("X")}
	a.Annotate(partial)
	_, has := partial[record.CytobandField]
	assert.False(t, has)
	assert.Equal(t, 1, rep.Count(diag.KindCytoband))
}

func TestLoadGzipWithoutSuffix(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(ucsc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "cytoBand.txt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	tab, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tab.Chromosomes())
	label, ok := tab.Resolve("chrX", 10, 20, 1)
	require.True(t, ok)
	assert.Equal(t, "Xp22.33", label)
}
