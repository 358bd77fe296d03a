package app

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geneannot/internal/appcore"
	"geneannot/internal/output"
)

type fixture struct {
	dir     string
	create  string
	add     string
	update  string
	ambig   string
	metrics string
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	genes := writeFile(t, dir, "genes.tsv", "id\tname\tchrom\tstart\tend\nG1\tTP53\tchr17\t7668402\t7687550\nG2\tBRCA1\tchr17\t43044295\t43125483\n")
	vars := writeFile(t, dir, "vars.csv", "id,gene\nV1,G1\nV2,G1\nV3,G7\n")
	xrefs := writeFile(t, dir, "xref.tsv", "gene\tuniprot\nG2\tP38398\n")
	ref := writeFile(t, dir, "cytoBand.txt",
		"chr17\t0\t25100000\tp13.1\tgneg\nchr17\t25100000\t83257441\tq21.31\tgpos\n")

	f := fixture{dir: dir, metrics: filepath.Join(dir, "run.prom")}
	f.create = writeFile(t, dir, "create.json", `[
  {"files": ["`+genes+`"], "prefix": "gene", "source": true,
   "parser": {"type": "tsv"},
   "cytoband": {"chromosome": "chrom", "start": "start", "end": "end", "reference_file": "`+ref+`"},
   "metadata": {"release": "110"}},
  {"files": ["`+vars+`"], "prefix": "var",
   "parser": {"type": "csv"},
   "merge": {"primary_fields": [["gene.id", "gene"]], "type": ["one", "many"]}}
]`)
	f.add = writeFile(t, dir, "add.yaml", `
- files: [`+xrefs+`]
  prefix: xref
  parser:
    type: tsv
  merge:
    primary_fields:
      - [gene.id, gene]
    type: [many, one]
`)
	vars2 := writeFile(t, dir, "vars2.csv", "id,gene\nV8,G2\n")
	f.update = writeFile(t, dir, "update.json", `{
  "replace": [
    {"files": ["`+vars2+`"], "prefix": "var", "parser": {"type": "csv"},
     "merge": {"primary_fields": [["gene.id", "gene"]], "type": ["one", "many"]}}
  ]
}`)
	f.ambig = writeFile(t, dir, "ambig.json", `[
  {"files": ["`+genes+`"], "prefix": "gene", "source": true, "parser": {"type": "tsv"}},
  {"files": ["`+vars+`"], "prefix": "var", "parser": {"type": "csv"},
   "merge": {"primary_fields": [["gene.id", "gene"]], "type": ["one", "one"]}}
]`)
	return f
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := Run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestCreateJSON(t *testing.T) {
	f := newFixture(t)
	code, out, errs := run(t, "-q", "--metrics-file", f.metrics, "create", f.create)
	require.Equal(t, appcore.ExitOK, code, errs)

	doc, err := output.Decode(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, doc.Annotation, 3)
	assert.Equal(t, "V1", doc.Annotation[0]["var.id"].String())
	assert.Equal(t, "17p13.1", doc.Annotation[0]["cytoband"].String())
	assert.Equal(t, "17q21.31", doc.Annotation[2]["cytoband"].String())
	assert.Equal(t, map[string]any{"release": "110"}, doc.Metadata["gene"])

	prom, err := os.ReadFile(f.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "geneannot_")
}

func TestCreateJSONL(t *testing.T) {
	f := newFixture(t)
	code, out, errs := run(t, "-q", "create", "--format", "jsonl", f.create)
	require.Equal(t, appcore.ExitOK, code, errs)

	sc := bufio.NewScanner(strings.NewReader(out))
	n := 0
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		assert.Contains(t, rec, "gene.id")
		n++
	}
	assert.Equal(t, 3, n)
}

func TestCreateSQLite(t *testing.T) {
	f := newFixture(t)
	db := filepath.Join(f.dir, "ann.db")
	code, _, errs := run(t, "-q", "create", "-f", "sqlite", "-o", db, f.create)
	require.Equal(t, appcore.ExitOK, code, errs)

	h, err := sql.Open("sqlite", db)
	require.NoError(t, err)
	defer h.Close()
	var n int
	require.NoError(t, h.QueryRow(`SELECT COUNT(*) FROM annotation`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestSQLiteNeedsOutputFile(t *testing.T) {
	f := newFixture(t)
	code, _, _ := run(t, "-q", "create", "-f", "sqlite", f.create)
	assert.Equal(t, appcore.ExitUsage, code)
}

func TestAddExtendsAnnotation(t *testing.T) {
	f := newFixture(t)
	base := filepath.Join(f.dir, "base.json")
	code, _, errs := run(t, "-q", "create", "-o", base, f.create)
	require.Equal(t, appcore.ExitOK, code, errs)

	code, out, errs := run(t, "-q", "add", base, f.add)
	require.Equal(t, appcore.ExitOK, code, errs)
	doc, err := output.Decode(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, doc.Annotation, 3)
	assert.Equal(t, "P38398", doc.Annotation[2]["xref.uniprot"].String())
	_, has := doc.Annotation[0]["xref.uniprot"]
	assert.False(t, has)
	assert.Contains(t, doc.Metadata, "gene")
}

func TestUpdateReplacesAndRemoves(t *testing.T) {
	f := newFixture(t)
	base := filepath.Join(f.dir, "base.json")
	code, _, errs := run(t, "-q", "create", "-o", base, f.create)
	require.Equal(t, appcore.ExitOK, code, errs)

	code, out, errs := run(t, "-q", "update", base, f.update)
	require.Equal(t, appcore.ExitOK, code, errs)
	doc, err := output.Decode(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, doc.Annotation, 2, "the two G1 rows collapse once var is replaced")
	_, has := doc.Annotation[0]["var.id"]
	assert.False(t, has)
	assert.Equal(t, "V8", doc.Annotation[1]["var.id"].String())
	assert.Equal(t, "17p13.1", doc.Annotation[0]["cytoband"].String())

	remove := writeFile(t, f.dir, "remove.yaml", "remove: [var]\n")
	code, out, errs = run(t, "-q", "update", base, remove)
	require.Equal(t, appcore.ExitOK, code, errs)
	doc, err = output.Decode(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, doc.Annotation, 2)
	assert.Contains(t, doc.Metadata, "gene")

	empty := writeFile(t, f.dir, "empty.json", "{}")
	code, _, _ = run(t, "-q", "update", base, empty)
	assert.Equal(t, appcore.ExitUsage, code)
}

func TestParsePreview(t *testing.T) {
	f := newFixture(t)
	code, out, errs := run(t, "-q", "parse", f.create)
	require.Equal(t, appcore.ExitOK, code, errs)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5, "2 genes and 3 variants")
	assert.Contains(t, lines[0], `"gene.name":"TP53"`)
}

func TestExitCodes(t *testing.T) {
	f := newFixture(t)
	bad := writeFile(t, f.dir, "bad.json", `[{"prefix": "x"}]`)
	cases := []struct {
		name string
		args []string
		want int
	}{
		{"no args", []string{}, appcore.ExitOK},
		{"version", []string{"--version"}, appcore.ExitOK},
		{"unknown command", []string{"frobnicate"}, appcore.ExitUsage},
		{"unknown flag", []string{"create", "--nope", f.create}, appcore.ExitUsage},
		{"bad format", []string{"create", "-f", "xml", f.create}, appcore.ExitUsage},
		{"invalid config", []string{"-q", "create", bad}, appcore.ExitUsage},
		{"missing config", []string{"-q", "create", filepath.Join(f.dir, "nope.json")}, appcore.ExitUsage},
		{"ambiguous merge", []string{"-q", "create", f.ambig}, appcore.ExitAmbiguous},
		{"missing annotation", []string{"-q", "add", filepath.Join(f.dir, "nope.json"), f.add}, appcore.ExitRuntime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, errs := run(t, tc.args...)
			assert.Equal(t, tc.want, code, errs)
		})
	}
}

func TestCancelledRunExits130(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	code := RunContext(ctx, []string{"-q", "create", f.create}, &out, &errb)
	assert.Equal(t, appcore.ExitCancelled, code)
	assert.Empty(t, out.String())
}
