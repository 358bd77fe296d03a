package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportCountsWithoutVerbose(t *testing.T) {
	r := New(false)
	r.Addf(KindParse, "a.tsv", 3, "column count %d != %d", 2, 3)
	r.Addf(KindParse, "a.tsv", 4, "column count %d != %d", 1, 3)
	r.Addf(KindTransform, "", 0, "split")
	r.Parsed()
	r.Filtered()

	assert.Equal(t, 2, r.Skipped())
	assert.Equal(t, 1, r.Count(KindTransform))
	assert.Equal(t, 1, r.ParsedCount())
	assert.Equal(t, 1, r.FilteredCount())
	assert.Empty(t, r.Issues(), "issues only retained in verbose mode")
}

func TestReportVerboseKeepsIssues(t *testing.T) {
	r := New(true)
	r.Addf(KindParse, "a.tsv", 3, "bad")
	issues := r.Issues()
	if assert.Len(t, issues, 1) {
		assert.Equal(t, "parse: a.tsv:3: bad", issues[0].String())
	}
}

func TestNilReportIsInert(t *testing.T) {
	var r *Report
	r.Addf(KindParse, "", 0, "ignored")
	r.Parsed()
	assert.Zero(t, r.Skipped())
	assert.Nil(t, r.Issues())
}
