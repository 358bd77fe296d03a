package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	s := Scalar("a")
	assert.False(t, s.IsList())
	assert.Equal(t, []string{"a"}, s.Items())

	l := List("a", "b")
	assert.True(t, l.IsList())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "a,b", l.String())
	assert.False(t, s.Equal(List("a")), "scalar and one-element list differ")
}

func TestValueAppendPromotes(t *testing.T) {
	v := Scalar("x").Append("y")
	require.True(t, v.IsList())
	assert.Equal(t, []string{"x", "y"}, v.Items())
	assert.Equal(t, []string{"x", "y", "z"}, v.Append("z").Items())
}

func TestValueJSON(t *testing.T) {
	rec := Record{"id": Scalar("ENSG1"), "tags": List("a", "b")}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ENSG1","tags":["a","b"]}`, string(b))

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, rec.Equal(back))
}

func TestUnionRightWins(t *testing.T) {
	left := Record{"gene": Scalar("X"), "note": Scalar("left")}
	right := Record{"note": Scalar("right"), "variant": Scalar("v1")}
	got := left.Union(right)
	assert.Equal(t, "right", got["note"].String())
	assert.Len(t, got, 3)
	assert.Equal(t, "left", left["note"].String(), "inputs untouched")
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "gene.id", Qualify("gene", "id"))
	assert.Equal(t, "cytoband", Qualify("gene", CytobandField))
	assert.Equal(t, "id", Qualify("", "id"))
	assert.True(t, HasPrefix("gene.id", "gene"))
	assert.False(t, HasPrefix("genes.id", "gene"))
}
