//go:build linux || darwin

package parse

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geneannot-core/record"
)

func TestFilesReadsFIFOWithoutLosingHeader(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "genes.tsv")
	require.NoError(t, syscall.Mkfifo(fifo, 0o600))

	written := make(chan error, 1)
	go func() {
		fh, err := os.OpenFile(fifo, os.O_WRONLY, 0)
		if err != nil {
			written <- err
			return
		}
		_, err = fh.WriteString("id\tname\nG1\tTP53\n")
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
		written <- err
	}()

	p, err := New(TSV, Params{}, nil)
	require.NoError(t, err)
	var got record.Set
	err = Files(context.Background(), p, []string{fifo}, func(r record.Record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-written)

	require.Len(t, got, 1)
	assert.Equal(t, "G1", got[0]["id"].String())
	assert.Equal(t, "TP53", got[0]["name"].String())
}
