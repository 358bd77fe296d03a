// core/parse/open.go
package parse

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a reader for path: "-" is stdin, gzip is detected by magic
// number or by the .gz suffix. The input is never seeked, so pipes and
// FIFOs work.
func Open(path string) (io.ReadCloser, error) {
	var (
		src    io.Reader
		closer io.Closer
	)
	if path == "-" {
		src, closer = os.Stdin, io.NopCloser(os.Stdin)
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		src, closer = fh, fh
	}
	br := bufio.NewReaderSize(src, 64<<10)
	sig, _ := br.Peek(2)
	if (len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, closer}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{closer}}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// scanLines calls fn for each line (0-based index, without the trailing
// newline or carriage return). Cancellation is checked between lines.
func scanLines(ctx context.Context, r io.Reader, fn func(idx int, line string) error) error {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // long GenBank/XML-ish lines
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	idx := 0
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b := sc.Bytes()
		if idx == 0 {
			b = bytes.TrimPrefix(b, utf8BOM)
		}
		b = bytes.TrimSuffix(b, []byte{'\r'})
		if err := fn(idx, string(b)); err != nil {
			return err
		}
		idx++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}
