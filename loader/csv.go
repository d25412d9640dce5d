package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Supported input encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf-8"
)

// csvTable is an opened CSV file: its header and a lazy sequence of data
// rows.
type csvTable struct {
	path   string
	header []string
	reader *csv.Reader
	closer io.Closer
}

// openCSV opens path through the loader's opener, decodes it from the
// configured encoding and reads the header row.
func (l *Loader) openCSV(ctx context.Context, path string) (*csvTable, error) {
	rc, err := l.opts.Opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}

	var r io.Reader = rc
	if strings.EqualFold(l.opts.Encoding, EncodingLatin1) {
		r = transform.NewReader(rc, charmap.ISO8859_1.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		header, err = nil, nil
	}
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("csv %s: failed to read header: %w", path, err)
	}

	return &csvTable{path: path, header: header, reader: cr, closer: rc}, nil
}

// Rows yields each data row. The sequence ends at EOF or after yielding the
// first read error.
func (t *csvTable) Rows() iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for {
			row, err := t.reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("csv %s: %w", t.path, err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (t *csvTable) Close() error {
	return t.closer.Close()
}
