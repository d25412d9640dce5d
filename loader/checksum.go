package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedChecksumLine is returned for a manifest line without both a
// checksum and a path.
var ErrMalformedChecksumLine = errors.New("malformed checksum line")

// ChecksumIndex maps a file path, with leading slashes stripped, to its
// checksum.
type ChecksumIndex map[string]string

// Lookup returns the checksum for path, normalised the same way as the
// manifest paths.
func (idx ChecksumIndex) Lookup(path string) (string, bool) {
	sum, ok := idx[normalizeChecksumPath(path)]
	return sum, ok
}

func normalizeChecksumPath(path string) string {
	return strings.TrimLeft(path, "/")
}

// ReadChecksums parses a manifest of "<checksum> <path>" lines. A path listed
// twice keeps its last checksum.
func ReadChecksums(r io.Reader) (ChecksumIndex, error) {
	idx := ChecksumIndex{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: %w: %q", lineNum, ErrMalformedChecksumLine, scanner.Text())
		}

		idx[normalizeChecksumPath(fields[1])] = fields[0]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading checksums: %w", err)
	}

	return idx, nil
}

// loadChecksums opens and parses the manifest at path.
func (l *Loader) loadChecksums(ctx context.Context, path string) (ChecksumIndex, error) {
	rc, err := l.opts.Opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("checksums: %w", err)
	}
	defer rc.Close()

	idx, err := ReadChecksums(rc)
	if err != nil {
		return nil, fmt.Errorf("checksums %s: %w", path, err)
	}

	l.logger.WithField("files", len(idx)).Info("loaded checksums")

	return idx, nil
}
