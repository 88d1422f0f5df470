// Package fetcher reads local tabular inputs (CSV, XLSX) and unpacks ZIP
// archives of shapefiles.
package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a fully read tabular file. Rows exclude the header and may be
// shorter than the header when trailing cells are empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i, column j, or "" when the row is short.
func (t *Table) Cell(i, j int) string {
	row := t.Rows[i]
	if j < 0 || j >= len(row) {
		return ""
	}
	return row[j]
}

// ReadTable reads a .csv, .tsv or .xlsx file by extension. The first row is
// the header; header cells are trimmed.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		rows, err = readDelimited(ctx, path, ext)
	case ".xlsx":
		rows, err = ReadXLSX(path)
	default:
		return nil, eris.Errorf("fetcher: unsupported table format %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, eris.Errorf("fetcher: %s has no header row", path)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	return &Table{Header: header, Rows: rows[1:]}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readDelimited(ctx context.Context, path, ext string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	opts := CSVOptions{TrimSpace: true}
	if ext == ".tsv" {
		opts.Delimiter = '\t'
	}

	// Spreadsheet exports often start with a UTF-8 BOM.
	br := bufio.NewReader(f)
	if bom, _ := br.Peek(3); bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(3)
	}

	rowCh, errCh := StreamCSV(ctx, br, opts)
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", path)
		}
	}
	return rows, nil
}
