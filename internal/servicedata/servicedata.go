// Package servicedata loads service availability tables keyed by county or
// city name.
package servicedata

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/fetcher"
	"github.com/sells-group/vaservices/internal/model"
)

// Options configures Load.
type Options struct {
	KeyColumn   string   // required header column holding the join key
	FlagColumns []string // flag columns to coerce; empty means every non-key column
}

// missing lists cell values treated as an absent flag, compared
// case-insensitively after trimming.
var missing = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"none": true,
}

// Load reads a CSV, TSV or XLSX availability table. Every row with a
// non-empty key becomes one AttributeRecord, in file order.
func Load(ctx context.Context, path string, opts Options) ([]model.AttributeRecord, error) {
	if opts.KeyColumn == "" {
		return nil, eris.New("servicedata: key column is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(model.ErrMissingFile, "servicedata: %s", path)
	}

	table, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "servicedata: %v", err)
	}

	keyIdx := table.Column(opts.KeyColumn)
	if keyIdx < 0 {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "servicedata: %s has no %q column", path, opts.KeyColumn)
	}

	flagCols, err := resolveFlagColumns(table, keyIdx, opts.FlagColumns)
	if err != nil {
		return nil, eris.Wrapf(err, "servicedata: %s", path)
	}

	records := make([]model.AttributeRecord, 0, len(table.Rows))
	var skipped int
	for i := range table.Rows {
		key := strings.TrimSpace(table.Cell(i, keyIdx))
		if key == "" {
			skipped++
			continue
		}

		flags := make(map[string]*int, len(flagCols))
		for name, j := range flagCols {
			v, err := ParseFlag(table.Cell(i, j))
			if err != nil {
				return nil, eris.Wrapf(err, "servicedata: %s row %d column %q", path, i+1, name)
			}
			flags[name] = v
		}

		records = append(records, model.AttributeRecord{Key: key, Flags: flags, Row: i + 1})
	}

	zap.L().Debug("servicedata: table loaded",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
		zap.Int("flag_columns", len(flagCols)),
	)

	return records, nil
}

func resolveFlagColumns(table *fetcher.Table, keyIdx int, names []string) (map[string]int, error) {
	cols := make(map[string]int)
	if len(names) == 0 {
		for j, h := range table.Header {
			if j == keyIdx || h == "" {
				continue
			}
			cols[h] = j
		}
		return cols, nil
	}

	for _, name := range names {
		j := table.Column(name)
		if j < 0 {
			return nil, eris.Wrapf(model.ErrUnparsableFile, "no %q column", name)
		}
		cols[name] = j
	}
	return cols, nil
}

// ParseFlag coerces a cell to a 0/1 flag. Empty and NaN-like cells yield
// nil. Integral floats such as "1.0" are accepted since pandas writes
// columns containing NaN as floats.
func ParseFlag(cell string) (*int, error) {
	s := strings.TrimSpace(cell)
	if missing[strings.ToLower(s)] {
		return nil, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil, eris.Wrapf(model.ErrTypeCoercion, "value %q is not an integer", cell)
		}
		n = int(f)
	}

	if n != 0 && n != 1 {
		return nil, eris.Wrapf(model.ErrTypeCoercion, "value %q is outside {0, 1}", cell)
	}
	return &n, nil
}
