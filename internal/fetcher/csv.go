package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures StreamCSV.
type CSVOptions struct {
	Delimiter rune // 0 means ','
	TrimSpace bool // trim every cell
}

// StreamCSV parses delimited rows from r on a goroutine. Rows may differ in
// length. The row channel closes at EOF; at most one error is sent on the
// error channel, which closes after the row channel.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rows := make(chan []string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(rows)

		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		if opts.Delimiter != 0 {
			cr.Comma = opts.Delimiter
		}

		for line := 1; ; line++ {
			if err := ctx.Err(); err != nil {
				errs <- eris.Wrap(err, "csv: context cancelled")
				return
			}

			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- eris.Wrapf(err, "csv: read record %d", line)
				return
			}
			if opts.TrimSpace {
				for i := range rec {
					rec[i] = strings.TrimSpace(rec[i])
				}
			}

			select {
			case rows <- rec:
			case <-ctx.Done():
				errs <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rows, errs
}
