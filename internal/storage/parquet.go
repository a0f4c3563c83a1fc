package storage

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/timeseries"
)

// decodeParquet decodes a parquet snapshot into a table, preserving the
// schema's column order.
func decodeParquet(data []byte) (*timeseries.Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	fields := f.Schema().Fields()
	cols := make([]string, len(fields))
	for i, fld := range fields {
		cols[i] = fld.Name()
	}

	rows, err := parquet.Read[map[string]any](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}

	return tableFromRows(cols, rows), nil
}

// tableFromRows builds a table from generic row maps, normalizing cell types
// the parquet decoder produces ([]byte strings in particular).
func tableFromRows(cols []string, rows []map[string]any) *timeseries.Table {
	t := timeseries.NewTable(cols...)
	for _, r := range rows {
		row := make(timeseries.Row, len(cols))
		for _, c := range cols {
			row[c] = normalizeCell(r[c])
		}
		t.Append(row)
	}
	return t
}

func normalizeCell(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
