package timeseries

import "fmt"

// NormalizeFactors slices a regression-factor panel to the window and rescales
// every non-date column from percentage units to decimals. No interpolation:
// gaps in factor data should surface as missing rather than be invented. The
// rescale is unconditional and must run exactly once per raw load — feeding an
// already-normalized panel back in divides it by 100 again.
func NormalizeFactors(t *Table, w Window) (*Table, error) {
	sliced, err := SliceRange(t, w)
	if err != nil {
		return nil, err
	}
	for i, r := range sliced.rows {
		for _, c := range sliced.valueColumns() {
			f, err := toFloat(r[c])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, c, err)
			}
			// Published factor data is off by a factor of 100.
			r[c] = f / 100
		}
	}
	return sliced, nil
}
