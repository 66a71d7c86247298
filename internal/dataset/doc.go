// Package dataset loads machine-sensor readings from CSV or XLSX uploads
// and validates them against the fixed 14-column layout.
//
// Both formats are framed as a gota DataFrame with every column read as
// text. Numeric cells are then parsed individually so that a malformed value
// is reported with its row and column instead of silently becoming NaN.
//
// The package also generates deterministic synthetic fixtures used by tests
// and by the trainer command.
package dataset
