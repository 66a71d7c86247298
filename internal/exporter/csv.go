package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"predmaint/internal/pipeline"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the metrics block, a blank line and the prediction table.
func WriteCSV(w io.Writer, result *pipeline.Result, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	rows := [][]string{SummaryHeaders}
	rows = append(rows, SummaryRecords(result.Report)...)
	rows = append(rows, []string{})
	rows = append(rows, PredictionHeaders)
	rows = append(rows, PredictionRecords(result.TestRows)...)

	for i, record := range rows {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
