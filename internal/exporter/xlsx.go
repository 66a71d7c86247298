package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"predmaint/internal/pipeline"
)

// Sheet names of the workbook export.
const (
	SheetMetrics     = "Metrics"
	SheetPredictions = "Predictions"
)

// WriteXLSX writes a workbook with a metrics sheet and a predictions sheet.
func WriteXLSX(w io.Writer, result *pipeline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMetrics); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPredictions); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRows(f, SheetMetrics, SummaryHeaders, SummaryRecords(result.Report)); err != nil {
		return err
	}

	// Prediction cells keep numeric types so spreadsheets can sort and chart them.
	if err := setRow(f, SheetPredictions, 1, toCells(PredictionHeaders)); err != nil {
		return err
	}
	for i, r := range result.TestRows {
		cells := []interface{}{r.UDI, r.Type, r.Actual, r.Predicted, r.Probability}
		if err := setRow(f, SheetPredictions, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, headers []string, records [][]string) error {
	if err := setRow(f, sheet, 1, toCells(headers)); err != nil {
		return err
	}
	for i, record := range records {
		if err := setRow(f, sheet, i+2, toCells(record)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// Write encodes result in the given format.
func Write(w io.Writer, format Format, result *pipeline.Result) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, result, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, result)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile exports result to path, choosing the format from its extension.
func WriteFile(path string, result *pipeline.Result) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	slog.Info("Writing export file",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", len(result.TestRows)))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := Write(file, format, result); err != nil {
		return err
	}
	return file.Close()
}
