package exporter

import (
	"strconv"

	"predmaint/internal/evaluation"
	"predmaint/internal/pipeline"
)

// PredictionHeaders are the columns of the per-row prediction table.
var PredictionHeaders = []string{"UDI", "Type", "Actual", "Predicted", "Failure Probability"}

// SummaryHeaders are the columns of the metrics table.
var SummaryHeaders = []string{"Metric", "Value"}

// PredictionRecords formats scored test rows
func PredictionRecords(rows []pipeline.TestRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.UDI,
			r.Type,
			strconv.Itoa(r.Actual),
			strconv.Itoa(r.Predicted),
			strconv.FormatFloat(r.Probability, 'f', 4, 64),
		}
	}
	return records
}

// SummaryRecords formats the metrics of a report, one metric per row.
func SummaryRecords(report *evaluation.Report) [][]string {
	cm := report.Confusion
	return [][]string{
		{"Accuracy", report.FormatAccuracy()},
		{"ROC-AUC", report.FormatROCAUC()},
		{"Test Size", strconv.Itoa(report.TestSize)},
		{"True Negatives", strconv.Itoa(cm.TrueNegatives())},
		{"False Positives", strconv.Itoa(cm.FalsePositives())},
		{"False Negatives", strconv.Itoa(cm.FalseNegatives())},
		{"True Positives", strconv.Itoa(cm.TruePositives())},
	}
}
