// Package exporter writes evaluation results and test-set predictions as
// CSV or XLSX files.
package exporter
