// Package evaluation scores a classifier on a held-out split: accuracy,
// ROC-AUC and a 2x2 confusion matrix, plus an SVG heatmap of that matrix.
//
// ROC-AUC is undefined when the split holds one class only; Evaluate then
// leaves Report.ROCAUC nil instead of failing.
package evaluation
