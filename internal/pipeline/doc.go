// Package pipeline turns an uploaded table into a trained model: it
// preprocesses the table, splits it into train and test rows, fits the
// forest and scores the held-out rows.
package pipeline
