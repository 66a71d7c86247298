package http

import (
	"context"
	"io"

	"predmaint/internal/exporter"
	"predmaint/internal/pipeline"
	"predmaint/internal/preprocessing"
	"predmaint/internal/services"
)

// AnalysisServiceInterface defines the training and prediction operations
// used by the handlers
type AnalysisServiceInterface interface {
	Upload(ctx context.Context, sessionID, filename string, r io.Reader, size int64) (*services.AnalysisSummary, error)
	Summary(sessionID string) (*services.AnalysisSummary, error)
	Predict(ctx context.Context, sessionID string, reading preprocessing.Reading) (*pipeline.Prediction, error)
	Heatmap(sessionID string, w io.Writer) error
	Export(sessionID string, format exporter.Format, w io.Writer) error
}

// PresentationServiceInterface defines the slide viewer operations used by
// the handlers
type PresentationServiceInterface interface {
	State(sessionID string) (*services.SlideView, error)
	Navigate(ctx context.Context, sessionID, action string) (*services.SlideView, error)
}
