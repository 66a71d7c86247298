package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"predmaint/internal/dataset"
	apierrors "predmaint/internal/errors"
	"predmaint/internal/evaluation"
	"predmaint/internal/exporter"
	"predmaint/internal/infrastructure"
	"predmaint/internal/pipeline"
	"predmaint/internal/preprocessing"
	"predmaint/internal/session"
	ws "predmaint/internal/websocket"
)

// AnalysisSummary is what the analysis page shows for a session.
type AnalysisSummary struct {
	Trained     bool   `json:"trained"`
	DatasetName string `json:"dataset_name,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Failures    int    `json:"failures,omitempty"`

	Accuracy      string                      `json:"accuracy,omitempty"`
	ROCAUC        string                      `json:"roc_auc,omitempty"`
	AccuracyValue float64                     `json:"accuracy_value,omitempty"`
	ROCAUCValue   *float64                    `json:"roc_auc_value,omitempty"`
	Confusion     *evaluation.ConfusionMatrix `json:"confusion_matrix,omitempty"`
	TestSize      int                         `json:"test_size,omitempty"`

	TrainedAt  *time.Time `json:"trained_at,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`

	Features []string              `json:"features"`
	Defaults preprocessing.Reading `json:"defaults"`
}

// AnalysisService trains models from uploads and serves predictions.
type AnalysisService struct {
	store    *session.Store
	pipeline *pipeline.Pipeline
	hub      ws.SessionBroadcaster
	metrics  *infrastructure.Metrics
	logger   *slog.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(store *session.Store, p *pipeline.Pipeline, hub ws.SessionBroadcaster, metrics *infrastructure.Metrics, logger *slog.Logger) *AnalysisService {
	if metrics == nil {
		metrics = infrastructure.NoopMetrics()
	}
	return &AnalysisService{
		store:    store,
		pipeline: p,
		hub:      hub,
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "analysis")),
	}
}

// Upload parses the file, trains a model on it and stores the result in the
// session, replacing any earlier model. Failed uploads leave the session unchanged.
func (s *AnalysisService) Upload(ctx context.Context, sessionID, filename string, r io.Reader, size int64) (*AnalysisSummary, error) {
	s.metrics.UploadBytes.Record(ctx, size, metric.WithAttributes(attribute.String("format", fileFormat(filename))))

	table, err := dataset.Load(filename, r)
	if err != nil {
		s.logger.WarnContext(ctx, "dataset rejected",
			slog.String("session_id", sessionID),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		if mapped := toAPIError(err); mapped != err {
			return nil, mapped
		}
		return nil, apierrors.NewParsingError("Could not read the uploaded file", err)
	}

	start := time.Now()
	result, err := s.pipeline.Run(ctx, table)
	s.metrics.RecordTraining(ctx, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, toAPIError(err)
	}

	sess, err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Analysis = result
		sess.DatasetName = filename
		return nil
	})
	if err != nil {
		return nil, toAPIError(err)
	}

	summary := summarize(&sess)
	s.hub.BroadcastToSession(sessionID, ws.TypeAnalysisDone, summary)

	s.logger.InfoContext(ctx, "model trained for session",
		slog.String("session_id", sessionID),
		slog.String("filename", filename),
		slog.Int("rows", result.Rows),
		slog.String("accuracy", result.Report.FormatAccuracy()))
	return summary, nil
}

// Summary describes the session's current model, if any.
func (s *AnalysisService) Summary(sessionID string) (*AnalysisSummary, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return summarize(&sess), nil
}

// Predict scores one reading with the session's model.
func (s *AnalysisService) Predict(ctx context.Context, sessionID string, reading preprocessing.Reading) (*pipeline.Prediction, error) {
	result, err := s.result(sessionID)
	if err != nil {
		return nil, err
	}

	prediction, err := result.Predictor.Predict(reading)
	if err != nil {
		return nil, toAPIError(err)
	}

	s.metrics.PredictionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("label", prediction.Label)))
	s.logger.DebugContext(ctx, "prediction served",
		slog.String("session_id", sessionID),
		slog.Int("label", prediction.Label),
		slog.Float64("probability", prediction.Probability))
	return &prediction, nil
}

// Heatmap writes the confusion-matrix heatmap of the session's model as SVG.
func (s *AnalysisService) Heatmap(sessionID string, w io.Writer) error {
	result, err := s.result(sessionID)
	if err != nil {
		return err
	}
	return evaluation.RenderHeatmapSVG(w, result.Report.Confusion, "Confusion Matrix")
}

// Export writes the metrics and test-set predictions in format.
func (s *AnalysisService) Export(sessionID string, format exporter.Format, w io.Writer) error {
	result, err := s.result(sessionID)
	if err != nil {
		return err
	}
	if err := exporter.Write(w, format, result); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	return nil
}

func (s *AnalysisService) result(sessionID string) (*pipeline.Result, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, toAPIError(err)
	}
	if !sess.HasModel() {
		return nil, apierrors.ErrModelNotTrained
	}
	return sess.Analysis, nil
}

func summarize(sess *session.Session) *AnalysisSummary {
	summary := &AnalysisSummary{
		Features: preprocessing.FeatureNames,
		Defaults: preprocessing.DefaultReading(),
	}
	if !sess.HasModel() {
		return summary
	}

	result := sess.Analysis
	report := result.Report
	cm := report.Confusion
	trainedAt := result.TrainedAt

	summary.Trained = true
	summary.DatasetName = sess.DatasetName
	summary.Rows = result.Rows
	summary.Failures = result.Failures
	summary.Accuracy = report.FormatAccuracy()
	summary.ROCAUC = report.FormatROCAUC()
	summary.AccuracyValue = report.Accuracy
	summary.ROCAUCValue = report.ROCAUC
	summary.Confusion = &cm
	summary.TestSize = report.TestSize
	summary.TrainedAt = &trainedAt
	summary.DurationMS = result.Duration.Milliseconds()
	return summary
}

func fileFormat(filename string) string {
	if f, err := exporter.FormatFromPath(filename); err == nil {
		return string(f)
	}
	return "unknown"
}
