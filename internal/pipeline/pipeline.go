package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"predmaint/internal/dataset"
	"predmaint/internal/evaluation"
	"predmaint/internal/forest"
	"predmaint/internal/preprocessing"
)

// Options configures training.
type Options struct {
	Trees     int
	Seed      uint64
	TestRatio float64
	MaxDepth  int
}

// DefaultOptions returns an 80/20 split and a 100-tree forest, both seeded with 42.
func DefaultOptions() Options {
	return Options{Trees: 100, Seed: 42, TestRatio: 0.2}
}

// TestRow is one scored row of the test split.
type TestRow struct {
	UDI         string  `json:"udi"`
	Type        string  `json:"type"`
	Actual      int     `json:"actual"`
	Predicted   int     `json:"predicted"`
	Probability float64 `json:"probability"`
}

// Result is everything produced by one run over an uploaded table.
type Result struct {
	Forest    *forest.Forest
	Scaler    *preprocessing.StandardScaler
	Predictor *Predictor
	Split     Split
	Report    *evaluation.Report
	TestRows  []TestRow

	Rows      int
	Failures  int
	TrainedAt time.Time
	Duration  time.Duration
}

// Pipeline runs preprocessing, splitting, training and evaluation.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New creates a pipeline. A nil tracer uses the global provider.
func New(opts Options, logger *slog.Logger, tracer trace.Tracer) *Pipeline {
	if tracer == nil {
		tracer = otel.Tracer("predmaint/pipeline")
	}
	return &Pipeline{
		opts:   opts,
		logger: logger.With(slog.String("component", "pipeline")),
		tracer: tracer,
		now:    time.Now,
	}
}

// Options returns the training options
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run trains and evaluates a model on table. The context is checked between
// stages; a cancelled run returns ctx.Err().
func (p *Pipeline) Run(ctx context.Context, table *dataset.Table) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.Int("rows", table.Len())))
	defer span.End()

	start := p.now()

	ds, scaler, err := p.preprocess(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, split, err := p.train(ctx, ds)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, rows, err := p.evaluate(ctx, model, ds, split, table)
	if err != nil {
		return nil, err
	}

	predictor, err := NewPredictor(model, scaler)
	if err != nil {
		return nil, err
	}

	failures := 0
	for _, y := range ds.Target {
		failures += y
	}

	result := &Result{
		Forest:    model,
		Scaler:    scaler,
		Predictor: predictor,
		Split:     split,
		Report:    report,
		TestRows:  rows,
		Rows:      ds.Rows(),
		Failures:  failures,
		TrainedAt: start,
		Duration:  p.now().Sub(start),
	}

	p.logger.InfoContext(ctx, "model trained",
		slog.Int("rows", result.Rows),
		slog.Int("failures", failures),
		slog.Int("test_size", report.TestSize),
		slog.String("accuracy", report.FormatAccuracy()),
		slog.String("roc_auc", report.FormatROCAUC()),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

func (p *Pipeline) preprocess(ctx context.Context, table *dataset.Table) (*preprocessing.Dataset, *preprocessing.StandardScaler, error) {
	_, span := p.tracer.Start(ctx, "pipeline.preprocess")
	defer span.End()

	ds, scaler, err := preprocessing.Preprocess(table)
	if err != nil {
		return nil, nil, err
	}
	p.logger.DebugContext(ctx, "preprocessed dataset",
		slog.Any("dropped_columns", dataset.DroppedColumns),
		slog.Any("features", preprocessing.FeatureNames),
	)
	return ds, scaler, nil
}

func (p *Pipeline) train(ctx context.Context, ds *preprocessing.Dataset) (*forest.Forest, Split, error) {
	_, span := p.tracer.Start(ctx, "pipeline.train", trace.WithAttributes(attribute.Int("trees", p.opts.Trees)))
	defer span.End()

	split, err := TrainTestSplit(ds.Rows(), p.opts.TestRatio, p.opts.Seed)
	if err != nil {
		return nil, Split{}, err
	}

	X := subset(ds.Features, split.Train)
	y := make([]int, len(split.Train))
	for k, i := range split.Train {
		y[k] = ds.Target[i]
	}

	model := forest.New(
		forest.WithTrees(p.opts.Trees),
		forest.WithSeed(p.opts.Seed),
		forest.WithMaxDepth(p.opts.MaxDepth),
	)
	if err := model.Fit(X, y); err != nil {
		return nil, Split{}, fmt.Errorf("failed to fit forest: %w", err)
	}
	return model, split, nil
}

func (p *Pipeline) evaluate(ctx context.Context, model *forest.Forest, ds *preprocessing.Dataset, split Split, table *dataset.Table) (*evaluation.Report, []TestRow, error) {
	_, span := p.tracer.Start(ctx, "pipeline.evaluate")
	defer span.End()

	yTrue := make([]int, len(split.Test))
	yPred := make([]int, len(split.Test))
	scores := make([]float64, len(split.Test))
	rows := make([]TestRow, len(split.Test))

	for k, i := range split.Test {
		prob, err := model.PredictProba(ds.Row(i))
		if err != nil {
			return nil, nil, err
		}
		yTrue[k] = ds.Target[i]
		yPred[k] = forest.Label(prob)
		scores[k] = prob

		rec := table.Records[i]
		rows[k] = TestRow{UDI: rec.UDI, Type: rec.Type, Actual: yTrue[k], Predicted: yPred[k], Probability: prob}
	}

	report, err := evaluation.Evaluate(yTrue, yPred, scores)
	if err != nil {
		return nil, nil, err
	}
	return report, rows, nil
}

// subset copies the given rows of m into a new matrix.
func subset(m *mat.Dense, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for k, i := range rows {
		out.SetRow(k, m.RawRowView(i))
	}
	return out
}
