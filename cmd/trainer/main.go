// Command trainer generates machine datasets and trains the failure model
// offline, printing the same metrics the dashboard shows.
//
//	trainer -generate data.csv -rows 10000
//	trainer -train data.csv -export results.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"predmaint/internal/config"
	"predmaint/internal/dataset"
	"predmaint/internal/exporter"
	"predmaint/internal/infrastructure"
	"predmaint/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := infrastructure.NewLogger(os.Stderr, "info")
	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Error("trainer failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	generate     string
	rows         int
	failureRatio float64
	separable    bool

	train  string
	export string
	trees  int
	seed   uint64
	ratio  float64
	depth  int
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("trainer", flag.ContinueOnError)
	fs.SetOutput(output)

	o := &options{}
	fs.StringVar(&o.generate, "generate", "", "write a synthetic dataset to this .csv or .xlsx path")
	fs.IntVar(&o.rows, "rows", 10000, "rows to generate")
	fs.Float64Var(&o.failureRatio, "failure-ratio", 0.034, "share of generated rows labelled as failures")
	fs.BoolVar(&o.separable, "separable", false, "generate classes a forest can separate perfectly")

	fs.StringVar(&o.train, "train", "", "dataset to train on (.csv or .xlsx)")
	fs.StringVar(&o.export, "export", "", "write metrics and test predictions to this .csv or .xlsx path")
	fs.IntVar(&o.trees, "trees", config.DefaultTrees, "trees in the forest")
	fs.Uint64Var(&o.seed, "seed", config.DefaultSeed, "seed for generation, the split and the forest")
	fs.Float64Var(&o.ratio, "test-ratio", config.DefaultTestRatio, "share of rows held out for testing")
	fs.IntVar(&o.depth, "max-depth", 0, "maximum tree depth, 0 for unlimited")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.generate == "" && o.train == "" {
		fs.Usage()
		return nil, errors.New("nothing to do: pass -generate and/or -train")
	}
	if o.export != "" && o.train == "" {
		return nil, errors.New("-export requires -train")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	o, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	if o.generate != "" {
		if err := generate(o, logger); err != nil {
			return err
		}
	}
	if o.train == "" {
		return nil
	}

	result, err := train(ctx, o, logger)
	if err != nil {
		return err
	}
	printReport(stdout, result)

	if o.export != "" {
		if err := exporter.WriteFile(o.export, result); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Results written to %s\n", o.export)
	}
	return nil
}

func generate(o *options, logger *slog.Logger) error {
	format, err := exporter.FormatFromPath(o.generate)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(o.generate), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	records := dataset.Synthesize(dataset.SynthesizeOptions{
		Rows:         o.rows,
		FailureRatio: o.failureRatio,
		Seed:         o.seed,
		Separable:    o.separable,
	})

	f, err := os.Create(o.generate)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	switch format {
	case exporter.FormatXLSX:
		err = dataset.WriteXLSX(f, records)
	default:
		err = dataset.WriteCSV(f, records)
	}
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	logger.Info("dataset generated",
		slog.String("path", o.generate),
		slog.Int("rows", len(records)),
		slog.Bool("separable", o.separable))
	return f.Close()
}

func train(ctx context.Context, o *options, logger *slog.Logger) (*pipeline.Result, error) {
	f, err := os.Open(o.train)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	table, err := dataset.Load(filepath.Base(o.train), f)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(pipeline.Options{
		Trees:     o.trees,
		Seed:      o.seed,
		TestRatio: o.ratio,
		MaxDepth:  o.depth,
	}, logger, nil)
	return p.Run(ctx, table)
}

func printReport(w io.Writer, result *pipeline.Result) {
	report := result.Report
	cm := report.Confusion

	fmt.Fprintf(w, "Rows:      %d (%d failures)\n", result.Rows, result.Failures)
	fmt.Fprintf(w, "Test size: %d\n", report.TestSize)
	fmt.Fprintf(w, "Accuracy:  %s\n", report.FormatAccuracy())
	fmt.Fprintf(w, "ROC-AUC:   %s\n", report.FormatROCAUC())
	fmt.Fprintln(w, "Confusion matrix (rows actual, columns predicted):")
	fmt.Fprintf(w, "  %6d %6d\n", cm.TrueNegatives(), cm.FalsePositives())
	fmt.Fprintf(w, "  %6d %6d\n", cm.FalseNegatives(), cm.TruePositives())
}
