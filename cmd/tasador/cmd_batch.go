package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/tasador/estimator"
)

type batchOptions struct {
	inputPath  string
	outputPath string
	outputDir  string
	stdout     bool
}

var batchOpts batchOptions

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Estimate every row of a CSV/TSV file and write a result CSV",
	Long: `batch reads a CSV/TSV whose header names every form field (Spanish aliases
such as superficie_total, ambientes or barrio are accepted) and writes the input
columns plus estimate, formatted, error_kind and error. A row that fails
validation gets an error instead of an estimate; the other rows still run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := batchOpts
		opts.inputPath = strings.TrimSpace(opts.inputPath)
		opts.outputPath = strings.TrimSpace(opts.outputPath)
		opts.outputDir = strings.TrimSpace(opts.outputDir)
		if opts.inputPath == "" {
			return errors.New("missing required --input file")
		}
		svc, err := estimator.NewService(cfg, log, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		defer svc.Close()
		return runBatch(cmd.Context(), svc, opts, cmd.OutOrStdout())
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOpts.inputPath, "input", "i", "", "CSV/TSV file with one property per row")
	batchCmd.Flags().StringVarP(&batchOpts.outputPath, "output", "o", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	batchCmd.Flags().StringVar(&batchOpts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	batchCmd.Flags().BoolVar(&batchOpts.stdout, "stdout", false, "Print a summary of every row")
}

func runBatch(ctx context.Context, svc *estimator.Service, opts batchOptions, out io.Writer) error {
	header, rows, err := estimator.ParseInputRows(opts.inputPath, svc.Schema(), estimator.InputParseOptions{})
	if err != nil {
		return fmt.Errorf("read input rows: %w", err)
	}
	if len(rows) == 0 {
		return errors.New("input file does not contain any rows")
	}

	start := time.Now()
	results, err := svc.PredictAll(ctx, rows, nil)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeResultCSV(outputPath, header, results); err != nil {
		return err
	}
	failed := estimator.Failed(results)
	batchLogger().Info("batch done",
		zap.String("input", opts.inputPath),
		zap.String("output", outputPath),
		zap.Int("rows", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(out, "%d filas estimadas (%d con error), resultados en %s\n", len(results)-failed, failed, outputPath)

	if opts.stdout {
		printSummary(out, results)
	}
	return nil
}

func batchLogger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultCSV(path string, header []string, results []estimator.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := estimator.WriteResultCSV(f, header, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(out io.Writer, results []estimator.BatchResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "==== Resultados ====")
	for _, res := range results {
		fmt.Fprintf(out, "línea %d. %s\n", res.Row.Line, summarizeRow(res.Row))
		if res.Err != nil {
			fmt.Fprintf(out, "    error: %s\n", estimator.UserMessage(res.Err))
			continue
		}
		fmt.Fprintf(out, "    %s\n", res.Prediction.Formatted)
	}
}

func summarizeRow(row estimator.InputRow) string {
	var parts []string
	for _, name := range []string{estimator.FieldPropertyType, estimator.FieldPlaceName, estimator.FieldSurfaceTotal} {
		if v, ok := row.Values[name].(string); ok && v != "" {
			if name == estimator.FieldSurfaceTotal {
				v += " m²"
			}
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "(fila vacía)"
	}
	return strings.Join(parts, ", ")
}
