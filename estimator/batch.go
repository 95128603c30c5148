package estimator

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// BatchResult pairs an input row with its outcome. Err holds a per-row
// failure; other rows are unaffected.
type BatchResult struct {
	Row        InputRow
	Prediction Prediction
	Err        error
}

// ResultColumns are appended to the input header in result files.
var ResultColumns = []string{"estimate", "formatted", "error_kind", "error"}

// PredictAll predicts every row in input order, one row at a time.
// progress, when set, is called after each row. The returned error is
// non-nil only when ctx is canceled.
func (s *Service) PredictAll(ctx context.Context, rows []InputRow, progress func(done, total int)) ([]BatchResult, error) {
	results := make([]BatchResult, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.PredictNamed(ctx, row.Values)
		results[i] = BatchResult{Row: row, Prediction: p, Err: err}
		if progress != nil {
			progress(i+1, len(rows))
		}
	}
	return results, nil
}

// Failed counts rows that did not predict.
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// WriteResultCSV writes the input header plus ResultColumns, then one line
// per result with the input cells and the outcome.
func WriteResultCSV(w io.Writer, header []string, results []BatchResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append(cloneStrings(header), ResultColumns...)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, res := range results {
		cells := make([]string, len(header), len(header)+len(ResultColumns))
		copy(cells, res.Row.Cells)
		if res.Err != nil {
			cells = append(cells, "", "", string(KindOf(res.Err)), UserMessage(res.Err))
		} else {
			cells = append(cells,
				strconv.FormatFloat(res.Prediction.Value, 'f', 2, 64),
				res.Prediction.Formatted, "", "")
		}
		if err := writer.Write(cells); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}
