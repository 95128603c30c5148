package estimator

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictAllKeepsGoingAfterBadRow(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	writeFile(t, dir, "in.csv", "surface_total,surface_covered,rooms,bedrooms,bathrooms,property_type,state_name,place_name\n"+
		"60,50,2,1,1,Departamento,Capital Federal,Palermo\n"+
		"60,70,2,1,1,Departamento,Capital Federal,Palermo\n"+
		"85,75,3,2,2,Casa,Bs.As. G.B.A. Zona Norte,San Isidro\n")
	header, rows, err := ParseInputRows(filepath.Join(dir, "in.csv"), svc.Schema(), InputParseOptions{})
	require.NoError(t, err)

	var calls atomic.Int32
	results, err := svc.PredictAll(context.Background(), rows, func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, Failed(results))

	assert.NoError(t, results[0].Err)
	assert.Equal(t, ErrSurfaceMismatch, KindOf(results[1].Err))
	assert.Equal(t, "$ 86.418.000,00", results[2].Prediction.Formatted)

	var buf bytes.Buffer
	require.NoError(t, WriteResultCSV(&buf, header, results))
	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, append(header, ResultColumns...), lines[0])
	assert.Equal(t, "72672000.00", lines[1][8])
	assert.Equal(t, "$ 72.672.000,00", lines[1][9])
	assert.Equal(t, "SURFACE_MISMATCH", lines[2][10])
	assert.Equal(t, "La superficie cubierta no puede ser mayor que la superficie total.", lines[2][11])
}

func TestPredictAllCanceled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.PredictAll(ctx, []InputRow{{Values: map[string]any{}}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictAllRunsRowsInFileOrder(t *testing.T) {
	base := fixtureEstimator(t)
	var (
		mu       sync.Mutex
		seen     []float64
		inFlight atomic.Int32
	)
	est, err := NewEstimator(base.Schema(), base.builder, PredictorFunc{
		N: base.Manifest().Width(),
		Fn: func(ctx context.Context, vec FeatureVector) (float64, error) {
			assert.Equal(t, int32(1), inFlight.Add(1))
			defer inFlight.Add(-1)
			st := vec.Values[0]
			// Earlier rows sleep longer so any overlap reorders them.
			time.Sleep(time.Duration(200-st) * time.Millisecond / 10)
			mu.Lock()
			seen = append(seen, st)
			mu.Unlock()
			return st, nil
		},
	})
	require.NoError(t, err)
	svc := NewServiceWith(est, nil, nil)

	var rows []InputRow
	for _, st := range []string{"100", "120", "140", "160"} {
		rows = append(rows, InputRow{Values: map[string]any{
			FieldSurfaceTotal: st, FieldSurfaceCovered: "50", FieldRooms: "2", FieldBedrooms: "1",
			FieldBathrooms: "1", FieldPropertyType: "Departamento", FieldStateName: "Capital Federal",
			FieldPlaceName: "Palermo",
		}})
	}
	var progress []int
	results, err := svc.PredictAll(context.Background(), rows, func(done, total int) {
		progress = append(progress, done)
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []float64{100, 120, 140, 160}, seen)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, seen[i], res.Prediction.Value)
	}
}
