package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yashubustudio/tasador/estimator"
)

func testConfig() estimator.Config {
	c := estimator.Config{Artifacts: estimator.ArtifactsConfig{Dir: filepath.Join("..", "..", "estimator", "testdata", "artifacts")}}
	c.ApplyDefaults()
	c.Encoding.Strict = true
	return c
}

func newTestService(t *testing.T) *estimator.Service {
	t.Helper()
	svc, err := estimator.NewService(testConfig(), zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func palermoValues() map[string]any {
	return map[string]any{
		estimator.FieldSurfaceTotal:   "60",
		estimator.FieldSurfaceCovered: "50",
		estimator.FieldRooms:          "2",
		estimator.FieldBedrooms:       "1",
		estimator.FieldBathrooms:      "1",
		estimator.FieldPropertyType:   "Departamento",
		estimator.FieldStateName:      "Capital Federal",
		estimator.FieldPlaceName:      "Palermo",
	}
}

func TestRunPredictText(t *testing.T) {
	svc := newTestService(t)
	var out bytes.Buffer
	require.NoError(t, runPredict(context.Background(), svc, palermoValues(), false, &out))
	assert.Equal(t, "Precio estimado (ARS): $ 72.672.000,00\n", out.String())
}

func TestRunPredictJSONError(t *testing.T) {
	svc := newTestService(t)
	values := palermoValues()
	values[estimator.FieldBedrooms] = "3"

	var out bytes.Buffer
	err := runPredict(context.Background(), svc, values, true, &out)
	require.Error(t, err)

	var res predictOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, string(estimator.ErrBedroomsExceedRooms), res.Kind)
	assert.Equal(t, estimator.FieldBedrooms, res.Field)
	assert.Empty(t, res.Formatted)
}

func TestRunPredictTextErrorIsUserMessage(t *testing.T) {
	svc := newTestService(t)
	values := palermoValues()
	values[estimator.FieldSurfaceCovered] = "80"

	err := runPredict(context.Background(), svc, values, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "La superficie cubierta no puede ser mayor que la superficie total.", err.Error())
}

func TestFlagValuesStartFromDefaults(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, predictCmd.Flags().Set("place", "San Isidro"))
	t.Cleanup(func() {
		f := predictCmd.Flags().Lookup("place")
		_ = f.Value.Set("")
		f.Changed = false
	})

	values := flagValues(predictCmd, svc.Schema())
	assert.Equal(t, "San Isidro", values[estimator.FieldPlaceName])
	assert.Equal(t, 60.0, values[estimator.FieldSurfaceTotal])
	assert.Equal(t, "Casa", values[estimator.FieldPropertyType])
}

func TestRunBatchWritesResults(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"superficie_total,superficie_cubierta,ambientes,dormitorios,baños,tipo,zona,barrio\n"+
			"60,50,2,1,1,Departamento,Capital Federal,Palermo\n"+
			"60,50,1,1,3,Departamento,Capital Federal,Palermo\n"), 0o644))
	output := filepath.Join(dir, "out", "result.csv")

	var out bytes.Buffer
	err := runBatch(context.Background(), svc, batchOptions{inputPath: input, outputPath: output, stdout: true}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1 filas estimadas (1 con error)")
	assert.Contains(t, out.String(), "línea 2. Departamento, Palermo, 60 m²")
	assert.Contains(t, out.String(), "$ 72.672.000,00")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, estimator.ResultColumns, rows[0][len(rows[0])-len(estimator.ResultColumns):])
	assert.Equal(t, string(estimator.ErrBathroomsExceedRooms), rows[2][len(rows[2])-2])
}

func TestRunBatchRejectsEmptyInput(t *testing.T) {
	svc := newTestService(t)
	input := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("superficie_total,superficie_cubierta,ambientes,dormitorios,baños,tipo,zona,barrio\n"), 0o644))

	err := runBatch(context.Background(), svc, batchOptions{inputPath: input, outputDir: t.TempDir()}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain any rows")
}

func TestResolveOutputPathDefaultsToTimestampedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")
	path, err := resolveOutputPath("", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "result_"))
	assert.Equal(t, ".csv", filepath.Ext(path))
	assert.DirExists(t, dir)
}

func TestRunCheck(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runCheck(testConfig(), &out))
	s := out.String()
	assert.Contains(t, s, "columnas: 11")
	assert.Contains(t, s, "property_type: 3 categorías, base Casa")
	assert.Contains(t, s, "place_name: 19 etiquetas")
	assert.Contains(t, s, "estado: OK")
}

func TestRunCheckMissingArtifacts(t *testing.T) {
	c := testConfig()
	c.Artifacts.Dir = t.TempDir()
	var out bytes.Buffer
	require.Error(t, runCheck(c, &out))
	assert.Contains(t, out.String(), "columns.json")
}
