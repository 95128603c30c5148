package app

import (
	"context"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yashubustudio/tasador/estimator"
)

func newTestService(t *testing.T) *estimator.Service {
	t.Helper()
	cfg := estimator.Config{
		Artifacts: estimator.ArtifactsConfig{Dir: "../../estimator/testdata/artifacts"},
		Encoding:  estimator.EncodingConfig{Strict: true},
	}
	cfg.ApplyDefaults()
	svc, err := estimator.NewService(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestFieldInputs(t *testing.T) {
	test.NewTempApp(t)
	schema := newTestService(t).Schema()

	total, _ := schema.Field(estimator.FieldSurfaceTotal)
	in := newFieldInput(total)
	assert.Equal(t, "60", in.value())
	in.set("abc")
	assert.Equal(t, "abc", in.value())
	in.reset()
	assert.Equal(t, "60", in.value())

	rooms, _ := schema.Field(estimator.FieldRooms)
	in = newFieldInput(rooms)
	assert.Equal(t, 2.0, in.value())
	in.set(4.0)
	assert.Equal(t, 4.0, in.value())

	place, _ := schema.Field(estimator.FieldPlaceName)
	in = newFieldInput(place)
	assert.Equal(t, "Palermo", in.value())
	in.set(nil)
	assert.Equal(t, "", in.value())
}

func TestFormDefaultsAndExamplesPredict(t *testing.T) {
	a := test.NewTempApp(t)
	svc := newTestService(t)
	u := buildUI(a, svc, zap.NewNop())

	_, err := svc.Predict(context.Background(), u.rawInputs())
	require.NoError(t, err)

	u.loadExample(estimator.Examples[0])
	p, err := svc.Predict(context.Background(), u.rawInputs())
	require.NoError(t, err)
	assert.Equal(t, "$ 72.672.000,00", p.Formatted)

	u.showResult(p)
	assert.Equal(t, "$ 72.672.000,00", u.resultValue.Text)
	assert.False(t, u.errorLabel.Visible())

	u.onClear()
	assert.Equal(t, "60", u.inputs[0].value())
	assert.False(t, u.resultValue.Visible())
}

func TestShowError(t *testing.T) {
	a := test.NewTempApp(t)
	svc := newTestService(t)
	u := buildUI(a, svc, zap.NewNop())

	u.inputs[1].set("500")
	_, err := svc.Predict(context.Background(), u.rawInputs())
	require.Error(t, err)
	u.showError(err)
	assert.Equal(t, "⚠ La superficie cubierta no puede ser mayor que la superficie total.", u.errorLabel.Text)
	assert.False(t, u.resultValue.Visible())
}

func TestLogUpdaterStopsWhenWindowCloses(t *testing.T) {
	a := test.NewTempApp(t)
	u := buildUI(a, newTestService(t), zap.NewNop())
	u.appendLog("cargando")

	u.w.Close()
	select {
	case <-u.logStopped:
	case <-time.After(2 * time.Second):
		t.Fatal("log updater still running after close")
	}
	text, err := u.logBind.Get()
	require.NoError(t, err)
	assert.Contains(t, text, "cargando")

	u.stopLogUpdater()
}
