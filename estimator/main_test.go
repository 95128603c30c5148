package estimator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixtureConfig copies testdata/artifacts into a temp dir and returns a
// strict config pointing at it. mutate may rewrite or remove files.
func fixtureConfig(t *testing.T, mutate func(dir string)) Config {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(filepath.Join("testdata", "artifacts"))
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("testdata", "artifacts", e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644))
	}
	if mutate != nil {
		mutate(dir)
	}
	cfg := Config{
		Artifacts: ArtifactsConfig{Dir: dir},
		Encoding:  EncodingConfig{Strict: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func fixtureEstimator(t *testing.T) *Estimator {
	t.Helper()
	arts, err := LoadArtifacts(fixtureConfig(t, nil), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arts.Close() })
	est, err := New(arts)
	require.NoError(t, err)
	return est
}

func palermo() RawInputs {
	return RawInputs{60.0, 50.0, 2.0, 1.0, 1.0, "Departamento", "Capital Federal", "Palermo"}
}

// with returns a copy of raw with position i replaced.
func with(raw RawInputs, i int, v any) RawInputs {
	out := append(RawInputs(nil), raw...)
	out[i] = v
	return out
}
