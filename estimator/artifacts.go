package estimator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Artifacts are the read-only tables and model loaded once at startup.
type Artifacts struct {
	Manifest      *Manifest
	PropertyTypes *CategoryTable
	States        *CategoryTable
	Places        *FrequencyTable
	Predictor     Predictor
}

// Close releases the predictor.
func (a *Artifacts) Close() error {
	if a == nil || a.Predictor == nil {
		return nil
	}
	return a.Predictor.Close()
}

// Path resolves an artifact file name against Dir.
func (c ArtifactsConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) || c.Dir == "" {
		return name
	}
	return filepath.Join(c.Dir, name)
}

type artifactRef struct {
	name string
	path string
}

func (c ArtifactsConfig) refs() []artifactRef {
	return []artifactRef{
		{"model", c.Path(c.Model)},
		{"manifest", c.Path(c.Manifest)},
		{"property_type categories", c.Path(c.PropertyType)},
		{"state_name categories", c.Path(c.StateName)},
		{"place_name frequency", c.Path(c.PlaceFrequency)},
	}
}

// MissingArtifacts lists the configured artifacts that do not exist.
func MissingArtifacts(c ArtifactsConfig) []string {
	var missing []string
	for _, ref := range c.refs() {
		if ref.path == "" {
			missing = append(missing, ref.name+" (no path configured)")
			continue
		}
		if _, err := os.Stat(ref.path); err != nil {
			missing = append(missing, filepath.Base(ref.path))
		}
	}
	return missing
}

// LoadArtifacts loads every artifact or none. Missing files are reported
// together before anything is parsed; any load failure names the artifact.
func LoadArtifacts(cfg Config, logger *zap.Logger) (*Artifacts, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ac := cfg.Artifacts
	if missing := MissingArtifacts(ac); len(missing) > 0 {
		return nil, fmt.Errorf("missing artifacts in %s: %s", ac.Dir, strings.Join(missing, ", "))
	}
	candidates := DefaultColumnCandidates()

	cols, err := readManifestFile(ac.Path(ac.Manifest))
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", ac.Manifest, err)
	}
	manifest, err := NewManifest(cols)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", ac.Manifest, err)
	}

	props, err := loadCategoryTable(ac.Path(ac.PropertyType), FieldPropertyType, manifest, candidates, cfg.Encoding.Strict, logger)
	if err != nil {
		return nil, fmt.Errorf("load property_type categories %s: %w", ac.PropertyType, err)
	}
	states, err := loadCategoryTable(ac.Path(ac.StateName), FieldStateName, manifest, candidates, cfg.Encoding.Strict, logger)
	if err != nil {
		return nil, fmt.Errorf("load state_name categories %s: %w", ac.StateName, err)
	}

	entries, err := readFrequencyFile(ac.Path(ac.PlaceFrequency), candidates)
	if err != nil {
		return nil, fmt.Errorf("load place_name frequency %s: %w", ac.PlaceFrequency, err)
	}
	places, err := NewFrequencyTable(entries)
	if err != nil {
		return nil, fmt.Errorf("load place_name frequency %s: %w", ac.PlaceFrequency, err)
	}
	if !manifest.Has(ColumnPlaceFrequency) {
		logger.Warn("manifest has no frequency column; place_name is ignored", zap.String("column", ColumnPlaceFrequency))
	}

	predictor, err := loadPredictor(ac.Path(ac.Model), cfg.Model, manifest)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", ac.Model, err)
	}

	logger.Info("artifacts loaded",
		zap.Int("columns", manifest.Width()),
		zap.Int("property_types", len(props.Categories)),
		zap.String("property_type_base", props.Base),
		zap.Int("states", len(states.Categories)),
		zap.String("state_name_base", states.Base),
		zap.Int("places", places.Len()),
		zap.String("model", filepath.Base(ac.Model)),
	)
	return &Artifacts{
		Manifest:      manifest,
		PropertyTypes: props,
		States:        states,
		Places:        places,
		Predictor:     predictor,
	}, nil
}

func loadCategoryTable(path, field string, m *Manifest, candidates ColumnCandidates, strict bool, logger *zap.Logger) (*CategoryTable, error) {
	cats, err := readCategoryFile(path, candidates)
	if err != nil {
		return nil, err
	}
	t, err := NewCategoryTable(field, field, cats, m, strict)
	if err != nil {
		return nil, err
	}
	if err := t.Check(); err != nil {
		logger.Warn("inconsistent encoding", zap.Error(err), zap.String("base", t.Base))
	}
	return t, nil
}

func loadPredictor(path string, cfg ModelConfig, m *Manifest) (Predictor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return NewOnnxPredictor(path, cfg, m.Width())
	case ".json":
		return readLinearModelFile(path, m)
	}
	return nil, errors.New("unsupported model format (want .onnx or .json)")
}
