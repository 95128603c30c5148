package estimator

import (
	"encoding/json"
	"strings"
	"time"
)

// FieldKind is the widget family a raw field is collected with.
type FieldKind string

const (
	// KindNumber is a free numeric entry.
	KindNumber FieldKind = "number"
	// KindSlider is a bounded numeric slider.
	KindSlider FieldKind = "slider"
	// KindDropdown is a choice among a fixed set of labels.
	KindDropdown FieldKind = "dropdown"
)

// Numeric reports whether values of this kind are coerced to float64.
func (k FieldKind) Numeric() bool {
	return k == KindNumber || k == KindSlider
}

// RawInputs holds one raw value per schema field, in schema order.
type RawInputs []any

// FeatureVector is a single model row aligned to the manifest.
type FeatureVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Width returns the number of columns in the vector.
func (v FeatureVector) Width() int {
	return len(v.Values)
}

// Get returns the value of the named column.
func (v FeatureVector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Float32 converts the values for runtimes that expect single precision.
func (v FeatureVector) Float32() []float32 {
	out := make([]float32, len(v.Values))
	for i, x := range v.Values {
		out[i] = float32(x)
	}
	return out
}

// Prediction is the outcome of a successful pipeline run.
type Prediction struct {
	ID        string        `json:"id"`
	Value     float64       `json:"estimate"`
	Formatted string        `json:"formatted"`
	Vector    FeatureVector `json:"-"`
	Elapsed   time.Duration `json:"-"`
}

// ArtifactsConfig names the files loaded at startup. Relative paths are
// resolved against Dir.
type ArtifactsConfig struct {
	Dir            string `mapstructure:"dir" json:"dir"`
	Model          string `mapstructure:"model" json:"model"`
	Manifest       string `mapstructure:"manifest" json:"manifest"`
	PropertyType   string `mapstructure:"property_type" json:"propertyType"`
	StateName      string `mapstructure:"state_name" json:"stateName"`
	PlaceFrequency string `mapstructure:"place_frequency" json:"placeFrequency"`
}

// ModelConfig tunes the ONNX Runtime adapter.
type ModelConfig struct {
	OrtLibrary string `mapstructure:"ort_library" json:"ortLibrary"`
	InputName  string `mapstructure:"input_name" json:"inputName"`
	OutputName string `mapstructure:"output_name" json:"outputName"`
}

// EncodingConfig controls the startup consistency check of one-hot fields.
type EncodingConfig struct {
	Strict bool `mapstructure:"strict" json:"strict"`
}

// ServerConfig configures the web surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdownTimeout"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// Config aggregates runtime settings read from config.yaml and the environment.
type Config struct {
	Artifacts ArtifactsConfig `mapstructure:"artifacts" json:"artifacts"`
	Model     ModelConfig     `mapstructure:"model" json:"model"`
	Encoding  EncodingConfig  `mapstructure:"encoding" json:"encoding"`
	Server    ServerConfig    `mapstructure:"server" json:"server"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults. Encoding.Strict
// is defaulted by LoadConfig since false is a meaningful value.
func (c *Config) ApplyDefaults() {
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "artifacts"
	}
	if c.Artifacts.Model == "" {
		c.Artifacts.Model = "model.json"
	}
	if c.Artifacts.Manifest == "" {
		c.Artifacts.Manifest = "columns.json"
	}
	if c.Artifacts.PropertyType == "" {
		c.Artifacts.PropertyType = "property_type_categories.json"
	}
	if c.Artifacts.StateName == "" {
		c.Artifacts.StateName = "state_name_categories.json"
	}
	if c.Artifacts.PlaceFrequency == "" {
		c.Artifacts.PlaceFrequency = "place_name_freq.csv"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
