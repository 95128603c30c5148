package estimator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	envPrefix         = "TASADOR"
)

// LoadConfig reads path, or config.{yaml,json,toml} from the working
// directory and ./configs when path is empty. A missing default file is not
// an error. TASADOR_* environment variables override file values, e.g.
// TASADOR_ARTIFACTS_DIR or TASADOR_ENCODING_STRICT.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, JSON or TOML depending on the extension.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigName + ".yaml"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	v := viper.New()
	v.Set("artifacts", map[string]any{
		"dir":             cfg.Artifacts.Dir,
		"model":           cfg.Artifacts.Model,
		"manifest":        cfg.Artifacts.Manifest,
		"property_type":   cfg.Artifacts.PropertyType,
		"state_name":      cfg.Artifacts.StateName,
		"place_frequency": cfg.Artifacts.PlaceFrequency,
	})
	v.Set("model", map[string]any{
		"ort_library": cfg.Model.OrtLibrary,
		"input_name":  cfg.Model.InputName,
		"output_name": cfg.Model.OutputName,
	})
	v.Set("encoding.strict", cfg.Encoding.Strict)
	v.Set("server", map[string]any{
		"addr":             cfg.Server.Addr,
		"read_timeout":     cfg.Server.ReadTimeout.String(),
		"write_timeout":    cfg.Server.WriteTimeout.String(),
		"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
	})
	v.Set("log", map[string]any{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
	})
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	var problems []string
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q (want json or console)", c.Log.Format))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q", c.Log.Level))
	}
	switch strings.ToLower(filepath.Ext(c.Artifacts.Model)) {
	case ".onnx", ".json":
	default:
		problems = append(problems, fmt.Sprintf("artifacts.model %q (want .onnx or .json)", c.Artifacts.Model))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override keys the
// file does not mention.
func setDefaults(v *viper.Viper) {
	var d Config
	d.ApplyDefaults()
	v.SetDefault("artifacts.dir", d.Artifacts.Dir)
	v.SetDefault("artifacts.model", d.Artifacts.Model)
	v.SetDefault("artifacts.manifest", d.Artifacts.Manifest)
	v.SetDefault("artifacts.property_type", d.Artifacts.PropertyType)
	v.SetDefault("artifacts.state_name", d.Artifacts.StateName)
	v.SetDefault("artifacts.place_frequency", d.Artifacts.PlaceFrequency)
	v.SetDefault("model.ort_library", "")
	v.SetDefault("model.input_name", "")
	v.SetDefault("model.output_name", "")
	v.SetDefault("encoding.strict", true)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
