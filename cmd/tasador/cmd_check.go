package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"yashubustudio/tasador/estimator"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the artifacts and report the derived encoding",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cfg, cmd.OutOrStdout())
	},
}

var writeConfigPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration, optionally writing it to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeConfigPath != "" {
			if err := estimator.SaveConfig(writeConfigPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", writeConfigPath)
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

func init() {
	configCmd.Flags().StringVar(&writeConfigPath, "write", "", "Write the effective configuration to this path (.yaml, .json or .toml)")
}

func runCheck(cfg estimator.Config, out io.Writer) error {
	if missing := estimator.MissingArtifacts(cfg.Artifacts); len(missing) > 0 {
		fmt.Fprintf(out, "faltan artefactos en %s:\n", cfg.Artifacts.Dir)
		for _, m := range missing {
			fmt.Fprintf(out, "  - %s\n", m)
		}
	}
	arts, err := estimator.LoadArtifacts(cfg, log)
	if err != nil {
		return err
	}
	defer arts.Close()

	fmt.Fprintf(out, "columnas: %d\n", arts.Manifest.Width())
	for _, t := range []*estimator.CategoryTable{arts.PropertyTypes, arts.States} {
		base := "(ninguna)"
		if t.HasBase {
			base = t.Base
		}
		fmt.Fprintf(out, "%s: %d categorías, base %s\n", t.Field, len(t.Categories), base)
		if err := t.Check(); err != nil {
			fmt.Fprintf(out, "  advertencia: %v\n", err)
		}
	}
	fmt.Fprintf(out, "%s: %d etiquetas\n", estimator.FieldPlaceName, arts.Places.Len())
	if !arts.Manifest.Has(estimator.ColumnPlaceFrequency) {
		fmt.Fprintf(out, "  advertencia: el manifiesto no tiene la columna %s\n", estimator.ColumnPlaceFrequency)
	}
	fmt.Fprintf(out, "modelo: %d columnas de entrada\n", arts.Predictor.Width())
	fmt.Fprintln(out, "estado: OK")
	return nil
}
