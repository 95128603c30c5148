package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"yashubustudio/tasador/estimator"
)

var predictJSON bool

// fieldFlags maps schema fields to CLI flag names.
var fieldFlags = []struct {
	field string
	flag  string
	usage string
}{
	{estimator.FieldSurfaceTotal, "surface-total", "Total surface in m²"},
	{estimator.FieldSurfaceCovered, "surface-covered", "Covered surface in m²"},
	{estimator.FieldRooms, "rooms", "Number of rooms (ambientes)"},
	{estimator.FieldBedrooms, "bedrooms", "Number of bedrooms"},
	{estimator.FieldBathrooms, "bathrooms", "Number of bathrooms"},
	{estimator.FieldPropertyType, "property-type", "Property type, e.g. Departamento"},
	{estimator.FieldStateName, "state", "Zone or province, e.g. Capital Federal"},
	{estimator.FieldPlaceName, "place", "Neighborhood or locality, e.g. Palermo"},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate the price of one property; unset fields take the form defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := estimator.NewService(cfg, log, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		defer svc.Close()
		values := flagValues(cmd, svc.Schema())
		return runPredict(cmd.Context(), svc, values, predictJSON, cmd.OutOrStdout())
	},
}

func init() {
	for _, f := range fieldFlags {
		predictCmd.Flags().String(f.flag, "", f.usage)
	}
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print the result as JSON")
}

// flagValues starts from the schema defaults and overrides the fields whose
// flag was set.
func flagValues(cmd *cobra.Command, schema estimator.Schema) map[string]any {
	flags := cmd.Flags()
	values := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		values[f.Name] = f.Default
	}
	for _, f := range fieldFlags {
		if flags.Changed(f.flag) {
			v, _ := flags.GetString(f.flag)
			values[f.field] = v
		}
	}
	return values
}

type predictOutput struct {
	ID        string  `json:"id,omitempty"`
	Estimate  float64 `json:"estimate,omitempty"`
	Formatted string  `json:"formatted,omitempty"`
	Error     string  `json:"error,omitempty"`
	Kind      string  `json:"kind,omitempty"`
	Field     string  `json:"field,omitempty"`
}

func runPredict(ctx context.Context, svc *estimator.Service, values map[string]any, asJSON bool, out io.Writer) error {
	p, err := svc.PredictNamed(ctx, values)
	if asJSON {
		res := predictOutput{ID: p.ID, Estimate: p.Value, Formatted: p.Formatted}
		if err != nil {
			res = predictOutput{Error: estimator.UserMessage(err), Kind: string(estimator.KindOf(err)), Field: fieldOf(err)}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	}
	if err != nil {
		return errors.New(estimator.UserMessage(err))
	}
	fmt.Fprintf(out, "Precio estimado (ARS): %s\n", p.Formatted)
	return nil
}

func fieldOf(err error) string {
	var e *estimator.Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
