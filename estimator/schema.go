package estimator

import "fmt"

// Field names of the default property schema.
const (
	FieldSurfaceTotal   = "surface_total"
	FieldSurfaceCovered = "surface_covered"
	FieldRooms          = "rooms"
	FieldBedrooms       = "bedrooms"
	FieldBathrooms      = "bathrooms"
	FieldPropertyType   = "property_type"
	FieldStateName      = "state_name"
	FieldPlaceName      = "place_name"

	// ColumnPlaceFrequency is the manifest column fed from the frequency table.
	ColumnPlaceFrequency = "place_name_freq"

	defaultPlace = "Palermo"
)

// FieldSpec describes one raw input field.
type FieldSpec struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Min     *float64  `json:"min,omitempty"`
	Max     *float64  `json:"max,omitempty"`
	Step    *float64  `json:"step,omitempty"`
	Choices []string  `json:"choices,omitempty"`
	Default any       `json:"default,omitempty"`
}

// HasChoice reports whether value is one of the declared choices.
func (f FieldSpec) HasChoice(value string) bool {
	for _, c := range f.Choices {
		if c == value {
			return true
		}
	}
	return false
}

// CrossFieldRule requires Lesser <= Greater once every field is valid.
type CrossFieldRule struct {
	Kind    ErrorKind
	Lesser  string
	Greater string
	Message string
	// Summary is the short form shown in help text.
	Summary string
}

// Schema is the ordered field contract between a form and the validator.
type Schema struct {
	Fields []FieldSpec
	Rules  []CrossFieldRule
}

// Field returns the field with the given name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Names returns field names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Defaults returns a RawInputs filled with every field's default.
func (s Schema) Defaults() RawInputs {
	out := make(RawInputs, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Default
	}
	return out
}

// RuleSummaries returns the help line of every cross-field rule.
func (s Schema) RuleSummaries() []string {
	out := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		if r.Summary != "" {
			out = append(out, r.Summary)
		} else {
			out = append(out, r.String())
		}
	}
	return out
}

// DefaultSchema builds the property form from the loaded category and
// frequency tables.
func DefaultSchema(propertyTypes, states []string, places []string) Schema {
	return Schema{
		Fields: []FieldSpec{
			{Name: FieldSurfaceTotal, Label: "Superficie total (m²)", Kind: KindNumber, Min: ptr(10), Default: 60.0},
			{Name: FieldSurfaceCovered, Label: "Superficie cubierta (m²)", Kind: KindNumber, Min: ptr(0), Default: 50.0},
			{Name: FieldRooms, Label: "Ambientes", Kind: KindSlider, Min: ptr(1), Max: ptr(10), Step: ptr(1), Default: 2.0},
			{Name: FieldBedrooms, Label: "Dormitorios", Kind: KindSlider, Min: ptr(0), Max: ptr(8), Step: ptr(1), Default: 1.0},
			{Name: FieldBathrooms, Label: "Baños", Kind: KindSlider, Min: ptr(0), Max: ptr(5), Step: ptr(1), Default: 1.0},
			dropdown(FieldPropertyType, "Tipo de propiedad", propertyTypes, first(propertyTypes)),
			dropdown(FieldStateName, "Zona/Provincia", states, last(states)),
			dropdown(FieldPlaceName, "Barrio / Localidad", places, preferred(places, defaultPlace)),
		},
		Rules: []CrossFieldRule{
			{
				Kind:    ErrSurfaceMismatch,
				Lesser:  FieldSurfaceCovered,
				Greater: FieldSurfaceTotal,
				Message: "La superficie cubierta no puede ser mayor que la superficie total.",
				Summary: "Superficie cubierta ≤ Superficie total",
			},
			{
				Kind:    ErrBedroomsExceedRooms,
				Lesser:  FieldBedrooms,
				Greater: FieldRooms,
				Message: "Los dormitorios no pueden superar la cantidad de ambientes.",
				Summary: "Dormitorios ≤ Ambientes",
			},
			{
				Kind:    ErrBathroomsExceedRooms,
				Lesser:  FieldBathrooms,
				Greater: FieldRooms,
				Message: "Los baños no pueden superar la cantidad de ambientes.",
				Summary: "Baños ≤ Ambientes",
			},
		},
	}
}

func dropdown(name, label string, choices []string, def string) FieldSpec {
	f := FieldSpec{Name: name, Label: label, Kind: KindDropdown, Choices: NormalizeAll(choices)}
	if def != "" {
		f.Default = NormalizeText(def)
	}
	return f
}

func ptr(v float64) *float64 {
	return &v
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func last(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

func preferred(values []string, want string) string {
	for _, v := range values {
		if NormalizeText(v) == want {
			return v
		}
	}
	return first(values)
}

func (r CrossFieldRule) String() string {
	return fmt.Sprintf("%s <= %s", r.Lesser, r.Greater)
}
