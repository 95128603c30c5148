package estimator

// ColumnCandidates defines possible header names for auto-detecting CSV/TSV
// columns, in artifact files and batch inputs alike.
type ColumnCandidates struct {
	// Fields maps a schema field name to accepted header aliases. The field
	// name itself always matches.
	Fields    map[string][]string `json:"fields"`
	Category  []string            `json:"category"`
	Label     []string            `json:"label"`
	Frequency []string            `json:"frequency"`
}

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Fields: map[string][]string{
			FieldSurfaceTotal:   {"superficie_total", "superficie total", "surface total"},
			FieldSurfaceCovered: {"superficie_cubierta", "superficie cubierta", "surface covered"},
			FieldRooms:          {"ambientes", "rooms_count"},
			FieldBedrooms:       {"dormitorios"},
			FieldBathrooms:      {"baños", "banos"},
			FieldPropertyType:   {"tipo", "tipo_propiedad", "tipo de propiedad"},
			FieldStateName:      {"zona", "provincia", "state"},
			FieldPlaceName:      {"barrio", "localidad", "place"},
		},
		Category:  []string{"category", "categoria", "categoría", "label"},
		Label:     []string{"place_name", "label", "barrio", "localidad", "name"},
		Frequency: []string{"place_name_freq", "frequency", "freq", "frecuencia", "value"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// withDefaults fills nil parts from the built-in candidates, so callers can
// override only what they need.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	out := ColumnCandidates{
		Fields:    make(map[string][]string, len(defaults.Fields)),
		Category:  pickStrings(c.Category, defaults.Category),
		Label:     pickStrings(c.Label, defaults.Label),
		Frequency: pickStrings(c.Frequency, defaults.Frequency),
	}
	for name, aliases := range defaults.Fields {
		out.Fields[name] = cloneStrings(aliases)
	}
	for name, aliases := range c.Fields {
		out.Fields[name] = cloneStrings(aliases)
	}
	return out
}

func (c ColumnCandidates) clone() ColumnCandidates {
	out := ColumnCandidates{
		Fields:    make(map[string][]string, len(c.Fields)),
		Category:  cloneStrings(c.Category),
		Label:     cloneStrings(c.Label),
		Frequency: cloneStrings(c.Frequency),
	}
	for name, aliases := range c.Fields {
		out.Fields[name] = cloneStrings(aliases)
	}
	return out
}

// fieldAliases returns the header names accepted for a field.
func (c ColumnCandidates) fieldAliases(name string) []string {
	return append([]string{name}, c.Fields[name]...)
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}
