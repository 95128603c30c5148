package estimator

import (
	"errors"
	"fmt"
	"strings"
)

// CategoryTable describes a one-hot encoded field: the labels the encoder
// accepts and the indicator columns the manifest kept for them. The base
// category is the one absorbed into the intercept; it has no column.
type CategoryTable struct {
	Field      string
	Namespace  string
	Categories []string
	Base       string
	HasBase    bool
	// Missing lists every category without an indicator column, in
	// category order. A consistent table has at most one.
	Missing []string
	// Orphans lists namespace columns whose suffix is not a known category.
	Orphans []string
	// Collisions lists namespace columns whose normalized suffix repeats an
	// earlier column's; the first column keeps the indicator.
	Collisions []string

	columns map[string]int
}

// NewCategoryTable derives the indicator columns and the implicit base as
// Categories minus the suffixes of manifest columns prefixed "<namespace>_".
// With strict set, more than one missing category or an orphan column is an
// error; otherwise the first missing category becomes the base.
func NewCategoryTable(field, namespace string, categories []string, m *Manifest, strict bool) (*CategoryTable, error) {
	if m == nil {
		return nil, errors.New("manifest is required")
	}
	cats := uniqueNormalized(categories)
	if len(cats) == 0 {
		return nil, fmt.Errorf("%s: no categories", field)
	}
	t := &CategoryTable{
		Field:      field,
		Namespace:  namespace,
		Categories: cats,
		columns:    make(map[string]int),
	}
	prefix := namespace + "_"
	known := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		known[c] = struct{}{}
	}
	for _, col := range m.WithPrefix(prefix) {
		suffix := NormalizeText(strings.TrimPrefix(col, prefix))
		idx, _ := m.Index(col)
		if _, dup := t.columns[suffix]; dup {
			t.Collisions = append(t.Collisions, col)
			continue
		}
		t.columns[suffix] = idx
		if _, ok := known[suffix]; !ok {
			t.Orphans = append(t.Orphans, col)
		}
	}
	for _, c := range cats {
		if _, ok := t.columns[c]; !ok {
			t.Missing = append(t.Missing, c)
		}
	}
	if len(t.Missing) > 0 {
		t.Base = t.Missing[0]
		t.HasBase = true
	}
	if strict {
		if err := t.Check(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Check reports encoder/manifest inconsistencies.
func (t *CategoryTable) Check() error {
	var problems []string
	if len(t.Missing) > 1 {
		problems = append(problems, fmt.Sprintf("%d categories have no %s_* column (%s); expected at most one base",
			len(t.Missing), t.Namespace, strings.Join(t.Missing, ", ")))
	}
	if len(t.Orphans) > 0 {
		problems = append(problems, fmt.Sprintf("columns without a matching category: %s", strings.Join(t.Orphans, ", ")))
	}
	if len(t.Collisions) > 0 {
		problems = append(problems, fmt.Sprintf("columns colliding after normalization: %s", strings.Join(t.Collisions, ", ")))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%s encoding: %s", t.Field, strings.Join(problems, "; "))
}

// Column returns the manifest position of the indicator for category. The
// base category and unknown labels have none.
func (t *CategoryTable) Column(category string) (int, bool) {
	idx, ok := t.columns[NormalizeText(category)]
	return idx, ok
}

// IndicatorColumns returns the manifest positions of all indicators.
func (t *CategoryTable) IndicatorColumns() []int {
	out := make([]int, 0, len(t.columns))
	for _, idx := range t.columns {
		out = append(out, idx)
	}
	return out
}
