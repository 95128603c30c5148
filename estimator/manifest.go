package estimator

import (
	"errors"
	"fmt"
	"strings"
)

// Manifest is the ordered list of columns the model was fit on. It fixes
// both the width and the positional meaning of every feature vector.
type Manifest struct {
	columns []string
	index   map[string]int
}

// NewManifest validates and indexes the column list. Empty names and
// duplicates are rejected.
func NewManifest(columns []string) (*Manifest, error) {
	if len(columns) == 0 {
		return nil, errors.New("manifest has no columns")
	}
	m := &Manifest{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if c == "" {
			return nil, fmt.Errorf("manifest column %d is empty", i+1)
		}
		if prev, dup := m.index[c]; dup {
			return nil, fmt.Errorf("manifest column %q repeated at positions %d and %d", c, prev+1, i+1)
		}
		m.columns[i] = c
		m.index[c] = i
	}
	return m, nil
}

// Width returns the number of columns.
func (m *Manifest) Width() int {
	return len(m.columns)
}

// Columns returns a copy of the ordered column names.
func (m *Manifest) Columns() []string {
	return cloneStrings(m.columns)
}

// Index returns the position of a column.
func (m *Manifest) Index(column string) (int, bool) {
	i, ok := m.index[column]
	return i, ok
}

// Has reports whether the column is part of the manifest.
func (m *Manifest) Has(column string) bool {
	_, ok := m.index[column]
	return ok
}

// WithPrefix returns the columns starting with prefix, in manifest order.
func (m *Manifest) WithPrefix(prefix string) []string {
	var out []string
	for _, c := range m.columns {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
