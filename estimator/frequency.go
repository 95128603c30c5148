package estimator

import (
	"fmt"
	"math"
)

// FrequencyEntry is one row of a location frequency artifact.
type FrequencyEntry struct {
	Label     string  `json:"label"`
	Frequency float64 `json:"frequency"`
}

// FrequencyTable maps a location label to its frequency statistic. Labels
// keep artifact order, which is also the dropdown order.
type FrequencyTable struct {
	labels []string
	values map[string]float64
}

// NewFrequencyTable normalizes labels and rejects negative or non-finite
// values. A repeated label keeps its first value.
func NewFrequencyTable(entries []FrequencyEntry) (*FrequencyTable, error) {
	t := &FrequencyTable{values: make(map[string]float64, len(entries))}
	for i, e := range entries {
		label := NormalizeText(e.Label)
		if label == "" {
			continue
		}
		if math.IsNaN(e.Frequency) || math.IsInf(e.Frequency, 0) {
			return nil, fmt.Errorf("row %d (%s): frequency is not finite", i+1, label)
		}
		if e.Frequency < 0 {
			return nil, fmt.Errorf("row %d (%s): frequency %v is negative", i+1, label, e.Frequency)
		}
		if _, ok := t.values[label]; ok {
			continue
		}
		t.labels = append(t.labels, label)
		t.values[label] = e.Frequency
	}
	if len(t.labels) == 0 {
		return nil, fmt.Errorf("frequency table is empty")
	}
	return t, nil
}

// Lookup returns the statistic for label, or 0 when the label is unknown.
func (t *FrequencyTable) Lookup(label string) float64 {
	if t == nil {
		return 0
	}
	return t.values[NormalizeText(label)]
}

// Labels returns the known labels in artifact order.
func (t *FrequencyTable) Labels() []string {
	return cloneStrings(t.labels)
}

// Len returns the number of labels.
func (t *FrequencyTable) Len() int {
	return len(t.labels)
}
