package estimator

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InputRow is one record of a batch input file.
type InputRow struct {
	Line   int
	Cells  []string
	Values map[string]any
}

// InputParseOptions selects how a batch file's header maps to fields.
type InputParseOptions struct {
	Candidates ColumnCandidates
}

// ParseInputRows reads a CSV/TSV batch file. The header must name every
// schema field, directly or through an alias; columns it does not recognize
// are carried along untouched in Cells.
func ParseInputRows(path string, schema Schema, opts InputParseOptions) ([]string, []InputRow, error) {
	rows, err := readDelimited(path)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("empty file")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	candidates := opts.Candidates.withDefaults()
	positions := make(map[string]int, len(schema.Fields))
	var missing []string
	for _, f := range schema.Fields {
		idx := findColumn(header, candidates.fieldAliases(f.Name))
		if idx < 0 {
			missing = append(missing, f.Name)
			continue
		}
		positions[f.Name] = idx
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%s: header has no column for %s", filepath.Base(path), strings.Join(missing, ", "))
	}
	out := make([]InputRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := InputRow{Line: i + 2, Cells: row, Values: make(map[string]any, len(positions))}
		for name, idx := range positions {
			if idx < len(row) {
				rec.Values[name] = cleanCell(row[idx])
			}
		}
		out = append(out, rec)
	}
	return header, out, nil
}

func readManifestFile(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var cols []string
		if err := decodeJSONArtifact(schemaManifest, data, &cols); err != nil {
			return nil, err
		}
		return cols, nil
	default:
		return readLines(path)
	}
}

func readCategoryFile(path string, candidates ColumnCandidates) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
			var cats []string
			if err := decodeJSONArtifact(schemaCategories, data, &cats); err != nil {
				return nil, err
			}
			return cats, nil
		}
		var doc struct {
			Feature    string   `json:"feature"`
			Categories []string `json:"categories"`
		}
		if err := decodeJSONArtifact(schemaCategories, data, &doc); err != nil {
			return nil, err
		}
		return doc.Categories, nil
	case ".csv", ".tsv":
		rows, err := readDelimited(path)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errors.New("empty category file")
		}
		header := cleanRow(rows[0])
		col := findColumn(header, candidates.Category)
		start := 1
		if col < 0 {
			col, start = 0, 0
		}
		var cats []string
		for _, row := range rows[start:] {
			if col < len(row) {
				if v := cleanCell(row[col]); v != "" {
					cats = append(cats, v)
				}
			}
		}
		return cats, nil
	default:
		return readLines(path)
	}
}

func readFrequencyFile(path string, candidates ColumnCandidates) ([]FrequencyEntry, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var entries []FrequencyEntry
		if err := decodeJSONArtifact(schemaFrequency, data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	rows, err := readDelimited(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty frequency file")
	}
	header := cleanRow(rows[0])
	labelCol := findColumn(header, candidates.Label)
	freqCol := findColumn(header, candidates.Frequency)
	start := 1
	if labelCol < 0 && freqCol < 0 {
		labelCol, freqCol, start = 0, 1, 0
	}
	if labelCol < 0 || freqCol < 0 {
		return nil, fmt.Errorf("header needs a label and a frequency column, got %s", strings.Join(header, ", "))
	}
	entries := make([]FrequencyEntry, 0, len(rows)-start)
	for i, row := range rows[start:] {
		if isEmptyRow(row) {
			continue
		}
		if labelCol >= len(row) || freqCol >= len(row) {
			return nil, fmt.Errorf("line %d: expected at least %d columns", i+start+1, max(labelCol, freqCol)+1)
		}
		freq, err := strconv.ParseFloat(cleanCell(row[freqCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: frequency %q is not numeric", i+start+1, row[freqCol])
		}
		entries = append(entries, FrequencyEntry{Label: cleanCell(row[labelCol]), Frequency: freq})
	}
	return entries, nil
}

func readLinearModelFile(path string, m *Manifest) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file linearModelFile
	if err := decodeJSONArtifact(schemaLinearModel, data, &file); err != nil {
		return nil, err
	}
	return NewLinearModel(file.Intercept, file.Coefficients, m)
}

// readLines returns non-blank lines, skipping "#" comments.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func readDelimited(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = cleanCell(cell)
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}
