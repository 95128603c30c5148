package estimator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputRowsWithAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "in.csv", "\ufeffid,superficie_total,superficie cubierta,ambientes,dormitorios,baños,tipo,zona,barrio\n"+
		"a1,60,50,2,1,1,Departamento,Capital Federal,Palermo\n"+
		",,,,,,,,\n"+
		"a2,85,,3,2,2,Casa,Bs.As. G.B.A. Zona Norte,San Isidro\n")

	header, rows, err := ParseInputRows(filepath.Join(dir, "in.csv"), testSchema(), InputParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "id", header[0])
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "60", rows[0].Values[FieldSurfaceTotal])
	assert.Equal(t, "Palermo", rows[0].Values[FieldPlaceName])
	_, err = NewValidator(testSchema()).ValidateNamed(rows[0].Values)
	assert.NoError(t, err)

	assert.Equal(t, 4, rows[1].Line)
	_, err = NewValidator(testSchema()).ValidateNamed(rows[1].Values)
	assert.Equal(t, ErrEmptyField, KindOf(err))
}

func TestParseInputRowsTSVAndCustomAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "in.tsv", "m2\tsurface_covered\trooms\tbedrooms\tbathrooms\tproperty_type\tstate_name\tplace_name\n"+
		"60\t50\t2\t1\t1\tPH\tCapital Federal\tPalermo\n")
	opts := InputParseOptions{Candidates: ColumnCandidates{Fields: map[string][]string{FieldSurfaceTotal: {"m2"}}}}

	_, rows, err := ParseInputRows(filepath.Join(dir, "in.tsv"), testSchema(), opts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "60", rows[0].Values[FieldSurfaceTotal])
	assert.Equal(t, "PH", rows[0].Values[FieldPropertyType])
}

func TestParseInputRowsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "in.csv", "surface_total,rooms\n60,2\n")
	_, _, err := ParseInputRows(filepath.Join(dir, "in.csv"), testSchema(), InputParseOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface_covered")
	assert.Contains(t, err.Error(), "place_name")
}
