package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

const sampleCSV = `site,lat,lon,zone
Albury,-36.08,146.91,Riverina
Wagga, -35.11 ,147.37,  Riverina  
Blank,,147.0,Riverina
NoValue,-35.0,147.0, 
Border,-36.0,146.0,Riverina/Murray
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), DefaultColumns())
	require.NoError(t, err)

	assert.Equal(t, "zone", table.ValueLabel)
	assert.Equal(t, 5, table.Rows)
	assert.Equal(t, 2, table.Skipped)
	assert.Equal(t, heatmap.Dataset{
		{Name: "Albury", Lat: -36.08, Lon: 146.91, Value: "Riverina"},
		{Name: "Wagga", Lat: -35.11, Lon: 147.37, Value: "Riverina"},
		{Name: "Border", Lat: -36.0, Lon: 146.0, Value: "Riverina"},
		{Name: "Border", Lat: -36.0, Lon: 146.0, Value: "Murray"},
	}, table.Points)
}

func TestReadCSV_CustomColumns(t *testing.T) {
	in := "magnitude,id,latitude,longitude\n1.75,ev-1,35.2,-97.4\n"
	table, err := ReadCSV(strings.NewReader(in), Columns{Name: 1, Lat: 2, Lon: 3, Value: 0})
	require.NoError(t, err)

	assert.Equal(t, "magnitude", table.ValueLabel)
	assert.Equal(t, heatmap.Dataset{{Name: "ev-1", Lat: 35.2, Lon: -97.4, Value: "1.75"}}, table.Points)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		cols    Columns
		wantErr string
	}{
		{name: "empty input", input: "", cols: DefaultColumns(), wantErr: "missing header"},
		{name: "narrow header", input: "a,b\n", cols: DefaultColumns(), wantErr: "header has 2 columns"},
		{name: "bad latitude", input: "n,lat,lon,v\nx,north,1,a\n", cols: DefaultColumns(), wantErr: `line 2: latitude "north"`},
		{name: "bad longitude", input: "n,lat,lon,v\nx,1,1,a\ny,1,east,b\n", cols: DefaultColumns(), wantErr: `line 3: longitude "east"`},
		{name: "short row", input: "n,lat,lon,v\nx,1\n", cols: DefaultColumns(), wantErr: "line 2: 2 columns"},
		{name: "negative column", input: "n,lat,lon,v\n", cols: Columns{Lat: -1}, wantErr: "negative column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), tt.cols)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := LoadFile(path, DefaultColumns())
	require.NoError(t, err)
	assert.Len(t, table.Points, 4)
}

func TestLoadFile_RejectsOtherExtensions(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "sites.txt"), DefaultColumns())
	require.ErrorIs(t, err, ErrNotCSV)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv"), DefaultColumns())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitValues(t *testing.T) {
	assert.Equal(t, []string{"hail"}, splitValues("hail"))
	assert.Equal(t, []string{"hail", "wind"}, splitValues("hail / wind"))
	assert.Equal(t, []string{"hail"}, splitValues("hail/"))
}
