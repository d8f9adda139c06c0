//go:build !integration

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

type testRoad struct {
	class  int
	points []shp.Point
}

// writeRoads writes a polyline shapefile with a KOD column.
func writeRoads(t *testing.T, path string, roads []testRoad) {
	t.Helper()

	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.NumberField(ClassField, 4)}))

	for _, r := range roads {
		row := w.Write(shp.NewPolyLine([][]shp.Point{r.points}))
		require.NoError(t, w.WriteAttribute(int(row), 0, r.class))
	}
	w.Close()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeFixture lays out a complete, valid dataset directory.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeRoads(t, filepath.Join(dir, "ROADS.shp"), []testRoad{
		{class: 1, points: []shp.Point{{X: 500000, Y: 5000000}, {X: 510000, Y: 5000000}}},
		{class: 2, points: []shp.Point{{X: 500000, Y: 5050000}, {X: 510000, Y: 5050000}}},
		{class: 3, points: []shp.Point{{X: 510000, Y: 5000000}, {X: 510000, Y: 5010000}}},
	})

	writeFile(t, filepath.Join(dir, "naselja.csv"), "EASTING;NORTHING;BR_ST_01;NAZIV_NAS\n"+
		"505000;5000200;1500;Near\n"+
		"505000;5020000;25000;Far City\n"+
		"509000;5005000;10000;Edge\n")

	writeFile(t, filepath.Join(dir, "m_luke.csv"), "EASTING;NORTHING;NAZIV\n"+
		"505000;5021000;Marina X\n"+
		"505500;5021000;Marina X\n"+
		"540000;5090000;Remote\n")

	return dir
}
