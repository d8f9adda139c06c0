//go:build !integration

package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func segment(x1, y1, x2, y2 float64) geom.T {
	return geom.NewLineStringFlat(geom.XY, []float64{x1, y1, x2, y2})
}

func TestBuffer_LineProducesPolygon(t *testing.T) {
	e := NewGEOS()

	out, err := e.Buffer(segment(0, 0, 1000, 0), 100)
	require.NoError(t, err)

	poly, ok := out.(*geom.Polygon)
	require.True(t, ok, "expected polygon, got %T", out)
	// Capsule area: rectangle + circle, slightly less for the polygonal arcs.
	want := 1000*200 + math.Pi*100*100
	assert.InDelta(t, want, poly.Area(), want*0.01)
}

func TestBuffer_ZeroRadiusIsEmpty(t *testing.T) {
	e := NewGEOS()

	out, err := e.Buffer(segment(0, 0, 1000, 0), 0)
	require.NoError(t, err)
	assert.True(t, IsEmpty(out))
}

func TestBuffer_NegativeRadius(t *testing.T) {
	e := NewGEOS()

	_, err := e.Buffer(segment(0, 0, 1, 1), -1)
	assert.Error(t, err)
}

func TestUnion_DissolvesOverlaps(t *testing.T) {
	e := NewGEOS()

	a, err := e.Buffer(geom.NewPointFlat(geom.XY, []float64{0, 0}), 100)
	require.NoError(t, err)
	b, err := e.Buffer(geom.NewPointFlat(geom.XY, []float64{50, 0}), 100)
	require.NoError(t, err)
	c, err := e.Buffer(geom.NewPointFlat(geom.XY, []float64{5000, 0}), 100)
	require.NoError(t, err)

	out, err := e.Union([]geom.T{a, b, c})
	require.NoError(t, err)

	mp, ok := out.(*geom.MultiPolygon)
	require.True(t, ok, "expected multipolygon, got %T", out)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestUnion_Empty(t *testing.T) {
	e := NewGEOS()

	out, err := e.Union(nil)
	require.NoError(t, err)
	assert.True(t, IsEmpty(out))
}

func TestWithin_StrictInterior(t *testing.T) {
	e := NewGEOS()
	square := geom.NewPolygonFlat(geom.XY, []float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0}, []int{10})

	got, err := e.Within([]geom.Coord{{5, 5}, {10, 5}, {20, 20}}, square)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, got)
}

func TestWithin_EmptyRegion(t *testing.T) {
	e := NewGEOS()

	got, err := e.Within([]geom.Coord{{0, 0}}, geom.NewGeometryCollection())
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)
}

func TestCentroid_LineIsMidpoint(t *testing.T) {
	e := NewGEOS()

	c, err := e.Centroid(segment(0, 0, 100, 0))
	require.NoError(t, err)
	assert.InDelta(t, 50, c.X(), 1e-9)
	assert.InDelta(t, 0, c.Y(), 1e-9)
}

func TestCentroid_Empty(t *testing.T) {
	e := NewGEOS()

	_, err := e.Centroid(geom.NewMultiLineString(geom.XY))
	assert.Error(t, err)
}

func TestReprojector_CentralMeridian(t *testing.T) {
	r, err := NewReprojector(HTRS96)
	require.NoError(t, err)

	p, err := r.Point(500000, 5000000)
	require.NoError(t, err)
	assert.InDelta(t, 16.5, p.Lon(), 1e-6)
	assert.Greater(t, p.Lat(), 45.0)
	assert.Less(t, p.Lat(), 45.3)
}

func TestReprojector_Geometry(t *testing.T) {
	r, err := NewReprojector(HTRS96)
	require.NoError(t, err)

	og, err := r.Geometry(segment(500000, 5000000, 510000, 5000000))
	require.NoError(t, err)

	ls, ok := og.(orb.LineString)
	require.True(t, ok, "expected orb.LineString, got %T", og)
	require.Len(t, ls, 2)
	assert.InDelta(t, 16.5, ls[0].Lon(), 1e-6)
	assert.Greater(t, ls[1].Lon(), 16.5)
}

func TestReprojector_EmptyGeometry(t *testing.T) {
	r, err := NewReprojector(HTRS96)
	require.NoError(t, err)

	og, err := r.Geometry(geom.NewGeometryCollection())
	require.NoError(t, err)
	assert.Equal(t, orb.Collection{}, og)
}
