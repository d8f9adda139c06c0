// Package geometry exposes the planar geometry operations the dashboard
// relies on (buffer, union, containment, centroid) and reprojection to
// WGS84 for display. Geometries are exchanged as go-geom values; the GEOS
// engine converts through WKB at the boundary.
package geometry

import (
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// QuadrantSegments is the number of segments used to approximate a quarter
// circle when buffering. 16 matches the shapely/GEOS default.
const QuadrantSegments = 16

// Engine is the geometry capability used by the query layer.
//
// Within reports strict containment: a point lying exactly on the region
// boundary is not within it.
type Engine interface {
	Buffer(g geom.T, radius float64) (geom.T, error)
	Union(gs []geom.T) (geom.T, error)
	Within(points []geom.Coord, region geom.T) ([]bool, error)
	Centroid(g geom.T) (geom.Coord, error)
}

// GEOS implements Engine on top of libgeos.
type GEOS struct {
	ctx      *geos.Context
	quadSegs int
}

// NewGEOS creates a GEOS-backed engine with its own context.
func NewGEOS() *GEOS {
	return &GEOS{ctx: geos.NewContext(), quadSegs: QuadrantSegments}
}

// Buffer returns the region within radius of g. A zero radius around a
// point or line yields an empty polygon.
func (e *GEOS) Buffer(g geom.T, radius float64) (geom.T, error) {
	if radius < 0 {
		return nil, eris.Errorf("geometry: negative buffer radius %g", radius)
	}
	src, err := e.toGEOS(g)
	if err != nil {
		return nil, err
	}
	return e.fromGEOS(src.Buffer(radius, e.quadSegs))
}

// Union dissolves gs into a single geometry. An empty input yields an empty
// geometry collection.
func (e *GEOS) Union(gs []geom.T) (geom.T, error) {
	parts := make([]*geos.Geom, 0, len(gs))
	for _, g := range gs {
		pg, err := e.toGEOS(g)
		if err != nil {
			return nil, err
		}
		if pg.IsEmpty() {
			continue
		}
		parts = append(parts, pg)
	}
	collection := e.ctx.NewCollection(geos.TypeIDGeometryCollection, parts)
	return e.fromGEOS(collection.UnaryUnion())
}

// Within tests each point against region. The region is prepared once so
// large point sets stay cheap.
func (e *GEOS) Within(points []geom.Coord, region geom.T) ([]bool, error) {
	out := make([]bool, len(points))
	if region == nil || len(points) == 0 {
		return out, nil
	}
	r, err := e.toGEOS(region)
	if err != nil {
		return nil, err
	}
	if r.IsEmpty() {
		return out, nil
	}
	prepared := r.Prepare()
	for i, c := range points {
		out[i] = prepared.Contains(e.ctx.NewPointFromXY(c.X(), c.Y()))
	}
	runtime.KeepAlive(r)
	return out, nil
}

// Centroid returns the centroid of g. Lines are weighted by length.
func (e *GEOS) Centroid(g geom.T) (geom.Coord, error) {
	src, err := e.toGEOS(g)
	if err != nil {
		return nil, err
	}
	if src.IsEmpty() {
		return nil, eris.New("geometry: centroid of empty geometry")
	}
	c := src.Centroid()
	return geom.Coord{c.X(), c.Y()}, nil
}

func (e *GEOS) toGEOS(g geom.T) (*geos.Geom, error) {
	if g == nil {
		return nil, eris.New("geometry: nil geometry")
	}
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode WKB")
	}
	out, err := e.ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB in GEOS")
	}
	return out, nil
}

func (e *GEOS) fromGEOS(g *geos.Geom) (geom.T, error) {
	out, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB from GEOS")
	}
	return out, nil
}

// IsEmpty reports whether g has no coordinates.
func IsEmpty(g geom.T) bool {
	if g == nil {
		return true
	}
	if gc, ok := g.(*geom.GeometryCollection); ok {
		for _, child := range gc.Geoms() {
			if !IsEmpty(child) {
				return false
			}
		}
		return true
	}
	return len(g.FlatCoords()) == 0
}
