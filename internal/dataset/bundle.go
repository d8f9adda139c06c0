// Package dataset loads the road, settlement and port datasets once at
// startup and exposes them as an immutable Bundle.
package dataset

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/geometry"
)

// Road is one line feature of the road network.
type Road struct {
	Class int
	Geom  *geom.MultiLineString
}

// Settlement is a populated place with its planar position and the WGS84
// position used for display.
type Settlement struct {
	Name       string
	Population int64
	Position   geom.Coord
	LonLat     orb.Point
}

// Coord returns the planar position.
func (s Settlement) Coord() geom.Coord { return s.Position }

// Label returns the hover label.
func (s Settlement) Label() string { return s.Name }

// WGS84 returns the display position.
func (s Settlement) WGS84() orb.Point { return s.LonLat }

// Port is a port or marina.
type Port struct {
	Name     string
	Position geom.Coord
	LonLat   orb.Point
}

// Coord returns the planar position.
func (p Port) Coord() geom.Coord { return p.Position }

// Label returns the hover label.
func (p Port) Label() string { return p.Name }

// WGS84 returns the display position.
func (p Port) WGS84() orb.Point { return p.LonLat }

// Options controls the static subsets derived when a bundle is built.
type Options struct {
	RoadClasses        []int
	LargeSettlementMin int64
}

// Bundle is the process-wide dataset state. It is built once and never
// mutated; every consumer shares the same pointer.
type Bundle struct {
	Roads            []Road
	MajorRoads       []Road
	Settlements      []Settlement
	LargeSettlements []Settlement
	Ports            []Port

	// Projector converts planar source coordinates to WGS84 for display.
	Projector *geometry.Reprojector

	// Center is the WGS84 centroid of the major road network, the default
	// map center.
	Center orb.Point

	// TotalPopulation is the population of all settlements.
	TotalPopulation int64
}

// NewBundle derives the static subsets and WGS84 positions from the base
// collections. The input slices are copied; callers may reuse them.
func NewBundle(roads []Road, settlements []Settlement, ports []Port, projector *geometry.Reprojector, opts Options) (*Bundle, error) {
	if projector == nil {
		return nil, eris.New("dataset: nil projector")
	}

	b := &Bundle{
		Roads:       slices.Clone(roads),
		Settlements: slices.Clone(settlements),
		Ports:       slices.Clone(ports),
		Projector:   projector,
	}

	for _, r := range b.Roads {
		if slices.Contains(opts.RoadClasses, r.Class) {
			b.MajorRoads = append(b.MajorRoads, r)
		}
	}

	for i := range b.Settlements {
		s := &b.Settlements[i]
		if s.Population < 0 {
			return nil, eris.Errorf("dataset: settlement %q has negative population %d", s.Name, s.Population)
		}
		ll, err := projector.Point(s.Position.X(), s.Position.Y())
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: reproject settlement %q", s.Name)
		}
		s.LonLat = ll
		b.TotalPopulation += s.Population
		if s.Population > opts.LargeSettlementMin {
			b.LargeSettlements = append(b.LargeSettlements, *s)
		}
	}

	for i := range b.Ports {
		p := &b.Ports[i]
		ll, err := projector.Point(p.Position.X(), p.Position.Y())
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: reproject port %q", p.Name)
		}
		p.LonLat = ll
	}

	center, err := roadCenter(b.MajorRoads, projector)
	if err != nil {
		return nil, err
	}
	b.Center = center

	return b, nil
}

// roadCenter computes the length-weighted centroid of the roads in WGS84.
func roadCenter(roads []Road, projector *geometry.Reprojector) (orb.Point, error) {
	var all orb.MultiLineString
	for _, r := range roads {
		g, err := projector.Geometry(r.Geom)
		if err != nil {
			return orb.Point{}, eris.Wrap(err, "dataset: reproject road")
		}
		if mls, ok := g.(orb.MultiLineString); ok {
			all = append(all, mls...)
		}
	}
	if len(all) == 0 {
		zap.L().Warn("dataset: no major roads, default map center is (0, 0)")
		return orb.Point{}, nil
	}
	c, _ := planar.CentroidArea(all)
	return c, nil
}

// Geometries returns the road geometries as a slice for the engine.
func Geometries(roads []Road) []geom.T {
	out := make([]geom.T, 0, len(roads))
	for _, r := range roads {
		out = append(out, r.Geom)
	}
	return out
}

// PointGeometries returns settlement positions as point geometries.
func PointGeometries(settlements []Settlement) []geom.T {
	out := make([]geom.T, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, geom.NewPointFlat(geom.XY, []float64{s.Position.X(), s.Position.Y()}))
	}
	return out
}
