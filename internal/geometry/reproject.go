package geometry

import (
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	orbwkb "github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/project"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// HTRS96 is the proj4 definition of HTRS96 / Croatia TM (EPSG:3765), the
// projected system the source datasets ship in.
const HTRS96 = "+proj=tmerc +lat_0=0 +lon_0=16.5 +k=0.9999 +x_0=500000 +y_0=0 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"

// WGS84 is the geographic system used for display.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// Reprojector converts planar source coordinates to WGS84 longitude/latitude.
// It is only used for presentation; distance math stays in the source system.
type Reprojector struct {
	source    string
	transform proj.Transformer
}

// NewReprojector parses the source CRS (proj4 or WKT) and prepares a
// transform to WGS84.
func NewReprojector(source string) (*Reprojector, error) {
	src, err := proj.Parse(source)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: parse source CRS")
	}
	dst, err := proj.Parse(WGS84)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: parse WGS84")
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: build transform")
	}
	return &Reprojector{source: source, transform: t}, nil
}

// Source returns the source CRS definition.
func (r *Reprojector) Source() string { return r.source }

// Point reprojects a single planar coordinate.
func (r *Reprojector) Point(x, y float64) (orb.Point, error) {
	lon, lat, err := r.transform(x, y)
	if err != nil {
		return orb.Point{}, eris.Wrapf(err, "geometry: reproject (%f, %f)", x, y)
	}
	return orb.Point{lon, lat}, nil
}

// Geometry reprojects a go-geom geometry into an orb geometry in WGS84.
func (r *Reprojector) Geometry(g geom.T) (orb.Geometry, error) {
	if IsEmpty(g) {
		return orb.Collection{}, nil
	}
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode WKB")
	}
	og, err := orbwkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB into orb")
	}

	var firstErr error
	out := project.Geometry(og, func(p orb.Point) orb.Point {
		if firstErr != nil {
			return p
		}
		q, err := r.Point(p[0], p[1])
		if err != nil {
			firstErr = err
			return p
		}
		return q
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
