// Package present turns query results into display descriptions: a layered
// map, a bar chart and a title line per dashboard section.
package present

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/buffer-dashboard/internal/dataset"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
	"github.com/sells-group/buffer-dashboard/internal/query"
)

// Layer kinds.
const (
	LayerRegion = "region"
	LayerPoints = "points"
)

// LatLon is a geographic coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Viewport is the map center and zoom observed by the display surface.
type Viewport struct {
	Center LatLon  `json:"center"`
	Zoom   float64 `json:"zoom"`
}

// Marker styles a point layer.
type Marker struct {
	Color   string  `json:"color"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
}

// Layer is one map layer. Region layers carry Fill and Line; point layers
// carry a Marker.
type Layer struct {
	Name   string                     `json:"name"`
	Kind   string                     `json:"kind"`
	Fill   string                     `json:"fill,omitempty"`
	Line   string                     `json:"line,omitempty"`
	Marker *Marker                    `json:"marker,omitempty"`
	Hover  bool                       `json:"hover"`
	Data   *geojson.FeatureCollection `json:"data"`
}

// Legend anchors the map legend.
type Legend struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	XAnchor string  `json:"xanchor"`
	YAnchor string  `json:"yanchor"`
}

// MapSpec describes a map: layers in draw order, bottom first.
type MapSpec struct {
	Style    string    `json:"style,omitempty"`
	Viewport *Viewport `json:"viewport,omitempty"`
	Legend   *Legend   `json:"legend,omitempty"`
	Layers   []Layer   `json:"layers"`
}

// Output is everything a section hands back to the display surface.
type Output struct {
	Map   MapSpec   `json:"map"`
	Chart ChartSpec `json:"chart"`
	Title string    `json:"title"`
	Error bool      `json:"error,omitempty"`
}

// ErrorOutput is the placeholder shown when the datasets failed to load:
// an empty map, an empty chart titled "Error" and the message as title.
func ErrorOutput(msg string) *Output {
	return &Output{
		Map:   MapSpec{Layers: []Layer{}},
		Chart: ChartSpec{Title: "Error", Panels: []Panel{}},
		Title: msg,
		Error: true,
	}
}

// Options holds the map defaults that do not depend on the data.
type Options struct {
	DefaultZoom float64
	MapStyle    string
}

// Builder builds section outputs over a loaded bundle.
type Builder struct {
	bundle  *dataset.Bundle
	opts    Options
	printer *message.Printer
}

// NewBuilder creates a Builder. The bundle is only read.
func NewBuilder(bundle *dataset.Bundle, opts Options) *Builder {
	return &Builder{
		bundle:  bundle,
		opts:    opts,
		printer: message.NewPrinter(language.English),
	}
}

// DefaultViewport is the road network centroid at the default zoom.
func (b *Builder) DefaultViewport() Viewport {
	return Viewport{
		Center: LatLon{Lat: b.bundle.Center.Lat(), Lon: b.bundle.Center.Lon()},
		Zoom:   b.opts.DefaultZoom,
	}
}

// Roads builds the roads section output. A non-nil viewport is echoed
// unchanged.
func (b *Builder) Roads(res *query.RoadsResult, vp *Viewport, style Style) (*Output, error) {
	region, err := b.regionLayer(res.Region, style)
	if err != nil {
		return nil, err
	}

	layers := []Layer{
		region,
		pointLayer(style.BaseName, style.Base, false, b.bundle.Settlements),
		pointLayer(style.SelectedName, style.Selected, true, res.Selected),
	}

	return &Output{
		Map:   b.mapSpec(layers, vp),
		Chart: RoadsChart(res, style),
		Title: b.RoadsTitle(res.Distance, res.PopulationInside),
	}, nil
}

// Ports builds the ports section output, with large settlements as a
// context layer between all ports and the selection.
func (b *Builder) Ports(res *query.PortsResult, vp *Viewport, style Style) (*Output, error) {
	region, err := b.regionLayer(res.Region, style)
	if err != nil {
		return nil, err
	}

	layers := []Layer{
		region,
		pointLayer(style.BaseName, style.Base, false, b.bundle.Ports),
		pointLayer(style.ContextName, style.Context, true, b.bundle.LargeSettlements),
		pointLayer(style.SelectedName, style.Selected, true, res.Selected),
	}

	return &Output{
		Map:   b.mapSpec(layers, vp),
		Chart: PortsChart(res, style),
		Title: b.PortsTitle(res.Distance, res.CountInside),
	}, nil
}

func (b *Builder) mapSpec(layers []Layer, vp *Viewport) MapSpec {
	view := b.DefaultViewport()
	if vp != nil {
		view = *vp
	}
	return MapSpec{
		Style:    b.opts.MapStyle,
		Viewport: &view,
		Legend:   &Legend{X: 0.01, Y: 0.99, XAnchor: "left", YAnchor: "top"},
		Layers:   layers,
	}
}

func (b *Builder) regionLayer(region geom.T, style Style) (Layer, error) {
	fc := geojson.NewFeatureCollection()
	if !geometry.IsEmpty(region) {
		g, err := b.bundle.Projector.Geometry(region)
		if err != nil {
			return Layer{}, eris.Wrap(err, "present: reproject region")
		}
		fc.Append(geojson.NewFeature(g))
	}
	return Layer{
		Name: style.RegionName,
		Kind: LayerRegion,
		Fill: style.RegionFill,
		Line: style.RegionLine,
		Data: fc,
	}, nil
}

type displayPoint interface {
	Label() string
	WGS84() orb.Point
}

func pointLayer[T displayPoint](name string, marker Marker, hover bool, points []T) Layer {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewFeature(p.WGS84())
		if hover {
			f.Properties["name"] = p.Label()
		}
		fc.Append(f)
	}
	m := marker
	return Layer{
		Name:   name,
		Kind:   LayerPoints,
		Marker: &m,
		Hover:  hover,
		Data:   fc,
	}
}
