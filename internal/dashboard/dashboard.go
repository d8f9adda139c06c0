// Package dashboard binds each section's distance control and map viewport
// to the query and presentation pipeline.
package dashboard

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/config"
	"github.com/sells-group/buffer-dashboard/internal/dataset"
	"github.com/sells-group/buffer-dashboard/internal/export"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
	"github.com/sells-group/buffer-dashboard/internal/present"
	"github.com/sells-group/buffer-dashboard/internal/query"
)

// SectionName identifies a dashboard section.
type SectionName string

// Sections.
const (
	Roads SectionName = "roads"
	Ports SectionName = "ports"
)

// Sections lists every section in display order.
var Sections = []SectionName{Roads, Ports}

var (
	// ErrUnknownSection is returned for a section name that does not exist.
	ErrUnknownSection = eris.New("dashboard: unknown section")
	// ErrUnavailable is returned by operations that need data after the
	// datasets failed to load.
	ErrUnavailable = eris.New("dashboard: datasets not loaded")
)

// ParseSection validates a section name.
func ParseSection(s string) (SectionName, error) {
	switch SectionName(s) {
	case Roads, Ports:
		return SectionName(s), nil
	}
	return "", eris.Wrapf(ErrUnknownSection, "%q", s)
}

// Control describes a section's distance slider.
type Control struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

func controlFrom(c config.SliderConfig) Control {
	return Control{Min: c.Min, Max: c.Max, Step: c.Step, Default: c.Default}
}

// Params are the inputs of one section update. A nil Viewport selects the
// default view.
type Params struct {
	Distance float64
	Viewport *present.Viewport
}

// Dashboard holds the shared, read-only state behind every session.
type Dashboard struct {
	bundle   *dataset.Bundle
	engine   geometry.Engine
	builder  *present.Builder
	controls map[SectionName]Control
	styles   map[SectionName]present.Style

	failure string
	log     *zap.Logger
}

// New creates a Dashboard over a loaded bundle. When loadErr is non-nil the
// dashboard is permanently failed: every update returns the error
// placeholder and loading is never retried.
func New(bundle *dataset.Bundle, loadErr error, engine geometry.Engine, cfg config.DashboardConfig) *Dashboard {
	d := &Dashboard{
		bundle: bundle,
		engine: engine,
		controls: map[SectionName]Control{
			Roads: controlFrom(cfg.Roads),
			Ports: controlFrom(cfg.Ports),
		},
		styles: map[SectionName]present.Style{
			Roads: present.RoadsStyle(),
			Ports: present.PortsStyle(),
		},
		log: zap.L().With(zap.String("component", "dashboard")),
	}

	switch {
	case loadErr != nil:
		if le, ok := dataset.AsLoadError(loadErr); ok {
			d.failure = le.Message()
		} else {
			d.failure = "Error: Could not load data files. Make sure all data files are in the same directory."
		}
		d.log.Error("datasets unavailable, serving error placeholders", zap.Error(loadErr))
	case bundle == nil:
		d.failure = "Error: no datasets loaded."
	default:
		d.builder = present.NewBuilder(bundle, present.Options{
			DefaultZoom: cfg.DefaultZoom,
			MapStyle:    cfg.MapStyle,
		})
	}
	return d
}

// Failed reports whether the datasets failed to load, with the user-facing
// message.
func (d *Dashboard) Failed() (bool, string) {
	return d.failure != "", d.failure
}

// Control returns the slider configuration of a section.
func (d *Dashboard) Control(section SectionName) (Control, error) {
	c, ok := d.controls[section]
	if !ok {
		return Control{}, eris.Wrapf(ErrUnknownSection, "%q", section)
	}
	return c, nil
}

// Controls returns every section's slider configuration.
func (d *Dashboard) Controls() map[SectionName]Control {
	out := make(map[SectionName]Control, len(d.controls))
	for k, v := range d.controls {
		out[k] = v
	}
	return out
}

// Update runs query then presentation for one section.
func (d *Dashboard) Update(section SectionName, p Params) (*present.Output, error) {
	if _, err := d.Control(section); err != nil {
		return nil, err
	}
	if d.failure != "" {
		return present.ErrorOutput(d.failure), nil
	}

	start := time.Now()
	var (
		out *present.Output
		err error
	)
	switch section {
	case Roads:
		var res *query.RoadsResult
		res, err = query.Roads(d.engine, d.bundle.MajorRoads, d.bundle.Settlements, p.Distance)
		if err == nil {
			out, err = d.builder.Roads(res, p.Viewport, d.styles[Roads])
		}
	case Ports:
		var res *query.PortsResult
		res, err = query.Ports(d.engine, d.bundle.LargeSettlements, d.bundle.Ports, p.Distance)
		if err == nil {
			out, err = d.builder.Ports(res, p.Viewport, d.styles[Ports])
		}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dashboard: update %s", section)
	}

	d.log.Debug("section updated",
		zap.String("section", string(section)),
		zap.Float64("distance", p.Distance),
		zap.Bool("viewport", p.Viewport != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// Chart returns only the chart description of a section.
func (d *Dashboard) Chart(section SectionName, distance float64) (present.ChartSpec, error) {
	out, err := d.Update(section, Params{Distance: distance})
	if err != nil {
		return present.ChartSpec{}, err
	}
	return out.Chart, nil
}

// Export writes the current selection of a section in the given format.
func (d *Dashboard) Export(w io.Writer, section SectionName, distance float64, format export.Format) error {
	if _, err := d.Control(section); err != nil {
		return err
	}
	if d.failure != "" {
		return ErrUnavailable
	}

	layer := string(section) + "-selection"
	switch section {
	case Roads:
		res, err := query.Roads(d.engine, d.bundle.MajorRoads, d.bundle.Settlements, distance)
		if err != nil {
			return eris.Wrapf(err, "dashboard: export %s", section)
		}
		return export.WriteSettlements(w, format, layer, res.Selected)
	default:
		res, err := query.Ports(d.engine, d.bundle.LargeSettlements, d.bundle.Ports, distance)
		if err != nil {
			return eris.Wrapf(err, "dashboard: export %s", section)
		}
		return export.WritePorts(w, format, layer, res.Selected)
	}
}
