package query

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/buffer-dashboard/internal/dataset"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
)

// RoadsResult is the outcome of the settlements-near-roads query.
type RoadsResult struct {
	Distance float64
	Region   geom.T
	Selected []dataset.Settlement

	PopulationInside  int64
	PopulationOutside int64
	CountInside       int
	CountOutside      int
}

// TotalCount is the number of settlements considered.
func (r *RoadsResult) TotalCount() int { return r.CountInside + r.CountOutside }

// TotalPopulation is the population of all settlements considered.
func (r *RoadsResult) TotalPopulation() int64 { return r.PopulationInside + r.PopulationOutside }

// Roads selects the settlements strictly within d meters of the roads and
// aggregates population and counts inside and outside the buffer.
func Roads(engine geometry.Engine, roads []dataset.Road, settlements []dataset.Settlement, d float64) (*RoadsResult, error) {
	region, err := BufferZone(engine, dataset.Geometries(roads), d)
	if err != nil {
		return nil, err
	}

	selected, mask, err := SelectWithin(engine, settlements, region)
	if err != nil {
		return nil, err
	}

	res := &RoadsResult{Distance: d, Region: region, Selected: selected}
	for i, s := range settlements {
		if mask[i] {
			res.PopulationInside += s.Population
			res.CountInside++
		} else {
			res.PopulationOutside += s.Population
			res.CountOutside++
		}
	}
	return res, nil
}
