// Package query implements the buffer → dissolve → containment pipeline
// behind both dashboard sections. Every function is pure over its inputs;
// nothing is cached between calls.
package query

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/buffer-dashboard/internal/geometry"
)

// ErrInvalidDistance is returned for negative or non-finite buffer distances.
var ErrInvalidDistance = eris.New("query: distance must be a finite, non-negative number of meters")

// Located is a selectable point.
type Located interface {
	Coord() geom.Coord
}

// ValidateDistance rejects distances the buffer operation cannot honor.
func ValidateDistance(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return eris.Wrapf(ErrInvalidDistance, "got %g", d)
	}
	return nil
}

// BufferZone buffers every source geometry by d and dissolves the result
// into a single region. No sources yields an empty region.
func BufferZone(engine geometry.Engine, sources []geom.T, d float64) (geom.T, error) {
	if err := ValidateDistance(d); err != nil {
		return nil, err
	}

	buffers := make([]geom.T, 0, len(sources))
	for _, src := range sources {
		b, err := engine.Buffer(src, d)
		if err != nil {
			return nil, eris.Wrap(err, "query: buffer")
		}
		buffers = append(buffers, b)
	}

	region, err := engine.Union(buffers)
	if err != nil {
		return nil, eris.Wrap(err, "query: union")
	}
	return region, nil
}

// SelectWithin returns the points strictly within region, in input order,
// along with a parallel mask over the input.
func SelectWithin[T Located](engine geometry.Engine, points []T, region geom.T) ([]T, []bool, error) {
	coords := make([]geom.Coord, len(points))
	for i, p := range points {
		coords[i] = p.Coord()
	}

	mask, err := engine.Within(coords, region)
	if err != nil {
		return nil, nil, eris.Wrap(err, "query: within")
	}

	var selected []T
	for i, inside := range mask {
		if inside {
			selected = append(selected, points[i])
		}
	}
	return selected, mask, nil
}
