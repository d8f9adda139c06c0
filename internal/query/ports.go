package query

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/buffer-dashboard/internal/dataset"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
)

// OutsideBasisRaw marks an outside count computed against the raw port
// table, duplicates included.
const OutsideBasisRaw = "raw"

// PortsResult is the outcome of the ports-near-large-settlements query.
//
// CountInside counts distinct port names, while CountOutside is taken
// against the raw table: len(ports) - CountInside. With duplicate names
// inside the buffer the two do not partition any single collection.
type PortsResult struct {
	Distance float64
	Region   geom.T
	Selected []dataset.Port

	CountInside  int
	CountOutside int
	OutsideBasis string

	// RawTotal is the number of rows in the port table.
	RawTotal int
	// DuplicatesDropped is how many selected rows were removed by name
	// de-duplication.
	DuplicatesDropped int
}

// Ports selects the ports strictly within d meters of the large settlements,
// keeping the first port per name in table order.
func Ports(engine geometry.Engine, sources []dataset.Settlement, ports []dataset.Port, d float64) (*PortsResult, error) {
	region, err := BufferZone(engine, dataset.PointGeometries(sources), d)
	if err != nil {
		return nil, err
	}

	selected, _, err := SelectWithin(engine, ports, region)
	if err != nil {
		return nil, err
	}

	distinct, dropped := FirstByName(selected)

	return &PortsResult{
		Distance:          d,
		Region:            region,
		Selected:          distinct,
		CountInside:       len(distinct),
		CountOutside:      len(ports) - len(distinct),
		OutsideBasis:      OutsideBasisRaw,
		RawTotal:          len(ports),
		DuplicatesDropped: dropped,
	}, nil
}

// FirstByName de-duplicates ports by exact name. The first occurrence in
// slice order is kept, so the result is deterministic for a fixed input
// order. It returns the kept ports and the number dropped.
func FirstByName(ports []dataset.Port) ([]dataset.Port, int) {
	seen := make(map[string]struct{}, len(ports))
	out := make([]dataset.Port, 0, len(ports))
	for _, p := range ports {
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}
	return out, len(ports) - len(out)
}
