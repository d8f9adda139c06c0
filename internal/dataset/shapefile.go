package dataset

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// ClassField is the road category attribute.
const ClassField = "KOD"

// ReadRoads reads a polyline shapefile into roads. Attribute values are
// decoded with dec (nil means raw bytes).
func ReadRoads(shpPath string, dec *encoding.Decoder) ([]Road, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	classIdx := fieldIndex(reader, ClassField)
	if classIdx < 0 {
		return nil, eris.Errorf("dataset: shapefile %s has no %s field", shpPath, ClassField)
	}

	var roads []Road
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		mls := polyLineToMultiLineString(shape)
		if mls == nil {
			skipped++
			continue
		}

		raw := attribute(reader, classIdx, dec)
		class, err := parseClass(raw)
		if err != nil {
			skipped++
			zap.L().Debug("dataset: unparseable road class", zap.String("value", raw))
			continue
		}

		roads = append(roads, Road{Class: class, Geom: mls})
	}

	if skipped > 0 {
		zap.L().Warn("dataset: skipped shapefile records",
			zap.String("file", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return roads, nil
}

// ReadProjection returns the WKT stored in the shapefile's .prj sidecar, or
// "" when there is none.
func ReadProjection(shpPath string) (string, error) {
	prj := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	data, err := os.ReadFile(prj)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "dataset: read %s", prj)
	}
	return strings.TrimSpace(string(data)), nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func attribute(reader *shp.Reader, idx int, dec *encoding.Decoder) string {
	val := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	if dec == nil {
		return val
	}
	decoded, err := dec.String(val)
	if err != nil {
		return val
	}
	return decoded
}

// parseClass accepts integer dBase values, including the "3.0" form some
// writers emit for numeric fields.
func parseClass(raw string) (int, error) {
	if raw == "" {
		return 0, eris.New("empty")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, eris.Errorf("non-integer class %q", raw)
	}
	return int(f), nil
}

// polyLineToMultiLineString converts polyline shapes (plain, Z or M) to a
// geom.MultiLineString. Other shape types yield nil.
func polyLineToMultiLineString(s shp.Shape) *geom.MultiLineString {
	var parts []int32
	var points []shp.Point

	switch pl := s.(type) {
	case *shp.PolyLine:
		parts, points = pl.Parts, pl.Points
	case *shp.PolyLineZ:
		parts, points = pl.Parts, pl.Points
	case *shp.PolyLineM:
		parts, points = pl.Parts, pl.Points
	default:
		return nil
	}

	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)

	n := int32(len(points))
	for i := range parts {
		start := parts[i]
		end := n
		if i+1 < len(parts) {
			end = min(parts[i+1], n)
		}
		if start < 0 || start >= n || end-start < 2 {
			zap.L().Debug("dataset: skipping degenerate linestring part", zap.Int("part", i))
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, points[j].X, points[j].Y)
		}

		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("dataset: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}
