// Package export writes a section's selected points in WGS84, as FlatGeobuf
// or as a spreadsheet.
package export

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/buffer-dashboard/internal/dataset"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = eris.New("export: no features selected")

// WGS84Code is the EPSG code written into the header.
const WGS84Code = 4326

type column struct {
	name string
	typ  flattypes.ColumnType
}

// record is one point with its already encoded property values.
type record struct {
	x, y  float64
	props []byte
}

var (
	settlementColumns = []column{
		{name: "name", typ: flattypes.ColumnTypeString},
		{name: "population", typ: flattypes.ColumnTypeLong},
	}
	portColumns = []column{
		{name: "name", typ: flattypes.ColumnTypeString},
	}
)

// Settlements writes settlements with name and population columns.
func Settlements(w io.Writer, layer string, settlements []dataset.Settlement) error {
	records := make([]record, 0, len(settlements))
	for _, s := range settlements {
		var p props
		p.putString(0, s.Name)
		p.putLong(1, s.Population)
		records = append(records, record{x: s.LonLat.Lon(), y: s.LonLat.Lat(), props: p.Bytes()})
	}
	return write(w, layer, settlementColumns, records)
}

// Ports writes ports with a name column.
func Ports(w io.Writer, layer string, ports []dataset.Port) error {
	records := make([]record, 0, len(ports))
	for _, pt := range ports {
		var p props
		p.putString(0, pt.Name)
		records = append(records, record{x: pt.LonLat.Lon(), y: pt.LonLat.Lat(), props: p.Bytes()})
	}
	return write(w, layer, portColumns, records)
}

func write(w io.Writer, layer string, columns []column, records []record) error {
	if len(records) == 0 {
		return ErrEmpty
	}

	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(flattypes.GeometryTypePoint)
	header.SetName(layer)

	cols := make([]*writer.Column, 0, len(columns))
	for _, c := range columns {
		col := writer.NewColumn(builder)
		col.SetName(c.name)
		col.SetTitle(c.name)
		col.SetType(c.typ)
		col.SetNullable(true)
		cols = append(cols, col)
	}
	header.SetColumns(cols)

	crs := writer.NewCrs(builder)
	crs.SetOrg("EPSG")
	crs.SetCode(WGS84Code)
	header.SetCrs(crs)

	gen := &pointGenerator{records: records}
	if _, err := writer.NewWriter(header, true, gen, nil).Write(w); err != nil {
		return eris.Wrapf(err, "export: write layer %q", layer)
	}
	return nil
}

type pointGenerator struct {
	records []record
	next    int
}

func (g *pointGenerator) Generate() *writer.Feature {
	if g.next >= len(g.records) {
		return nil
	}
	r := g.records[g.next]
	g.next++

	builder := flatbuffers.NewBuilder(256)
	geom := writer.NewGeometry(builder)
	geom.SetType(flattypes.GeometryTypePoint)
	geom.SetXY([]float64{r.x, r.y})

	f := writer.NewFeature(builder)
	f.SetGeometry(geom)
	f.SetProperties(r.props)
	return f
}

// props encodes feature properties as FlatGeobuf expects: a little-endian
// uint16 column index followed by the value.
type props struct {
	bytes.Buffer
}

func (p *props) index(i uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], i)
	p.Write(b[:])
}

// putString writes a string value, length prefixed with a uint32.
func (p *props) putString(i uint16, s string) {
	p.index(i)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(len(s)))
	p.Write(b[:])
	p.WriteString(s)
}

func (p *props) putLong(i uint16, v int64) {
	p.index(i)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	p.Write(b[:])
}
