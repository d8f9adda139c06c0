package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Column names in the delimited tables.
const (
	EastingColumn        = "EASTING"
	NorthingColumn       = "NORTHING"
	PopulationColumn     = "BR_ST_01"
	SettlementNameColumn = "NAZIV_NAS"
	PortNameColumn       = "NAZIV"
)

// CSVOptions configures the delimited table reader.
type CSVOptions struct {
	Delimiter rune              // default ';'
	Decoder   *encoding.Decoder // nil reads UTF-8
}

// table is a header-indexed set of rows.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) get(row []string, col string) string {
	i := t.index[col]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readTable reads a delimited file with a header row.
func readTable(r io.Reader, opts CSVOptions) (*table, error) {
	if opts.Decoder != nil {
		r = transform.NewReader(r, opts.Decoder)
	}

	reader := csv.NewReader(r)
	reader.Comma = ';'
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		t.rows = append(t.rows, record)
	}

	return t, nil
}

func parseCoord(t *table, row []string, line int) (geom.Coord, error) {
	x, err := strconv.ParseFloat(t.get(row, EastingColumn), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "row %d: %s", line, EastingColumn)
	}
	y, err := strconv.ParseFloat(t.get(row, NorthingColumn), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "row %d: %s", line, NorthingColumn)
	}
	return geom.Coord{x, y}, nil
}

// ReadSettlements parses the settlement table. Every row must carry a
// position and a non-negative population.
func ReadSettlements(r io.Reader, opts CSVOptions) ([]Settlement, error) {
	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}
	if err := t.require(EastingColumn, NorthingColumn, PopulationColumn, SettlementNameColumn); err != nil {
		return nil, err
	}

	out := make([]Settlement, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		pos, err := parseCoord(t, row, line)
		if err != nil {
			return nil, err
		}
		pop, err := strconv.ParseFloat(t.get(row, PopulationColumn), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "row %d: %s", line, PopulationColumn)
		}
		if pop < 0 {
			return nil, eris.Errorf("row %d: negative population %g", line, pop)
		}
		out = append(out, Settlement{
			Name:       t.get(row, SettlementNameColumn),
			Population: int64(pop),
			Position:   pos,
		})
	}
	return out, nil
}

// ReadPorts parses the port table. Duplicate names are kept; queries
// de-duplicate them.
func ReadPorts(r io.Reader, opts CSVOptions) ([]Port, error) {
	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}
	if err := t.require(EastingColumn, NorthingColumn, PortNameColumn); err != nil {
		return nil, err
	}

	out := make([]Port, 0, len(t.rows))
	for i, row := range t.rows {
		pos, err := parseCoord(t, row, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, Port{Name: t.get(row, PortNameColumn), Position: pos})
	}
	return out, nil
}

// Decoder resolves a charset label (e.g. "utf-8", "windows-1252") to a
// decoder. An empty label means UTF-8.
func Decoder(label string) (*encoding.Decoder, error) {
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: unknown encoding %q", label)
	}
	return enc.NewDecoder(), nil
}

func readCSVFile(path string, opts CSVOptions, parse func(io.Reader, CSVOptions) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return parse(f, opts)
}
