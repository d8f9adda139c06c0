package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/buffer-dashboard/internal/dataset"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// SettlementsSheet writes settlements as a one-sheet workbook with
// name, population, lon and lat columns.
func SettlementsSheet(w io.Writer, sheetName string, settlements []dataset.Settlement) error {
	if len(settlements) == 0 {
		return ErrEmpty
	}

	f, sheet, err := newWorkbook(sheetName, "name", "population", "lon", "lat")
	if err != nil {
		return err
	}
	for _, s := range settlements {
		row := sheet.AddRow()
		row.AddCell().SetString(s.Name)
		row.AddCell().SetInt64(s.Population)
		row.AddCell().SetFloat(s.LonLat.Lon())
		row.AddCell().SetFloat(s.LonLat.Lat())
	}
	return save(w, f, sheetName)
}

// PortsSheet writes ports as a one-sheet workbook with name, lon and lat
// columns.
func PortsSheet(w io.Writer, sheetName string, ports []dataset.Port) error {
	if len(ports) == 0 {
		return ErrEmpty
	}

	f, sheet, err := newWorkbook(sheetName, "name", "lon", "lat")
	if err != nil {
		return err
	}
	for _, p := range ports {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Name)
		row.AddCell().SetFloat(p.LonLat.Lon())
		row.AddCell().SetFloat(p.LonLat.Lat())
	}
	return save(w, f, sheetName)
}

func newWorkbook(sheetName string, header ...string) (*xlsx.File, *xlsx.Sheet, error) {
	if len(sheetName) > maxSheetName {
		sheetName = sheetName[:maxSheetName]
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "export: add sheet %q", sheetName)
	}

	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
	return f, sheet, nil
}

func save(w io.Writer, f *xlsx.File, sheetName string) error {
	if err := f.Write(w); err != nil {
		return eris.Wrapf(err, "export: write sheet %q", sheetName)
	}
	return nil
}
