package export

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/buffer-dashboard/internal/dataset"
)

// Format is an export file format.
type Format string

// Formats.
const (
	FlatGeobuf Format = "fgb"
	XLSX       Format = "xlsx"
)

// ErrUnknownFormat is returned for formats other than FlatGeobuf and XLSX.
var ErrUnknownFormat = eris.New("export: unknown format")

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/flatgeobuf"
	}
}

// WriteSettlements writes settlements in format f.
func WriteSettlements(w io.Writer, f Format, layer string, settlements []dataset.Settlement) error {
	switch f {
	case FlatGeobuf:
		return Settlements(w, layer, settlements)
	case XLSX:
		return SettlementsSheet(w, layer, settlements)
	default:
		return eris.Wrapf(ErrUnknownFormat, "%q", f)
	}
}

// WritePorts writes ports in format f.
func WritePorts(w io.Writer, f Format, layer string, ports []dataset.Port) error {
	switch f {
	case FlatGeobuf:
		return Ports(w, layer, ports)
	case XLSX:
		return PortsSheet(w, layer, ports)
	default:
		return eris.Wrapf(ErrUnknownFormat, "%q", f)
	}
}
