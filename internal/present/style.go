package present

// Style carries the per-section layer names, colors and markers.
type Style struct {
	RegionName string
	RegionFill string
	RegionLine string

	BaseName     string
	Base         Marker
	ContextName  string
	Context      Marker
	SelectedName string
	Selected     Marker

	ChartTitle string
	// PanelColors holds the inside/outside bar colors for each chart panel.
	PanelColors [][2]string
}

// RoadsStyle is the styling of the settlements-near-roads section.
func RoadsStyle() Style {
	return Style{
		RegionName:   "Buffer Zone",
		RegionFill:   "rgba(0, 100, 255, 0.4)",
		RegionLine:   "cyan",
		BaseName:     "All Settlements",
		Base:         Marker{Color: "#7f7f7f", Size: 5, Opacity: 0.7},
		SelectedName: "Selected Settlements",
		Selected:     Marker{Color: "yellow", Size: 8, Opacity: 0.9},
		ChartTitle:   "Data Summary",
		PanelColors: [][2]string{
			{"#FFC300", "#581845"},
			{"#DAF7A6", "#900C3F"},
		},
	}
}

// PortsStyle is the styling of the ports-near-large-settlements section.
func PortsStyle() Style {
	return Style{
		RegionName:   "Buffer Zone",
		RegionFill:   "rgba(255, 0, 100, 0.4)",
		RegionLine:   "magenta",
		BaseName:     "All Ports",
		Base:         Marker{Color: "#7f7f7f", Size: 5, Opacity: 0.7},
		ContextName:  "Large Settlements (>10k)",
		Context:      Marker{Color: "cyan", Size: 10, Symbol: "star"},
		SelectedName: "Selected Ports",
		Selected:     Marker{Color: "lime", Size: 8, Opacity: 0.9},
		ChartTitle:   "Ports Summary",
		PanelColors: [][2]string{
			{"#00CFE8", "#630C3F"},
		},
	}
}
