package present

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/buffer-dashboard/internal/query"
)

// Bar is one categorical bar.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Panel is one sub-chart.
type Panel struct {
	Title string `json:"title"`
	Bars  []Bar  `json:"bars"`
}

// ChartSpec is a titled stack of bar panels.
type ChartSpec struct {
	Title  string  `json:"title"`
	Panels []Panel `json:"panels"`
}

func insideOutside(title string, colors [2]string, inside, outside float64) Panel {
	return Panel{
		Title: title,
		Bars: []Bar{
			{Label: "Inside", Value: inside, Color: colors[0]},
			{Label: "Outside", Value: outside, Color: colors[1]},
		},
	}
}

// RoadsChart has a population panel above a settlement count panel.
func RoadsChart(res *query.RoadsResult, style Style) ChartSpec {
	return ChartSpec{
		Title: style.ChartTitle,
		Panels: []Panel{
			insideOutside("Population", style.PanelColors[0],
				float64(res.PopulationInside), float64(res.PopulationOutside)),
			insideOutside("Number of Settlements", style.PanelColors[1],
				float64(res.CountInside), float64(res.CountOutside)),
		},
	}
}

// PortsChart has a single port count panel.
func PortsChart(res *query.PortsResult, style Style) ChartSpec {
	return ChartSpec{
		Title: style.ChartTitle,
		Panels: []Panel{
			insideOutside("Ports", style.PanelColors[0],
				float64(res.CountInside), float64(res.CountOutside)),
		},
	}
}

var (
	chartBackground = drawing.ColorFromHex("1E1E1E")
	chartForeground = drawing.ColorFromHex("FFFFFF")
)

// RenderPNG draws the chart as a PNG, stacking panels vertically in a
// width x height image.
func RenderPNG(w io.Writer, spec ChartSpec, width, height int) error {
	if width <= 0 || height <= 0 {
		return eris.Errorf("present: invalid chart size %dx%d", width, height)
	}

	panels := spec.Panels
	if len(panels) == 0 {
		panels = []Panel{{Title: spec.Title}}
	}
	panelHeight := height / len(panels)

	canvas := image.NewRGBA(image.Rect(0, 0, width, panelHeight*len(panels)))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: chartBackground}, image.Point{}, draw.Src)

	for i, p := range panels {
		title := p.Title
		if i == 0 && spec.Title != "" && spec.Title != p.Title {
			title = spec.Title + " - " + p.Title
		}
		img, err := renderPanel(title, p.Bars, width, panelHeight)
		if err != nil {
			return err
		}
		dst := image.Rect(0, i*panelHeight, width, (i+1)*panelHeight)
		draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
	}

	if err := png.Encode(w, canvas); err != nil {
		return eris.Wrap(err, "present: encode chart png")
	}
	return nil
}

func renderPanel(title string, bars []Bar, width, height int) (image.Image, error) {
	if len(bars) == 0 {
		return image.NewUniform(chartBackground), nil
	}

	printer := message.NewPrinter(language.English)
	maxValue := 1.0
	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
		values = append(values, chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{
				FillColor:   barColor(b.Color),
				StrokeColor: barColor(b.Color),
				StrokeWidth: 1,
			},
		})
	}

	bc := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: chartForeground},
		Width:      width,
		Height:     height,
		BarWidth:   width / 4,
		Background: chart.Style{
			FillColor: chartBackground,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: chartBackground},
		XAxis:  chart.Style{FontColor: chartForeground, StrokeColor: chartForeground},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: chartForeground, StrokeColor: chartForeground},
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return printer.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, eris.Wrapf(err, "present: render chart %q", title)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, eris.Wrap(err, "present: decode chart png")
	}
	return img, nil
}

func barColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
