package present

import "strconv"

// RoadsTitle reads "Population within <d> meters: <population>", with the
// population grouped by thousands.
func (b *Builder) RoadsTitle(d float64, population int64) string {
	return b.printer.Sprintf("Population within %s meters: %d", formatDistance(d), population)
}

// PortsTitle reads "Number of ports within <km> km of large settlements:
// <count>", with the distance in kilometers to one decimal.
func (b *Builder) PortsTitle(d float64, count int) string {
	return b.printer.Sprintf("Number of ports within %.1f km of large settlements: %d", d/1000, count)
}

// formatDistance prints whole meters without a fractional part.
func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
