package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buffer-dashboard/internal/dashboard"
)

var (
	queryDistance float64
	queryFull     bool
)

type querySummary struct {
	Section  dashboard.SectionName `json:"section"`
	Distance float64               `json:"distance"`
	Title    string                `json:"title"`
	Chart    any                   `json:"chart"`
	Map      any                   `json:"map,omitempty"`
}

var queryCmd = &cobra.Command{
	Use:       "query <roads|ports>",
	Short:     "Run one section query and print the result as JSON",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(dashboard.Roads), string(dashboard.Ports)},
	RunE: func(cmd *cobra.Command, args []string) error {
		section, err := dashboard.ParseSection(args[0])
		if err != nil {
			return err
		}

		dash := buildDashboard(cmd.Context(), cfg)
		if failed, msg := dash.Failed(); failed {
			return eris.New(msg)
		}

		distance := queryDistance
		if !cmd.Flags().Changed("distance") {
			ctrl, err := dash.Control(section)
			if err != nil {
				return err
			}
			distance = ctrl.Default
		}

		out, err := dash.Update(section, dashboard.Params{Distance: distance})
		if err != nil {
			return err
		}

		summary := querySummary{
			Section:  section,
			Distance: distance,
			Title:    out.Title,
			Chart:    out.Chart,
		}
		if queryFull {
			summary.Map = out.Map
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	queryCmd.Flags().Float64Var(&queryDistance, "distance", 0, "buffer distance in meters (default from config)")
	queryCmd.Flags().BoolVar(&queryFull, "full", false, "include the map layers")
	queryCmd.SetOut(os.Stdout)
	rootCmd.AddCommand(queryCmd)
}
