package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vaservices/internal/model"
)

var markersFormat string

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Print the city markers and their popup text",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, cfg, "render")
		if err != nil {
			return err
		}
		defer env.Close()

		markers, err := env.Pipeline.Markers(ctx)
		if err != nil {
			return eris.Wrap(err, "markers")
		}

		return writeMarkers(cmd.OutOrStdout(), markers, markersFormat)
	},
}

func init() {
	markersCmd.Flags().StringVar(&markersFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(markersCmd)
}

type markerOut struct {
	City  string   `json:"city"`
	Title string   `json:"title"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Lines []string `json:"lines"`
}

func writeMarkers(out io.Writer, markers []model.Marker, format string) error {
	switch format {
	case "json":
		docs := make([]markerOut, len(markers))
		for i, m := range markers {
			docs[i] = markerOut{City: m.City, Title: m.Title, Lat: m.Point.Lat, Lon: m.Point.Lon, Lines: m.Lines}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(docs), "markers: encode json")
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CITY\tLAT\tLON\tPOPUP")
		for _, m := range markers {
			_, _ = fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\n", m.Title, m.Point.Lat, m.Point.Lon, strings.Join(m.Lines, "; "))
		}
		return eris.Wrap(w.Flush(), "markers: write table")
	default:
		return eris.Errorf("markers: unknown format %q", format)
	}
}
