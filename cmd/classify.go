package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/servicemap"
)

var (
	classifyService string
	classifyFormat  string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the availability category of every county",
	Long:  "Joins the county boundaries with the county service table and prints one category per county for each service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, cfg, "render")
		if err != nil {
			return err
		}
		defer env.Close()

		fields := env.Pipeline.ChoroplethCatalog().Fields()
		if classifyService != "" {
			fields = []string{classifyService}
		}

		views := make([]*servicemap.ChoroplethView, 0, len(fields))
		for _, field := range fields {
			view, err := env.Pipeline.Choropleth(ctx, field)
			if err != nil {
				return eris.Wrap(err, "classify")
			}
			if len(view.Unmatched) > 0 {
				zap.L().Warn("attribute rows name no county",
					zap.String("service", field),
					zap.Strings("keys", view.Unmatched),
				)
			}
			views = append(views, view)
		}

		return writeViews(cmd.OutOrStdout(), views, classifyFormat)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyService, "service", "", "service field to classify (default all)")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(classifyCmd)
}

type countyJSON struct {
	County   string `json:"county"`
	Category string `json:"category"`
	Label    string `json:"label"`
}

type viewJSON struct {
	Service   string         `json:"service"`
	Label     string         `json:"label"`
	Counties  []countyJSON   `json:"counties"`
	Summary   map[string]int `json:"summary"`
	Unmatched []string       `json:"unmatched,omitempty"`
}

// writeViews renders views as a county-by-service table or as JSON.
func writeViews(out io.Writer, views []*servicemap.ChoroplethView, format string) error {
	switch format {
	case "json":
		docs := make([]viewJSON, len(views))
		for i, v := range views {
			doc := viewJSON{
				Service:   v.Service.Field,
				Label:     v.Service.Label,
				Counties:  make([]countyJSON, len(v.Features)),
				Summary:   make(map[string]int, len(v.Summary)),
				Unmatched: v.Unmatched,
			}
			for j, f := range v.Features {
				doc.Counties[j] = countyJSON{County: f.Region.Name, Category: string(f.Category), Label: f.Label}
			}
			for c, n := range v.Summary {
				doc.Summary[string(c)] = n
			}
			docs[i] = doc
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(docs), "classify: encode json")
	case "table":
		formatViews(out, views)
		return nil
	default:
		return eris.Errorf("classify: unknown format %q", format)
	}
}

// formatViews writes one row per county with a column per service, then a
// footer with the county count of each category.
func formatViews(out io.Writer, views []*servicemap.ChoroplethView) {
	if len(views) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprint(w, "COUNTY")
	for _, v := range views {
		_, _ = fmt.Fprintf(w, "\t%s", v.Service.Label)
	}
	_, _ = fmt.Fprintln(w)

	for i, f := range views[0].Features {
		_, _ = fmt.Fprint(w, f.Region.Name)
		for _, v := range views {
			_, _ = fmt.Fprintf(w, "\t%s", v.Features[i].Category)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w)
	for _, c := range model.Categories {
		_, _ = fmt.Fprint(w, c)
		for _, v := range views {
			_, _ = fmt.Fprintf(w, "\t%d", v.Summary[c])
		}
		_, _ = fmt.Fprintln(w)
	}
	_ = w.Flush()
}
