package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/config"
	"github.com/sells-group/vaservices/internal/places"
	"github.com/sells-group/vaservices/internal/servicemap"
)

var placesFile string

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Manage the city coordinate table",
}

var placesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a city,lat,lon file into the configured places store",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := importPlaces(cmd.Context(), cfg, placesFile)
		if err != nil {
			return err
		}
		zap.L().Info("places imported",
			zap.String("file", placesFile),
			zap.String("driver", cfg.Places.Driver),
			zap.Int64("rows", n),
		)
		return nil
	},
}

var placesLocateCmd = &cobra.Command{
	Use:   "locate <city>...",
	Short: "Print the coordinates the configured locator returns",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loc, closeFn, err := places.Open(ctx, cfg.Places)
		if err != nil {
			return eris.Wrap(err, "open places")
		}
		defer closeFn() //nolint:errcheck

		return locatePlaces(ctx, cmd.OutOrStdout(), loc, args)
	},
}

// importPlaces reads file and upserts it into the store selected by c.
func importPlaces(ctx context.Context, c *config.Config, file string) (int64, error) {
	if err := c.Validate("places"); err != nil {
		return 0, err
	}

	entries, err := places.LoadCSV(ctx, file)
	if err != nil {
		return 0, err
	}

	store, err := places.OpenStore(ctx, c.Places)
	if err != nil {
		return 0, err
	}
	defer store.Close() //nolint:errcheck

	if err := store.Migrate(ctx); err != nil {
		return 0, err
	}
	return store.Upsert(ctx, entries)
}

// locatePlaces prints one line per city. The first unknown city fails.
func locatePlaces(ctx context.Context, out io.Writer, loc servicemap.Locator, cities []string) error {
	for _, city := range cities {
		pt, err := loc.Locate(ctx, city)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s\t%.4f\t%.4f\n", city, pt.Lat, pt.Lon)
	}
	return nil
}

func init() {
	placesImportCmd.Flags().StringVar(&placesFile, "file", "", "city,lat,lon file (CSV, TSV or XLSX)")
	_ = placesImportCmd.MarkFlagRequired("file")
	placesCmd.AddCommand(placesImportCmd, placesLocateCmd)
	rootCmd.AddCommand(placesCmd)
}
