// cmd/matchctl/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/compliance"
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
	"github.com/edwardxtra/xtrafleet-sub000/pkg/registry"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	asJSON     bool
	geocode    bool
	geocodeURL string
	logLevel   string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "matchctl",
		Short: "Rank drivers and loads from JSON snapshots",
		Long: `matchctl runs the load matching engine over JSON files without a broker or database.
Locations resolve from the built-in city table unless --geocode is given.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.asJSON, "json", false, "print results as JSON")
	pf.BoolVar(&flags.geocode, "geocode", false, "geocode locations missing from the built-in table")
	pf.StringVar(&flags.geocodeURL, "geocode-url", matching.DefaultGeocoderURL, "geocoder base URL")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "overall time limit")

	rootCmd.AddCommand(createDriversCmd(flags))
	rootCmd.AddCommand(createLoadsCmd(flags))
	rootCmd.AddCommand(createDistanceCmd(flags))
	rootCmd.AddCommand(createActivitiesCmd(flags))
	return rootCmd
}

func (g *globalFlags) logger() logger.Logger {
	return logger.NewStructured(g.logLevel, "console")
}

func (g *globalFlags) resolver(log logger.Logger) matching.CoordinateResolver {
	if !g.geocode {
		return matching.FallbackResolver{}
	}
	geocoder := matching.NewNominatimGeocoder(matching.NominatimConfig{
		BaseURL:           g.geocodeURL,
		RequestsPerSecond: 1,
	})
	return matching.NewGeocodingResolver(geocoder, matching.WithResolverLogger(log))
}

func (g *globalFlags) ranker(log logger.Logger) *matching.Ranker {
	return matching.NewRanker(g.resolver(log), compliance.NewExpiryClassifier(), matching.WithRankerLogger(log))
}

func createDriversCmd(flags *globalFlags) *cobra.Command {
	var (
		loadFile    string
		driversFile string
		maxResults  int
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Rank drivers for a load",
		RunE: func(cmd *cobra.Command, args []string) error {
			var load models.Load
			if err := readJSON(loadFile, &load); err != nil {
				return err
			}
			var drivers []models.Driver
			if err := readJSON(driversFile, &drivers); err != nil {
				return err
			}

			opts := matching.DefaultOptions()
			opts.MaxResults = maxResults
			if all {
				opts.OnlyAvailable = false
				opts.OnlyGreenCompliance = false
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			results, err := flags.ranker(flags.logger()).FindMatchingDrivers(ctx, &load, drivers, opts)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, resultRow(r.Rank, r.Driver.ID, r.Driver.Name, r.Score, r.Breakdown, r.IsBestMatch))
			}
			return renderTable(cmd.OutOrStdout(), []string{"Rank", "Driver", "Name", "Score", "Quality", "Reasons"}, rows,
				fmt.Sprintf("No matching drivers for load %s", load.ID))
		},
	}

	cmd.Flags().StringVar(&loadFile, "load", "", "JSON file with one load")
	cmd.Flags().StringVar(&driversFile, "drivers", "", "JSON file with an array of drivers")
	cmd.Flags().IntVar(&maxResults, "max", matching.DefaultMaxResults, "maximum results, 0 for all")
	cmd.Flags().BoolVar(&all, "all", false, "include unavailable and non-green drivers")
	_ = cmd.MarkFlagRequired("load")
	_ = cmd.MarkFlagRequired("drivers")
	return cmd
}

func createLoadsCmd(flags *globalFlags) *cobra.Command {
	var (
		driverFile string
		loadsFile  string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "loads",
		Short: "Rank pending loads for a driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			var driver models.Driver
			if err := readJSON(driverFile, &driver); err != nil {
				return err
			}
			var loads []models.Load
			if err := readJSON(loadsFile, &loads); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			opts := matching.LoadOptions{MaxResults: maxResults}
			results, err := flags.ranker(flags.logger()).FindMatchingLoads(ctx, &driver, loads, opts)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				lane := r.Load.Origin + " -> " + r.Load.Destination
				rows = append(rows, resultRow(r.Rank, r.Load.ID, lane, r.Score, r.Breakdown, r.IsBestMatch))
			}
			return renderTable(cmd.OutOrStdout(), []string{"Rank", "Load", "Lane", "Score", "Quality", "Reasons"}, rows,
				fmt.Sprintf("No matching loads for driver %s", driver.ID))
		},
	}

	cmd.Flags().StringVar(&driverFile, "driver", "", "JSON file with one driver")
	cmd.Flags().StringVar(&loadsFile, "loads", "", "JSON file with an array of loads")
	cmd.Flags().IntVar(&maxResults, "max", matching.DefaultMaxResults, "maximum results, 0 for all")
	_ = cmd.MarkFlagRequired("driver")
	_ = cmd.MarkFlagRequired("loads")
	return cmd
}

type distanceResult struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
	LocationScore int      `json:"locationScore"`
}

func createDistanceCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "distance [from] [to]",
		Short: "Show the distance and location score between two places",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			res := distanceResult{From: args[0], To: args[1], LocationScore: matching.UnresolvedLocationScore}
			if miles, ok := matching.DistanceBetween(ctx, flags.resolver(flags.logger()), args[0], args[1]); ok {
				res.DistanceMiles = &miles
				res.LocationScore = matching.LocationScoreForDistance(miles)
			}

			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			if res.DistanceMiles == nil {
				fmt.Fprintf(out, "%s -> %s: unresolved (location score %d)\n", res.From, res.To, res.LocationScore)
				return nil
			}
			fmt.Fprintf(out, "%s -> %s: %.1f mi (location score %d)\n", res.From, res.To, *res.DistanceMiles, res.LocationScore)
			return nil
		},
	}
}

func createActivitiesCmd(flags *globalFlags) *cobra.Command {
	var registryFile string

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List the job types served by the worker manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Builtin()
			if registryFile != "" {
				loaded, err := registry.LoadRegistry(registryFile)
				if err != nil {
					return err
				}
				reg = loaded
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), reg)
			}

			rows := make([][]string, 0, len(reg.Activities))
			for _, a := range reg.Activities {
				rows = append(rows, []string{a.TaskType, a.DisplayName, a.Timeout, strconv.Itoa(a.Retries), strings.Join(a.ErrorCodes, ", ")})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Task Type", "Name", "Timeout", "Retries", "Errors"}, rows, "No activities registered")
		},
	}

	cmd.Flags().StringVar(&registryFile, "registry", "", "JSON activity registry to list instead of the built-in one")
	return cmd
}

func resultRow(rank int, id, name string, score int, b matching.Breakdown, best bool) []string {
	label := matching.MatchQualityLabel(score)
	if best {
		label += " *"
	}
	return []string{
		strconv.Itoa(rank),
		id,
		name,
		strconv.Itoa(score),
		label,
		strings.Join(matching.MatchReasons(b), ", "),
	}
}

func renderTable(w io.Writer, header []string, rows [][]string, empty string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
