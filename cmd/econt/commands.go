package main

import (
	"strconv"

	"github.com/jmgilman/go/econt"
	"github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
)

func newCountriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries, err := a.client.Offices().GetCountries(contextOf(cmd), queryOptions(cmd, "")...)
			if err != nil {
				return err
			}
			return printJSON(cmd, countries)
		},
	}
	cmd.Flags().Bool("refresh", false, "bypass the cache")
	return cmd
}

func newCitiesCmd(a *app) *cobra.Command {
	var country, name string
	cmd := &cobra.Command{
		Use:   "cities",
		Short: "List cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cities, err := a.client.Offices().GetCities(contextOf(cmd), country, queryOptions(cmd, name)...)
			if err != nil {
				return err
			}
			return printJSON(cmd, cities)
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "three-letter country code")
	cmd.Flags().StringVar(&name, "name", "", "only cities whose name contains this")
	cmd.Flags().Bool("refresh", false, "bypass the cache")
	return cmd
}

func newOfficesCmd(a *app) *cobra.Command {
	var filter econt.OfficeFilter
	var name string
	cmd := &cobra.Command{
		Use:   "offices [code]",
		Short: "List offices, or show one office by code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				office, err := a.client.Offices().Get(contextOf(cmd), args[0], queryOptions(cmd, "")...)
				if err != nil {
					return err
				}
				return printJSON(cmd, office)
			}

			offices, err := a.client.Offices().List(contextOf(cmd), filter, queryOptions(cmd, name)...)
			if err != nil {
				return err
			}
			return printJSON(cmd, offices)
		},
	}
	cmd.Flags().StringVar(&filter.CountryCode, "country", "", "three-letter country code")
	cmd.Flags().IntVar(&filter.CityID, "city", 0, "city id")
	cmd.Flags().StringVar(&name, "name", "", "only offices whose name contains this")
	cmd.Flags().Bool("refresh", false, "bypass the cache")
	return cmd
}

func newStreetsCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "streets <city-id>",
		Short: "List the streets of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cityID, err := strconv.Atoi(args[0])
			if err != nil {
				err := errors.Wrap(err, errors.CodeInvalidInput, "city id must be a number")
				return errors.WithContext(err, "city_id", args[0])
			}

			streets, err := a.client.Offices().GetStreets(contextOf(cmd), cityID, queryOptions(cmd, name)...)
			if err != nil {
				return err
			}
			return printJSON(cmd, streets)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only streets whose name contains this")
	cmd.Flags().Bool("refresh", false, "bypass the cache")
	return cmd
}

func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <number>...",
		Short: "Show the status of shipments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := a.client.Tracking().TrackMultiple(contextOf(cmd), args)
			if err != nil {
				return err
			}
			return printJSON(cmd, statuses)
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Fetch every nomenclature dataset into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOf(cmd)
			if err := a.client.ExportAllData(ctx); err != nil {
				return err
			}
			status, err := a.client.CacheStatus(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cached datasets and the last export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.client.CacheStatus(contextOf(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [key]...",
		Short: "Remove cached datasets, or everything when no key is given",
		Example: "  econt clear\n" +
			"  econt clear offices streets:41",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.ClearCache(contextOf(cmd), args...)
		},
	}
}
