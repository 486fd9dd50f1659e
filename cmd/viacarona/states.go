package main

import (
	"fmt"
	"net/http"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"viacarona/internal/locality"
	"viacarona/internal/platform/logger"
)

// NewStatesCmd creates the states subcommand.
func NewStatesCmd() *cobra.Command {
	var cities []string

	cmd := &cobra.Command{
		Use:   "states",
		Short: "List Brazilian states, or the cities of some of them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := logger.New("viacarona", cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("set up logging: %w", err)
			}
			client := locality.New(cfg.Locality.BaseURL,
				locality.WithHTTPClient(&http.Client{Timeout: cfg.Locality.Timeout}),
				locality.WithLogger(log),
			)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(cities) == 0 {
				states, err := client.States(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range states {
					fmt.Fprintf(tw, "%s\t%s\n", s.Code, s.Name)
				}
				return nil
			}

			byState, err := client.CitiesFor(cmd.Context(), cities...)
			if err != nil {
				return err
			}
			codes := make([]string, 0, len(byState))
			for code := range byState {
				codes = append(codes, code)
			}
			slices.Sort(codes)
			for _, code := range codes {
				for _, c := range byState[code] {
					fmt.Fprintf(tw, "%s\t%s\n", code, c.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&cities, "cities", nil, "state codes whose cities to list (e.g. SP,RJ)")

	return cmd
}
