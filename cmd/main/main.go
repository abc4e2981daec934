package main

import (
	"fmt"

	"alkoteka/exporter/internal/config"
	"alkoteka/exporter/internal/container"
	"alkoteka/exporter/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		city        string
		category    string
		colors      []string
		sugars      []string
		page        int
		perPage     int
		refreshMeta bool
		fetchAll    bool
	)

	cmd := &cobra.Command{
		Use:           "alkoteka-exporter",
		Short:         "Export the alkoteka product catalog as newline-delimited JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if city == "" {
				city = cfg.Defaults.City
			}
			if category == "" {
				category = cfg.Defaults.Category
			}
			if perPage == 0 {
				perPage = cfg.Fetch.PerPage
			}

			app, err := container.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer app.Close()

			products, err := app.Service.Run(cmd.Context(), service.RunOptions{
				City:        city,
				Category:    category,
				Colors:      colors,
				Sugars:      sugars,
				Page:        page,
				PerPage:     perPage,
				RefreshMeta: refreshMeta,
				FetchAll:    fetchAll,
			})
			if err != nil {
				return err
			}

			for i := range products {
				displayProduct(&products[i])
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "City name scoping availability and pricing")
	cmd.Flags().StringVar(&category, "category", "", "Root category slug")
	cmd.Flags().StringSliceVar(&colors, "color", nil, "Color value slugs")
	cmd.Flags().StringSliceVar(&sugars, "sugar", nil, "Sugar value slugs")
	cmd.Flags().IntVar(&page, "page", 1, "Page number for single-page mode")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Items per page")
	cmd.Flags().BoolVar(&refreshMeta, "refresh-meta", false, "Rebuild the filter and category caches")
	cmd.Flags().BoolVar(&fetchAll, "fetch-all", false, "Fetch every page until an empty one is returned")

	return cmd
}
