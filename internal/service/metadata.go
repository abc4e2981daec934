package service

import (
	"context"
	"fmt"

	"alkoteka/exporter/internal/cache"
	"alkoteka/exporter/internal/client"
	"alkoteka/exporter/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Sample sizes for the two metadata fetches. Facets come back on any product
// page; the category table needs a broad unfiltered sample, so that fetch
// asks for one oversized page instead of walking pagination.
const (
	facetSampleSize    = 100
	categorySampleSize = 1000
)

// EnsureMetadata rebuilds the filter and category caches when forced or when
// the filter cache has never been written.
func (s *Service) EnsureMetadata(ctx context.Context, cityUUID string, refresh bool) error {
	if !refresh {
		var filters domain.FilterTable
		found, err := s.store.Load(ctx, cache.KeyFilters, &filters)
		if err != nil {
			return fmt.Errorf("failed to load filter cache: %w", err)
		}
		if found {
			return nil
		}
		log.Info("Filter cache missing, rebuilding metadata")
	}

	return s.RebuildMetadata(ctx, cityUUID)
}

// RebuildMetadata refreshes both caches from two independent unfiltered
// fetches. The category fetch runs after the filter cache is saved: when it
// fails, the filter cache is already fresh while the category cache stays
// stale. Callers must tolerate that.
func (s *Service) RebuildMetadata(ctx context.Context, cityUUID string) error {
	facetsPage, err := s.client.GetProducts(ctx, client.ProductParams(cityUUID, "", 1, facetSampleSize, nil))
	if err != nil {
		return fmt.Errorf("failed to fetch facet metadata: %w", err)
	}

	filters := ExtractFilters(facetsPage.Meta.Facets)
	if err := s.store.Save(ctx, cache.KeyFilters, filters); err != nil {
		return fmt.Errorf("failed to save filter cache: %w", err)
	}

	samplePage, err := s.client.GetProducts(ctx, client.ProductParams(cityUUID, "", 1, categorySampleSize, nil))
	if err != nil {
		return fmt.Errorf("failed to fetch category sample: %w", err)
	}

	categories := ExtractCategories(samplePage.Results)
	if err := s.store.Save(ctx, cache.KeyCategories, categories); err != nil {
		return fmt.Errorf("failed to save category cache: %w", err)
	}

	log.Infof("✅ Rebuilt metadata: %d filter codes, %d categories", len(filters), len(categories))
	return nil
}

// ExtractFilters keeps only values the API marked enabled, grouped by filter
// code. Facets without a code or without values are discarded.
func ExtractFilters(facets []domain.Facet) domain.FilterTable {
	filters := make(domain.FilterTable)

	for _, facet := range facets {
		if facet.Code == "" || len(facet.Values) == 0 {
			continue
		}

		values := make([]domain.FilterValue, 0, len(facet.Values))
		for _, v := range facet.Values {
			if v.Enabled {
				values = append(values, domain.FilterValue{Name: v.Name, Slug: v.Slug})
			}
		}

		filters[facet.Code] = values
	}

	return filters
}

// ExtractCategories keys each product's embedded category by slug. Later
// products overwrite earlier ones; products without a category are skipped.
func ExtractCategories(products []domain.Product) domain.CategoryTable {
	categories := make(domain.CategoryTable)

	for i := range products {
		if products[i].Category == nil {
			continue
		}
		categories[products[i].Category.Slug] = *products[i].Category
	}

	return categories
}
