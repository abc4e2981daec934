package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"alkoteka/exporter/internal/cache"
	"alkoteka/exporter/internal/client"
	"alkoteka/exporter/internal/domain"
	"alkoteka/exporter/internal/export"
	"alkoteka/exporter/internal/repository"

	log "github.com/sirupsen/logrus"
)

// Fatal pipeline conditions, reported once at the top level.
var (
	ErrCityNotFound = errors.New("city not found")
	ErrNoProducts   = errors.New("no products found")
)

type Service struct {
	client     client.AlkotekaClient
	store      cache.Store
	repository repository.ProductRepository // optional, nil when the database sink is disabled
	outputDir  string
	prefix     string
	maxPages   int
}

func NewService(
	client client.AlkotekaClient,
	store cache.Store,
	repository repository.ProductRepository,
	outputDir string,
	prefix string,
	maxPages int,
) *Service {
	return &Service{
		client:     client,
		store:      store,
		repository: repository,
		outputDir:  outputDir,
		prefix:     prefix,
		maxPages:   maxPages,
	}
}

// ResolveCity maps a human city name to the opaque identifier the API
// expects. The full city table is built once from GET /city and cached
// wholesale; later runs resolve from the cache without a fetch.
func (s *Service) ResolveCity(ctx context.Context, name string) (string, error) {
	var cities domain.CityTable
	found, err := s.store.Load(ctx, cache.KeyCities, &cities)
	if err != nil {
		return "", fmt.Errorf("failed to load city cache: %w", err)
	}

	if !found || len(cities) == 0 {
		listing, err := s.client.GetCities(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to fetch city listing: %w", err)
		}

		// Accented entries are inserted first; an identically named entry
		// from the default list overwrites it. Known tie-break, kept as-is.
		cities = make(domain.CityTable, len(listing.Meta.Accented)+len(listing.Results))
		for _, c := range listing.Meta.Accented {
			cities[c.Name] = c.UUID
		}
		for _, c := range listing.Results {
			cities[c.Name] = c.UUID
		}

		if err := s.store.Save(ctx, cache.KeyCities, cities); err != nil {
			return "", fmt.Errorf("failed to save city cache: %w", err)
		}
		log.Infof("✅ Built city table with %d entries", len(cities))
	}

	uuid, ok := cities[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCityNotFound, name)
	}

	return uuid, nil
}

// FetchOptions scope a product fetch. Page is only honored in single-page
// mode; FetchAll always walks from page 1.
type FetchOptions struct {
	CityUUID string
	Category string
	Page     int
	PerPage  int
	Filters  domain.FilterSelections
}

// FetchPage issues exactly one fetch at the requested page and size and
// returns whatever came back, possibly nothing.
func (s *Service) FetchPage(ctx context.Context, opts FetchOptions) ([]domain.Product, error) {
	params := client.ProductParams(opts.CityUUID, opts.Category, opts.Page, opts.PerPage, opts.Filters)

	page, err := s.client.GetProducts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", opts.Page, err)
	}

	return page.Results, nil
}

// FetchAll walks pages from 1 upward, accumulating results in fetch order,
// and stops at the first empty page. Fetch errors propagate instead of being
// mistaken for end of data. The page limit caps a remote that never returns
// an empty page.
func (s *Service) FetchAll(ctx context.Context, opts FetchOptions) ([]domain.Product, error) {
	var products []domain.Product

	for page := 1; ; page++ {
		if s.maxPages > 0 && page > s.maxPages {
			log.Warnf("Reached page limit of %d, stopping pagination", s.maxPages)
			break
		}

		opts.Page = page
		result, err := s.FetchPage(ctx, opts)
		if err != nil {
			return nil, err
		}
		if len(result) == 0 {
			break
		}

		products = append(products, result...)
		log.Infof("🔄 Page %d: %d items (%d total)", page, len(result), len(products))
	}

	return products, nil
}

// RunOptions carry the operational surface of a single invocation.
type RunOptions struct {
	City        string
	Category    string
	Colors      []string
	Sugars      []string
	Page        int
	PerPage     int
	RefreshMeta bool
	FetchAll    bool
}

// Run executes the whole pipeline: resolve the city, rebuild metadata when
// forced or missing, fetch one page or all pages, persist the stream, and
// optionally upsert into the database sink. The fetched products are
// returned for display.
func (s *Service) Run(ctx context.Context, opts RunOptions) ([]domain.Product, error) {
	cityUUID, err := s.ResolveCity(ctx, opts.City)
	if err != nil {
		return nil, err
	}
	log.Infof("Resolved city %q to %s", opts.City, cityUUID)

	if err := s.EnsureMetadata(ctx, cityUUID, opts.RefreshMeta); err != nil {
		return nil, err
	}

	filters := domain.FilterSelections{}
	if len(opts.Colors) > 0 {
		filters[domain.FilterColor] = opts.Colors
	}
	if len(opts.Sugars) > 0 {
		filters[domain.FilterSugar] = opts.Sugars
	}

	fetchOpts := FetchOptions{
		CityUUID: cityUUID,
		Category: opts.Category,
		Page:     opts.Page,
		PerPage:  opts.PerPage,
		Filters:  filters,
	}

	var products []domain.Product
	if opts.FetchAll {
		log.Info("🔄 Fetching all pages...")
		products, err = s.FetchAll(ctx, fetchOpts)
	} else {
		products, err = s.FetchPage(ctx, fetchOpts)
	}
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	filename := export.Filename(s.prefix, opts.Category, opts.Colors, opts.Sugars, opts.FetchAll, time.Now())
	path := filepath.Join(s.outputDir, filename)
	if err := export.WriteRecords(products, path); err != nil {
		return nil, err
	}

	if s.repository != nil {
		if err := s.repository.SaveProducts(ctx, products); err != nil {
			return nil, fmt.Errorf("failed to save products to database: %w", err)
		}
		log.Infof("✅ Upserted %d products into database", len(products))
	}

	return products, nil
}
