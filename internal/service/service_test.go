package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"alkoteka/exporter/internal/cache"
	"alkoteka/exporter/internal/domain"
	"alkoteka/exporter/internal/export"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	listing    *domain.CityListing
	listingErr error
	cityCalls  int

	pages        []*domain.ProductPage
	pageErrs     []error
	productCalls []url.Values
}

func (f *fakeClient) GetCities(_ context.Context) (*domain.CityListing, error) {
	f.cityCalls++
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return f.listing, nil
}

func (f *fakeClient) GetProducts(_ context.Context, params url.Values) (*domain.ProductPage, error) {
	i := len(f.productCalls)
	f.productCalls = append(f.productCalls, params)
	if i < len(f.pageErrs) && f.pageErrs[i] != nil {
		return nil, f.pageErrs[i]
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return &domain.ProductPage{}, nil
}

type memStore struct {
	docs map[string]json.RawMessage
}

func (m *memStore) Load(_ context.Context, key string, out any) (bool, error) {
	raw, ok := m.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (m *memStore) Save(_ context.Context, key string, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if m.docs == nil {
		m.docs = make(map[string]json.RawMessage)
	}
	m.docs[key] = raw
	return nil
}

func makeProducts(t *testing.T, n int, prefix string) []domain.Product {
	t.Helper()
	products := make([]domain.Product, n)
	for i := range products {
		raw := fmt.Sprintf(`{"uuid":"%s-%d","name":"item %d","category":{"name":"Вино","slug":"vino"}}`, prefix, i, i)
		require.NoError(t, json.Unmarshal([]byte(raw), &products[i]))
	}
	return products
}

func page(products []domain.Product) *domain.ProductPage {
	return &domain.ProductPage{Results: products}
}

func newTestService(t *testing.T, client *fakeClient, store cache.Store, maxPages int) *Service {
	t.Helper()
	return NewService(client, store, nil, t.TempDir(), "alkoteka", maxPages)
}

func TestResolveCity_BuildsAndCachesTable(t *testing.T) {
	client := &fakeClient{
		listing: &domain.CityListing{
			Meta:    domain.CityListingMeta{Accented: []domain.City{{Name: "Краснодар", UUID: "uuid-1"}}},
			Results: []domain.City{{Name: "Сочи", UUID: "uuid-2"}},
		},
	}
	store := &memStore{}
	svc := newTestService(t, client, store, 500)

	uuid, err := svc.ResolveCity(context.Background(), "Сочи")

	require.NoError(t, err)
	assert.Equal(t, "uuid-2", uuid)

	var cached domain.CityTable
	found, err := store.Load(context.Background(), cache.KeyCities, &cached)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.CityTable{"Краснодар": "uuid-1", "Сочи": "uuid-2"}, cached)
}

func TestResolveCity_DefaultListWinsTie(t *testing.T) {
	client := &fakeClient{
		listing: &domain.CityListing{
			Meta:    domain.CityListingMeta{Accented: []domain.City{{Name: "Краснодар", UUID: "accented-id"}}},
			Results: []domain.City{{Name: "Краснодар", UUID: "default-id"}},
		},
	}
	svc := newTestService(t, client, &memStore{}, 500)

	uuid, err := svc.ResolveCity(context.Background(), "Краснодар")

	require.NoError(t, err)
	assert.Equal(t, "default-id", uuid)
}

func TestResolveCity_UsesCacheWithoutFetch(t *testing.T) {
	client := &fakeClient{listingErr: errors.New("must not be called")}
	store := &memStore{}
	require.NoError(t, store.Save(context.Background(), cache.KeyCities, domain.CityTable{"Краснодар": "uuid-1"}))
	svc := newTestService(t, client, store, 500)

	uuid, err := svc.ResolveCity(context.Background(), "Краснодар")

	require.NoError(t, err)
	assert.Equal(t, "uuid-1", uuid)
	assert.Zero(t, client.cityCalls)
}

func TestResolveCity_NotFound(t *testing.T) {
	client := &fakeClient{listing: &domain.CityListing{}}
	svc := newTestService(t, client, &memStore{}, 500)

	_, err := svc.ResolveCity(context.Background(), "Атлантида")

	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestResolveCity_FetchFailureIsFatal(t *testing.T) {
	client := &fakeClient{listingErr: errors.New("connection refused")}
	svc := newTestService(t, client, &memStore{}, 500)

	_, err := svc.ResolveCity(context.Background(), "Краснодар")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCityNotFound)
}

func TestFetchAll_AccumulatesUntilEmptyPage(t *testing.T) {
	client := &fakeClient{
		pages: []*domain.ProductPage{
			page(makeProducts(t, 2, "a")),
			page(makeProducts(t, 1, "b")),
			page(nil),
		},
	}
	svc := newTestService(t, client, &memStore{}, 500)

	products, err := svc.FetchAll(context.Background(), FetchOptions{CityUUID: "c", PerPage: 2})

	require.NoError(t, err)
	assert.Len(t, products, 3)
	require.Len(t, client.productCalls, 3)
	assert.Equal(t, "1", client.productCalls[0].Get("page"))
	assert.Equal(t, "2", client.productCalls[1].Get("page"))
	assert.Equal(t, "3", client.productCalls[2].Get("page"))

	// accumulated in fetch order
	assert.Equal(t, "a-0", products[0].UUID)
	assert.Equal(t, "a-1", products[1].UUID)
	assert.Equal(t, "b-0", products[2].UUID)
}

func TestFetchAll_PropagatesFetchError(t *testing.T) {
	client := &fakeClient{
		pages:    []*domain.ProductPage{page(makeProducts(t, 2, "a")), nil},
		pageErrs: []error{nil, errors.New("HTTP error for /product: 502")},
	}
	svc := newTestService(t, client, &memStore{}, 500)

	_, err := svc.FetchAll(context.Background(), FetchOptions{CityUUID: "c", PerPage: 2})

	// a transient failure must not look like the end of the catalog
	assert.Error(t, err)
}

func TestFetchAll_StopsAtPageLimit(t *testing.T) {
	client := &fakeClient{
		pages: []*domain.ProductPage{
			page(makeProducts(t, 1, "a")),
			page(makeProducts(t, 1, "b")),
			page(makeProducts(t, 1, "c")),
			page(makeProducts(t, 1, "d")),
		},
	}
	svc := newTestService(t, client, &memStore{}, 2)

	products, err := svc.FetchAll(context.Background(), FetchOptions{CityUUID: "c", PerPage: 1})

	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Len(t, client.productCalls, 2)
}

func TestFetchPage_IssuesExactlyOneFetch(t *testing.T) {
	client := &fakeClient{pages: []*domain.ProductPage{page(makeProducts(t, 1, "a"))}}
	svc := newTestService(t, client, &memStore{}, 500)

	products, err := svc.FetchPage(context.Background(), FetchOptions{CityUUID: "c", Page: 7, PerPage: 1})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	require.Len(t, client.productCalls, 1)
	assert.Equal(t, "7", client.productCalls[0].Get("page"))
}

func TestEnsureMetadata_SkipsWhenCached(t *testing.T) {
	client := &fakeClient{}
	store := &memStore{}
	require.NoError(t, store.Save(context.Background(), cache.KeyFilters, domain.FilterTable{}))
	svc := newTestService(t, client, store, 500)

	require.NoError(t, svc.EnsureMetadata(context.Background(), "c", false))

	assert.Empty(t, client.productCalls)
}

func TestEnsureMetadata_RebuildsWhenMissing(t *testing.T) {
	client := &fakeClient{pages: []*domain.ProductPage{{}, {}}}
	svc := newTestService(t, client, &memStore{}, 500)

	require.NoError(t, svc.EnsureMetadata(context.Background(), "c", false))

	assert.Len(t, client.productCalls, 2)
}

func TestRebuildMetadata_SavesFiltersAndCategories(t *testing.T) {
	facetPage := &domain.ProductPage{
		Meta: domain.ProductPageMeta{Facets: []domain.Facet{
			{Code: "cvet", Values: []domain.FacetValue{
				{Name: "Красный", Slug: "krasnyj", Enabled: true},
				{Name: "Белый", Slug: "belyj", Enabled: false},
			}},
			{Code: "", Values: []domain.FacetValue{{Name: "orphan", Slug: "orphan", Enabled: true}}},
			{Code: "obem", Values: nil},
		}},
	}

	var sample []domain.Product
	for _, raw := range []string{
		`{"uuid":"p-1","category":{"name":"Вино","slug":"vino"}}`,
		`{"uuid":"p-2","category":{"name":"Вино (обновлено)","slug":"vino"}}`,
		`{"uuid":"p-3","name":"no category"}`,
		`{"uuid":"p-4","category":{"name":"Пиво","slug":"pivo","parent":{"name":"Напитки","slug":"napitki"}}}`,
	} {
		var p domain.Product
		require.NoError(t, json.Unmarshal([]byte(raw), &p))
		sample = append(sample, p)
	}

	client := &fakeClient{pages: []*domain.ProductPage{facetPage, page(sample)}}
	store := &memStore{}
	svc := newTestService(t, client, store, 500)

	require.NoError(t, svc.RebuildMetadata(context.Background(), "city-1"))

	require.Len(t, client.productCalls, 2)
	assert.Equal(t, "100", client.productCalls[0].Get("per_page"))
	assert.Equal(t, "1000", client.productCalls[1].Get("per_page"))

	var filters domain.FilterTable
	found, err := store.Load(context.Background(), cache.KeyFilters, &filters)
	require.NoError(t, err)
	require.True(t, found)
	// only enabled values survive; code-less and value-less facets are dropped
	assert.Equal(t, []domain.FilterValue{{Name: "Красный", Slug: "krasnyj"}}, filters["cvet"])
	assert.NotContains(t, filters, "")
	assert.NotContains(t, filters, "obem")

	var categories domain.CategoryTable
	found, err = store.Load(context.Background(), cache.KeyCategories, &categories)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, categories, 2)
	assert.Equal(t, "Вино (обновлено)", categories["vino"].Name)
	require.NotNil(t, categories["pivo"].Parent)
	assert.Equal(t, "napitki", categories["pivo"].Parent.Slug)
}

func TestRebuildMetadata_PartialFailureKeepsFilterCache(t *testing.T) {
	client := &fakeClient{
		pages:    []*domain.ProductPage{{Meta: domain.ProductPageMeta{Facets: []domain.Facet{{Code: "cvet", Values: []domain.FacetValue{{Name: "Красный", Slug: "krasnyj", Enabled: true}}}}}}, nil},
		pageErrs: []error{nil, errors.New("timeout")},
	}
	store := &memStore{}
	svc := newTestService(t, client, store, 500)

	err := svc.RebuildMetadata(context.Background(), "city-1")

	assert.Error(t, err)

	var filters domain.FilterTable
	found, loadErr := store.Load(context.Background(), cache.KeyFilters, &filters)
	require.NoError(t, loadErr)
	assert.True(t, found, "filter cache should be updated even when the category fetch fails")

	var categories domain.CategoryTable
	found, loadErr = store.Load(context.Background(), cache.KeyCategories, &categories)
	require.NoError(t, loadErr)
	assert.False(t, found)
}

func TestRun_NoProductsIsFatal(t *testing.T) {
	client := &fakeClient{
		listing: &domain.CityListing{Results: []domain.City{{Name: "Краснодар", UUID: "uuid-1"}}},
		// metadata rebuild consumes two pages, the product fetch gets nothing
		pages: []*domain.ProductPage{{}, {}, {}},
	}
	svc := newTestService(t, client, &memStore{}, 500)

	_, err := svc.Run(context.Background(), RunOptions{City: "Краснодар", Category: "vino", Page: 1, PerPage: 20})

	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestRun_WritesRecordStream(t *testing.T) {
	client := &fakeClient{
		listing: &domain.CityListing{Results: []domain.City{{Name: "Краснодар", UUID: "uuid-1"}}},
		pages:   []*domain.ProductPage{page(makeProducts(t, 2, "p"))},
	}
	store := &memStore{}
	require.NoError(t, store.Save(context.Background(), cache.KeyFilters, domain.FilterTable{}))

	outputDir := t.TempDir()
	svc := NewService(client, store, nil, outputDir, "alkoteka", 500)

	products, err := svc.Run(context.Background(), RunOptions{
		City:     "Краснодар",
		Category: "vino",
		Colors:   []string{"Красный/Белый"},
		Page:     1,
		PerPage:  20,
	})

	require.NoError(t, err)
	assert.Len(t, products, 2)

	// the product fetch carries the filter selection as repeated params
	require.Len(t, client.productCalls, 1)
	assert.Equal(t, []string{"Красный/Белый"}, client.productCalls[0]["options[cvet][]"])
	assert.Equal(t, "vino", client.productCalls[0].Get("root_category_slug"))

	wantName := export.Filename("alkoteka", "vino", []string{"Красный/Белый"}, nil, false, time.Now())
	data, err := os.ReadFile(filepath.Join(outputDir, wantName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
