package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"alkoteka/exporter/internal/config"
	"alkoteka/exporter/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// AlkotekaClient talks to the alkoteka web API. Transport failures and
// non-2xx statuses come back as errors; an empty result list is the API's
// way of saying "no data", and callers decide whether that is fatal.
type AlkotekaClient interface {
	GetCities(ctx context.Context) (*domain.CityListing, error)
	GetProducts(ctx context.Context, params url.Values) (*domain.ProductPage, error)
}

type alkotekaClient struct {
	baseURL    string
	httpClient *resty.Client
}

func NewAlkotekaClient(cfg config.APIConfig) AlkotekaClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &alkotekaClient{
		baseURL:    cfg.BaseURL,
		httpClient: client,
	}
}

func (c *alkotekaClient) GetCities(ctx context.Context) (*domain.CityListing, error) {
	var listing domain.CityListing
	if err := c.getJSON(ctx, "/city", nil, &listing); err != nil {
		return nil, err
	}

	log.Debugf("Fetched city listing: %d accented, %d default entries",
		len(listing.Meta.Accented), len(listing.Results))
	return &listing, nil
}

func (c *alkotekaClient) GetProducts(ctx context.Context, params url.Values) (*domain.ProductPage, error) {
	var page domain.ProductPage
	if err := c.getJSON(ctx, "/product", params, &page); err != nil {
		return nil, err
	}

	log.Debugf("Fetched product page with %d results", len(page.Results))
	return &page, nil
}

func (c *alkotekaClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req := c.httpClient.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	if resp.IsError() {
		return fmt.Errorf("HTTP error for %s: %d %s", path, resp.StatusCode(), resp.Status())
	}

	if err := json.Unmarshal([]byte(resp.String()), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
