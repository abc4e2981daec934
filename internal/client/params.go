package client

import (
	"fmt"
	"net/url"
	"strconv"

	"alkoteka/exporter/internal/domain"
)

// ProductParams builds the query parameter set for GET /product. The API
// expects multi-valued filters as repeated array-style keys, one entry per
// selected slug: options[cvet][]=krasnyj&options[cvet][]=belyj.
func ProductParams(cityUUID, categorySlug string, page, perPage int, selections domain.FilterSelections) url.Values {
	params := url.Values{}
	params.Set("city_uuid", cityUUID)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	if categorySlug != "" {
		params.Set("root_category_slug", categorySlug)
	}

	for code, slugs := range selections {
		key := fmt.Sprintf("options[%s][]", code)
		for _, slug := range slugs {
			params.Add(key, slug)
		}
	}

	return params
}
