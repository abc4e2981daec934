package domain

import "encoding/json"

type Category struct {
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Parent *Category `json:"parent,omitempty"`
}

// CategoryTable maps a category slug to its metadata. Derived from a sampled
// product fetch; duplicate slugs overwrite earlier entries.
type CategoryTable map[string]Category

// FilterLabel tags a product with a display value for one filter code.
type FilterLabel struct {
	Filter string `json:"filter"`
	Title  string `json:"title"`
}

// Product carries the fields the pipeline inspects. The complete API record
// is retained as raw JSON, so persisted output is a pass-through of whatever
// the API returned, including fields this tool knows nothing about.
type Product struct {
	UUID         string        `json:"uuid"`
	Name         string        `json:"name"`
	Subname      string        `json:"subname"`
	Category     *Category     `json:"category"`
	FilterLabels []FilterLabel `json:"filter_labels"`
	Price        float64       `json:"price"`
	ProductURL   string        `json:"product_url"`
	ImageURL     string        `json:"image_url"`

	raw json.RawMessage
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Product(a)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	type alias Product
	return json.Marshal(alias(p))
}

// Label returns the display value tagged for the given filter code, or ""
// when the product carries no label for it.
func (p *Product) Label(code string) string {
	for _, l := range p.FilterLabels {
		if l.Filter == code {
			return l.Title
		}
	}
	return ""
}

type ProductPageMeta struct {
	Facets []Facet `json:"facets"`
}

// ProductPage is the response shape of GET /product.
type ProductPage struct {
	Meta    ProductPageMeta `json:"meta"`
	Results []Product       `json:"results"`
}
