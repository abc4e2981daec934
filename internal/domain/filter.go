package domain

// Filter codes the alkoteka API uses for the attributes this tool exposes.
const (
	FilterColor  = "cvet"
	FilterSugar  = "soderzanie-saxara"
	FilterVolume = "obem"
)

type FacetValue struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Enabled bool   `json:"enabled"`
}

// Facet is a server-described filterable attribute with its possible values.
type Facet struct {
	Code   string       `json:"code"`
	Values []FacetValue `json:"values"`
}

type FilterValue struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FilterTable maps a filter code to the values the API marked enabled.
// Rebuilt wholesale from facet metadata, never merged incrementally.
type FilterTable map[string][]FilterValue

// FilterSelections maps a filter code to the value slugs selected by the user.
type FilterSelections map[string][]string
