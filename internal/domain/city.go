package domain

type City struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

type CityListingMeta struct {
	Accented []City `json:"accented"`
}

// CityListing is the response shape of GET /city. The API splits cities into
// an "accented" promo list under meta and a default result list.
type CityListing struct {
	Meta    CityListingMeta `json:"meta"`
	Results []City          `json:"results"`
}

// CityTable maps a human-readable city name to its opaque API identifier.
type CityTable map[string]string
