package domain

// Category is one entry of the search catalog that drives a sync run.
type Category struct {
	Slug       string `json:"id" mapstructure:"id"`
	Title      string `json:"title" mapstructure:"title"`
	Icon       string `json:"icon" mapstructure:"icon"`
	SearchTerm string `json:"searchTerm" mapstructure:"searchTerm"`
	PlaceType  string `json:"placeType" mapstructure:"placeType"`
}

// CategoryRecord is the stored mirror of a catalog entry.
type CategoryRecord struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}
