package domain

// Business is the write model; one row per ExternalID.
type Business struct {
	ExternalID string
	Name       string
	Address    *string
	Lat, Lng   *float64
	Rating     *float64
	CategoryID int64
}

// BusinessView is a stored business joined with its category.
type BusinessView struct {
	ID         int64          `json:"id"`
	ExternalID string         `json:"externalId"`
	Name       string         `json:"name"`
	Address    *string        `json:"address"`
	Lat        *float64       `json:"lat"`
	Lng        *float64       `json:"lng"`
	Rating     *float64       `json:"rating"`
	CategoryID int64          `json:"categoryId"`
	Category   CategoryRecord `json:"category"`
}
