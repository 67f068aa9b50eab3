package domain

import "io"

// Place is a single text-search result from the places provider.
// Field names follow the provider's JSON.
type Place struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address,omitempty"`
	Geometry         *Geometry     `json:"geometry,omitempty"`
	Rating           *float64      `json:"rating,omitempty"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	Photos           []Photo       `json:"photos,omitempty"`
	Types            []string      `json:"types,omitempty"`
	BusinessStatus   string        `json:"business_status,omitempty"`
}

type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

type PlaceReview struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text,omitempty"`
	Time       int64   `json:"time,omitempty"`
}

// PlaceDetails is the provider's details payload for one place.
type PlaceDetails struct {
	PlaceID              string        `json:"place_id,omitempty"`
	Name                 string        `json:"name"`
	FormattedAddress     string        `json:"formatted_address,omitempty"`
	FormattedPhoneNumber string        `json:"formatted_phone_number,omitempty"`
	Website              string        `json:"website,omitempty"`
	Geometry             *Geometry     `json:"geometry,omitempty"`
	Rating               *float64      `json:"rating,omitempty"`
	OpeningHours         *OpeningHours `json:"opening_hours,omitempty"`
	Photos               []Photo       `json:"photos,omitempty"`
	Reviews              []PlaceReview `json:"reviews,omitempty"`
}

// PhotoStream is an image fetched from the provider. Callers close Body.
type PhotoStream struct {
	ContentType string
	Body        io.ReadCloser
}
