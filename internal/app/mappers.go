package app

import (
	"strings"

	"localbiz/internal/domain"
)

// mapPlace converts a search result into the business row for categoryID.
// It reports false for results without a place id.
func mapPlace(p domain.Place, categoryID int64) (domain.Business, bool) {
	id := strings.TrimSpace(p.PlaceID)
	if id == "" {
		return domain.Business{}, false
	}
	b := domain.Business{
		ExternalID: id,
		Name:       p.Name,
		Address:    ptrStr(p.FormattedAddress),
		Rating:     p.Rating,
		CategoryID: categoryID,
	}
	if p.Geometry != nil && p.Geometry.Location != nil {
		lat, lng := p.Geometry.Location.Lat, p.Geometry.Location.Lng
		b.Lat, b.Lng = &lat, &lng
	}
	return b, true
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
