package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"localbiz/internal/domain"
)

// DefaultCatalog is the built-in list of searched categories, in sync order.
func DefaultCatalog() []domain.Category {
	return []domain.Category{
		{
			Slug:       "grocery",
			Title:      "Grocery Shops",
			Icon:       "shopping-cart",
			SearchTerm: "grocery store ravet pune",
			PlaceType:  "grocery_or_supermarket",
		},
		{
			Slug:       "salon",
			Title:      "Salons",
			Icon:       "cut",
			SearchTerm: "salon ravet pune",
			PlaceType:  "beauty_salon",
		},
		{
			Slug:       "hardware",
			Title:      "Hardware Shops",
			Icon:       "tools",
			SearchTerm: "hardware store ravet pune",
			PlaceType:  "hardware_store",
		},
		{
			Slug:       "restaurant",
			Title:      "Restaurants",
			Icon:       "utensils",
			SearchTerm: "restaurant ravet pune",
			PlaceType:  "restaurant",
		},
	}
}

// LoadCatalog returns DefaultCatalog when path is empty, otherwise the
// "categories" list of the YAML/JSON/TOML file at path.
func LoadCatalog(path string) ([]domain.Category, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cats []domain.Category
	if err := v.UnmarshalKey("categories", &cats); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := ValidateCatalog(cats); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cats, nil
}

func ValidateCatalog(cats []domain.Category) error {
	if len(cats) == 0 {
		return errors.New("catalog is empty")
	}
	seen := make(map[string]struct{}, len(cats))
	for i, c := range cats {
		slug := strings.TrimSpace(c.Slug)
		switch {
		case slug == "":
			return fmt.Errorf("category %d: id is required", i)
		case strings.TrimSpace(c.Title) == "":
			return fmt.Errorf("category %q: title is required", slug)
		case strings.TrimSpace(c.SearchTerm) == "":
			return fmt.Errorf("category %q: searchTerm is required", slug)
		}
		if _, dup := seen[slug]; dup {
			return fmt.Errorf("category %q: duplicate id", slug)
		}
		seen[slug] = struct{}{}
	}
	return nil
}
