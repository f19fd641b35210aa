package core

import (
	"fmt"
	"slices"
	"strings"
)

type Category string

const (
	CategoryFood      Category = "Food"
	CategoryTransport Category = "Transport"
	CategoryHousing   Category = "Housing"
	CategoryHealth    Category = "Health"
	CategoryLeisure   Category = "Leisure"
	CategoryEducation Category = "Education"
	CategoryOther     Category = "Other"
)

// categories is the fixed enumeration in display order.
var categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryHealth,
	CategoryLeisure,
	CategoryEducation,
	CategoryOther,
}

var categoryColors = map[Category]string{
	CategoryFood:      "#2b6cb0",
	CategoryTransport: "#63b3ed",
	CategoryHousing:   "#2f855a",
	CategoryHealth:    "#f6ad55",
	CategoryLeisure:   "#805ad5",
	CategoryEducation: "#e53e3e",
	CategoryOther:     "#4a5568",
}

// Categories returns the category enumeration in display order.
func Categories() []Category {
	return slices.Clone(categories)
}

// ParseCategory matches s against the enumeration, ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: category %q", ErrInvalidEnumValue, s)
}

func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// Color is the chart colour of the category; grey for unknown values.
func (c Category) Color() string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[CategoryOther]
}

func (c Category) String() string {
	return string(c)
}
