package domain

import "strings"

// Category is a disaster category from a closed vocabulary.
type Category string

const (
	CategoryEarthquake         Category = "earthquake"
	CategoryFire               Category = "fire"
	CategoryFlood              Category = "flood"
	CategoryHurricane          Category = "hurricane"
	CategoryIndustrialAccident Category = "industrial accident"
	CategoryUnknown            Category = "unknown"
)

// Categories lists the vocabulary in rule order, unknown last.
var Categories = []Category{
	CategoryEarthquake,
	CategoryFire,
	CategoryFlood,
	CategoryHurricane,
	CategoryIndustrialAccident,
	CategoryUnknown,
}

// ParseCategory normalizes an external disaster type string. Case, surrounding
// whitespace and '-'/'_' separators are ignored; unrecognized values map to
// CategoryUnknown.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	for _, c := range Categories {
		if s == string(c) {
			return c
		}
	}
	return CategoryUnknown
}

// Known reports whether c is a concrete disaster category.
func (c Category) Known() bool {
	return c != CategoryUnknown && c != ""
}
