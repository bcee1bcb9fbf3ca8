// Package correlate verifies social reports against a pool of disaster events
// of the same category inside a space-time window.
package correlate

import (
	"strings"

	"github.com/couchcryptid/city-signal/internal/domain"
)

type rule struct {
	category domain.Category
	keywords []string
}

// rules are evaluated in order; the first rule with a matching keyword wins.
var rules = []rule{
	{domain.CategoryEarthquake, []string{"earthquake"}},
	{domain.CategoryFire, []string{"fire"}},
	{domain.CategoryFlood, []string{"flood"}},
	{domain.CategoryHurricane, []string{"hurricane"}},
	{domain.CategoryIndustrialAccident, []string{"industrial", "explosion", "chemical"}},
}

// ExtractCategory assigns a category to free text by case-insensitive keyword
// search. Text matching no rule is CategoryUnknown.
func ExtractCategory(text string) domain.Category {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return domain.CategoryUnknown
}
