// Package zone assigns zone labels to point observations.
//
// Two strategies satisfy [Classifier]: [Nearest] labels a point with the zone of
// its closest reference point, and [Atlas] returns the first zone whose box or
// polygon contains the point. Classifiers are explicit values built once per
// batch and are safe for concurrent use.
package zone

import (
	"github.com/couchcryptid/city-signal/internal/domain"
)

// Classifier resolves a zone label for each point in a batch. Inputs are
// already validated; the result has one label per point, in order.
type Classifier interface {
	ClassifyBatch(points []domain.Geo) []string
}

// Taggable is a record with optional geometry and a settable zone.
type Taggable interface {
	Position() *domain.Geo
	SetZone(zone string)
	RecordID() string
}

// Tag labels every item with usable geometry and returns the tagged copies in
// input order. Items with missing or out-of-range coordinates are excluded and
// reported as rejections of the given kind.
func Tag[T any, PT interface {
	*T
	Taggable
}](c Classifier, kind string, items []T) ([]T, []domain.Rejection) {
	kept := make([]T, 0, len(items))
	points := make([]domain.Geo, 0, len(items))
	var rejected []domain.Rejection

	for i := range items {
		p := PT(&items[i])
		g := p.Position()
		if err := g.Validate(); err != nil {
			rejected = append(rejected, domain.Rejection{Kind: kind, Index: i, ID: p.RecordID(), Err: err})
			continue
		}
		kept = append(kept, items[i])
		points = append(points, *g)
	}

	labels := c.ClassifyBatch(points)
	for i := range kept {
		PT(&kept[i]).SetZone(labels[i])
	}
	return kept, rejected
}
