package zone

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/geo"
)

// DefaultLabelMarker is the substring that identifies zone labels in logged
// event locations, e.g. "Zone A".
const DefaultLabelMarker = "Zone"

// LabeledPoint is a reference coordinate with a known zone.
type LabeledPoint struct {
	Geo   domain.Geo
	Label string
}

// Nearest is a 1-nearest-neighbor zone classifier over projected reference points.
type Nearest struct {
	index  *geo.Index
	labels []string
}

// NewNearest builds a classifier from reference points. References without a
// label or with invalid coordinates are skipped; if none remain the result is
// ErrNoReferenceData.
func NewNearest(refs []LabeledPoint) (*Nearest, error) {
	points := make([]geo.Vec3, 0, len(refs))
	labels := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Label == "" {
			continue
		}
		g := r.Geo
		if err := g.Validate(); err != nil {
			continue
		}
		points = append(points, geo.Project(g))
		labels = append(labels, r.Label)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("nearest zone classifier: %d references supplied, none usable: %w", len(refs), domain.ErrNoReferenceData)
	}
	return &Nearest{index: geo.NewIndex(points), labels: labels}, nil
}

// ClassifyBatch returns the label of the nearest reference for every point.
func (n *Nearest) ClassifyBatch(points []domain.Geo) []string {
	ids, _ := n.index.NearestAll(geo.ProjectAll(points))
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = n.labels[id]
	}
	return out
}

// ReferencePoints draws labeled references from events whose zone label
// contains marker. An empty marker accepts every non-empty label.
func ReferencePoints(events []domain.DisasterEvent, marker string) []LabeledPoint {
	var refs []LabeledPoint
	for _, e := range events {
		if e.Geo == nil || e.Zone == "" {
			continue
		}
		if marker != "" && !strings.Contains(e.Zone, marker) {
			continue
		}
		refs = append(refs, LabeledPoint{Geo: *e.Geo, Label: e.Zone})
	}
	return refs
}
