package zone

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Zone is a named region bounded by a box or a polygon set. When Polygons is
// empty the zone is the closed box Bound.
type Zone struct {
	Name     string
	Bound    orb.Bound
	Polygons orb.MultiPolygon
}

// NewBoxZone returns a box zone. Boundaries are inclusive on all four sides.
func NewBoxZone(name string, latMin, latMax, lonMin, lonMax float64) Zone {
	return Zone{
		Name:  name,
		Bound: orb.Bound{Min: orb.Point{lonMin, latMin}, Max: orb.Point{lonMax, latMax}},
	}
}

// NewPolygonZone returns a polygon zone.
func NewPolygonZone(name string, polys orb.MultiPolygon) Zone {
	return Zone{Name: name, Bound: polys.Bound(), Polygons: polys}
}

// Contains reports whether g lies inside the zone.
func (z Zone) Contains(g domain.Geo) bool {
	pt := orb.Point{g.Lon, g.Lat}
	if !z.Bound.Contains(pt) {
		return false
	}
	if len(z.Polygons) == 0 {
		return true
	}
	return planar.MultiPolygonContains(z.Polygons, pt)
}

// Atlas classifies points by containment, first matching zone wins.
type Atlas struct {
	zones []Zone
}

// NewAtlas builds an atlas. Zone order is significant where zones overlap.
func NewAtlas(zones []Zone) (*Atlas, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("zone atlas: %w", domain.ErrNoReferenceData)
	}
	return &Atlas{zones: append([]Zone(nil), zones...)}, nil
}

// Classify returns the first zone containing g, or domain.UnknownZone.
func (a *Atlas) Classify(g domain.Geo) string {
	for _, z := range a.zones {
		if z.Contains(g) {
			return z.Name
		}
	}
	return domain.UnknownZone
}

// ClassifyBatch classifies every point.
func (a *Atlas) ClassifyBatch(points []domain.Geo) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = a.Classify(p)
	}
	return out
}

// BoxesFromEvents derives one box zone per event location label, spanning the
// min/max latitude and longitude of that label's events. Zones are ordered by
// name so overlaps resolve deterministically.
func BoxesFromEvents(events []domain.DisasterEvent) []Zone {
	bounds := make(map[string]orb.Bound)
	for _, e := range events {
		if e.Zone == "" || e.Geo.Validate() != nil {
			continue
		}
		pt := orb.Point{e.Geo.Lon, e.Geo.Lat}
		if b, ok := bounds[e.Zone]; ok {
			bounds[e.Zone] = b.Extend(pt)
			continue
		}
		bounds[e.Zone] = pt.Bound()
	}

	names := make([]string, 0, len(bounds))
	for name := range bounds {
		names = append(names, name)
	}
	sort.Strings(names)

	zones := make([]Zone, len(names))
	for i, name := range names {
		zones[i] = Zone{Name: name, Bound: bounds[name]}
	}
	return zones
}

// nameProperties are checked in order for a feature's zone name.
var nameProperties = []string{"Zone", "name", "id"}

// FromFeatureCollection extracts polygon zones from a GeoJSON feature
// collection, in feature order. Features without a name or without polygonal
// geometry (e.g. building points) are skipped.
func FromFeatureCollection(fc *geojson.FeatureCollection) []Zone {
	var zones []Zone
	for _, f := range fc.Features {
		name := featureName(f)
		if name == "" {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			zones = append(zones, NewPolygonZone(name, orb.MultiPolygon{g}))
		case orb.MultiPolygon:
			zones = append(zones, NewPolygonZone(name, g))
		case orb.Bound:
			zones = append(zones, Zone{Name: name, Bound: g})
		}
	}
	return zones
}

func featureName(f *geojson.Feature) string {
	for _, key := range nameProperties {
		v, ok := f.Properties[key]
		if !ok || v == nil {
			continue
		}
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return ""
}
