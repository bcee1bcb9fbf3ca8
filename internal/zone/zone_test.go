package zone_test

import (
	"testing"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/zone"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	zoneA = "Zone A"
	zoneB = "Zone B"
)

func testAtlas(t *testing.T) *zone.Atlas {
	t.Helper()
	a, err := zone.NewAtlas([]zone.Zone{
		zone.NewBoxZone(zoneA, 37.70, 37.75, -122.50, -122.45),
		zone.NewBoxZone(zoneB, 37.75, 37.80, -122.45, -122.40),
	})
	require.NoError(t, err)
	return a
}

func TestAtlas_Classify(t *testing.T) {
	a := testAtlas(t)

	tests := []struct {
		name string
		geo  domain.Geo
		want string
	}{
		{"inside A", domain.Geo{Lat: 37.72, Lon: -122.48}, zoneA},
		{"inside B", domain.Geo{Lat: 37.78, Lon: -122.42}, zoneB},
		{"outside all", domain.Geo{Lat: 10, Lon: 20}, domain.UnknownZone},
		{"on A lower edge", domain.Geo{Lat: 37.70, Lon: -122.48}, zoneA},
		{"on A west edge", domain.Geo{Lat: 37.72, Lon: -122.50}, zoneA},
		{"shared corner goes to first zone", domain.Geo{Lat: 37.75, Lon: -122.45}, zoneA},
		{"on B upper east corner", domain.Geo{Lat: 37.80, Lon: -122.40}, zoneB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Classify(tt.geo))
		})
	}
}

func TestAtlas_Deterministic(t *testing.T) {
	a := testAtlas(t)
	points := []domain.Geo{{Lat: 37.75, Lon: -122.45}, {Lat: 37.72, Lon: -122.48}, {Lat: 0, Lon: 0}}

	first := a.ClassifyBatch(points)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, a.ClassifyBatch(points))
	}
}

func TestAtlas_Polygon(t *testing.T) {
	triangle := orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {0, 10}, {0, 0}}}
	a, err := zone.NewAtlas([]zone.Zone{zone.NewPolygonZone("Tri", orb.MultiPolygon{triangle})})
	require.NoError(t, err)

	assert.Equal(t, "Tri", a.Classify(domain.Geo{Lat: 2, Lon: 2}))
	// Inside the bounding box but outside the hypotenuse.
	assert.Equal(t, domain.UnknownZone, a.Classify(domain.Geo{Lat: 8, Lon: 8}))
}

func TestNewAtlas_Empty(t *testing.T) {
	_, err := zone.NewAtlas(nil)
	assert.ErrorIs(t, err, domain.ErrNoReferenceData)
}

func TestNearest(t *testing.T) {
	n, err := zone.NewNearest([]zone.LabeledPoint{
		{Geo: domain.Geo{Lat: 37.70, Lon: -122.50}, Label: zoneA},
		{Geo: domain.Geo{Lat: 37.80, Lon: -122.40}, Label: zoneB},
	})
	require.NoError(t, err)

	got := n.ClassifyBatch([]domain.Geo{
		{Lat: 37.71, Lon: -122.49},
		{Lat: 37.79, Lon: -122.41},
		{Lat: 50, Lon: -122.40},
	})
	assert.Equal(t, []string{zoneA, zoneB, zoneB}, got)
}

func TestNearest_NoReferenceData(t *testing.T) {
	_, err := zone.NewNearest(nil)
	require.ErrorIs(t, err, domain.ErrNoReferenceData)

	_, err = zone.NewNearest([]zone.LabeledPoint{
		{Geo: domain.Geo{Lat: 95, Lon: 0}, Label: zoneA},
		{Geo: domain.Geo{Lat: 1, Lon: 1}, Label: ""},
	})
	assert.ErrorIs(t, err, domain.ErrNoReferenceData)
}

func TestNearest_TieIsDeterministic(t *testing.T) {
	refs := []zone.LabeledPoint{
		{Geo: domain.Geo{Lat: 0, Lon: -1}, Label: "West"},
		{Geo: domain.Geo{Lat: 0, Lon: 1}, Label: "East"},
	}
	query := []domain.Geo{{Lat: 0, Lon: 0}}

	first, err := zone.NewNearest(refs)
	require.NoError(t, err)
	want := first.ClassifyBatch(query)

	for i := 0; i < 5; i++ {
		n, err := zone.NewNearest(refs)
		require.NoError(t, err)
		assert.Equal(t, want, n.ClassifyBatch(query))
	}
}

func TestReferencePoints(t *testing.T) {
	events := []domain.DisasterEvent{
		{ID: 1, Zone: zoneA, Geo: &domain.Geo{Lat: 1, Lon: 1}},
		{ID: 2, Zone: "Downtown", Geo: &domain.Geo{Lat: 2, Lon: 2}},
		{ID: 3, Zone: zoneB},
		{ID: 4, Zone: "", Geo: &domain.Geo{Lat: 3, Lon: 3}},
	}

	refs := zone.ReferencePoints(events, zone.DefaultLabelMarker)
	require.Len(t, refs, 1)
	assert.Equal(t, zoneA, refs[0].Label)

	assert.Len(t, zone.ReferencePoints(events, ""), 2)
}

func TestTag(t *testing.T) {
	a := testAtlas(t)
	readings := []domain.SensorReading{
		{SensorID: "s-1", Geo: &domain.Geo{Lat: 37.72, Lon: -122.48}},
		{SensorID: "s-2"},
		{SensorID: "s-3", Geo: &domain.Geo{Lat: 91, Lon: 0}},
		{SensorID: "s-4", Geo: &domain.Geo{Lat: 1, Lon: 1}},
	}

	tagged, rejected := zone.Tag(a, "sensor", readings)

	require.Len(t, tagged, 2)
	assert.Equal(t, "s-1", tagged[0].SensorID)
	assert.Equal(t, zoneA, tagged[0].Zone)
	assert.Equal(t, "s-4", tagged[1].SensorID)
	assert.Equal(t, domain.UnknownZone, tagged[1].Zone)

	require.Len(t, rejected, 2)
	assert.Equal(t, 1, rejected[0].Index)
	assert.ErrorIs(t, rejected[0].Err, domain.ErrMalformedRecord)
	assert.Equal(t, "s-3", rejected[1].ID)
	assert.ErrorIs(t, rejected[1].Err, domain.ErrOutOfRange)
	assert.Equal(t, "sensor", rejected[1].Kind)

	assert.Empty(t, readings[0].Zone, "input must not be mutated")
}

func TestBoxesFromEvents(t *testing.T) {
	events := []domain.DisasterEvent{
		{Zone: zoneB, Geo: &domain.Geo{Lat: 2, Lon: 20}},
		{Zone: zoneA, Geo: &domain.Geo{Lat: 1, Lon: 10}},
		{Zone: zoneA, Geo: &domain.Geo{Lat: 3, Lon: 12}},
		{Zone: zoneA},
	}

	zones := zone.BoxesFromEvents(events)
	require.Len(t, zones, 2)
	assert.Equal(t, zoneA, zones[0].Name)
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 1}, Max: orb.Point{12, 3}}, zones[0].Bound)
	assert.Equal(t, zoneB, zones[1].Name)

	a, err := zone.NewAtlas(zones)
	require.NoError(t, err)
	assert.Equal(t, zoneA, a.Classify(domain.Geo{Lat: 2, Lon: 11}))
	assert.Equal(t, zoneB, a.Classify(domain.Geo{Lat: 2, Lon: 20}))
}

func TestFromFeatureCollection(t *testing.T) {
	raw := []byte(`{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "properties": {"name": "North"},
	     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
	    {"type": "Feature", "properties": {"Zone": "South", "name": "ignored"},
	     "geometry": {"type": "MultiPolygon", "coordinates": [[[[0,-10],[10,-10],[10,-1],[0,-1],[0,-10]]]]}},
	    {"type": "Feature", "properties": {"name": "Location 7"},
	     "geometry": {"type": "Point", "coordinates": [5, 5]}},
	    {"type": "Feature", "properties": {},
	     "geometry": {"type": "Polygon", "coordinates": [[[20,20],[30,20],[30,30],[20,20]]]}}
	  ]
	}`)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)

	zones := zone.FromFeatureCollection(fc)
	require.Len(t, zones, 2)
	assert.Equal(t, "North", zones[0].Name)
	assert.Equal(t, "South", zones[1].Name)

	a, err := zone.NewAtlas(zones)
	require.NoError(t, err)
	assert.Equal(t, "North", a.Classify(domain.Geo{Lat: 5, Lon: 5}))
	assert.Equal(t, "South", a.Classify(domain.Geo{Lat: -5, Lon: 5}))
	assert.Equal(t, domain.UnknownZone, a.Classify(domain.Geo{Lat: 25, Lon: 25}))
}

func TestBuild(t *testing.T) {
	events := []domain.DisasterEvent{
		{Zone: zoneA, Geo: &domain.Geo{Lat: 1, Lon: 1}},
		{Zone: zoneB, Geo: &domain.Geo{Lat: 5, Lon: 5}},
	}
	boxes := []zone.Zone{zone.NewBoxZone("Box", 0, 2, 0, 2)}

	t.Run("auto prefers atlas", func(t *testing.T) {
		c, err := zone.Build(zone.StrategyAuto, boxes, events, zone.DefaultLabelMarker)
		require.NoError(t, err)
		assert.Equal(t, []string{"Box"}, c.ClassifyBatch([]domain.Geo{{Lat: 1, Lon: 1}}))
	})

	t.Run("auto falls back to nearest", func(t *testing.T) {
		c, err := zone.Build(zone.StrategyAuto, nil, events, zone.DefaultLabelMarker)
		require.NoError(t, err)
		assert.Equal(t, []string{zoneB}, c.ClassifyBatch([]domain.Geo{{Lat: 4, Lon: 4}}))
	})

	t.Run("bbox", func(t *testing.T) {
		c, err := zone.Build(zone.StrategyBoxes, nil, events, "")
		require.NoError(t, err)
		assert.Equal(t, []string{zoneA, domain.UnknownZone}, c.ClassifyBatch([]domain.Geo{{Lat: 1, Lon: 1}, {Lat: 3, Lon: 3}}))
	})

	t.Run("atlas without zones", func(t *testing.T) {
		_, err := zone.Build(zone.StrategyAtlas, nil, events, "")
		assert.ErrorIs(t, err, domain.ErrNoReferenceData)
	})

	t.Run("nearest without labeled events", func(t *testing.T) {
		_, err := zone.Build(zone.StrategyNearest, nil, nil, zone.DefaultLabelMarker)
		assert.ErrorIs(t, err, domain.ErrNoReferenceData)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := zone.Build("voronoi", nil, events, "")
		assert.Error(t, err)
	})
}
