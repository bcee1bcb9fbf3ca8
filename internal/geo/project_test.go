package geo_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/geo"
	"github.com/smartystreets/goconvey/convey"
)

// destination walks distKM along bearing (radians) from origin on the sphere.
func destination(origin domain.Geo, bearing, distKM float64) domain.Geo {
	lat1 := origin.Lat * math.Pi / 180
	lon1 := origin.Lon * math.Pi / 180
	delta := distKM / geo.EarthRadiusKM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))
	lon2 = math.Mod(lon2+3*math.Pi, 2*math.Pi) - math.Pi

	return domain.Geo{Lat: lat2 * 180 / math.Pi, Lon: lon2 * 180 / math.Pi}
}

func TestProject(t *testing.T) {
	convey.Convey("Given the Earth-centred projection", t, func() {
		convey.Convey("The equator at the prime meridian lies on the x axis", func() {
			v := geo.Project(domain.Geo{Lat: 0, Lon: 0})
			convey.So(v[0], convey.ShouldAlmostEqual, geo.EarthRadiusKM, 1e-9)
			convey.So(v[1], convey.ShouldAlmostEqual, 0, 1e-9)
			convey.So(v[2], convey.ShouldAlmostEqual, 0, 1e-9)
		})

		convey.Convey("The north pole lies on the z axis", func() {
			v := geo.Project(domain.Geo{Lat: 90, Lon: 123})
			convey.So(v[2], convey.ShouldAlmostEqual, geo.EarthRadiusKM, 1e-9)
			convey.So(math.Hypot(v[0], v[1]), convey.ShouldAlmostEqual, 0, 1e-9)
		})

		convey.Convey("Every projected point lies on the sphere", func() {
			pts := []domain.Geo{{Lat: 37.77, Lon: -122.42}, {Lat: -89.99, Lon: 179.99}, {Lat: 45, Lon: -180}}
			for _, v := range geo.ProjectAll(pts) {
				r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
				convey.So(r, convey.ShouldAlmostEqual, geo.EarthRadiusKM, 1e-9)
			}
		})

		convey.Convey("The antimeridian is continuous", func() {
			a := geo.Project(domain.Geo{Lat: 10, Lon: 179.999})
			b := geo.Project(domain.Geo{Lat: 10, Lon: -179.999})
			convey.So(geo.Chord(a, b), convey.ShouldBeLessThan, 0.3)
		})
	})
}

func TestChordApproximatesGeodesic(t *testing.T) {
	convey.Convey("Given point pairs up to 50 km apart", t, func() {
		rng := rand.New(rand.NewSource(7))
		origins := []domain.Geo{
			{Lat: 0, Lon: 0},
			{Lat: 37.77, Lon: -122.42},
			{Lat: 89.9, Lon: 10},
			{Lat: -89.9, Lon: -170},
			{Lat: 10, Lon: 179.95},
		}

		convey.Convey("Chord distance stays within a small relative error of the arc", func() {
			for _, o := range origins {
				for i := 0; i < 50; i++ {
					d := 0.5 + rng.Float64()*49.5
					dst := destination(o, rng.Float64()*2*math.Pi, d)
					chord := geo.Chord(geo.Project(o), geo.Project(dst))

					convey.So(math.Abs(chord-d)/d, convey.ShouldBeLessThan, 1e-5)
					convey.So(chord, convey.ShouldBeLessThanOrEqualTo, d+1e-9)
				}
			}
		})

		convey.Convey("Haversine agrees with the walked distance", func() {
			o := domain.Geo{Lat: 10, Lon: 20}
			dst := destination(o, math.Pi/4, 20)
			convey.So(geo.Haversine(o, dst), convey.ShouldAlmostEqual, 20, 1e-6)
		})
	})
}
