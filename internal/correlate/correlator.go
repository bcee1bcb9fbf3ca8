package correlate

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/geo"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRadiusKM = 20.0
	DefaultWindow   = 3 * time.Hour
	DefaultWorkers  = 4
)

// Correlator matches each report to the nearest same-category event. A report
// is verified when that event is strictly closer than RadiusKM (chord
// distance) and no more than Window apart in time.
type Correlator struct {
	RadiusKM float64
	Window   time.Duration
	Workers  int
}

// New returns a correlator with the default radius, window and worker count.
func New() Correlator {
	return Correlator{RadiusKM: DefaultRadiusKM, Window: DefaultWindow, Workers: DefaultWorkers}
}

// Validate checks the correlator parameters.
func (c Correlator) Validate() error {
	if !(c.RadiusKM > 0) {
		return fmt.Errorf("match radius must be positive, got %v", c.RadiusKM)
	}
	if c.Window < 0 {
		return fmt.Errorf("match window must not be negative, got %s", c.Window)
	}
	return nil
}

// Verify returns one verdict per report with usable geometry, in input order.
// Reports without geometry are rejected. Reports without a timestamp or with
// an unknown category are kept and never verified. Events are assumed to come
// from BuildPool.
func (c Correlator) Verify(ctx context.Context, reports []domain.SocialReport, pool []domain.DisasterEvent) ([]domain.VerdictedReport, []domain.Rejection, error) {
	out := make([]domain.VerdictedReport, 0, len(reports))
	var rejected []domain.Rejection
	byCategory := make(map[domain.Category][]int)

	for i := range reports {
		r := reports[i]
		if err := r.Geo.Validate(); err != nil {
			rejected = append(rejected, domain.Rejection{Kind: "report", Index: i, ID: r.ReportID, Err: err})
			continue
		}
		v := domain.VerdictedReport{SocialReport: r, DetectedCategory: ExtractCategory(r.Text)}
		v.SetVerified(false)
		if v.DetectedCategory.Known() && !r.Timestamp.IsZero() {
			byCategory[v.DetectedCategory] = append(byCategory[v.DetectedCategory], len(out))
		}
		out = append(out, v)
	}

	events := make(map[domain.Category][]domain.DisasterEvent)
	for _, e := range pool {
		if !e.Category.Known() || e.Geo == nil || e.Timestamp.IsZero() {
			continue
		}
		events[e.Category] = append(events[e.Category], e)
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.Workers > 0 {
		g.SetLimit(c.Workers)
	}
	for _, cat := range domain.Categories {
		idx, evs := byCategory[cat], events[cat]
		if len(idx) == 0 || len(evs) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.match(out, idx, evs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("verify reports: %w", err)
	}
	return out, rejected, nil
}

// match resolves verdicts for the reports at idx against one category's
// events. Each category owns a disjoint set of indices into out.
func (c Correlator) match(out []domain.VerdictedReport, idx []int, events []domain.DisasterEvent) {
	points := make([]geo.Vec3, len(events))
	for i, e := range events {
		points[i] = geo.Project(*e.Geo)
	}
	index := geo.NewIndex(points)

	queries := make([]geo.Vec3, len(idx))
	for i, ri := range idx {
		queries[i] = geo.Project(*out[ri].Geo)
	}
	ids, dists := index.NearestAll(queries)

	for i, ri := range idx {
		if ids[i] < 0 || !(dists[i] < c.RadiusKM) {
			continue
		}
		e := events[ids[i]]
		dt := out[ri].Timestamp.Sub(e.Timestamp)
		out[ri].Match = &domain.Match{EventID: e.ID, DistanceKM: dists[i], TimeDelta: dt}
		out[ri].SetVerified(absDuration(dt) <= c.Window)
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
