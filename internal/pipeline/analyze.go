package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/city-signal/internal/anomaly"
	"github.com/couchcryptid/city-signal/internal/correlate"
	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/features"
	"github.com/couchcryptid/city-signal/internal/zone"
)

// Inputs is one batch of raw records.
type Inputs struct {
	Sensors []domain.SensorReading
	Events  []domain.DisasterEvent
	Reports []domain.SocialReport

	// Zones is an optional atlas. Without it zones are derived from Events.
	Zones []zone.Zone
}

// Analysis holds the analysis parameters for a batch.
type Analysis struct {
	ZoneStrategy string
	LabelMarker  string
	Detector     anomaly.Detector
	Correlator   correlate.Correlator
}

// DefaultAnalysis returns the built-in parameters.
func DefaultAnalysis() Analysis {
	return Analysis{
		ZoneStrategy: zone.StrategyAuto,
		LabelMarker:  zone.DefaultLabelMarker,
		Detector:     anomaly.NewDetector(),
		Correlator:   correlate.New(),
	}
}

// Analyze runs zone tagging, anomaly detection and report verification over
// one batch. Row-level problems become rejections; missing reference data and
// duplicate event ids fail the batch. The returned classifier is reused for
// ad-hoc classification until the next batch. RunID and GeneratedAt are left
// to the caller.
func Analyze(ctx context.Context, in *Inputs, a Analysis) (*domain.Result, zone.Classifier, error) {
	classifier, err := zone.Build(a.ZoneStrategy, in.Zones, in.Events, a.LabelMarker)
	if err != nil {
		return nil, nil, fmt.Errorf("build zone classifier: %w", err)
	}

	var rejected []domain.Rejection

	sensors, rej := zone.Tag(classifier, "sensor", in.Sensors)
	rejected = append(rejected, rej...)

	flagged, rej := a.Detector.Flag(sensors)
	rejected = append(rejected, rej...)

	pool, rej, err := correlate.BuildPool(in.Events, sensors)
	if err != nil {
		return nil, nil, fmt.Errorf("build event pool: %w", err)
	}
	rejected = append(rejected, rej...)

	reports, rej := zone.Tag(classifier, "report", in.Reports)
	rejected = append(rejected, rej...)

	verdicts, rej, err := a.Correlator.Verify(ctx, reports, pool)
	if err != nil {
		return nil, nil, err
	}
	rejected = append(rejected, rej...)

	res := &domain.Result{
		ZoneStrategy: strategyName(a.ZoneStrategy, in.Zones),
		Sensors:      flagged,
		Reports:      verdicts,
		Events:       pool,
		Zones:        features.ZoneFeatures(flagged),
		Summary:      features.ZoneSummaries(sensors, reports, in.Events),
		EventStats:   features.EventStats(in.Events),
		Rejections:   rejected,
	}
	res.Tally()
	return res, classifier, nil
}

// strategyName resolves "auto" to the strategy Build actually used.
func strategyName(strategy string, zones []zone.Zone) string {
	if strategy != zone.StrategyAuto && strategy != "" {
		return strategy
	}
	if len(zones) > 0 {
		return zone.StrategyAtlas
	}
	return zone.StrategyNearest
}
