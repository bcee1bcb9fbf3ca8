package zone

import (
	"fmt"

	"github.com/couchcryptid/city-signal/internal/domain"
)

// Strategy names accepted by Build.
const (
	StrategyAuto    = "auto"
	StrategyNearest = "nearest"
	StrategyAtlas   = "atlas"
	StrategyBoxes   = "bbox"
)

// Build selects a classifier from the available reference data:
//   - atlas:   containment against the supplied zones
//   - bbox:    containment against boxes derived from logged event locations
//   - nearest: 1-NN over logged events whose location contains marker
//   - auto:    atlas when zones are supplied, nearest otherwise
func Build(strategy string, zones []Zone, events []domain.DisasterEvent, marker string) (Classifier, error) {
	switch strategy {
	case StrategyAuto, "":
		if len(zones) > 0 {
			return buildAtlas(zones)
		}
		return buildNearest(events, marker)
	case StrategyAtlas:
		return buildAtlas(zones)
	case StrategyBoxes:
		return buildAtlas(BoxesFromEvents(events))
	case StrategyNearest:
		return buildNearest(events, marker)
	default:
		return nil, fmt.Errorf("unknown zone strategy %q", strategy)
	}
}

func buildAtlas(zones []Zone) (Classifier, error) {
	a, err := NewAtlas(zones)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func buildNearest(events []domain.DisasterEvent, marker string) (Classifier, error) {
	n, err := NewNearest(ReferencePoints(events, marker))
	if err != nil {
		return nil, err
	}
	return n, nil
}
