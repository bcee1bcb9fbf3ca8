package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches a reverse-geocoded place name to a verified
// report. Unverified reports, a nil geocoder and geocoding failures leave the
// verdict untouched; GeoSource records what happened.
func EnrichWithGeocoding(ctx context.Context, report VerdictedReport, geocoder Geocoder, logger *slog.Logger) VerdictedReport {
	if geocoder == nil || !report.IsVerified || report.Geo == nil {
		return report
	}

	result, err := geocoder.ReverseGeocode(ctx, report.Geo.Lat, report.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"report_id", report.ReportID,
			"lat", report.Geo.Lat,
			"lon", report.Geo.Lon,
			"error", err,
		)
		report.GeoSource = "failed"
		return report
	}
	if result.FormattedAddress == "" {
		report.GeoSource = "original"
		return report
	}

	report.FormattedAddress = result.FormattedAddress
	report.PlaceName = result.PlaceName
	report.GeoConfidence = result.Confidence
	report.GeoSource = "reverse"
	return report
}
