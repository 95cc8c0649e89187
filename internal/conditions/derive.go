package conditions

import (
	"math"
	"math/rand"
	"time"
)

// cardinalDirections is the 16-point compass rose used for wind
// direction conversion.
var cardinalDirections = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection converts wind direction degrees to a 16-point
// compass label.
func CardinalDirection(degrees float64) string {
	index := int(math.Round(degrees/22.5)) % 16
	if index < 0 {
		index += 16
	}
	return cardinalDirections[index]
}

// EstimateUVIndex approximates the UV index from the hour of day and
// latitude. This is a deliberate approximation, not a measured value:
// zero outside daylight hours, a low fixed value outside the midday
// peak, and a latitude-scaled value inside it.
func EstimateUVIndex(t time.Time, latitude float64) int {
	hour := t.Hour()

	if hour < 6 || hour > 18 {
		return 0
	}
	if hour < 10 || hour > 16 {
		return 3
	}

	latFactor := 1 + math.Abs(latitude)/90
	baseUV := 8.0

	uv := int(math.Round(baseUV * latFactor))
	if uv > 11 {
		uv = 11
	}
	return uv
}

// UVGuide maps a UV index to protection advice
func UVGuide(uvIndex int) string {
	switch {
	case uvIndex <= 2:
		return "Low - Minimal protection needed"
	case uvIndex <= 5:
		return "Moderate - Wear sunscreen"
	case uvIndex <= 7:
		return "High - Wear sunscreen and hat"
	case uvIndex <= 10:
		return "Very High - Extra protection needed"
	default:
		return "Extreme - Avoid sun exposure"
	}
}

// SunTimesFunc computes sunrise and sunset clock strings for a
// coordinate pair on a given date. It is a named seam so a real solar
// ephemeris implementation can replace the placeholder without
// touching the aggregator.
type SunTimesFunc func(lat, lon float64, date time.Time) (sunrise, sunset string)

// PlaceholderSunTimes returns a fixed sunrise/sunset pair regardless of
// date and location. Stand-in until a proper ephemeris computation is
// wired in.
func PlaceholderSunTimes(lat, lon float64, date time.Time) (string, string) {
	sunrise := time.Date(date.Year(), date.Month(), date.Day(), 7, 18, 0, 0, date.Location())
	sunset := time.Date(date.Year(), date.Month(), date.Day(), 18, 53, 0, 0, date.Location())
	return formatClock(sunrise), formatClock(sunset)
}

// SurfEstimatorFunc produces a surf height estimate in feet for a
// location. There is no live surf upstream in this design; the default
// randomized estimator is a named stand-in for a future surf forecast
// integration.
type SurfEstimatorFunc func(locationID string) float64

// RandomizedSurfEstimate returns a plausible surf height between 1 and
// 3 feet.
func RandomizedSurfEstimate(locationID string) float64 {
	return 1 + rand.Float64()*2
}

// ClassifyTideStatus classifies the tide trend from the current height
// and the ordered upcoming predictions. With fewer than two predictions
// the trend defaults to Rising. Otherwise the current height is
// compared against the next extremum with a 10% tolerance band.
func ClassifyTideStatus(currentTideFt float64, predictions []TidePrediction) TideStatus {
	if len(predictions) < 2 {
		return TideRising
	}

	next := predictions[0]
	if next.Type == TideTypeHigh {
		if currentTideFt > next.HeightFt*0.9 {
			return TideHigh
		}
		return TideRising
	}
	if currentTideFt < next.HeightFt*1.1 {
		return TideLow
	}
	return TideFalling
}

// ClassifyFlag runs the warning flag threshold cascade, first match
// wins. Purple is never produced here; it is operator-injected for
// marine life hazards.
func ClassifyFlag(surfHeightFt, windSpeedMph float64, uvIndex int) (FlagColor, string) {
	if surfHeightFt > 4 || windSpeedMph > 25 {
		return FlagRed, "Dangerous conditions - High surf or strong winds"
	}
	if surfHeightFt > 2.5 || windSpeedMph > 15 || uvIndex > 8 {
		return FlagYellow, "Caution - Moderate surf or wind"
	}
	return FlagGreen, "Safe conditions - No hazards"
}

// formatClock renders a time as a localized clock string, e.g. "7:18 AM".
func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}
