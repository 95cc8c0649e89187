package conditions

import "time"

// TideStatus describes the current tide trend at a location
type TideStatus string

const (
	TideRising  TideStatus = "Rising"
	TideFalling TideStatus = "Falling"
	TideHigh    TideStatus = "High"
	TideLow     TideStatus = "Low"
)

// TideType marks a predicted extremum as a high or low tide
type TideType string

const (
	TideTypeHigh TideType = "High"
	TideTypeLow  TideType = "Low"
)

// FlagColor is the beach warning flag. Purple is never produced by the
// classification cascade; it is reserved for operator-injected marine
// life warnings.
type FlagColor string

const (
	FlagGreen  FlagColor = "green"
	FlagYellow FlagColor = "yellow"
	FlagRed    FlagColor = "red"
	FlagPurple FlagColor = "purple"
)

// Snapshot is the complete set of beach conditions for one location.
// Every field is always populated: each contributing upstream value has
// a defined fallback, so a snapshot never carries partial data.
// Snapshots are immutable once assembled.
type Snapshot struct {
	LocationID      string     `json:"location_id"`
	WaterTempF      float64    `json:"water_temp_f"`
	SurfHeightFt    float64    `json:"surf_height_ft"`
	CurrentTideFt   float64    `json:"current_tide_ft"`
	TideStatus      TideStatus `json:"tide_status"`
	AirTempF        float64    `json:"air_temp_f"`
	WindSpeedMph    float64    `json:"wind_speed_mph"`
	WindDirection   string     `json:"wind_direction"`
	HumidityPct     float64    `json:"humidity_pct"`
	UVIndex         int        `json:"uv_index"`
	UVGuide         string     `json:"uv_guide"`
	Sunrise         string     `json:"sunrise"`
	Sunset          string     `json:"sunset"`
	Conditions      string     `json:"conditions"`
	FlagWarning     FlagColor  `json:"flag_warning"`
	FlagWarningText string     `json:"flag_warning_text"`
	LastUpdated     time.Time  `json:"last_updated"`

	// Synthetic marks a locally generated fallback snapshot produced
	// when no upstream path could be completed.
	Synthetic bool `json:"synthetic,omitempty"`
}

// TidePrediction is one upcoming tide extremum
type TidePrediction struct {
	Time     string   `json:"time"`
	Type     TideType `json:"type"`
	HeightFt float64  `json:"height_ft"`
}

// WindReading is the latest observed wind at a tide station
type WindReading struct {
	SpeedMph  float64
	Direction string
}

// ForecastPeriod is the first short-term period of an NWS forecast.
// Individual fields may be absent; the aggregator only overrides a
// station-sourced value when the corresponding forecast field resolved.
type ForecastPeriod struct {
	TempF         *float64
	WindSpeedMph  *float64
	WindDirection string
	HumidityPct   *float64
	ShortForecast string
}

// AlertSeverity grades an advisory alert
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityModerate AlertSeverity = "moderate"
	SeverityHigh     AlertSeverity = "high"
	SeverityExtreme  AlertSeverity = "extreme"
)

// Alert is one discrete hazard advisory derived from a snapshot.
// The alert list is the itemized justification behind the coarse flag
// color and may disagree with it in count.
type Alert struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Severity      AlertSeverity `json:"severity"`
	Description   string        `json:"description"`
	CurrentValue  string        `json:"current_value,omitempty"`
	SafeThreshold string        `json:"safe_threshold,omitempty"`
}

// Merge defaults substituted for unavailable upstream signals.
const (
	DefaultAirTempF      = 75.0
	DefaultWindSpeedMph  = 10.0
	DefaultWindDirection = "E"
	DefaultHumidityPct   = 60.0
	DefaultWaterTempF    = 72.0
	DefaultTideFt        = 1.5
	DefaultConditions    = "Good conditions"
)
