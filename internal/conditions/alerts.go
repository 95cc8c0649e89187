package conditions

import "fmt"

// DeriveAlerts enumerates the discrete hazard advisories for a
// snapshot. The thresholds are independent of the flag cascade: the
// flag is the coarse signal, this list is the itemized justification,
// and the two may disagree in count.
func DeriveAlerts(s *Snapshot) []Alert {
	alerts := make([]Alert, 0, 4)

	if s.WindSpeedMph > 15 {
		title := "Moderate Wind"
		severity := SeverityModerate
		if s.WindSpeedMph > 25 {
			title = "Strong Wind"
			severity = SeverityHigh
		}
		alerts = append(alerts, Alert{
			ID:            "wind",
			Title:         title,
			Severity:      severity,
			Description:   "Breezy conditions. May affect beach umbrellas and small watercraft.",
			CurrentValue:  fmt.Sprintf("%.1f mph %s", s.WindSpeedMph, s.WindDirection),
			SafeThreshold: "< 15 mph",
		})
	}

	if s.SurfHeightFt > 2.5 {
		title := "Elevated Surf"
		severity := SeverityModerate
		if s.SurfHeightFt > 4 {
			title = "High Surf"
			severity = SeverityExtreme
		}
		alerts = append(alerts, Alert{
			ID:            "surf",
			Title:         title,
			Severity:      severity,
			Description:   "Larger than normal waves. Use caution when entering the water.",
			CurrentValue:  fmt.Sprintf("%.1f ft", s.SurfHeightFt),
			SafeThreshold: "< 2.5 ft",
		})
	}

	if s.UVIndex > 8 {
		title := "Very High UV"
		severity := SeverityHigh
		if s.UVIndex > 10 {
			title = "Extreme UV"
			severity = SeverityExtreme
		}
		alerts = append(alerts, Alert{
			ID:            "uv",
			Title:         title,
			Severity:      severity,
			Description:   "High UV radiation levels. Sunscreen and protective clothing strongly recommended.",
			CurrentValue:  fmt.Sprintf("UV %d", s.UVIndex),
			SafeThreshold: "< 8",
		})
	}

	if s.WaterTempF < 65 {
		alerts = append(alerts, Alert{
			ID:            "coldwater",
			Title:         "Cold Water",
			Severity:      SeverityModerate,
			Description:   "Water temperature is below comfortable swimming levels. Wetsuit recommended.",
			CurrentValue:  fmt.Sprintf("%.1f°F", s.WaterTempF),
			SafeThreshold: "> 65°F",
		})
	}

	return alerts
}
