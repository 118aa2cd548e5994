package trend

import "github.com/afroash/smart-planter/internal/models"

// Default alert thresholds
const (
	DefaultWaterLevelThreshold = 25.0
	DefaultMoistureThreshold   = 20.0
)

// Alert messages shown to the user
const (
	MessageLowWater    = "Refill the water tank!"
	MessageLowMoisture = "Moisture levels are too low!"
)

// Thresholds holds the fixed alert limits. A reading strictly below a
// limit is low.
type Thresholds struct {
	WaterLevel float64 `json:"waterLevelThreshold"`
	Moisture   float64 `json:"moistureThreshold"`
}

// DefaultThresholds returns the stock limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		WaterLevel: DefaultWaterLevelThreshold,
		Moisture:   DefaultMoistureThreshold,
	}
}

// Alerts is the result of evaluating the latest reading
type Alerts struct {
	LowWater    bool `json:"lowWater"`
	LowMoisture bool `json:"lowMoisture"`
}

// EvaluateAlerts compares the latest reading against the thresholds.
// A zero-valued reading, as seen before data loads, raises both alerts.
func EvaluateAlerts(latest models.Sample, t Thresholds) Alerts {
	return Alerts{
		LowWater:    latest.WaterLevel < t.WaterLevel,
		LowMoisture: latest.Moisture < t.Moisture,
	}
}

// Any reports whether at least one alert is active
func (a Alerts) Any() bool {
	return a.LowWater || a.LowMoisture
}

// Messages returns the warnings for the active alerts, water first
func (a Alerts) Messages() []string {
	msgs := []string{}
	if a.LowWater {
		msgs = append(msgs, MessageLowWater)
	}
	if a.LowMoisture {
		msgs = append(msgs, MessageLowMoisture)
	}
	return msgs
}
