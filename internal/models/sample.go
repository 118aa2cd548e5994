package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TimeLabel is the x-axis label of a sample. Fixtures use either strings
// ("08:00") or plain ordinals (0, 1, 2), so both decode into the same label.
type TimeLabel string

// UnmarshalJSON accepts a JSON string or a JSON number
func (t *TimeLabel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TimeLabel(s)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("time label must be a string or number: %s", data)
	}
	*t = TimeLabel(n.String())
	return nil
}

// Sample is one sensor reading from the planter.
type Sample struct {
	Time        TimeLabel `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Light       float64   `json:"light"`
	Moisture    float64   `json:"moisture"`
	WaterLevel  float64   `json:"waterLevel"`
}

// Sensor ranges accepted at the loading boundary.
const (
	MinTemperature = -40.0
	MaxTemperature = 85.0
	MinPercent     = 0.0
	MaxPercent     = 100.0
)

// Check validates the reading values. The time label is not checked here
// because the latest reading of a plant carries none.
func (s *Sample) Check() error {
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return &ValidationError{Field: "temperature", Index: -1,
			Reason: fmt.Sprintf("%.1f°C outside %.0f..%.0f", s.Temperature, MinTemperature, MaxTemperature)}
	}
	percents := []struct {
		field string
		value float64
	}{
		{"humidity", s.Humidity},
		{"light", s.Light},
		{"moisture", s.Moisture},
		{"waterLevel", s.WaterLevel},
	}
	for _, p := range percents {
		if p.value < MinPercent || p.value > MaxPercent {
			return &ValidationError{Field: p.field, Index: -1,
				Reason: fmt.Sprintf("%.1f%% outside 0..100", p.value)}
		}
	}
	return nil
}

func (s Sample) String() string {
	return fmt.Sprintf("Time: %s, Temperature: %.1f°C, Humidity: %.1f%%, Light: %.1f%%, Moisture: %.1f%%, WaterLevel: %.1f%%",
		s.Time,
		s.Temperature,
		s.Humidity,
		s.Light,
		s.Moisture,
		s.WaterLevel)
}
