package models

import (
	"errors"
	"fmt"
)

// Plant is one planter snapshot: the latest reading plus the trend
// sequence plotted on the details screen. A loaded Plant is never mutated;
// a reload produces a new value.
type Plant struct {
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	WaterLevel  float64  `json:"waterLevel"`
	Light       float64  `json:"light"`
	Moisture    float64  `json:"moisture"`
	TrendData   []Sample `json:"trendData"`
}

// Fixture is the document shape of dummyData.json
type Fixture struct {
	Plant *Plant `json:"plant"`
}

// Current returns the latest reading as a Sample
func (p *Plant) Current() Sample {
	if p == nil {
		return Sample{}
	}
	return Sample{
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
		Light:       p.Light,
		Moisture:    p.Moisture,
		WaterLevel:  p.WaterLevel,
	}
}

// Validate checks the latest reading and every trend sample.
// Time labels must be non-empty and unique; order is taken as given.
func (p *Plant) Validate() error {
	if p == nil {
		return errors.New("plant is missing")
	}
	current := p.Current()
	if err := current.Check(); err != nil {
		return err
	}

	seen := make(map[TimeLabel]int, len(p.TrendData))
	for i := range p.TrendData {
		s := &p.TrendData[i]
		if s.Time == "" {
			return &ValidationError{Field: "time", Index: i, Reason: "empty label"}
		}
		if prev, dup := seen[s.Time]; dup {
			return &ValidationError{Field: "time", Index: i,
				Reason: fmt.Sprintf("label %q already used by sample %d", s.Time, prev)}
		}
		seen[s.Time] = i

		if err := s.Check(); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Index = i
			}
			return err
		}
	}
	return nil
}

// Latest returns the last trend sample, or false when the trend is empty
func (p *Plant) Latest() (Sample, bool) {
	if p == nil || len(p.TrendData) == 0 {
		return Sample{}, false
	}
	return p.TrendData[len(p.TrendData)-1], true
}
