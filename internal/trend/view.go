package trend

import "github.com/afroash/smart-planter/internal/models"

// MarkerLabel is the annotation text of a watering event
const MarkerLabel = "Watered"

// Marker annotates one watering event on the trend chart. Y is the
// sample's moisture, where the chart places the dot.
type Marker struct {
	Index int              `json:"index"`
	Time  models.TimeLabel `json:"time"`
	Y     float64          `json:"y"`
	Label string           `json:"label"`
}

// HomeView is the overview screen: latest reading and its alerts
type HomeView struct {
	Name     string        `json:"name"`
	Image    string        `json:"image"`
	Current  models.Sample `json:"current"`
	Alerts   Alerts        `json:"alerts"`
	Messages []string      `json:"messages"`
}

// TrendView is the details screen: the sample sequence and its markers
type TrendView struct {
	Samples []models.Sample `json:"samples"`
	Events  []int           `json:"events"`
	Markers []Marker        `json:"markers"`
}

// Dashboard combines both screens for one snapshot
type Dashboard struct {
	Home  HomeView  `json:"home"`
	Trend TrendView `json:"trend"`
}

// BuildHomeView evaluates alerts for the plant's latest reading.
// A nil plant yields the zero-valued loading view.
func BuildHomeView(p *models.Plant, t Thresholds) HomeView {
	current := p.Current()
	alerts := EvaluateAlerts(current, t)
	view := HomeView{
		Current:  current,
		Alerts:   alerts,
		Messages: alerts.Messages(),
	}
	if p != nil {
		view.Name = p.Name
		view.Image = p.Image
	}
	return view
}

// BuildTrendView derives watering markers for the plant's trend
func BuildTrendView(p *models.Plant) TrendView {
	var samples []models.Sample
	if p != nil {
		samples = p.TrendData
	}
	if samples == nil {
		samples = []models.Sample{}
	}

	events := DeriveWateringEvents(samples)
	markers := make([]Marker, 0, len(events))
	for _, i := range events {
		markers = append(markers, Marker{
			Index: i,
			Time:  samples[i].Time,
			Y:     samples[i].Moisture,
			Label: MarkerLabel,
		})
	}

	return TrendView{
		Samples: samples,
		Events:  events,
		Markers: markers,
	}
}

// BuildDashboard recomputes the full view-model for a snapshot
func BuildDashboard(p *models.Plant, t Thresholds) Dashboard {
	return Dashboard{
		Home:  BuildHomeView(p, t),
		Trend: BuildTrendView(p),
	}
}
