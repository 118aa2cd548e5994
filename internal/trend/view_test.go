package trend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afroash/smart-planter/internal/models"
)

func basil() *models.Plant {
	return &models.Plant{
		Name:       "Basil",
		Image:      "basil.png",
		WaterLevel: 22,
		Moisture:   35,
		TrendData: []models.Sample{
			{Time: "08:00", Moisture: 30, WaterLevel: 20},
			{Time: "10:00", Moisture: 55, WaterLevel: 85},
			{Time: "12:00", Moisture: 50, WaterLevel: 70},
			{Time: "14:00", Moisture: 58, WaterLevel: 90},
		},
	}
}

func TestBuildHomeView(t *testing.T) {
	view := BuildHomeView(basil(), DefaultThresholds())

	assert.Equal(t, "Basil", view.Name)
	assert.Equal(t, 22.0, view.Current.WaterLevel)
	assert.Equal(t, Alerts{LowWater: true}, view.Alerts)
	assert.Equal(t, []string{MessageLowWater}, view.Messages)
}

func TestBuildHomeView_NilPlantIsLoadingState(t *testing.T) {
	view := BuildHomeView(nil, DefaultThresholds())

	assert.Empty(t, view.Name)
	assert.Equal(t, Alerts{LowWater: true, LowMoisture: true}, view.Alerts)
	assert.Len(t, view.Messages, 2)
}

func TestBuildTrendView(t *testing.T) {
	view := BuildTrendView(basil())

	assert.Len(t, view.Samples, 4)
	assert.Equal(t, []int{1, 3}, view.Events)
	require.Len(t, view.Markers, 2)
	assert.Equal(t, Marker{Index: 1, Time: "10:00", Y: 55, Label: MarkerLabel}, view.Markers[0])
	assert.Equal(t, Marker{Index: 3, Time: "14:00", Y: 58, Label: MarkerLabel}, view.Markers[1])
}

func TestBuildTrendView_EmptyEncodesArrays(t *testing.T) {
	view := BuildTrendView(&models.Plant{Name: "Empty"})

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"samples":[],"events":[],"markers":[]}`, string(data))
}

func TestBuildDashboard_DoesNotMutateSnapshot(t *testing.T) {
	p := basil()
	before := *p
	before.TrendData = append([]models.Sample(nil), p.TrendData...)

	first := BuildDashboard(p, DefaultThresholds())
	second := BuildDashboard(p, DefaultThresholds())

	assert.Equal(t, first, second)
	assert.Equal(t, before, *p)
}
