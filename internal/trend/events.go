// Package trend derives the annotations and alerts shown for a planter
// snapshot. Every function here is pure: it reads an already loaded
// snapshot and never mutates it.
package trend

import "github.com/afroash/smart-planter/internal/models"

// DeriveWateringEvents returns the indices i > 0 where the water level rose
// compared to sample i-1, in ascending order. Samples must already be in
// collection order; nothing is sorted here.
func DeriveWateringEvents(samples []models.Sample) []int {
	events := []int{}
	for i := 1; i < len(samples); i++ {
		if samples[i].WaterLevel > samples[i-1].WaterLevel {
			events = append(events, i)
		}
	}
	return events
}
