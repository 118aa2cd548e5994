package models

import "fmt"

// Settings is the settings screen form. It lives in memory only and is
// reset on restart.
type Settings struct {
	WaterLevelTarget  int  `json:"waterLevelTarget"`
	MoistureTarget    int  `json:"moistureTarget"`
	EmailReminders    bool `json:"emailReminders"`
	WaterTankAlert    bool `json:"waterTankAlert"`
	PlantHealthAlerts bool `json:"plantHealthAlerts"`
	SmartWatering     bool `json:"smartWatering"`
}

// DefaultSettings returns the form's initial slider positions
func DefaultSettings() Settings {
	return Settings{
		WaterLevelTarget: 70,
		MoistureTarget:   50,
	}
}

// Validate checks the slider ranges
func (s *Settings) Validate() error {
	if s.WaterLevelTarget < 0 || s.WaterLevelTarget > 100 {
		return fmt.Errorf("water level target must be between 0 and 100")
	}
	if s.MoistureTarget < 0 || s.MoistureTarget > 100 {
		return fmt.Errorf("moisture target must be between 0 and 100")
	}
	return nil
}
