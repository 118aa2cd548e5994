package server

import (
	"sync"

	"github.com/afroash/smart-planter/internal/models"
)

// SettingsStore holds the settings form in memory. Values are lost on
// restart.
type SettingsStore struct {
	mutex    sync.RWMutex
	settings models.Settings
}

// NewSettingsStore creates a store holding the default form values
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: models.DefaultSettings()}
}

// Get returns the current settings
func (s *SettingsStore) Get() models.Settings {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.settings
}

// Update validates and replaces the settings
func (s *SettingsStore) Update(settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.settings = settings
	return nil
}
