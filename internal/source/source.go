// Package source loads planter snapshots from the outside world: the
// built-in fixture, a JSON file in the same shape, or a read-only SQLite
// feed. Every loaded snapshot is validated before it is handed on.
package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/afroash/smart-planter/internal/models"
)

// ErrPlantNotFound is returned when a source holds no record for the plant
var ErrPlantNotFound = errors.New("plant not found")

//go:embed fixture/dummyData.json
var dummyData []byte

// Source supplies immutable plant snapshots
type Source interface {
	// Load reads and validates one snapshot
	Load(ctx context.Context) (*models.Plant, error)

	// Name identifies the source in logs
	Name() string
}

// Decode reads a fixture document and validates the plant it holds.
// Unknown fields are rejected so typos in fixtures surface early.
func Decode(r io.Reader) (*models.Plant, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var fixture models.Fixture
	if err := dec.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	if fixture.Plant == nil {
		return nil, ErrPlantNotFound
	}
	if err := fixture.Plant.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return fixture.Plant, nil
}

// EmbeddedSource serves the fixture compiled into the binary
type EmbeddedSource struct{}

// Load decodes a fresh copy of the embedded fixture
func (EmbeddedSource) Load(ctx context.Context) (*models.Plant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(dummyData))
}

func (EmbeddedSource) Name() string { return "embedded" }

// FileSource reads a fixture-shaped JSON file on every Load
type FileSource struct {
	Path string
}

// Load reads and decodes the file
func (f *FileSource) Load(ctx context.Context) (*models.Plant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

func (f *FileSource) Name() string { return "file:" + f.Path }

// Compile-time interface checks
var (
	_ Source = EmbeddedSource{}
	_ Source = (*FileSource)(nil)
)
