package source

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Source kinds accepted in configuration
const (
	KindEmbedded = "embedded"
	KindFile     = "file"
	KindSQLite   = "sqlite"
)

// Open builds the source described by kind and path. The returned close
// function releases any held resources and is never nil.
func Open(kind, path, plantID string, logger zerolog.Logger) (Source, func() error, error) {
	noop := func() error { return nil }

	switch kind {
	case KindEmbedded, "":
		return EmbeddedSource{}, noop, nil
	case KindFile:
		if path == "" {
			return nil, noop, fmt.Errorf("file source for %s needs a path", plantID)
		}
		return &FileSource{Path: path}, noop, nil
	case KindSQLite:
		if path == "" {
			return nil, noop, fmt.Errorf("sqlite source for %s needs a path", plantID)
		}
		src, err := NewSQLiteSource(path, plantID, logger)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown source kind %q", kind)
	}
}
