package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/DaniruKun/invisibility-cloak/imgproc"
)

const DefaultPath = "color_presets.json"

// Store persists a preset table to a single JSON file. Persistence is best
// effort: failures are logged and returned but never roll back the table.
type Store struct {
	path   string
	table  *Table
	logger zerolog.Logger
}

// NewStore returns a store for path whose table holds the built-in presets.
func NewStore(path string, logger zerolog.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:   path,
		table:  Defaults(),
		logger: logger.With().Str("path", path).Logger(),
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Table() *Table {
	return s.table
}

// Load merges the presets saved in the file into the table. A missing file
// is not an error. On any other failure the table is left as it was.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Msg("No preset file, using defaults")
			return nil
		}
		err = fmt.Errorf("reading presets: %w", err)
		s.logger.Error().Err(err).Msg("Error loading presets")
		return err
	}

	loaded := NewTable()
	if err := json.Unmarshal(data, loaded); err != nil {
		err = fmt.Errorf("parsing presets: %w", err)
		s.logger.Error().Err(err).Msg("Error loading presets")
		return err
	}

	s.table.Merge(loaded)
	s.logger.Info().Strs("presets", loaded.Names()).Msg("Loaded presets")
	return nil
}

// Save overwrites the file with the whole table.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.table, "", "  ")
	if err != nil {
		err = fmt.Errorf("encoding presets: %w", err)
		s.logger.Error().Err(err).Msg("Error saving presets")
		return err
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		err = fmt.Errorf("writing presets: %w", err)
		s.logger.Error().Err(err).Msg("Error saving presets")
		return err
	}
	return nil
}

// SaveNamed stores r under name and persists the table.
func (s *Store) SaveNamed(name string, r imgproc.Range) error {
	s.table.Set(name, r)
	if err := s.Save(); err != nil {
		return err
	}
	s.logger.Info().Str("preset", name).Object("range", r).Msg("Saved current settings as preset")
	return nil
}
