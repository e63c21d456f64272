// Package scenarios loads key-rate forecast scenarios from TOML definition
// files. Each file under the scenario directory defines one scenario; the
// file's id must be unique. Definitions are read once at startup and on
// explicit Reload, not watched.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/interfaces"
	"github.com/ternarybob/bondval/internal/models"
)

// scenarioFile is the TOML file structure. Forecast dates are strings in
// the file and parsed during conversion.
type scenarioFile struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Forecast    []struct {
		Date string  `toml:"date"`
		Rate float64 `toml:"rate"`
	} `toml:"forecast"`
}

var _ interfaces.ScenarioService = (*Service)(nil)

// Service implements interfaces.ScenarioService over a directory of TOML
// files.
type Service struct {
	dir      string
	validate *validator.Validate
	logger   arbor.ILogger

	mu        sync.RWMutex
	scenarios map[string]*models.Scenario
	files     map[string]string // scenario id -> definition file path
}

// NewService loads all scenario definitions from dir.
func NewService(dir string, logger arbor.ILogger) (*Service, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	s := &Service{
		dir:      dir,
		validate: validator.New(),
		logger:   logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every definition file. A single malformed file fails the
// whole reload so a bad deploy is caught at startup rather than surfacing
// as a missing scenario later.
func (s *Service) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read scenario directory %s: %w", s.dir, err)
	}

	scenarios := make(map[string]*models.Scenario)
	files := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		scenario, err := s.loadFile(path)
		if err != nil {
			return fmt.Errorf("scenario file %s: %w", entry.Name(), err)
		}
		if _, dup := scenarios[scenario.ID]; dup {
			return fmt.Errorf("scenario file %s: duplicate scenario id %q", entry.Name(), scenario.ID)
		}
		scenarios[scenario.ID] = scenario
		files[scenario.ID] = path
	}

	s.mu.Lock()
	s.scenarios = scenarios
	s.files = files
	s.mu.Unlock()

	s.logger.Info().
		Int("count", len(scenarios)).
		Str("dir", s.dir).
		Msg("Loaded rate scenarios")
	return nil
}

func (s *Service) loadFile(path string) (*models.Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file scenarioFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("invalid TOML syntax: %w", err)
	}

	scenario := &models.Scenario{
		ID:          file.ID,
		Name:        file.Name,
		Description: file.Description,
	}
	for _, point := range file.Forecast {
		date, err := time.Parse("2006-01-02", point.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast date %q: %w", point.Date, err)
		}
		scenario.Forecast = append(scenario.Forecast, models.RateSchedulePoint{
			Date: date,
			Rate: point.Rate,
		})
	}

	if err := s.validate.Struct(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario definition: %w", err)
	}

	// Forecast points must be usable as a schedule regardless of file order
	sort.Slice(scenario.Forecast, func(i, j int) bool {
		return scenario.Forecast[i].Date.Before(scenario.Forecast[j].Date)
	})

	return scenario, nil
}

// List returns all loaded scenarios ordered by id.
func (s *Service) List() []*models.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Scenario, 0, len(s.scenarios))
	for _, scenario := range s.scenarios {
		out = append(out, scenario)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns one scenario by id.
func (s *Service) Get(id string) (*models.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scenario, ok := s.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("scenario %q: %w", id, interfaces.ErrScenarioNotFound)
	}
	return scenario, nil
}

// ModTime returns the definition file's modification time.
func (s *Service) ModTime(id string) (time.Time, error) {
	s.mu.RLock()
	path, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, fmt.Errorf("scenario %q: %w", id, interfaces.ErrScenarioNotFound)
	}

	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat scenario file %s: %w", path, err)
	}
	return info.ModTime(), nil
}
