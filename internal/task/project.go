package task

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrNoProject is returned when the project file does not exist.
var ErrNoProject = errors.New("project file not found")

// Info holds the project header from the [project] table.
type Info struct {
	Name      string `toml:"name"`
	StartDate string `toml:"start_date"`
}

// Project is the fully parsed representation of a project plan file.
type Project struct {
	Project Info   `toml:"project"`
	Tasks   []Task `toml:"tasks"`
}

// Start returns the project start date as a UTC-midnight time.
func (p *Project) Start() (time.Time, error) {
	if p.Project.StartDate == "" {
		return time.Time{}, fmt.Errorf("project %q: %w: missing start_date", p.Project.Name, ErrBadDate)
	}
	return ParseDate(p.Project.StartDate)
}

// Load reads and parses a project plan TOML file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoProject, path)
		}
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &p, nil
}
