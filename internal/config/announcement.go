package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Announcement is a housing purchase announcement file. Zero values leave the
// corresponding setting untouched.
type Announcement struct {
	Name        string  `yaml:"name"`
	Date        string  `yaml:"date"`
	MinUnitArea float64 `yaml:"min_unit_area"`
	MaxUnitArea float64 `yaml:"max_unit_area"`
	MinUnits    int     `yaml:"min_units"`
}

// LoadAnnouncement reads and parses an announcement YAML file.
func LoadAnnouncement(path string) (*Announcement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read announcement %s", path)
	}
	var a Announcement
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(err, "config: parse announcement %s", path)
	}
	return &a, nil
}

// Apply overlays the announcement onto rule settings.
func (a *Announcement) Apply(r *RulesConfig) error {
	if d := strings.TrimSpace(a.Date); d != "" {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return eris.Wrapf(err, "config: announcement date %q", d)
		}
		r.AnnouncementDate = t
	}
	if a.MinUnitArea > 0 {
		r.MinUnitArea = a.MinUnitArea
	}
	if a.MaxUnitArea > 0 {
		r.MaxUnitArea = a.MaxUnitArea
	}
	if a.MinUnits > 0 {
		r.MinUnits = a.MinUnits
	}
	return nil
}

// ApplyAnnouncementFile loads path and overlays it onto r.
func (r *RulesConfig) ApplyAnnouncementFile(path string) error {
	a, err := LoadAnnouncement(path)
	if err != nil {
		return err
	}
	return a.Apply(r)
}
