package rules

import (
	"time"

	"housingreview/internal/config"
)

// Settings are the tunables shared by every rule. SealMatchThreshold is the
// only seal threshold in the system; rules compare through SealMatches.
type Settings struct {
	SealMatchThreshold float64
	AnnouncementDate   time.Time
	MinUnitArea        float64
	MaxUnitArea        float64
	MinUnits           int
}

// SettingsFromConfig copies the rule section of the application config.
func SettingsFromConfig(cfg *config.RulesConfig) Settings {
	return Settings{
		SealMatchThreshold: cfg.SealMatchThreshold,
		AnnouncementDate:   cfg.AnnouncementDate,
		MinUnitArea:        cfg.MinUnitArea,
		MaxUnitArea:        cfg.MaxUnitArea,
		MinUnits:           cfg.MinUnits,
	}
}

// SealMatches reports whether a match percentage clears the threshold.
// The boundary counts as a match.
func (s Settings) SealMatches(percent float64) bool {
	return percent >= s.SealMatchThreshold
}
