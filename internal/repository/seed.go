package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// Catalog is the static level ladder and achievement list loaded at startup.
type Catalog struct {
	Levels       []models.LevelThreshold `yaml:"levels"`
	Achievements []CatalogAchievement    `yaml:"achievements"`
}

// CatalogAchievement is the YAML form of an achievement definition.
type CatalogAchievement struct {
	ID          string                     `yaml:"id"`
	Name        string                     `yaml:"name"`
	Description string                     `yaml:"description"`
	Icon        string                     `yaml:"icon"`
	XPReward    int                        `yaml:"xp_reward"`
	Criteria    models.AchievementCriteria `yaml:"criteria"`
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[int]bool, len(catalog.Levels))
	for _, l := range catalog.Levels {
		if l.Level < 1 {
			return nil, fmt.Errorf("catalog level %d must be >= 1", l.Level)
		}
		if l.XPRequired < 0 {
			return nil, fmt.Errorf("catalog level %d has negative xp_required", l.Level)
		}
		if seen[l.Level] {
			return nil, fmt.Errorf("catalog level %d is duplicated", l.Level)
		}
		seen[l.Level] = true
	}
	for _, a := range catalog.Achievements {
		if a.ID == "" || a.Criteria.Metric == "" {
			return nil, fmt.Errorf("catalog achievement %q needs an id and a criteria metric", a.Name)
		}
		if a.XPReward < 0 {
			return nil, fmt.Errorf("catalog achievement %s has negative xp_reward", a.ID)
		}
	}

	return &catalog, nil
}

// SeedCatalog upserts the catalog into the database. Running it twice is a no-op.
func SeedCatalog(db *DB, catalog *Catalog) error {
	if err := NewLevelRepository(db).Upsert(catalog.Levels); err != nil {
		return fmt.Errorf("failed to seed levels: %w", err)
	}

	achievements := make([]models.Achievement, 0, len(catalog.Achievements))
	for _, a := range catalog.Achievements {
		criteria, err := json.Marshal(a.Criteria)
		if err != nil {
			return fmt.Errorf("failed to encode criteria for %s: %w", a.ID, err)
		}
		achievements = append(achievements, models.Achievement{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			XPReward:    a.XPReward,
			Criteria:    criteria,
		})
	}
	if err := NewAchievementRepository(db).Upsert(achievements); err != nil {
		return fmt.Errorf("failed to seed achievements: %w", err)
	}

	return nil
}
