package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings describe the floor a pos-svc instance starts with.
type Settings struct {
	VATRate     float64          `yaml:"vat_rate"`
	PointsUnit  float64          `yaml:"points_unit"`
	Tables      []TableSeed      `yaml:"tables"`
	Promotions  []PromotionSeed  `yaml:"promotions"`
	Customers   []CustomerSeed   `yaml:"customers"`
	Ingredients []IngredientSeed `yaml:"ingredients"`
	Logging     Logging          `yaml:"logging"`
}

type TableSeed struct {
	ID       int `yaml:"id"`
	MaxSeats int `yaml:"max_seats"`
}

type PromotionSeed struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Type      string  `yaml:"type"`
	Value     float64 `yaml:"value"`
	Items     []int   `yaml:"items"`
	StartDate string  `yaml:"start_date"`
	EndDate   string  `yaml:"end_date"`
	IsActive  bool    `yaml:"is_active"`
}

type CustomerSeed struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Phone      string  `yaml:"phone"`
	Email      string  `yaml:"email"`
	Points     int     `yaml:"points"`
	Tier       string  `yaml:"tier"`
	TotalSpent float64 `yaml:"total_spent"`
	Visits     int     `yaml:"visits"`
}

type IngredientSeed struct {
	ID           int     `yaml:"id"`
	Name         string  `yaml:"name"`
	Unit         string  `yaml:"unit"`
	Quantity     float64 `yaml:"quantity"`
	MinThreshold float64 `yaml:"min_threshold"`
	UnitCost     float64 `yaml:"unit_cost"`
	Category     string  `yaml:"category"`
}

type Logging struct {
	Level string `yaml:"level"` // trace, debug, info, warn, error, fatal, panic
	// Path of the rotating log file. Empty logs to stdout.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func DefaultSettings() Settings {
	return Settings{
		VATRate:    0.08,
		PointsUnit: 1000,
		Logging:    Logging{Level: "info", MaxSizeMB: 32, MaxBackups: 2, MaxAgeDays: 28},
	}
}

// LoadSettings reads a YAML settings file over the defaults and validates it.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s Settings) Validate() error {
	if math.IsNaN(s.VATRate) || math.IsInf(s.VATRate, 0) || s.VATRate < 0 || s.VATRate >= 1 {
		return fmt.Errorf("vat_rate must be in [0, 1), got %v", s.VATRate)
	}
	if !(s.PointsUnit > 0) {
		return fmt.Errorf("points_unit must be positive, got %v", s.PointsUnit)
	}

	seen := make(map[int]bool, len(s.Tables))
	for _, t := range s.Tables {
		if t.ID < 1 {
			return fmt.Errorf("table id must be positive, got %d", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("table %d is listed twice", t.ID)
		}
		if t.MaxSeats < 0 {
			return fmt.Errorf("table %d: max_seats cannot be negative", t.ID)
		}
		seen[t.ID] = true
	}

	phones := make(map[string]string, len(s.Customers))
	customerIDs := make(map[string]bool, len(s.Customers))
	for _, c := range s.Customers {
		if c.ID == "" || c.Name == "" || c.Phone == "" {
			return fmt.Errorf("customer %q needs an id, a name and a phone", c.ID)
		}
		if customerIDs[c.ID] {
			return fmt.Errorf("customer %s is listed twice", c.ID)
		}
		customerIDs[c.ID] = true
		if other, ok := phones[c.Phone]; ok {
			return fmt.Errorf("customers %s and %s share phone %s", other, c.ID, c.Phone)
		}
		phones[c.Phone] = c.ID
	}

	promotionIDs := make(map[string]bool, len(s.Promotions))
	for _, p := range s.Promotions {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("promotion %q needs an id and a name", p.ID)
		}
		if promotionIDs[p.ID] {
			return fmt.Errorf("promotion %s is listed twice", p.ID)
		}
		promotionIDs[p.ID] = true
	}

	for _, in := range s.Ingredients {
		if in.Quantity < 0 || in.MinThreshold < 0 || in.UnitCost < 0 {
			return fmt.Errorf("ingredient %d: quantities and cost cannot be negative", in.ID)
		}
	}
	return nil
}
