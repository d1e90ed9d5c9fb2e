// Package config loads the simulation settings file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	RandomSeed int64 `yaml:"random_seed"`

	Time struct {
		MinutesPerTick   float64 `yaml:"minutes_per_tick"`
		DayLengthMinutes int     `yaml:"day_length_minutes"`
		StartMinute      int     `yaml:"start_minute"`
	} `yaml:"time"`

	Data struct {
		MapFile      string `yaml:"map_file"`
		ScheduleFile string `yaml:"npc_schedule_file"`
	} `yaml:"data"`

	Activities struct {
		CatalogFile string `yaml:"catalog_file"`
	} `yaml:"activities"`

	Interactions struct {
		MessagesFile string `yaml:"messages_file"`
	} `yaml:"interactions"`

	Notifications struct {
		AlertCooldownMinutes int `yaml:"alert_cooldown_minutes"`
	} `yaml:"notifications"`
}

// Load reads settings from path, falling back to defaults for anything the
// file omits. An empty path returns pure defaults.
func Load(path string) (Settings, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("settings.yaml: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("settings.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Settings {
	var cfg Settings
	cfg.RandomSeed = 1337
	cfg.Time.MinutesPerTick = 1
	cfg.Time.DayLengthMinutes = 1440
	cfg.Time.StartMinute = 8 * 60
	cfg.Data.MapFile = "configs/campus_map.json"
	cfg.Data.ScheduleFile = "configs/npc_roster.yaml"
	cfg.Activities.CatalogFile = "configs/activities.yaml"
	cfg.Interactions.MessagesFile = "configs/interactions.yaml"
	cfg.Notifications.AlertCooldownMinutes = 10
	return cfg
}

func (s *Settings) normalize() {
	if s.Time.MinutesPerTick <= 0 {
		s.Time.MinutesPerTick = 1
	}
	if s.Time.DayLengthMinutes <= 0 {
		s.Time.DayLengthMinutes = 1440
	}
	if s.Notifications.AlertCooldownMinutes < 0 {
		s.Notifications.AlertCooldownMinutes = 0
	}
	s.Time.StartMinute = ((s.Time.StartMinute % s.Time.DayLengthMinutes) + s.Time.DayLengthMinutes) % s.Time.DayLengthMinutes
}

func (s *Settings) Validate() error {
	if s.Data.MapFile == "" {
		return fmt.Errorf("data.map_file must be set")
	}
	if s.Data.ScheduleFile == "" {
		return fmt.Errorf("data.npc_schedule_file must be set")
	}
	return nil
}
