package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries the process configuration. Values come from an optional
// YAML file, overridden by environment variables.
type Config struct {
	Port     string `yaml:"port"`
	RedisURL string `yaml:"redisUrl"`

	Sim struct {
		Seed           int64   `yaml:"seed"`
		TickMs         int     `yaml:"tickMs"`         // simulated ms advanced per runner tick
		IntervalMs     int     `yaml:"intervalMs"`     // wall-clock runner interval
		EmergencyRate  float64 `yaml:"emergencyRate"`  // per-tick generation probability
		ResolutionRate float64 `yaml:"resolutionRate"` // per-tick resolution probability
	} `yaml:"sim"`

	Data struct {
		PersonnelCSV string `yaml:"personnelCsv"` // optional file loaded at startup
		IncidentsCSV string `yaml:"incidentsCsv"`
	} `yaml:"data"`
}

func defaults() *Config {
	c := &Config{Port: "8080"}
	c.Sim.TickMs = 1000
	c.Sim.IntervalMs = 1000
	c.Sim.EmergencyRate = 0.3
	c.Sim.ResolutionRate = 0.1
	return c
}

// Load reads path when non-empty (missing file is not an error) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	c := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, c); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Sim.Seed = n
		}
	}
	if v := os.Getenv("SIM_TICK_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sim.TickMs = n
		}
	}
	if v := os.Getenv("SIM_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sim.IntervalMs = n
		}
	}
	if v := os.Getenv("PERSONNEL_CSV"); v != "" {
		c.Data.PersonnelCSV = v
	}
	if v := os.Getenv("INCIDENTS_CSV"); v != "" {
		c.Data.IncidentsCSV = v
	}
}
