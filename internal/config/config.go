package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSpecies     = "Cu"
	DefaultCells       = 10
	DefaultTemperature = 300.0
	DefaultTimestep    = 1.0
	DefaultSteps       = 500
	DefaultInterval    = 10
	DefaultOutput      = "cu.traj"
	DefaultEvaluator   = "emt"
)

type Config struct {
	Species string `yaml:"species" validate:"required,oneof=Al Ni Cu Pd Ag Pt Au"`
	Size    [3]int `yaml:"size" validate:"dive,min=1"`
	// LatticeConstant in Å; zero uses the tabulated value for Species.
	LatticeConstant float64 `yaml:"lattice_constant" validate:"gte=0"`
	PBC             [3]bool `yaml:"pbc"`

	TemperatureK float64 `yaml:"temperature_k" validate:"gte=0"`
	TimestepFs   float64 `yaml:"timestep_fs" validate:"gt=0,lte=20"`
	Steps        int     `yaml:"steps" validate:"min=1"`
	Interval     int     `yaml:"interval" validate:"min=1"`

	Output       string `yaml:"output" validate:"required"`
	Evaluator    string `yaml:"evaluator" validate:"oneof=emt emt-reference"`
	Seed         int64  `yaml:"seed"`
	ZeroMomentum bool   `yaml:"zero_momentum"`
}

func DefaultConfig() *Config {
	return &Config{
		Species:      DefaultSpecies,
		Size:         [3]int{DefaultCells, DefaultCells, DefaultCells},
		PBC:          [3]bool{true, true, true},
		TemperatureK: DefaultTemperature,
		TimestepFs:   DefaultTimestep,
		Steps:        DefaultSteps,
		Interval:     DefaultInterval,
		Output:       DefaultOutput,
		Evaluator:    DefaultEvaluator,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Frames is the number of trajectory frames a full run writes.
func (c *Config) Frames() int { return c.Steps / c.Interval }

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
