package config

import "sort"

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"small": func() *Config {
		c := DefaultConfig()
		c.Size = [3]int{3, 3, 3}
		c.Evaluator = "emt-reference"
		c.Output = "cu-small.traj"
		return c
	},
	"hot": func() *Config {
		c := DefaultConfig()
		c.TemperatureK = 600
		c.Output = "cu-hot.traj"
		return c
	},
	"long": func() *Config {
		c := DefaultConfig()
		c.Steps = 5000
		c.Interval = 50
		c.Output = "cu-long.traj"
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
