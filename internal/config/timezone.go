package config

import "time"

// EffectiveLocation resolves the configured timezone. An empty or invalid
// zone name falls back to UTC so date math never fails at planning time.
func (c *Config) EffectiveLocation() (*time.Location, string) {
	return ResolveLocation(c.Timezone)
}

// ResolveLocation loads a zone by name, falling back to UTC.
func ResolveLocation(name string) (*time.Location, string) {
	if name == "" || name == "UTC" {
		return time.UTC, "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, name
}
