package sources

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Species  string         `yaml:"species"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool    `yaml:"enabled"`
	RefreshInterval int     `yaml:"refresh_interval"` // seconds
	Timeout         int     `yaml:"timeout"`          // seconds, per ingest HTTP request
	GuardFraction   float64 `yaml:"guard_fraction"`   // minimum batch size relative to previous active count
	MaxAgeMonths    float64 `yaml:"max_age_months"`   // only listings younger than this are mailed
	MaxListings     int     `yaml:"max_listings"`     // cap for API listing responses
}
