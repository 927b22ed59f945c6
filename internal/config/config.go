package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/coa/internal/model"
)

// FileName is the project configuration file at the project root.
const FileName = "coa.yaml"

// Config represents the top-level coa.yaml configuration.
type Config struct {
	Entity    EntityConfig    `yaml:"entity"`
	Fiscal    FiscalConfig    `yaml:"fiscal"`
	Reporting ReportingConfig `yaml:"reporting"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Git       GitConfig       `yaml:"git"`
}

// EntityConfig identifies the reporting entity.
type EntityConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Country string `yaml:"country"` // ISO 3166 alpha-2
}

// FiscalConfig defines the fiscal period.
type FiscalConfig struct {
	Period    string `yaml:"period"`     // e.g. "2025"
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// ReportingConfig selects the framework statements are produced under.
// An empty standard means the one recommended for the entity's country.
type ReportingConfig struct {
	Standard    string `yaml:"standard"`
	System      string `yaml:"system"`
	Currency    string `yaml:"currency"`
	Materiality string `yaml:"materiality"`
	CatalogDir  string `yaml:"catalog_dir,omitempty"`
	RulesDir    string `yaml:"rules_dir,omitempty"`
}

// StorageConfig locates the statement archive and export directory,
// relative to the project root.
type StorageConfig struct {
	Database string `yaml:"database"`
	Exports  string `yaml:"exports"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a coa.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(entityName, country string) *Config {
	return &Config{
		Entity: EntityConfig{
			Name:    entityName,
			Country: strings.ToUpper(country),
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Reporting: ReportingConfig{
			System:      string(model.SystemNormal),
			Currency:    "XOF",
			Materiality: "0",
		},
		Storage: StorageConfig{
			Database: "statements.db",
			Exports:  "exports",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AuthorName:  "coa",
			AuthorEmail: "coa@cleared.dev",
		},
	}
}

// SystemType returns the parsed reporting system.
func (c *Config) SystemType() (model.SystemType, error) {
	return model.ParseSystemType(c.Reporting.System)
}

// MaterialityThreshold returns the parsed materiality; blank means zero.
func (c *Config) MaterialityThreshold() (decimal.Decimal, error) {
	if strings.TrimSpace(c.Reporting.Materiality) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(c.Reporting.Materiality)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing materiality %q: %w", c.Reporting.Materiality, err)
	}
	return d, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	var problems []string
	if len(c.Entity.Country) != 2 {
		problems = append(problems, fmt.Sprintf("entity.country %q is not a two-letter code", c.Entity.Country))
	}
	if _, err := c.SystemType(); err != nil {
		problems = append(problems, fmt.Sprintf("reporting.system: %v", err))
	}
	if _, err := model.LookupCurrency(c.Reporting.Currency); err != nil {
		problems = append(problems, fmt.Sprintf("reporting.currency: %v", err))
	}
	if m, err := c.MaterialityThreshold(); err != nil {
		problems = append(problems, err.Error())
	} else if m.IsNegative() {
		problems = append(problems, "reporting.materiality must not be negative")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not console or json", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
