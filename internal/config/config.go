// Package config loads fedplan settings and the connector catalog.
//
// Settings come from fedplan.yaml (current directory, or an explicit file)
// with FEDPLAN_* environment overrides for the scalar keys:
//
//	journal: plans.db
//	log_level: debug
//	connectors:
//	  - name: postgres
//	    url: http://localhost:8081
//	    ndc_version: "0.2"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// DefaultConfigName is the file name (without extension) searched for when
// no explicit config file is given.
const DefaultConfigName = "fedplan"

// EnvPrefix is the prefix of environment overrides (FEDPLAN_JOURNAL, ...).
const EnvPrefix = "FEDPLAN"

// Config is the resolved configuration.
type Config struct {
	// File is the config file that was read, or "" when none was found.
	File string

	// JournalPath is the default plan journal database. Empty disables
	// journaling unless a command asks for it.
	JournalPath string

	// LogLevel is the minimum slog level ("debug", "info", "warn", "error").
	LogLevel string

	// Catalog resolves connector names used by query documents.
	Catalog *Catalog
}

// ConnectorEntry is one item of the connectors list.
type ConnectorEntry struct {
	Name       string `mapstructure:"name"`
	URL        string `mapstructure:"url"`
	NDCVersion string `mapstructure:"ndc_version"`
}

// Load reads configuration.
//
// With path == "" it looks for fedplan.{yaml,yml,json} in dir and falls
// back to defaults and environment when none exists. With an explicit path
// the file must exist.
func Load(path, dir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("journal", "")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("journal")
	_ = v.BindEnv("log_level")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		if dir == "" {
			dir = "."
		}
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			slog.Debug("no config file found, using defaults", "dir", dir)
		}
	}

	var entries []ConnectorEntry
	if err := v.UnmarshalKey("connectors", &entries); err != nil {
		return nil, fmt.Errorf("decode connectors: %w", err)
	}
	catalog, err := NewCatalog(entries...)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		File:        v.ConfigFileUsed(),
		JournalPath: v.GetString("journal"),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
		Catalog:     catalog,
	}
	slog.Debug("loaded config", "file", cfg.File, "connectors", len(catalog.Names()))
	return cfg, nil
}

// SlogLevel converts LogLevel to a slog.Level. Unknown names map to Info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Catalog maps connector names to connector descriptions.
type Catalog struct {
	connectors map[string]*queryir.DataConnector
	names      []string
}

// NewCatalog builds a catalog, reporting every invalid entry at once.
func NewCatalog(entries ...ConnectorEntry) (*Catalog, error) {
	c := &Catalog{connectors: make(map[string]*queryir.DataConnector, len(entries))}

	var errs *multierror.Error
	for i, e := range entries {
		if e.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("connectors[%d]: name is required", i))
			continue
		}
		if _, dup := c.connectors[e.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("connectors[%d]: duplicate connector %q", i, e.Name))
			continue
		}
		version, err := ndc.ParseVersion(e.NDCVersion)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("connector %q: %w", e.Name, err))
			continue
		}
		c.Add(&queryir.DataConnector{
			Name:         e.Name,
			URL:          e.URL,
			Capabilities: queryir.Capabilities{SupportedNDCVersion: version},
		})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid connector catalog: %w", err)
	}
	return c, nil
}

// Add registers a connector, replacing any previous one with the same name.
func (c *Catalog) Add(dc *queryir.DataConnector) {
	if _, ok := c.connectors[dc.Name]; !ok {
		c.names = append(c.names, dc.Name)
	}
	c.connectors[dc.Name] = dc
}

// Connector resolves a connector by name.
func (c *Catalog) Connector(name string) (*queryir.DataConnector, error) {
	if dc, ok := c.connectors[name]; ok {
		return dc, nil
	}
	return nil, fmt.Errorf("unknown connector %q", name)
}

// Names lists connectors in configuration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}
