// Package config loads the TOML file that tells the CLI how to reach the
// warehouse and what a batch sweep should cover.
package config

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config mirrors config.toml's two tables: [odbc] (the warehouse
// connection, expressed as a Template-style connect string plus the
// fields it interpolates) and [batch] (the sweep a batch run covers).
type Config struct {
	ODBC  ODBCConfig  `toml:"odbc"`
	Batch BatchConfig `toml:"batch"`
}

// ODBCConfig holds the connection template verbatim plus every field the
// template may reference by name (driver, server, database, uid, pwd, or
// any other key the deployment's ODBC driver expects).
type ODBCConfig struct {
	ConnectTemplate string            `toml:"connect_template"`
	Fields          map[string]string `toml:"-"`
}

type BatchConfig struct {
	Dgas  []string `toml:"dgas"`
	Days  []string `toml:"days"`
	Hours []string `toml:"hours"`
}

// Load reads and decodes a config.toml file. The [odbc] table is decoded
// twice: once into the typed ConnectTemplate field, once into a loose
// map so ConnectionString can substitute any key the template names.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	var raw struct {
		ODBC map[string]string `toml:"odbc"`
	}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.ODBC.Fields = raw.ODBC

	return &cfg, nil
}

var placeholderRE = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// ConnectionString expands connect_template's ${name}/$name placeholders
// against the table's own fields.
func (c ODBCConfig) ConnectionString() (string, error) {
	var missing string
	out := placeholderRE.ReplaceAllStringFunc(c.ConnectTemplate, func(match string) string {
		name := match
		sub := placeholderRE.FindStringSubmatch(match)
		if sub[1] != "" {
			name = sub[1]
		} else {
			name = sub[2]
		}
		val, ok := c.Fields[name]
		if !ok {
			missing = name
			return match
		}
		return val
	})
	if missing != "" {
		return "", fmt.Errorf("config: connect_template references undefined field %q", missing)
	}
	return out, nil
}
