// Package config holds settings of the validator command.
//
// Settings come from defaults, then an optional config file, then
// command line flags that were explicitly set.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Schema names that select location reports.
const (
	AllowedAmounts    = "allowed-amounts"
	InNetworkRates    = "in-network-rates"
	TableOfContents   = "table-of-contents"
	ProviderReference = "provider-reference"
	PrescriptionDrugs = "prescription-drugs"
)

// SchemaNames lists the known schema names.
var SchemaNames = []string{
	AllowedAmounts,
	InNetworkRates,
	TableOfContents,
	ProviderReference,
	PrescriptionDrugs,
}

// Config is the validator configuration.
type Config struct {
	FailFast     bool   `toml:"fail_fast" yaml:"fail_fast"`
	SchemaName   string `toml:"schema_name" yaml:"schema_name"`
	BufferSize   int    `toml:"buffer_size" yaml:"buffer_size"`
	Strict       bool   `toml:"strict" yaml:"strict"`
	NDJSON       bool   `toml:"ndjson" yaml:"ndjson"`
	Workers      int    `toml:"workers" yaml:"workers"`
	Draft        int    `toml:"draft" yaml:"draft"`
	Regex        string `toml:"regex" yaml:"regex"`
	AssertFormat bool   `toml:"assert_format" yaml:"assert_format"`
	MaxDepth     int    `toml:"max_depth" yaml:"max_depth"`
	OutputDir    string `toml:"output_dir" yaml:"output_dir"`
	MetricsFile  string `toml:"metrics_file" yaml:"metrics_file"`
	Log          Log    `toml:"log" yaml:"log"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // json, console
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BufferSize: 64 * 1024,
		Workers:    4,
		Draft:      7,
		Regex:      "ecma",
		MaxDepth:   10000,
		Log: Log{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadFile reads config file at path over Default. The file type is
// picked by extension: .toml, .yaml or .yml.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("config %s: unsupported file type %q", path, filepath.Ext(path))
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.SchemaName != "" && !knownSchema(c.SchemaName) {
		return fmt.Errorf("unknown schema name %q; valid names are %s", c.SchemaName, strings.Join(SchemaNames, ", "))
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
	}
	switch c.Draft {
	case 4, 6, 7, 2019, 2020:
	default:
		return fmt.Errorf("unsupported draft %d", c.Draft)
	}
	switch c.Regex {
	case "ecma", "go":
	default:
		return fmt.Errorf("unknown regex engine %q; valid engines are ecma, go", c.Regex)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func knownSchema(name string) bool {
	for _, n := range SchemaNames {
		if n == name {
			return true
		}
	}
	return false
}
