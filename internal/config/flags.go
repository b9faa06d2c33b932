package config

import (
	"strings"

	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagFailFast     = "fail-fast"
	FlagSchemaName   = "schema-name"
	FlagBufferSize   = "buffer-size"
	FlagStrict       = "strict"
	FlagNDJSON       = "ndjson"
	FlagWorkers      = "workers"
	FlagDraft        = "draft"
	FlagRegex        = "regex"
	FlagAssertFormat = "assert-format"
	FlagMaxDepth     = "max-depth"
	FlagConfig       = "config"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagMetricsFile  = "metrics-file"
)

// AddFlags defines flags for every setting on fs, with defaults from
// Default.
func AddFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.BoolP(FlagFailFast, "f", d.FailFast, "stop at first error")
	fs.StringP(FlagSchemaName, "s", d.SchemaName, "schema name, to extract locations: "+strings.Join(SchemaNames, ", "))
	fs.IntP(FlagBufferSize, "b", d.BufferSize, "read buffer size in bytes")
	fs.Bool(FlagStrict, d.Strict, "disallow properties not named by the schema")
	fs.Bool(FlagNDJSON, d.NDJSON, "accept newline delimited json data files")
	fs.Int(FlagWorkers, d.Workers, "number of records validated concurrently")
	fs.Int(FlagDraft, d.Draft, "draft used when $schema is missing: 4, 6, 7, 2019 or 2020")
	fs.String(FlagRegex, d.Regex, "regex engine: ecma or go")
	fs.Bool(FlagAssertFormat, d.AssertFormat, "treat format as assertion")
	fs.Int(FlagMaxDepth, d.MaxDepth, "max nesting depth of documents and schema applications")
	fs.String(FlagConfig, "", "config file (.toml, .yaml or .yml)")
	fs.String(FlagLogLevel, d.Log.Level, "log level: debug, info, warn or error")
	fs.String(FlagLogFormat, d.Log.Format, "log format: json or console")
	fs.String(FlagMetricsFile, d.MetricsFile, "write prometheus metrics to this file")
}

// FromFlags builds configuration from parsed fs. If the config flag is
// set, that file is loaded first. Flags that were set on the command
// line take precedence over the file.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()
	if fs.Changed(FlagConfig) {
		path, err := fs.GetString(FlagConfig)
		if err != nil {
			return cfg, err
		}
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	var err error
	set := func(name string, apply func() error) {
		if err == nil && fs.Changed(name) {
			err = apply()
		}
	}
	set(FlagFailFast, func() (err error) { cfg.FailFast, err = fs.GetBool(FlagFailFast); return })
	set(FlagSchemaName, func() (err error) { cfg.SchemaName, err = fs.GetString(FlagSchemaName); return })
	set(FlagBufferSize, func() (err error) { cfg.BufferSize, err = fs.GetInt(FlagBufferSize); return })
	set(FlagStrict, func() (err error) { cfg.Strict, err = fs.GetBool(FlagStrict); return })
	set(FlagNDJSON, func() (err error) { cfg.NDJSON, err = fs.GetBool(FlagNDJSON); return })
	set(FlagWorkers, func() (err error) { cfg.Workers, err = fs.GetInt(FlagWorkers); return })
	set(FlagDraft, func() (err error) { cfg.Draft, err = fs.GetInt(FlagDraft); return })
	set(FlagRegex, func() (err error) { cfg.Regex, err = fs.GetString(FlagRegex); return })
	set(FlagAssertFormat, func() (err error) { cfg.AssertFormat, err = fs.GetBool(FlagAssertFormat); return })
	set(FlagMaxDepth, func() (err error) { cfg.MaxDepth, err = fs.GetInt(FlagMaxDepth); return })
	set(FlagLogLevel, func() (err error) { cfg.Log.Level, err = fs.GetString(FlagLogLevel); return })
	set(FlagLogFormat, func() (err error) { cfg.Log.Format, err = fs.GetString(FlagLogFormat); return })
	set(FlagMetricsFile, func() (err error) { cfg.MetricsFile, err = fs.GetString(FlagMetricsFile); return })
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
