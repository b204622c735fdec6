// Package config holds the effective runarchive configuration. It is assembled
// from defaults, an optional YAML config file and command line flags.
package config

import (
	"os"

	"github.com/lefinal/meh"
	"github.com/lefinal/nulls"
	"github.com/lefinal/runarchive/archiver"
	"github.com/lefinal/runarchive/logging"
	"github.com/lefinal/runarchive/validate"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"
)

// Keys of configuration values. They match the flag names.
const (
	KeyDebug        = "debug"
	KeyLogDir       = "log_dir"
	KeyTemplate     = "template"
	KeySavePath     = "save_path"
	KeyOnCollision  = "on_collision"
	KeyLogMaxSizeMB = "log_max_size_mb"
	KeyLogBackups   = "log_backups"
)

const (
	// DefaultLogDir is the default log directory, relative to the working
	// directory.
	DefaultLogDir = "logs"
	// DefaultTemplate is the default template file, relative to the working
	// directory.
	DefaultTemplate = "run_skywalker_template.ipynb"
)

// Config is the effective configuration.
type Config struct {
	Debug        bool                     `yaml:"debug"`
	LogDir       string                   `yaml:"log_dir"`
	Template     string                   `yaml:"template"`
	SavePath     string                   `yaml:"save_path"`
	OnCollision  archiver.CollisionPolicy `yaml:"on_collision"`
	LogMaxSizeMB int                      `yaml:"log_max_size_mb"`
	LogBackups   int                      `yaml:"log_backups"`
}

// Default returns the Config that is used if nothing else is configured.
func Default() Config {
	return Config{
		Debug:        false,
		LogDir:       DefaultLogDir,
		Template:     DefaultTemplate,
		SavePath:     "",
		OnCollision:  archiver.CollisionFail,
		LogMaxSizeMB: logging.DefaultMaxSizeMB,
		LogBackups:   logging.DefaultMaxBackups,
	}
}

// Validate the Config.
func (cfg Config) Validate() *validate.Report {
	reporter := validate.NewReporter()
	validate.ForField(reporter, validate.NewPath(KeyTemplate), cfg.Template, validate.AssertNotEmpty[string]())
	validate.ForField(reporter, validate.NewPath(KeyLogDir), cfg.LogDir, validate.AssertNotEmpty[string]())
	validate.ForField(reporter, validate.NewPath(KeyOnCollision), cfg.OnCollision,
		validate.AssertOneOf(archiver.CollisionPolicies...))
	validate.ForField(reporter, validate.NewPath(KeyLogMaxSizeMB), cfg.LogMaxSizeMB, validate.AssertGreater(0))
	validate.ForField(reporter, validate.NewPath(KeyLogBackups), cfg.LogBackups, validate.AssertGreaterEq(0))
	if cfg.LogBackups == 0 {
		reporter.NextField(validate.NewPath(KeyLogBackups), cfg.LogBackups)
		reporter.Warn("rotated log files will be discarded")
	}
	return reporter.Report()
}

// Apply sets all values from the given File that are present there and not
// already set explicitly. The isSet function reports whether the value for
// the given key has been set explicitly, e.g., via command line flag.
func (cfg Config) Apply(file File, isSet func(key string) bool) Config {
	if file.Debug.Valid && !isSet(KeyDebug) {
		cfg.Debug = file.Debug.Bool
	}
	if file.LogDir.Valid && !isSet(KeyLogDir) {
		cfg.LogDir = file.LogDir.String
	}
	if file.Template.Valid && !isSet(KeyTemplate) {
		cfg.Template = file.Template.String
	}
	if file.SavePath.Valid && !isSet(KeySavePath) {
		cfg.SavePath = file.SavePath.String
	}
	if file.OnCollision.Valid && !isSet(KeyOnCollision) {
		cfg.OnCollision = archiver.CollisionPolicy(file.OnCollision.String)
	}
	if file.LogMaxSizeMB.Valid && !isSet(KeyLogMaxSizeMB) {
		cfg.LogMaxSizeMB = file.LogMaxSizeMB.Int
	}
	if file.LogBackups.Valid && !isSet(KeyLogBackups) {
		cfg.LogBackups = file.LogBackups.Int
	}
	return cfg
}

// YAML renders the Config as YAML.
func (cfg Config) YAML() ([]byte, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, meh.NewInternalErrFromErr(err, "marshal yaml", nil)
	}
	return raw, nil
}

// File is the content of a config file. All values are optional.
type File struct {
	Debug        nulls.Bool   `json:"debug"`
	LogDir       nulls.String `json:"log_dir"`
	Template     nulls.String `json:"template"`
	SavePath     nulls.String `json:"save_path"`
	OnCollision  nulls.String `json:"on_collision"`
	LogMaxSizeMB nulls.Int    `json:"log_max_size_mb"`
	LogBackups   nulls.Int    `json:"log_backups"`
}

// Validate the values that are set in the File.
func (file File) Validate() *validate.Report {
	reporter := validate.NewReporter()
	validate.ForField(reporter, validate.NewPath(KeyTemplate), file.Template,
		validate.AssertIfOptionalStringSet(validate.AssertNotEmpty[string]()))
	validate.ForField(reporter, validate.NewPath(KeyLogDir), file.LogDir,
		validate.AssertIfOptionalStringSet(validate.AssertNotEmpty[string]()))
	validate.ForField(reporter, validate.NewPath(KeyOnCollision), file.OnCollision,
		validate.AssertIfOptionalStringSet(validate.AssertOneOf(collisionPolicyNames()...)))
	validate.ForField(reporter, validate.NewPath(KeyLogMaxSizeMB), file.LogMaxSizeMB,
		validate.AssertIfOptionalIntSet(validate.AssertGreater(0)))
	validate.ForField(reporter, validate.NewPath(KeyLogBackups), file.LogBackups,
		validate.AssertIfOptionalIntSet(validate.AssertGreaterEq(0)))
	return reporter.Report()
}

func collisionPolicyNames() []string {
	names := make([]string, 0, len(archiver.CollisionPolicies))
	for _, policy := range archiver.CollisionPolicies {
		names = append(names, string(policy))
	}
	return names
}

// ParseFile parses the given YAML or JSON config. Unknown fields are rejected.
func ParseFile(raw []byte) (File, error) {
	var file File
	err := k8syaml.UnmarshalStrict(raw, &file)
	if err != nil {
		return File{}, meh.NewBadInputErrFromErr(err, "unmarshal config file", nil)
	}
	return file, nil
}

// FromFile reads and parses the config file with the given filename.
func FromFile(filename string) (File, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return File{}, meh.NewBadInputErrFromErr(err, "read config file", meh.Details{"filename": filename})
	}
	file, err := ParseFile(raw)
	if err != nil {
		return File{}, meh.Wrap(err, "parse config file", meh.Details{"filename": filename})
	}
	return file, nil
}
