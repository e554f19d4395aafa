// Package config reads the advising tool settings.
//
// Settings come from an ini file, then the environment, then command-line
// flags, each overriding the one before.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	DefaultCatalogPath = "advising_program_input.csv"
	DefaultCourse      = "MATH201"
	DefaultConfigPath  = "advising.ini"

	connectionStringEnv = "DATABASE_CONNECTION_STRING"
)

type Source string

const (
	SourceFile     Source = "file"
	SourceDatabase Source = "db"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

/*
[catalog]
path           = advising_program_input.csv
default_course = MATH201
strict         = false
source         = file

[database]
connection_string = postgres://localhost/advising

[log]
level = info
file  =

[display]
color = auto
*/
type Cfg struct {
	Raw *ini.File

	CatalogPath   string
	DefaultCourse string
	Strict        bool
	Source        Source

	ConnectionString string

	LogLevel string
	LogFile  string

	Color ColorMode
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:           ini.Empty(),
		CatalogPath:   DefaultCatalogPath,
		DefaultCourse: DefaultCourse,
		Source:        SourceFile,
		LogLevel:      "info",
		Color:         ColorAuto,
	}
}

// Load reads path into a new Cfg and applies the environment. A missing
// file is not an error unless required is set.
func Load(path string, required bool) (*Cfg, error) {
	cfg := NewCfg()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			raw, err := ini.Load(path)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to parse config %s", path)
			}
			cfg.Raw = raw
		} else if required || !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "unable to read config %s", path)
		}
	}

	if err := cfg.parse(); err != nil {
		return nil, err
	}
	cfg.applyEnvironment()
	return cfg, nil
}

func (cfg *Cfg) parse() error {
	section := cfg.Raw.Section("catalog")
	cfg.CatalogPath = section.Key("path").MustString(cfg.CatalogPath)
	cfg.DefaultCourse = section.Key("default_course").MustString(cfg.DefaultCourse)
	cfg.Strict = section.Key("strict").MustBool(cfg.Strict)

	source, err := ParseSource(section.Key("source").MustString(string(cfg.Source)))
	if err != nil {
		return err
	}
	cfg.Source = source

	cfg.ConnectionString = cfg.Raw.Section("database").Key("connection_string").MustString(cfg.ConnectionString)

	section = cfg.Raw.Section("log")
	cfg.LogLevel = section.Key("level").MustString(cfg.LogLevel)
	cfg.LogFile = section.Key("file").MustString(cfg.LogFile)

	color, err := ParseColorMode(cfg.Raw.Section("display").Key("color").MustString(string(cfg.Color)))
	if err != nil {
		return err
	}
	cfg.Color = color

	return nil
}

func (cfg *Cfg) applyEnvironment() {
	if connectionString := os.Getenv(connectionStringEnv); connectionString != "" {
		cfg.ConnectionString = connectionString
	}
}

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceFile, "":
		return SourceFile, nil
	case SourceDatabase, "database":
		return SourceDatabase, nil
	default:
		return "", errors.Errorf("unknown catalog source %q", s)
	}
}

func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(strings.ToLower(strings.TrimSpace(s))) {
	case ColorAuto, "":
		return ColorAuto, nil
	case ColorAlways, "on", "true":
		return ColorAlways, nil
	case ColorNever, "off", "false":
		return ColorNever, nil
	default:
		return "", errors.Errorf("unknown color mode %q", s)
	}
}
