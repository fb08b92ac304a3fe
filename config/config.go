// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package config holds the core's TOML-serializable configuration, grounded
// on probeconfig's plain-struct-with-Defaults convention and cmd/gprobe's
// tomlSettings decoder/encoder (naoina/toml) for loading and dumping it.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"

	"github.com/probeum/zkmovevm/log"
	"github.com/probeum/zkmovevm/provsys"
)

// Config is the whole core's configuration: circuit sizing, the
// module store location, and logging.
type Config struct {
	// MaxK is the row-capacity ceiling find_best_k may not exceed
	// (spec.md §6); 18 matches provsys.MaxK unless overridden.
	MaxK int
	// ModuleStorePath is the LevelDB directory backing the module store.
	ModuleStorePath string
	Log             LogConfig
}

// LogConfig controls the leveled logger's verbosity and output format.
type LogConfig struct {
	Level string `toml:",omitempty"`
	JSON  bool   `toml:",omitempty"`
}

// Defaults is the configuration a fresh command line starts from, mirroring
// probeconfig.Defaults/node.DefaultConfig's role for the teacher's daemon.
var Defaults = Config{
	MaxK:            provsys.MaxK,
	ModuleStorePath: "zkmove-modules",
	Log:             LogConfig{Level: "info"},
}

// tomlSettings mirrors cmd/gprobe's decoder: TOML keys use the same names
// as the Go struct fields, and an unrecognized field is a hard error
// unless explicitly whitelisted as deprecated.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Load reads and decodes a TOML configuration file into cfg, starting from
// whatever cfg already holds (callers pass in Defaults to get a
// defaults-then-overrides merge).
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// Dump renders cfg back to TOML, the dumpconfig command's output shape.
func Dump(cfg *Config) ([]byte, error) {
	return tomlSettings.Marshal(cfg)
}

// LevelOf parses a TOML/flag-supplied level name into a log.Lvl, the
// string-to-enum mapping a config file is allowed to express that the
// log package's own Lvl type otherwise has no need to parse.
func LevelOf(name string) (log.Lvl, error) {
	switch name {
	case "crit":
		return log.LvlCrit, nil
	case "error":
		return log.LvlError, nil
	case "warn":
		return log.LvlWarn, nil
	case "info":
		return log.LvlInfo, nil
	case "debug":
		return log.LvlDebug, nil
	case "trace":
		return log.LvlTrace, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", name)
	}
}
