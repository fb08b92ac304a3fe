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

package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zkmove.toml")
	const body = `MaxK = 12
ModuleStorePath = "/tmp/modules"

[Log]
Level = "debug"
`
	if err := ioutil.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Defaults
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxK != 12 {
		t.Fatalf("MaxK = %d, want 12", cfg.MaxK)
	}
	if cfg.ModuleStorePath != "/tmp/modules" {
		t.Fatalf("ModuleStorePath = %q, want /tmp/modules", cfg.ModuleStorePath)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zkmove.toml")
	if err := ioutil.WriteFile(path, []byte("NotAField = 1\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Defaults
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected an error for an unrecognized field")
	}
}

func TestDumpRoundTrips(t *testing.T) {
	out, err := Dump(&Defaults)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty TOML output")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.toml")
	if err := ioutil.WriteFile(path, out, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var cfg Config
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load(dumped): %v", err)
	}
	if cfg.MaxK != Defaults.MaxK {
		t.Fatalf("round-tripped MaxK = %d, want %d", cfg.MaxK, Defaults.MaxK)
	}
}

func TestLevelOfRejectsUnknownName(t *testing.T) {
	if _, err := LevelOf("verbose"); err == nil {
		t.Fatal("expected an error for an unknown level name")
	}
}

func TestLevelOfAcceptsEveryKnownName(t *testing.T) {
	for _, name := range []string{"crit", "error", "warn", "info", "debug", "trace"} {
		if _, err := LevelOf(name); err != nil {
			t.Fatalf("LevelOf(%q): %v", name, err)
		}
	}
}
