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

package main

import (
	"io/ioutil"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/probeum/zkmovevm/circuit"
	"github.com/probeum/zkmovevm/config"
	"github.com/probeum/zkmovevm/interp"
	"github.com/probeum/zkmovevm/loader"
)

// effectiveConfig merges config.Defaults, an optional TOML file, and the
// global flags, the same defaults-then-file-then-flags order
// makeConfigNode applies in the teacher's CLI.
func effectiveConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Defaults
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := config.Load(file, &cfg); err != nil {
			return nil, err
		}
	}
	if ctx.GlobalIsSet(maxKFlag.Name) {
		cfg.MaxK = ctx.GlobalInt(maxKFlag.Name)
	}
	if ctx.GlobalIsSet(moduleStoreFlag.Name) {
		cfg.ModuleStorePath = ctx.GlobalString(moduleStoreFlag.Name)
	}
	if ctx.GlobalIsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.GlobalString(logLevelFlag.Name)
	}
	if ctx.GlobalIsSet(logJSONFlag.Name) {
		cfg.Log.JSON = ctx.GlobalBool(logJSONFlag.Name)
	}
	return &cfg, nil
}

// openStore opens cfg's module store, falling back to an in-memory store
// when no path was configured; every command, mock included, opens the
// on-disk store whenever a path is set (the default is "zkmove-modules").
func openStore(cfg *config.Config) (*loader.Store, error) {
	if cfg.ModuleStorePath == "" {
		return loader.OpenMemory()
	}
	return loader.Open(cfg.ModuleStorePath)
}

// parseModuleIDs splits a comma-separated hex id list from the -modules flag.
func parseModuleIDs(s string) ([]loader.ModuleId, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]loader.ModuleId, len(parts))
	for i, p := range parts {
		id, err := loader.ParseModuleID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// buildVM assembles a circuit.VM from the script/modules/args/store flags
// shared by the mock, prove and keygen-driving commands.
func buildVM(ctx *cli.Context, store loader.ModuleStore) (*circuit.VM, error) {
	scriptPath := ctx.String(scriptFlag.Name)
	if scriptPath == "" {
		return nil, cli.NewExitError("missing required -script flag", 1)
	}
	blob, err := ioutil.ReadFile(scriptPath)
	if err != nil {
		return nil, err
	}
	moduleIDs, err := parseModuleIDs(ctx.String(modulesFlag.Name))
	if err != nil {
		return nil, err
	}
	args, err := interp.ParseArguments(ctx.String(argsFlag.Name))
	if err != nil {
		return nil, err
	}
	script := circuit.Script{Blob: blob, ModuleIDs: moduleIDs}
	return circuit.New(loader.New(store), script, args), nil
}
