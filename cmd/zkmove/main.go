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

// Command zkmove drives the proving core end to end: load a compiled
// script and its modules, run it symbolically, and mock-prove, key-generate,
// prove or verify the resulting circuit. Keys and params are cached to disk
// between commands rather than kept by the core (spec.md §6 leaves
// persistence to "the surrounding CLI"). Grounded on cmd/gprobe's cli.v1 app
// bootstrap and cmd/devp2p's Command/Subcommands layout.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probeum/zkmovevm/config"
	"github.com/probeum/zkmovevm/log"
)

var (
	gitCommit = ""
	gitDate   = ""
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	moduleStoreFlag = cli.StringFlag{
		Name:  "store",
		Usage: "module store directory (empty uses an in-memory store)",
	}
	maxKFlag = cli.IntFlag{
		Name:  "maxk",
		Usage: "row-capacity ceiling for find_best_k",
		Value: config.Defaults.MaxK,
	}
	logLevelFlag = cli.StringFlag{
		Name:  "loglevel",
		Usage: "log verbosity: crit|error|warn|info|debug|trace",
		Value: config.Defaults.Log.Level,
	}
	logJSONFlag = cli.BoolFlag{
		Name:  "logjson",
		Usage: "emit logs as logfmt instead of the colorized terminal format",
	}
	scriptFlag = cli.StringFlag{
		Name:  "script",
		Usage: "path to the compiled script blob",
	}
	modulesFlag = cli.StringFlag{
		Name:  "modules",
		Usage: "comma-separated hex module ids the script statically calls into",
	}
	argsFlag = cli.StringFlag{
		Name:  "args",
		Usage: `script arguments as "type:value" pairs, e.g. "u8:2,u64:1000"`,
	}
	proofOutFlag = cli.StringFlag{
		Name:  "out",
		Usage: "path to write the proof bytes",
		Value: "proof.bin",
	}
	proofInFlag = cli.StringFlag{
		Name:  "proof",
		Usage: "path to read the proof bytes from",
		Value: "proof.bin",
	}
	pkFlag = cli.StringFlag{
		Name:  "pk",
		Usage: "path to write/read the proving key",
		Value: "pk.bin",
	}
	vkFlag = cli.StringFlag{
		Name:  "vk",
		Usage: "path to write/read the verifying key",
		Value: "vk.bin",
	}
	configOutFlag = cli.StringFlag{
		Name:  "out",
		Usage: "path to write the dumped configuration (defaults to stdout)",
	}
)

var app = cli.NewApp()

func init() {
	app.Name = "zkmove"
	app.Usage = "zero-knowledge virtual machine for Move bytecode"
	app.Flags = []cli.Flag{configFileFlag, moduleStoreFlag, maxKFlag, logLevelFlag, logJSONFlag}
	app.Commands = []cli.Command{
		mockCommand,
		keygenCommand,
		proveCommand,
		verifyCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		return setupLogger(ctx)
	}
}

func setupLogger(ctx *cli.Context) error {
	levelName := ctx.GlobalString(logLevelFlag.Name)
	lvl, err := config.LevelOf(levelName)
	if err != nil {
		return err
	}
	var handler log.Handler
	if ctx.GlobalBool(logJSONFlag.Name) {
		handler = log.StreamHandler(os.Stderr, log.LogfmtFormat())
	} else {
		w, f := log.NewTerminalWriter(os.Stderr)
		handler = log.StreamHandler(w, f)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, handler))
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fatalf("%v", err)
	}
}
