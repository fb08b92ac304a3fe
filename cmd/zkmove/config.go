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
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probeum/zkmovevm/config"
)

var dumpConfigCommand = cli.Command{
	Name:      "dumpconfig",
	Usage:     "show configuration values",
	ArgsUsage: " ",
	Action:    runDumpConfig,
	Flags:     []cli.Flag{configOutFlag},
}

func runDumpConfig(ctx *cli.Context) error {
	cfg, err := effectiveConfig(ctx)
	if err != nil {
		return err
	}
	out, err := config.Dump(cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if path := ctx.String(configOutFlag.Name); path != "" {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
