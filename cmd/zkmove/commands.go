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
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probeum/zkmovevm/circuit"
	"github.com/probeum/zkmovevm/provsys"
)

var mockCommand = cli.Command{
	Name:      "mock",
	Usage:     "witness-only check: does the script terminate and satisfy every constraint",
	ArgsUsage: " ",
	Action:    runMock,
	Flags:     []cli.Flag{scriptFlag, modulesFlag, argsFlag},
}

var keygenCommand = cli.Command{
	Name:      "keygen",
	Usage:     "synthesize a script's circuit and write its proving/verifying keys",
	ArgsUsage: " ",
	Action:    runKeygen,
	Flags:     []cli.Flag{scriptFlag, modulesFlag, argsFlag, pkFlag, vkFlag},
}

var proveCommand = cli.Command{
	Name:      "prove",
	Usage:     "prove a script's execution against a previously generated proving key",
	ArgsUsage: " ",
	Action:    runProve,
	Flags:     []cli.Flag{scriptFlag, modulesFlag, argsFlag, pkFlag, proofOutFlag},
}

var verifyCommand = cli.Command{
	Name:      "verify",
	Usage:     "check a proof against a previously generated verifying key",
	ArgsUsage: " ",
	Action:    runVerify,
	Flags:     []cli.Flag{vkFlag, proofInFlag},
}

func runMock(ctx *cli.Context) error {
	cfg, err := effectiveConfig(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	vm, err := buildVM(ctx, store)
	if err != nil {
		return err
	}
	public := circuit.PublicInputs()

	k, err := provsys.FindBestK(vm, public)
	if err != nil {
		return err
	}
	if err := provsys.MockProve(k, vm, public); err != nil {
		return err
	}
	printSummary("mock", k, 0)
	return nil
}

// runKeygen is this CLI's side of spec.md §6's "keys and params may be
// cached by the surrounding CLI": the core itself persists nothing, so
// prove and verify only agree on a circuit's keys if something writes them
// to disk once and both commands read the same files back.
func runKeygen(ctx *cli.Context) error {
	cfg, err := effectiveConfig(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	vm, err := buildVM(ctx, store)
	if err != nil {
		return err
	}
	public := circuit.PublicInputs()

	k, err := provsys.FindBestK(vm, public)
	if err != nil {
		return err
	}
	if k > cfg.MaxK {
		return fmt.Errorf("circuit needs k=%d, configured ceiling is %d", k, cfg.MaxK)
	}

	params, err := provsys.NewParams(k)
	if err != nil {
		return err
	}
	pk, vk, err := provsys.KeyGen(params, vm)
	if err != nil {
		return err
	}

	if err := writeTo(ctx.String(pkFlag.Name), pk); err != nil {
		return err
	}
	if err := writeTo(ctx.String(vkFlag.Name), vk); err != nil {
		return err
	}
	printSummary("keygen", k, 0)
	fmt.Fprintf(os.Stdout, "%s %s, %s\n", color.GreenString("wrote keys:"), ctx.String(pkFlag.Name), ctx.String(vkFlag.Name))
	return nil
}

func runProve(ctx *cli.Context) error {
	cfg, err := effectiveConfig(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	vm, err := buildVM(ctx, store)
	if err != nil {
		return err
	}
	public := circuit.PublicInputs()

	pkFile, err := os.Open(ctx.String(pkFlag.Name))
	if err != nil {
		return err
	}
	defer pkFile.Close()
	pk, err := provsys.ReadProvingKey(pkFile)
	if err != nil {
		return err
	}

	proof, err := provsys.Prove(pk, vm, public)
	if err != nil {
		return err
	}

	out := ctx.String(proofOutFlag.Name)
	if err := ioutil.WriteFile(out, proof, 0644); err != nil {
		return err
	}
	printSummary("prove", -1, len(proof))
	fmt.Fprintf(os.Stdout, "%s %s\n", color.GreenString("wrote proof:"), out)
	return nil
}

func runVerify(ctx *cli.Context) error {
	vkFile, err := os.Open(ctx.String(vkFlag.Name))
	if err != nil {
		return err
	}
	defer vkFile.Close()
	vk, err := provsys.ReadVerifyingKey(vkFile)
	if err != nil {
		return err
	}

	proofPath := ctx.String(proofInFlag.Name)
	proof, err := ioutil.ReadFile(proofPath)
	if err != nil {
		return err
	}

	public := circuit.PublicInputs()
	if err := provsys.Verify(vk, public, proof); err != nil {
		fmt.Fprintln(os.Stdout, color.RedString("verify: FAILED: %v", err))
		return cli.NewExitError("", 1)
	}
	fmt.Fprintln(os.Stdout, color.GreenString("verify: OK"))
	return nil
}

// writeTo writes any of ProvingKey/VerifyingKey/Params (all io.WriterTo) to
// path, truncating any existing file.
func writeTo(path string, w io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = w.WriteTo(f)
	return err
}

func printSummary(step string, k int, proofBytes int) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"step", "k", "rows ≤", "proof bytes"})
	kCol := "-"
	rowsCol := "-"
	if k >= 0 {
		kCol = strconv.Itoa(k)
		rowsCol = strconv.Itoa(1 << uint(k))
	}
	table.Append([]string{step, kCol, rowsCol, strconv.Itoa(proofBytes)})
	table.Render()
}
