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

package interp

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
)

// widthOf is argument.rs's byte-layout table: U8/Bool take 1 byte, U64
// takes 8, U128 takes 16, all little-endian.
func widthOf(ty field.Tag) int {
	switch ty {
	case field.U8, field.Bool:
		return 1
	case field.U64:
		return 8
	case field.U128:
		return 16
	default:
		return 0
	}
}

// MarshalArgument encodes v under ty into argument.rs's fixed-width
// little-endian byte layout, rejecting negative or out-of-range values.
func MarshalArgument(ty field.Tag, v *big.Int) ([]byte, error) {
	width := widthOf(ty)
	if width == 0 {
		return nil, fmt.Errorf("%w: %s", errkind.ErrUnsupportedMoveType, ty)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative argument", errkind.ErrValueConversion)
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	if ty == field.Bool {
		limit = big.NewInt(2)
	}
	if v.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("%w: value exceeds %s range", errkind.ErrValueConversion, ty)
	}
	be := make([]byte, width)
	v.FillBytes(be)
	le := make([]byte, width)
	for i, b := range be {
		le[width-1-i] = b
	}
	return le, nil
}

// UnmarshalArgument decodes argument.rs's fixed-width little-endian layout
// back into a Constant field.Value of type ty.
func UnmarshalArgument(ty field.Tag, data []byte) (field.Value, error) {
	width := widthOf(ty)
	if width == 0 {
		return field.Value{}, fmt.Errorf("%w: %s", errkind.ErrUnsupportedMoveType, ty)
	}
	if len(data) != width {
		return field.Value{}, fmt.Errorf("%w: %s argument needs %d bytes, got %d", errkind.ErrValueConversion, ty, width, len(data))
	}
	be := make([]byte, width)
	for i, b := range data {
		be[width-1-i] = b
	}
	var f field.F
	f.SetBigInt(new(big.Int).SetBytes(be))
	return field.NewConstant(f, ty), nil
}

// ParseArguments parses a comma-separated "type:value" list - e.g.
// "u8:2,u64:1000,bool:true" - the CLI-facing counterpart of argument.rs's
// ScriptArguments::from_str, roundtripping every integer value through
// MarshalArgument/UnmarshalArgument so a CLI-supplied string is bound by
// exactly the same width/range rules a script's own constants are. A bool
// value is parsed with strconv.ParseBool and built directly as a Bool
// constant.
func ParseArguments(input string) ([]field.Value, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	parts := strings.Split(input, ",")
	args := make([]field.Value, len(parts))
	for i, p := range parts {
		v, err := parseOneArgument(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func parseOneArgument(tok string) (field.Value, error) {
	fields := strings.SplitN(tok, ":", 2)
	if len(fields) != 2 {
		return field.Value{}, fmt.Errorf("%w: malformed argument %q, want type:value", errkind.ErrValueConversion, tok)
	}
	typ, val := fields[0], fields[1]
	if typ == "bool" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return field.Value{}, fmt.Errorf("%w: %v", errkind.ErrUnsupportedMoveType, err)
		}
		return field.NewBool(b), nil
	}
	ty, err := tagForTypeName(typ)
	if err != nil {
		return field.Value{}, err
	}
	bi, ok := new(big.Int).SetString(val, 10)
	if !ok {
		return field.Value{}, fmt.Errorf("%w: %q is not a decimal integer", errkind.ErrValueConversion, val)
	}
	encoded, err := MarshalArgument(ty, bi)
	if err != nil {
		return field.Value{}, err
	}
	return UnmarshalArgument(ty, encoded)
}

func tagForTypeName(typ string) (field.Tag, error) {
	switch typ {
	case "u8":
		return field.U8, nil
	case "u64":
		return field.U64, nil
	case "u128":
		return field.U128, nil
	default:
		return 0, fmt.Errorf("%w: %s", errkind.ErrUnsupportedMoveType, typ)
	}
}
