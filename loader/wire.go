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

package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/program"
)

// rawFunction is one function table entry as decoded off the wire, before
// it is wrapped into a program.Function bound to a resolver.
type rawFunction struct {
	Name       string
	LocalCount int
	ArgCount   int
	ArgTypes   []field.Tag
	Code       program.Code
}

// decodeFunctions unpacks the function table of a compiled script or
// module blob. There is no compiler in scope (spec.md §1's non-goal), so
// this is the wire format a future compiler (or a hand-built test fixture)
// targets: a flat, length-prefixed table of functions, each its name,
// declared local/argument counts, argument types, and instruction stream,
// all little-endian (encoding/binary - no suitable library from the
// retrieval pack covers this ad hoc wire shape; see DESIGN.md).
//
//	uint32          function count
//	per function:
//	  uint16        name length
//	  []byte        name (utf8)
//	  uint16        local count
//	  uint16        argument count
//	  []byte        argument type tags (one byte per argument)
//	  uint32        instruction count
//	  per instruction:
//	    byte        opcode
//	    uint64      immediate argument
func decodeFunctions(blob []byte) ([]rawFunction, error) {
	r := &byteReader{data: blob}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	fns := make([]rawFunction, count)
	for i := range fns {
		nameLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		name, err := r.bytes(int(nameLen))
		if err != nil {
			return nil, err
		}
		localCount, err := r.u16()
		if err != nil {
			return nil, err
		}
		argCount, err := r.u16()
		if err != nil {
			return nil, err
		}
		argTypeBytes, err := r.bytes(int(argCount))
		if err != nil {
			return nil, err
		}
		argTypes := make([]field.Tag, argCount)
		for j, b := range argTypeBytes {
			ty, err := tagFromByte(b)
			if err != nil {
				return nil, err
			}
			argTypes[j] = ty
		}
		instrCount, err := r.u32()
		if err != nil {
			return nil, err
		}
		code := make(program.Code, instrCount)
		for k := range code {
			opByte, err := r.u8()
			if err != nil {
				return nil, err
			}
			arg, err := r.u64()
			if err != nil {
				return nil, err
			}
			code[k] = program.Instruction{Op: program.Op(opByte), Arg: arg}
		}
		fns[i] = rawFunction{
			Name:       string(name),
			LocalCount: int(localCount),
			ArgCount:   int(argCount),
			ArgTypes:   argTypes,
			Code:       code,
		}
	}
	return fns, nil
}

// EncodeFunctions packs fns into the wire format decodeFunctions reads,
// used by tests (and a future compiler) to build script/module blobs.
func EncodeFunctions(fns []FunctionSpec) []byte {
	w := &byteWriter{}
	w.putU32(uint32(len(fns)))
	for _, fn := range fns {
		w.putU16(uint16(len(fn.Name)))
		w.putBytes([]byte(fn.Name))
		w.putU16(uint16(fn.LocalCount))
		w.putU16(uint16(len(fn.ArgTypes)))
		for _, ty := range fn.ArgTypes {
			w.putU8(byteFromTag(ty))
		}
		w.putU32(uint32(len(fn.Code)))
		for _, instr := range fn.Code {
			w.putU8(byte(instr.Op))
			w.putU64(instr.Arg)
		}
	}
	return w.buf
}

// FunctionSpec is EncodeFunctions's input shape: the argument count is
// implied by len(ArgTypes), and name/Code mirror program.Function's fields.
type FunctionSpec struct {
	Name       string
	LocalCount int
	ArgTypes   []field.Tag
	Code       program.Code
}

func tagFromByte(b byte) (field.Tag, error) {
	switch b {
	case 0:
		return field.U8, nil
	case 1:
		return field.U64, nil
	case 2:
		return field.U128, nil
	case 3:
		return field.Bool, nil
	default:
		return 0, fmt.Errorf("unknown argument type tag 0x%02x", b)
	}
}

func byteFromTag(t field.Tag) byte {
	switch t {
	case field.U8:
		return 0
	case field.U64:
		return 1
	case field.U128:
		return 2
	case field.Bool:
		return 3
	default:
		return 0xff
	}
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("truncated bytecode: need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
	}
	return nil
}

func (r *byteReader) u8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

type byteWriter struct {
	buf []byte
}

func (w *byteWriter) putU8(b byte) { w.buf = append(w.buf, b) }

func (w *byteWriter) putU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) putU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) putU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) putBytes(b []byte) { w.buf = append(w.buf, b...) }
