// Copyright 2016 The go-probeum Authors
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

package log

import (
	"bytes"
	"fmt"
	"strconv"
)

// Format renders a Record to bytes.
type Format interface {
	Format(r *Record) []byte
}

type formatFunc func(*Record) []byte

func (f formatFunc) Format(r *Record) []byte { return f(r) }

var lvlColor = map[Lvl]int{
	LvlCrit:  35, // magenta
	LvlError: 31, // red
	LvlWarn:  33, // yellow
	LvlInfo:  32, // green
	LvlDebug: 36, // cyan
	LvlTrace: 90, // gray
}

// TerminalFormat renders colorized, human-readable records, matching the
// compact "LVL[time] msg key=val ..." shape used across go-probeum commands.
func TerminalFormat() Format {
	return formatFunc(func(r *Record) []byte {
		var buf bytes.Buffer
		color := lvlColor[r.Lvl]
		fmt.Fprintf(&buf, "\x1b[%dm%s\x1b[0m[%s] %-40s", color, r.Lvl.String(), r.Time.Format("01-02|15:04:05.000"), r.Msg)
		writeCtx(&buf, r.Ctx)
		if r.Call.Frame().Function != "" {
			fmt.Fprintf(&buf, " \x1b[90mcaller=%s\x1b[0m", r.Call)
		}
		buf.WriteByte('\n')
		return buf.Bytes()
	})
}

// LogfmtFormat renders records as logfmt key=value pairs, uncolored, for
// piping into JSON-unaware log collectors.
func LogfmtFormat() Format {
	return formatFunc(func(r *Record) []byte {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "t=%s lvl=%s msg=%s", r.Time.Format("2006-01-02T15:04:05-0700"), r.Lvl, strconv.Quote(r.Msg))
		writeCtx(&buf, r.Ctx)
		buf.WriteByte('\n')
		return buf.Bytes()
	})
}

func writeCtx(buf *bytes.Buffer, ctx []interface{}) {
	for i := 0; i+1 < len(ctx); i += 2 {
		k, v := ctx[i], ctx[i+1]
		fmt.Fprintf(buf, " %v=%v", k, formatValue(v))
	}
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case error:
		return strconv.Quote(x.Error())
	case string:
		return strconv.Quote(x)
	case fmt.Stringer:
		return strconv.Quote(x.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}
