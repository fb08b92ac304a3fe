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

// Package log implements a minimal leveled logger in the log15 style used
// throughout the go-probeum stack: a Logger is built once with New(ctx...)
// and every call site appends alternating key/value pairs.
package log

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
)

// Lvl is a log severity level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "crit"
	case LvlError:
		return "eror"
	case LvlWarn:
		return "warn"
	case LvlInfo:
		return "info"
	case LvlDebug:
		return "dbug"
	case LvlTrace:
		return "trce"
	default:
		return "unkn"
	}
}

// Record is a single logging event handed to a Handler.
type Record struct {
	Time  time.Time
	Lvl   Lvl
	Msg   string
	Ctx   []interface{}
	Call  stack.Call
}

// Handler processes Records. Handlers are composable (see format.go / handler.go).
type Handler interface {
	Log(r *Record) error
}

// Logger writes leveled, contextual log records.
type Logger interface {
	New(ctx ...interface{}) Logger
	SetHandler(h Handler)

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx []interface{}
	mu  sync.Mutex
	h   Handler
}

var root = &logger{h: func() Handler {
	w, f := NewTerminalWriter(os.Stderr)
	return StreamHandler(w, f)
}()}

// Root returns the root logger of the process.
func Root() Logger { return root }

// New creates a new Logger with ctx appended to every record it emits.
func New(ctx ...interface{}) Logger { return root.New(ctx...) }

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{ctx: append(append([]interface{}{}, l.ctx...), ctx...), h: l.h}
	return child
}

func (l *logger) SetHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.h = h
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	l.mu.Lock()
	h := l.h
	l.mu.Unlock()
	if h == nil {
		return
	}
	r := &Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  append(append([]interface{}{}, l.ctx...), ctx...),
		Call: stack.Caller(2),
	}
	if err := h.Log(r); err != nil {
		fmt.Fprintf(os.Stderr, "log: handler error: %v\n", err)
	}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }
