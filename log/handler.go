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
	"io"
	"os"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type writerHandler struct {
	mu  sync.Mutex
	fmt Format
	w   io.Writer
}

func (h *writerHandler) Log(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(h.fmt.Format(r))
	return err
}

// StreamHandler writes formatted records to w.
func StreamHandler(w io.Writer, fmt Format) Handler {
	return &writerHandler{fmt: fmt, w: w}
}

// LvlFilterHandler drops records above the given (less severe than) level.
func LvlFilterHandler(max Lvl, h Handler) Handler {
	return &lvlFilter{max: max, h: h}
}

type lvlFilter struct {
	max Lvl
	h   Handler
}

func (f *lvlFilter) Log(r *Record) error {
	if r.Lvl > f.max {
		return nil
	}
	return f.h.Log(r)
}

// MultiHandler fans a record out to every handler in hs.
func MultiHandler(hs ...Handler) Handler {
	return multiHandler(hs)
}

type multiHandler []Handler

func (m multiHandler) Log(r *Record) error {
	var firstErr error
	for _, h := range m {
		if err := h.Log(r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewTerminalWriter wraps f so ANSI colors survive on Windows consoles when
// f is an attached terminal, falling back to a plain logfmt format otherwise.
func NewTerminalWriter(f *os.File) (io.Writer, Format) {
	if !isatty.IsTerminal(f.Fd()) {
		return f, LogfmtFormat()
	}
	return colorable.NewColorable(f), TerminalFormat()
}
