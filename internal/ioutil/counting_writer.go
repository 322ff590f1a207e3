// Package ioutil holds writer helpers used by the RenderTo implementations.
package ioutil

import (
	"fmt"
	"io"
	"sync"

	"braces.dev/errtrace"
)

// CountingWriter wraps an io.Writer, sums written bytes and keeps the first write error.
// After an error every further write is a no-op.
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// Fprint writes args with [fmt.Fprint].
func (cw *CountingWriter) Fprint(args ...any) *CountingWriter {
	if cw.err != nil {
		return cw
	}
	n, err := fmt.Fprint(cw.w, args...)
	return cw.add(n, err)
}

// WriteString writes s as is.
func (cw *CountingWriter) WriteString(s string) *CountingWriter {
	if cw.err != nil {
		return cw
	}
	n, err := io.WriteString(cw.w, s)
	return cw.add(n, err)
}

// Call executes a RenderTo-style function against the underlying writer.
func (cw *CountingWriter) Call(fn func(io.Writer) (int, error)) *CountingWriter {
	if cw.err != nil {
		return cw
	}
	n, err := fn(cw.w)
	return cw.add(n, err)
}

func (cw *CountingWriter) add(n int, err error) *CountingWriter {
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
	}
	return cw
}

// Result returns the total number of bytes written and the first error encountered.
func (cw *CountingWriter) Result() (num int, err error) {
	return cw.num, errtrace.Wrap(cw.err)
}

var cntWrtPool = &sync.Pool{
	New: func() any { return &CountingWriter{} },
}

func GetCountingWriter(w io.Writer) *CountingWriter {
	cw := cntWrtPool.Get().(*CountingWriter) //nolint:forcetypeassert
	cw.w = w
	return cw
}

func FreeCountingWriter(cw *CountingWriter) {
	cw.w = nil
	cw.num = 0
	cw.err = nil
	cntWrtPool.Put(cw)
}
