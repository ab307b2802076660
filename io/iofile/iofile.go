// Package iofile is a file-backed port.Acquirer: a filesystem source and
// sink exposing the same acquire/release contract ports use everywhere
// else, registered under the "io_file" tags.
package iofile

import (
	"context"
	"io"
	"os"

	"gmf-go/errcode"
	"gmf-go/payload"
	"gmf-go/port"
)

// Reader acquires chunks by reading sequentially from a file, marking the
// final chunk IsDone.
type Reader struct {
	f   *os.File
	uri string
}

// ReaderFactory implements registry.IOFactory for "io_file" read-side
// adapters; its New always returns the port.Acquirer interface so it
// satisfies registry.IOFactory's signature directly.
type ReaderFactory struct{}

func (ReaderFactory) New(uri string) (port.Acquirer, errcode.Code) {
	r := &Reader{}
	if uri != "" {
		if code := r.SetURI(uri); code != errcode.OK {
			return nil, code
		}
	}
	return r, errcode.OK
}

func (r *Reader) SetURI(uri string) errcode.Code {
	if r.f != nil {
		r.f.Close()
	}
	f, err := os.Open(uri)
	if err != nil {
		return errcode.MapDriverErr(err)
	}
	r.f = f
	r.uri = uri
	return errcode.OK
}

func (r *Reader) Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code) {
	if r.f == nil {
		return nil, errcode.InvalidParams
	}
	pay, code := payload.NewWithLength(want)
	if code != errcode.OK {
		return nil, code
	}
	n, err := r.f.Read(pay.Buf)
	pay.ValidSize = n
	if err == io.EOF || (err == nil && n < want) {
		payload.SetDone(pay)
	} else if err != nil {
		return nil, errcode.MapDriverErr(err)
	}
	return pay, errcode.OK
}

func (r *Reader) Release(p *payload.Payload) errcode.Code {
	payload.Drop(p)
	return errcode.OK
}

// Writer appends released chunks to a file, used as an OUT-side
// port.Acquirer-compatible sink (only Release is exercised).
type Writer struct {
	f *os.File
}

// WriterFactory implements registry.IOFactory for "io_file" write-side
// adapters.
type WriterFactory struct{}

func (WriterFactory) New(uri string) (port.Acquirer, errcode.Code) {
	w := &Writer{}
	if uri != "" {
		if code := w.SetURI(uri); code != errcode.OK {
			return nil, code
		}
	}
	return w, errcode.OK
}

func (w *Writer) SetURI(uri string) errcode.Code {
	if w.f != nil {
		w.f.Close()
	}
	f, err := os.Create(uri)
	if err != nil {
		return errcode.MapDriverErr(err)
	}
	w.f = f
	return errcode.OK
}

func (w *Writer) Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code) {
	return payload.NewWithLength(want)
}

func (w *Writer) Release(p *payload.Payload) errcode.Code {
	if w.f == nil {
		return errcode.InvalidParams
	}
	if _, err := w.f.Write(p.Buf[:p.ValidSize]); err != nil {
		return errcode.MapDriverErr(err)
	}
	payload.Drop(p)
	return errcode.OK
}
