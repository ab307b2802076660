// Package databus implements the buffer transport between ports: Ring
// (byte-stream), Block (fixed-capacity
// slot array), and Pbuf (pointer-only) variants behind one common
// acquire/release contract.
package databus

import (
	"context"

	"gmf-go/errcode"
)

// Bus is the common contract every variant implements. AcquireRead/
// AcquireWrite block (ctx's deadline/cancellation is the wait budget)
// until data/space is available, the bus is aborted, or ctx expires;
// every successful acquire must be paired with exactly one Release call.
type Bus interface {
	// AcquireRead returns a view of up to want readable bytes/slots.
	// The caller must not retain the slice past the matching ReleaseRead.
	AcquireRead(ctx context.Context, want int) ([]byte, errcode.Code)
	// ReleaseRead commits n consumed bytes/slots from the last AcquireRead.
	ReleaseRead(n int) errcode.Code

	// AcquireWrite returns a view of up to want writable bytes/slots.
	AcquireWrite(ctx context.Context, want int) ([]byte, errcode.Code)
	// ReleaseWrite commits n written bytes/slots from the last AcquireWrite.
	ReleaseWrite(n int) errcode.Code

	// DoneWrite marks end-of-stream; sticky until Reset.
	DoneWrite()
	// Abort wakes every blocked acquire with errcode.IoAbort. Sticky
	// until Reset: no further acquire succeeds in between.
	Abort()
	// Reset clears done/abort state and any buffered content.
	Reset()

	// Total, Filled, Available are optional introspection; a variant that
	// cannot report one cheaply may return -1.
	Total() int
	Filled() int
	Available() int
}
