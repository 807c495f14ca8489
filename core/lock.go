package core

import (
	"context"
	"time"
)

// Lock guards a named critical section across processes.
//
// Acquire is non-blocking: it returns false immediately when the name is
// already held elsewhere. expiresAt is an absolute deadline after which the
// lock self-releases, so a crashed holder cannot wedge the system.
type Lock interface {
	Acquire(ctx context.Context, name string, expiresAt time.Time) (bool, error)
	Release(ctx context.Context, name string) error
}
