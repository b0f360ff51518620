// Package filelock provides an advisory lock that serializes writers of a
// shared file across processes.
package filelock

import (
	"context"
	"os"
	"time"
)

const (
	lockFileMode  = 0o600
	retryInterval = 5 * time.Millisecond
)

// Lock acquires an exclusive advisory lock on path, creating the file if
// needed. It polls until the lock is free or ctx is done. The returned
// function releases the lock.
func Lock(ctx context.Context, path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock path is derived from config
	if err != nil {
		return nil, err
	}

	for {
		locked, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if locked {
			break
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}
