package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

const (
	lockTimeout = 5 * time.Second
	lockRetry   = 25 * time.Millisecond
	// Locks older than this are left behind by a crashed process.
	lockStale = 30 * time.Second
)

// dirLock is an advisory lock held by creating a directory.
type dirLock struct {
	dir string
}

func (l *dirLock) acquire() error {
	start := time.Now()
	for {
		err := os.Mkdir(l.dir, 0o700)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create lock directory: %w", err)
		}
		if info, statErr := os.Stat(l.dir); statErr == nil && time.Since(info.ModTime()) > lockStale {
			os.Remove(l.dir)
			continue
		}
		if time.Since(start) > lockTimeout {
			return fmt.Errorf("lock %s held for more than %s", l.dir, lockTimeout)
		}
		time.Sleep(lockRetry)
	}
}

func (l *dirLock) release() error {
	return os.Remove(l.dir)
}

// withLock executes fn while holding the lock at dir.
func withLock(dir string, fn func() error) error {
	lock := &dirLock{dir: dir}
	if err := lock.acquire(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.release()
	return fn()
}
