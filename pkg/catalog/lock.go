package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// lockSuffix is appended to the target document path to form its lock file.
const lockSuffix = ".lock"

// lockConfig bounds the advisory write lock. Retries and interval cap how
// long a writer waits; stale is the age after which a crashed holder's lock
// file may be superseded.
type lockConfig struct {
	retries  int
	interval time.Duration
	stale    time.Duration
}

func defaultLockConfig() lockConfig {
	return lockConfig{
		retries:  300,
		interval: 10 * time.Millisecond,
		stale:    5 * time.Second,
	}
}

// acquireLock takes a document-scoped advisory lock by creating
// `<target>.lock` with O_EXCL. The returned release function must run on
// every exit path. A lock file older than the staleness window is removed
// and the acquisition retried, so a crashed holder cannot wedge the lock
// forever. After the retry budget is exhausted the caller gets
// core.ErrLockTimeout.
func acquireLock(target string, cfg lockConfig, logger *slog.Logger) (func(), error) {
	lockPath := target + lockSuffix
	owner := uuid.NewString()
	payload := fmt.Sprintf("%s %d %s\n", owner, os.Getpid(), time.Now().UTC().Format(time.RFC3339))

	for attempt := 0; attempt <= cfg.retries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
		if err == nil {
			_, werr := f.WriteString(payload)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to write lock file %s: %w", lockPath, firstErr(werr, cerr))
			}
			return func() { releaseLock(lockPath, owner) }, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", lockPath, err)
		}

		if info, serr := os.Stat(lockPath); serr == nil && time.Since(info.ModTime()) > cfg.stale {
			if logger != nil {
				logger.Warn("removing stale lock", "path", lockPath, "age", time.Since(info.ModTime()))
			}
			os.Remove(lockPath)
			continue
		}

		time.Sleep(cfg.interval)
	}

	return nil, fmt.Errorf("lock %s held after %d attempts: %w", lockPath, cfg.retries, core.ErrLockTimeout)
}

// releaseLock removes the lock file only if this process still owns it.
// The holder may have been superseded by a stale takeover in the meantime.
func releaseLock(lockPath, owner string) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return
	}
	if !strings.HasPrefix(string(data), owner+" ") {
		return
	}
	os.Remove(lockPath)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
