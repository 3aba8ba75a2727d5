package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"subseek/internal/logging"
	"subseek/internal/scan"
)

// ErrFolderLocked reports that another run holds the folder lock.
var ErrFolderLocked = errors.New("folder is being processed by another run")

// LockPath returns the lock file used for dir.
func (c *Coordinator) LockPath(dir string) string {
	if c.opts.LockDir == "" {
		return filepath.Join(dir, ".subseek.lock")
	}
	sum := sha256.Sum256([]byte(dir))
	return filepath.Join(c.opts.LockDir, "folder-"+hex.EncodeToString(sum[:8])+".lock")
}

// RunFolder scans dir and processes its videos while holding the folder lock.
func (c *Coordinator) RunFolder(ctx context.Context, dir, lang string) (Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("resolve folder: %w", err)
	}
	files, err := scan.Videos(abs, c.opts.VideoExtensions)
	if err != nil {
		return Result{}, err
	}

	lockPath := c.LockPath(abs)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire folder lock: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrFolderLocked, abs)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release folder lock", logging.Args(logging.String("lock", lockPath), logging.Error(err))...)
		}
	}()

	return c.run(ctx, abs, files, lang), nil
}
