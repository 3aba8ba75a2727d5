package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PathTypeConflictError reports a target path that exists but is not a
// regular file.
type PathTypeConflictError struct {
	Path string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("target %q is a %s, not a regular file", e.Path, e.Got)
}

// IsPathTypeConflict reports whether err is a PathTypeConflictError.
func IsPathTypeConflict(err error) bool {
	var conflict *PathTypeConflictError
	return errors.As(err, &conflict)
}

// WriteFileAtomic writes data to path through a sibling temp file and rename,
// replacing any existing file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := checkRegular(path); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return writeAtomic(path, data, perm)
}

// WriteFileAtomicNoOverwrite is WriteFileAtomic but fails with os.ErrExist
// when path already exists.
func WriteFileAtomicNoOverwrite(path string, data []byte, perm os.FileMode) error {
	if err := checkRegular(path); err != nil {
		return err
	}
	return writeAtomic(path, data, perm)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func checkRegular(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return &PathTypeConflictError{Path: path, Got: "directory"}
	}
	if !info.Mode().IsRegular() {
		return &PathTypeConflictError{Path: path, Got: info.Mode().Type().String()}
	}
	return os.ErrExist
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
