package materialize

import (
	"errors"
	"os"

	"subseek/internal/fileutil"
)

// Writer persists subtitle bytes.
type Writer interface {
	Write(path string, data []byte, overwrite bool) error
}

// AtomicWriter writes through a sibling temp file and rename so a crash never
// leaves a partial subtitle behind.
type AtomicWriter struct {
	Perm os.FileMode
}

func (w AtomicWriter) Write(path string, data []byte, overwrite bool) error {
	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	if overwrite {
		return fileutil.WriteFileAtomic(path, data, perm)
	}
	err := fileutil.WriteFileAtomicNoOverwrite(path, data, perm)
	if errors.Is(err, os.ErrExist) {
		return ErrSubtitleExists
	}
	return err
}
