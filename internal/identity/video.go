package identity

import (
	"path/filepath"
	"sync"
)

// VideoFile is one video found by a folder scan. Its identity is computed on
// first use and cached; a rescan produces a new VideoFile.
type VideoFile struct {
	Path        string
	Name        string
	HasSubtitle bool

	once     sync.Once
	identity Identity
	hashFunc func(string) (string, bool)
}

// NewVideoFile creates a VideoFile for path.
func NewVideoFile(path string, hasSubtitle bool) *VideoFile {
	return &VideoFile{
		Path:        path,
		Name:        filepath.Base(path),
		HasSubtitle: hasSubtitle,
		hashFunc:    Hash,
	}
}

// Identity returns the cached identity, extracting and hashing on first call.
func (v *VideoFile) Identity() Identity {
	v.once.Do(func() {
		v.identity = Extract(v.Name)
		hash := v.hashFunc
		if hash == nil {
			hash = Hash
		}
		if sum, ok := hash(v.Path); ok {
			v.identity.Hash = sum
		}
	})
	return v.identity
}
