package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// hashChunkSize is the head and tail window read by Hash.
const hashChunkSize = 64 * 1024

// ErrTooSmall is returned by ComputeHash for inputs shorter than two windows.
var ErrTooSmall = errors.New("file smaller than hash window")

// Hash computes the OpenSubtitles moviehash of the file at path: the file
// size plus the little-endian uint64 words of the first and last 64 KiB,
// modulo 2^64, formatted as 16 hex digits. Missing, unreadable, or small
// files yield ok=false; absence of a hash is never an error for callers.
func Hash(path string) (string, bool) {
	file, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	sum, err := ComputeHash(file, info.Size())
	if err != nil {
		return "", false
	}
	return FormatHash(sum), true
}

// ComputeHash reads only the two fixed windows of r regardless of size.
func ComputeHash(r io.ReaderAt, size int64) (uint64, error) {
	if size < 2*hashChunkSize {
		return 0, ErrTooSmall
	}
	sum := uint64(size)
	buf := make([]byte, hashChunkSize)
	for _, offset := range []int64{0, size - hashChunkSize} {
		n, err := r.ReadAt(buf, offset)
		if err != nil && !(errors.Is(err, io.EOF) && n == hashChunkSize) {
			return 0, fmt.Errorf("read hash window at %d: %w", offset, err)
		}
		for i := 0; i < hashChunkSize; i += 8 {
			sum += binary.LittleEndian.Uint64(buf[i : i+8])
		}
	}
	return sum, nil
}

// FormatHash renders a moviehash as the zero-padded hex string providers expect.
func FormatHash(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
