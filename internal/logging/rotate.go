package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// RotatingFile is an io.WriteCloser with size-based rotation. Once a write
// would push the file past its size limit the file is renamed to <path>.1,
// older backups shift up by one, and backups beyond the retention count are
// removed. Safe for concurrent use.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	size     int64
	file     *os.File
}

var _ io.WriteCloser = (*RotatingFile)(nil)

// OpenRotatingFile opens path for appending, creating it and its directory
// when needed. maxSizeMB is clamped to at least 1 and keep to at least 0;
// keep 0 truncates on rotation instead of keeping backups.
func OpenRotatingFile(path string, maxSizeMB, keep int) (*RotatingFile, error) {
	maxSizeMB = max(maxSizeMB, 1)
	keep = max(keep, 0)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: mkdir %s: %w", dir, err)
		}
	}

	f, size, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &RotatingFile{
		path:     path,
		maxBytes: int64(maxSizeMB) << 20,
		keep:     keep,
		size:     size,
		file:     f,
	}, nil
}

func openAppend(path string) (*os.File, int64, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, 0, fmt.Errorf("logging: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("logging: stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// Write appends p, rotating first when p would not fit. A single write is
// never split across files, even when it exceeds the limit on its own.
func (w *RotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotateLocked(); err != nil {
			return 0, fmt.Errorf("logging: rotate: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the current file. Further writes fail with os.ErrClosed.
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingFile) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	backups := w.backups()
	slices.Reverse(backups)
	for _, n := range backups {
		if n >= w.keep {
			_ = os.Remove(w.backupPath(n))
		} else {
			_ = os.Rename(w.backupPath(n), w.backupPath(n+1))
		}
	}
	if w.keep > 0 {
		_ = os.Rename(w.path, w.backupPath(1))
	} else {
		_ = os.Remove(w.path)
	}

	f, size, err := openAppend(w.path)
	if err != nil {
		w.file = nil
		return err
	}
	w.file, w.size = f, size
	return nil
}

func (w *RotatingFile) backupPath(n int) string {
	return w.path + "." + strconv.Itoa(n)
}

// backups returns the existing backup numbers in ascending order.
func (w *RotatingFile) backups() []int {
	entries, err := os.ReadDir(filepath.Dir(w.path))
	if err != nil {
		return nil
	}
	prefix := filepath.Base(w.path) + "."
	var nums []int
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n >= 1 {
			nums = append(nums, n)
		}
	}
	slices.Sort(nums)
	return nums
}
