package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores each key as a file under dir. A quota of 0 means
// unbounded; otherwise the summed size of the record files is capped.
type FileBackend struct {
	dir   string
	quota int
}

func NewFileBackend(dir string, quota int) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileBackend{dir: dir, quota: quota}, nil
}

const fileExt = ".rec"

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+fileExt)
}

func (b *FileBackend) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

func (b *FileBackend) Set(key, value string) error {
	if b.quota > 0 {
		others, err := b.usageExcluding(key)
		if err != nil {
			return err
		}
		if need := others + len(value); need > b.quota {
			return quotaError(need, b.quota)
		}
	}
	return writeFileAtomicSameDir(b.path(key), []byte(value), 0o600)
}

func (b *FileBackend) Delete(key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (b *FileBackend) usageExcluding(key string) (int, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return 0, fmt.Errorf("list data directory: %w", err)
	}
	total := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) || e.Name() == key+fileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += int(info.Size())
	}
	return total, nil
}

// writeFileAtomicSameDir writes to a temp file next to path, then renames
// it into place so readers never observe a partial record.
func writeFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp_record_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
