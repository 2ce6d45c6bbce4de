package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst with default permissions (0o644). The destination
// is replaced atomically, so a failed copy never leaves a truncated file.
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode copies src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := WriteReaderAtomic(dst, in, mode); err != nil {
		return err
	}
	return nil
}

// WriteFileAtomic writes data to path via a temporary sibling file and rename.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := createTemp(path)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return discard(tmp, fmt.Errorf("write %s: %w", tmp.Name(), err))
	}
	return commit(tmp, path, mode)
}

// WriteReaderAtomic streams r into path via a temporary sibling file and
// rename, returning the number of bytes written.
func WriteReaderAtomic(path string, r io.Reader, mode os.FileMode) (int64, error) {
	tmp, err := createTemp(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(tmp, r)
	if err != nil {
		return written, discard(tmp, fmt.Errorf("write %s: %w", tmp.Name(), err))
	}
	return written, commit(tmp, path, mode)
}

func createTemp(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", path, err)
	}
	return tmp, nil
}

func commit(tmp *os.File, path string, mode os.FileMode) error {
	if err := tmp.Sync(); err != nil {
		return discard(tmp, fmt.Errorf("sync %s: %w", tmp.Name(), err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func discard(tmp *os.File, err error) error {
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())
	return err
}
