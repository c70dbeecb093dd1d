package backup

import (
	"fmt"
	"io"
	"os"
)

// walSuffixes are the write-ahead-log companion files the engine keeps
// next to the main database file. The main file and its companions are
// always moved as one atomic unit.
var walSuffixes = []string{"-wal", "-shm"}

// CopyFileSet copies the database file at src to dst together with any
// write-ahead-log companions. The caller must guarantee no open handle is
// writing to src.
func CopyFileSet(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return err
	}
	for _, suffix := range walSuffixes {
		if _, err := os.Stat(src + suffix); err != nil {
			continue
		}
		if err := copyFile(src+suffix, dst+suffix); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceFileSet replaces the live database file set at dst with the file
// set at src. Stale companions at dst are removed first so a leftover
// write-ahead log from the replaced database cannot be merged into the
// restored one.
func ReplaceFileSet(src, dst string) error {
	for _, suffix := range walSuffixes {
		if err := os.Remove(dst + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s: %w", dst+suffix, err)
		}
	}
	return CopyFileSet(src, dst)
}

// RemoveFileSet deletes the database file at path and any companions.
func RemoveFileSet(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, suffix := range walSuffixes {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	return out.Close()
}
