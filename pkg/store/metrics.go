package store

import (
	"io/fs"
	"path/filepath"
)

// DiskUsage returns the best-effort on-disk size of the identity store in
// bytes. Zero when the store is not open.
func DiskUsage() uint64 {
	if db == nil || dbPath == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		total += uint64(fi.Size())
		return nil
	})
	return total
}
