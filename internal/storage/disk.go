package storage

import (
	"os"
)

// sqliteSidecars are the files SQLite keeps next to a WAL-mode database.
var sqliteSidecars = []string{"-wal", "-shm"}

// DiskUsageBytes returns the total size in bytes of the given files.
// Missing paths contribute 0; other stat errors are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}

// DatabaseUsageBytes returns the size of a SQLite database including its WAL sidecars.
func DatabaseUsageBytes(dbPath string) (int64, error) {
	if dbPath == "" {
		return 0, nil
	}
	paths := []string{dbPath}
	for _, suffix := range sqliteSidecars {
		paths = append(paths, dbPath+suffix)
	}
	return DiskUsageBytes(paths...)
}
