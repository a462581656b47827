package workspace

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"

	"dbf-converter/internal/runstore"
)

// AcquireWatchLock makes sure only one watcher converts a given directory.
// The lock lives next to the settings file, not in the watched directory.
func AcquireWatchLock(configPath, dir string) (runstore.Lock, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	sum := sha1.Sum([]byte(abs))
	name := "watch-" + hex.EncodeToString(sum[:6]) + ".lock"
	path := filepath.Join(filepath.Dir(ConfigPath(configPath)), "locks", name)
	return runstore.AcquireLock(path, abs)
}
