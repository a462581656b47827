package runstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const lockOwnerFile = "owner.json"

var ErrLocked = errors.New("locked")

// Lock is a directory-based advisory lock. Creating the directory is the
// atomic step; the owner file is informational.
type Lock struct {
	dir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

// AcquireLock creates path as a lock directory. It fails with ErrLocked when
// another process holds it. subject is recorded for the error message of
// the next contender.
func AcquireLock(path, subject string) (Lock, error) {
	target := strings.TrimSpace(path)
	if target == "" {
		return Lock{}, fmt.Errorf("lock path is required")
	}
	if err := Mkdir(filepath.Dir(target)); err != nil {
		return Lock{}, err
	}

	if err := os.Mkdir(target, 0o755); err != nil {
		if os.IsExist(err) {
			var owner lockOwner
			if readErr := ReadJSON(filepath.Join(target, lockOwnerFile), &owner); readErr == nil && owner.PID > 0 {
				return Lock{}, fmt.Errorf("%w: %s held by pid=%d since %s (host=%s)",
					ErrLocked, firstNonEmpty(owner.Subject, target), owner.PID, owner.CreatedAt, owner.Hostname)
			}
			return Lock{}, fmt.Errorf("%w: %s", ErrLocked, target)
		}
		return Lock{}, fmt.Errorf("acquire lock %s: %w", target, err)
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
		Subject:   subject,
	}
	if err := WriteJSON(filepath.Join(target, lockOwnerFile), owner); err != nil {
		_ = os.RemoveAll(target)
		return Lock{}, fmt.Errorf("write lock owner for %s: %w", target, err)
	}
	return Lock{dir: target}, nil
}

func (l Lock) Release() error {
	if strings.TrimSpace(l.dir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.dir, lockOwnerFile))
	if err := os.Remove(l.dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.dir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		return "unknown"
	}
	return strings.TrimSpace(host)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
