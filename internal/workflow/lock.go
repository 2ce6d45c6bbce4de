package workflow

import (
	"github.com/gofrs/flock"

	"reelgen/internal/services"
)

// lockTask takes the per-task run lock at path without blocking. A lock held
// by another run fails with services.ErrBusy.
func lockTask(path, taskID, op string) (*flock.Flock, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.WrapStorage(nil, op, path, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, "", op, "task "+taskID+" is already running", nil)
	}
	return lock, nil
}
