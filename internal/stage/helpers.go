package stage

import (
	"fmt"
	"os"
	"path/filepath"

	"reelgen/internal/services"
	"reelgen/internal/task"
)

// RequireAssets fails with services.ErrValidation when t has no input assets.
func RequireAssets(name task.Stage, t *task.Task) error {
	if t.AssetCount() == 0 {
		return services.Wrap(services.ErrValidation, string(name), "check inputs",
			"task has no input assets; add images before running", nil)
	}
	return nil
}

// RequireFiles fails with services.ErrValidation naming the first path that
// does not exist as a regular file. Stages call it on the outputs of earlier
// stages before doing any work.
func RequireFiles(name task.Stage, paths ...string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return services.Wrap(services.ErrValidation, string(name), "check inputs",
				fmt.Sprintf("missing %s; re-run the earlier stages", filepath.Base(path)), err)
		}
	}
	return nil
}
