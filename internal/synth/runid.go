package synth

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// NewRunDir reserves a fresh run directory under runsDir. IDs are
// second-resolution timestamps; collisions within the same second get a
// numeric bump so concurrent synthesis never shares a directory. The
// orchestrator also mints directories here for runs that fail before
// synthesis, so their reports land next to everything else.
func NewRunDir(runsDir string) (id, dir string, err error) {
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating runs dir: %w", err)
	}

	base := time.Now().UTC().Format("20060102T150405")
	for i := 0; ; i++ {
		id = "run-" + base
		if i > 0 {
			id = fmt.Sprintf("run-%s-%d", base, i)
		}
		dir = filepath.Join(runsDir, id)
		err = os.Mkdir(dir, 0o755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("creating run dir: %w", err)
		}
	}
}
