package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrRepoExists       = errors.New("repository already exists")
	ErrNotARepository   = errors.New("not a lut repository (or any parent up to /)")
	ErrNotOnFilesystem  = errors.New("repository has no working directory")
	ErrControlPath      = errors.New("path is inside the " + ControlDir + " control directory")
	errObjectsDirAbsent = errors.New("objects directory missing")
)

// Init creates a new repository at path. It creates the .lut/ directory
// structure: an empty HEAD, objects/, and a default config.toml. Returns an
// error if a .lut/ directory already exists.
func Init(path string, opts ...Option) (*Repo, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	lutDir := filepath.Join(path, ControlDir)

	// Fail if .lut/ already exists.
	if _, err := os.Stat(lutDir); err == nil {
		return nil, fmt.Errorf("init: %w at %s", ErrRepoExists, lutDir)
	}

	if err := os.MkdirAll(filepath.Join(lutDir, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir: %w", err)
	}

	// Empty HEAD: no commits yet.
	if err := os.WriteFile(filepath.Join(lutDir, "HEAD"), nil, 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r := openDir(path, lutDir, opts)
	if err := r.WriteConfig(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.logger.Debug("initialized repository")
	return r, nil
}

// Open searches upward from path for a .lut/ directory and opens the
// repository. Returns an error if no .lut/ directory is found or if it
// lacks its objects/ subdirectory.
func Open(path string, opts ...Option) (*Repo, error) {
	// Resolve to absolute path for consistent traversal.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		lutDir := filepath.Join(cur, ControlDir)
		info, err := os.Stat(lutDir)
		if err == nil && info.IsDir() {
			objInfo, err := os.Stat(filepath.Join(lutDir, "objects"))
			if err != nil || !objInfo.IsDir() {
				return nil, fmt.Errorf("open %s: %w", lutDir, errObjectsDirAbsent)
			}
			return openDir(cur, lutDir, opts), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding .lut/.
			return nil, fmt.Errorf("open: %w", ErrNotARepository)
		}
		cur = parent
	}
}
