// Package fsutil resolves the project root and enumerates files beneath it.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// projectRootDir can be baked in at build time:
//
//	go build -ldflags "-X github.com/corekit-go/corekit/internal/fsutil.projectRootDir=/srv/app"
//
// When empty, the COREKIT_PROJECT_ROOT environment variable is consulted,
// then the working directory.
var projectRootDir string

var (
	rootOnce sync.Once
	rootMu   sync.RWMutex
	rootPath string
)

func resolveRoot() string {
	if projectRootDir != "" {
		return projectRootDir
	}
	if env := os.Getenv("COREKIT_PROJECT_ROOT"); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// ProjectRoot returns the absolute project root directory. All relative
// paths in the module (configuration directories, default outputs) are
// resolved against it.
func ProjectRoot() string {
	rootOnce.Do(func() {
		rootMu.Lock()
		rootPath = resolveRoot()
		rootMu.Unlock()
	})
	rootMu.RLock()
	defer rootMu.RUnlock()
	return rootPath
}

// SetProjectRoot overrides the resolved project root. Intended for tests
// and embedding applications that discover their root at runtime.
func SetProjectRoot(dir string) {
	rootOnce.Do(func() {})
	rootMu.Lock()
	rootPath = dir
	rootMu.Unlock()
}

// ListFilesByExt returns the absolute paths of all files with the given
// extension beneath a project-root-relative directory, recursively.
// The extension match is exact and case-sensitive (".yml" does not match
// ".YML"). Results are sorted for deterministic load order.
func ListFilesByExt(relativeDir, ext string) ([]string, error) {
	dir := filepath.Join(ProjectRoot(), relativeDir)

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			files = append(files, abs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q files under %q: %w", ext, dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// ModTimeUnix returns the file's modification time as an integer epoch
// value. Callers compare values only for equality.
func ModTimeUnix(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return info.ModTime().UnixNano(), nil
}
