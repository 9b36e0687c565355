package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/errors"
)

// ProjectExtensions are the file extensions accepted by ValidatePath.
var ProjectExtensions = []string{".qdpx", ".qde"}

// ValidatePath checks a caller-supplied project path and returns it absolute.
// It checks:
// 1. Path traversal (.. sequences)
// 2. Extension (.qdpx or .qde)
// 3. Directory restrictions (the resolved parent directory must lie inside the
// working directory or an allowed_paths entry)
// 4. Existence, and that the file itself is not a symlink
//
// AllowUnsafePaths skips step 3 only. The file is later opened with
// O_NOFOLLOW so the final component cannot be swapped for a symlink.
func ValidatePath(path string, cfg *config.Config) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !hasProjectExtension(cleaned) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions %v", ProjectExtensions))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	info, err := os.Lstat(absPath)
	if os.IsNotExist(err) {
		return "", errors.NewFileNotFound(path)
	}
	if err != nil {
		return "", errors.NewIO(path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("path must not be a symlink")
	}
	if !info.Mode().IsRegular() {
		return "", errors.NewInvalidRequest("path must be a regular file")
	}

	if cfg != nil && cfg.AllowUnsafePaths {
		return absPath, nil
	}

	allowedDirs, err := getAllowedDirs(cfg)
	if err != nil {
		return "", err
	}

	parentDir, err := filepath.EvalSymlinks(filepath.Dir(absPath))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("cannot resolve parent directory: %v", err))
	}
	if !isWithinAllowedDir(parentDir, allowedDirs) {
		return "", errors.NewInvalidRequest(
			fmt.Sprintf("file must be inside the working directory or an allowed path; allowed: %v", allowedDirs))
	}

	return filepath.Join(parentDir, filepath.Base(absPath)), nil
}

func hasProjectExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ProjectExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// getAllowedDirs returns the working directory plus configured allowed paths,
// absolute and with symlinks resolved.
func getAllowedDirs(cfg *config.Config) ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to get working directory: %w", err))
	}
	dirs := []string{wd}

	// Only absolute allowed paths are honoured
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		resolved, err := filepath.EvalSymlinks(d)
		if err != nil {
			// A missing allowed directory cannot contain anything
			continue
		}
		result = append(result, resolved)
	}
	return result, nil
}

// isWithinAllowedDir reports whether dir equals or is nested under one of
// the allowed directories.
func isWithinAllowedDir(dir string, allowedDirs []string) bool {
	dir = filepath.Clean(dir)
	for _, allowed := range allowedDirs {
		rel, err := filepath.Rel(filepath.Clean(allowed), dir)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
