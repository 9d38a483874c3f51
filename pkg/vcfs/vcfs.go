// Package vcfs implements the filesystem-helper contract sketched in
// spec.md §6: locating and creating the repository metadata root, and
// reading/writing files relative to it. Grounded in original_source's
// vc/impl/fs.py, with the teacher's atomic write-then-rename idiom (see
// pkg/cas/cas.go, pkg/branch/head.go in the teacher tree) applied to every
// write.
package vcfs

import (
	"os"
	"path/filepath"

	"vc/pkg/vcerrors"
)

// MetaDirName is the name of the repository metadata directory, "R" in spec.md.
const MetaDirName = ".vc"

// FindRepoRoot walks up from startDir looking for a MetaDirName directory,
// the way original_source's find_vc_root_dir does. Returns the absolute
// path to the metadata root, or "" if none is found before hitting the
// filesystem root.
func FindRepoRoot(startDir string) string {
	curr, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(curr, MetaDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			return ""
		}
		curr = parent
	}
}

// CreateRepoRoot creates a fresh metadata directory under parentDir and
// returns its path. Fails if one already exists.
func CreateRepoRoot(parentDir string) (string, error) {
	abs, err := filepath.Abs(parentDir)
	if err != nil {
		return "", err
	}
	root := filepath.Join(abs, MetaDirName)
	if _, err := os.Stat(root); err == nil {
		return "", vcerrors.Exists("repository already initialized at "+root, nil)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	return root, nil
}

// ReadFile reads the file at rel (relative to root), returning "" if it
// does not exist, mirroring original_source's read_file.
func ReadFile(root, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// WriteFile writes contents to rel (relative to root), creating parent
// directories as needed, atomically: write to a temp file in the same
// directory, fsync, then rename over the target.
func WriteFile(root, rel, contents string) error {
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// RemoveFile removes rel (relative to root).
func RemoveFile(root, rel string) error {
	return os.Remove(filepath.Join(root, rel))
}

// RenameFile renames relFrom to relTo, both relative to root.
func RenameFile(root, relFrom, relTo string) error {
	path := filepath.Join(root, relTo)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(root, relFrom), path)
}

// Exists reports whether rel (relative to root) exists.
func Exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, rel))
	return err == nil
}

// ListFiles returns the plain file names (not directories) directly inside
// rel (relative to root). Returns an empty slice if rel does not exist.
func ListFiles(root, rel string) ([]string, error) {
	full := filepath.Join(root, rel)
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
