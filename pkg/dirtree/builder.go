package dirtree

import (
	"sort"
	"strings"

	"vc/pkg/objectdb"
)

// Build folds files — a DirDict holding only Kind==File entries, grouped by
// their parent directory, as produced by the index's flat-to-dirtree
// projection — bottom-up into tree objects and returns the root tree's key.
//
// Grounded on the teacher's pkg/tree.TreeBuilder (which also folds a flat
// entry set into nested content-addressed nodes bottom-up against a CAS),
// generalized from its rolling-hash chunk boundaries to per-directory tree
// objects, and on spec.md §4.C's save_to_db: every ancestor directory is
// made a DirDict key in its own right, with a synthetic Kind==Dir
// placeholder linking it to its parent, before recursive serialization.
func Build(store objectdb.Store, files DirDict) (string, error) {
	full := expandAncestors(files)
	return buildDir(store, full, "")
}

// expandAncestors returns a copy of files with every ancestor directory
// present as its own key and a Kind==Dir placeholder entry added to each
// directory's parent.
func expandAncestors(files DirDict) DirDict {
	result := make(DirDict, len(files))
	for dir, entries := range files {
		cp := append([]Entry(nil), entries...)
		result[dir] = cp
	}
	if _, ok := result[""]; !ok {
		result[""] = nil
	}

	var dirs []string
	for dir := range files {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	seen := map[string]bool{"": true}
	for _, dir := range dirs {
		ensureAncestors(result, seen, dir)
	}
	return result
}

func ensureAncestors(result DirDict, seen map[string]bool, dir string) {
	if dir == "" || seen[dir] {
		return
	}
	parent := ParentOf(dir)
	ensureAncestors(result, seen, parent)

	if _, ok := result[dir]; !ok {
		result[dir] = nil
	}
	seen[dir] = true

	for _, e := range result[parent] {
		if e.Name == dir && e.Kind == Dir {
			return
		}
	}
	result[parent] = append(result[parent], Entry{Name: dir, Kind: Dir})
}

// buildDir recursively serializes dir's entries into a tree object,
// recursing into subdirectories first so their keys are known, and returns
// the resulting object's key.
func buildDir(store objectdb.Store, dd DirDict, dir string) (string, error) {
	entries := append([]Entry(nil), dd[dir]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var buf strings.Builder
	for _, e := range entries {
		key := e.Key
		if e.Kind == Dir {
			subKey, err := buildDir(store, dd, e.Name)
			if err != nil {
				return "", err
			}
			key = subKey
		}
		line := TreeLine{Kind: e.Kind, Key: key, Name: basename(dir, e.Name)}
		buf.WriteString(line.String())
	}
	return store.Put([]byte(buf.String()), objectdb.Tree)
}
