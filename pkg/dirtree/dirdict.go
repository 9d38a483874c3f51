// Package dirtree implements the shared directory-tree model used by
// staging, status, checkout, and diff: the in-memory DirDict projection
// (§3 Data Model) and the on-disk recursive tree object format (§4.C's
// save_to_db, §4.D's HEAD-tree reconstruction).
//
// Grounded in the teacher's pkg/tree package (TreeBuilder/TreeTraverser/
// serialize.go), which builds and walks a content-addressed tree bottom-up
// against a CAS the same way this package does — generalized from a
// prolly (rolling-hash-chunked) KV tree to the flat per-directory tree
// spec.md §3/§4.C describes, and from original_source's vc/impl/repo.py
// (Tree, TreeEntry, DirDict helpers in vc/api.py) for the exact wire
// format and DirDict invariants.
package dirtree

import (
	"strings"
)

// Kind distinguishes a file entry from a subdirectory entry.
type Kind string

const (
	File Kind = "f"
	Dir  Kind = "d"
)

// Entry is one member of a DirDict list. Name is always the full path
// relative to the workdir root (never just a basename) so that the same
// Entry can be looked up uniformly regardless of which DirDict (staging,
// working, HEAD) it came from — the cross-dict status comparison in
// §4.D depends on this.
type Entry struct {
	Name string
	Kind Kind
	Key  string // blob/tree object key; "" for not-yet-serialized directory placeholders
}

// DirDict maps a directory path ("" for the workdir root) to the ordered
// list of entries directly inside it. Invariant (§3): every entry's parent
// directory is itself a key of the dictionary, and every Kind==Dir entry's
// Name is itself a key.
type DirDict map[string][]Entry

// New returns an empty DirDict.
func New() DirDict {
	return make(DirDict)
}

// ContainsFile reports whether any directory's entry list contains name.
func (d DirDict) ContainsFile(name string) bool {
	_, ok := d.FindEntry(name)
	return ok
}

// AllNames returns every entry name across every directory, in no
// particular order; duplicates are possible only if the DirDict is
// malformed.
func (d DirDict) AllNames() []string {
	var names []string
	for _, entries := range d {
		for _, e := range entries {
			names = append(names, e.Name)
		}
	}
	return names
}

// FindEntry returns the entry with the given full name, if any.
func (d DirDict) FindEntry(name string) (Entry, bool) {
	for _, entries := range d {
		for _, e := range entries {
			if e.Name == name {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// ParentOf returns the directory path containing name: everything before
// the last "/", or "" if name has no "/".
func ParentOf(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return ""
	}
	return name[:idx]
}

// basename returns name's path component relative to dir: name with dir's
// "dir/" prefix stripped (or name itself, if dir is "").
func basename(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimPrefix(name, dir+"/")
}

// join qualifies a tree-local name (as read off a wire-format tree line)
// with the directory it was read from, producing a full relative path.
func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
