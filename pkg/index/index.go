// Package index implements the §4.C Index: a persistent flat map between
// working-tree paths and staged blob keys, plus its fold into tree and
// commit objects.
//
// Grounded in the teacher's pkg/store (Store/commit.go), which also layers
// a flat staged-entry map over the CAS and folds it into a commit —
// generalized here from the teacher's prolly-tree structural-sharing
// design to the flat per-directory DirDict model spec.md §3/§4.C
// describes, and in original_source's vc/impl/index.py for the index's
// on-disk line format and stage/remove semantics.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vc/pkg/dirtree"
	"vc/pkg/objectdb"
	"vc/pkg/vcerrors"
	"vc/pkg/vcfs"
)

// Kind mirrors dirtree.Kind for index entries (f = file, d = directory).
// Index entries are always Kind == File in this implementation: staging a
// directory is rejected (§9, "directory staging is a non-goal"), so the d
// kind exists only to round-trip the on-disk format described in §6.
type Kind = dirtree.Kind

const (
	File = dirtree.File
	Dir  = dirtree.Dir
)

// Entry is one line of the index file.
type Entry struct {
	Key  string
	Kind Kind
	Path string
}

// Index is the staging area for one repository. root is R, the metadata
// directory; workdirRoot is R's parent, the directory whose files the
// index stages paths relative to.
type Index struct {
	root        string
	workdirRoot string
	store       objectdb.Store
	entries     map[string]Entry // path -> entry, insertion order not preserved
}

const fileName = "index"

// Load reads the index file from root (creating an empty in-memory index
// if it does not yet exist, as after init_repo).
func Load(root, workdirRoot string, store objectdb.Store) (*Index, error) {
	ix := &Index{root: root, workdirRoot: workdirRoot, store: store, entries: make(map[string]Entry)}
	text, err := vcfs.ReadFile(root, fileName)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		ix.entries[e.Path] = e
	}
	return ix, nil
}

func parseLine(line string) (Entry, error) {
	firstSpace := strings.IndexByte(line, ' ')
	if firstSpace < 0 {
		return Entry{}, vcerrors.Corrupt("malformed index entry: missing key separator", nil)
	}
	key := line[:firstSpace]
	rest := line[firstSpace+1:]

	secondSpace := strings.IndexByte(rest, ' ')
	if secondSpace < 0 {
		return Entry{}, vcerrors.Corrupt("malformed index entry: missing kind separator", nil)
	}
	kindStr := rest[:secondSpace]
	path := rest[secondSpace+1:]
	if path == "" {
		return Entry{}, vcerrors.Corrupt("malformed index entry: empty path", nil)
	}

	var kind Kind
	switch kindStr {
	case string(File):
		kind = File
	case string(Dir):
		kind = Dir
	default:
		return Entry{}, vcerrors.Corrupt(fmt.Sprintf("malformed index entry: unknown kind %q", kindStr), nil)
	}
	return Entry{Key: key, Kind: kind, Path: path}, nil
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s %s\n", e.Key, e.Kind, e.Path)
}

// Save persists the index to R/index, atomically, in sorted-by-path order
// for determinism.
func (ix *Index) Save() error {
	paths := make([]string, 0, len(ix.entries))
	for p := range ix.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf strings.Builder
	for _, p := range paths {
		buf.WriteString(ix.entries[p].String())
	}
	return vcfs.WriteFile(ix.root, fileName, buf.String())
}

// StageFile reads path (relative to the workdir root), stores it as a
// blob, and records (key, 'f', path) in the index, overwriting any prior
// entry for the same path. Rejects directories (Unsupported) and
// non-regular files (NotFound).
func (ix *Index) StageFile(path string) error {
	full := filepath.Join(ix.workdirRoot, path)
	info, err := os.Stat(full)
	if err != nil {
		return vcerrors.NotFound("no such file: "+path, err)
	}
	if info.IsDir() {
		return vcerrors.Unsupported("staging a directory is not supported: "+path, nil)
	}
	if !info.Mode().IsRegular() {
		return vcerrors.NotFound("not a regular file: "+path, nil)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return vcerrors.NotFound("no such file: "+path, err)
	}
	key, err := ix.store.Put(content, objectdb.Blob)
	if err != nil {
		return err
	}

	ix.entries[path] = Entry{Key: key, Kind: File, Path: path}
	return ix.Save()
}

// RemoveFile deletes the entry with exactly this path. Fails NotFound if
// no such entry exists.
func (ix *Index) RemoveFile(path string) error {
	if _, ok := ix.entries[path]; !ok {
		return vcerrors.NotFound("not staged: "+path, nil)
	}
	delete(ix.entries, path)
	return ix.Save()
}

// UnstageFile is declared but deliberately unimplemented (§9): leave as an
// explicit Unsupported until designed.
func (ix *Index) UnstageFile(path string) error {
	return vcerrors.Unsupported("unstage_file is not implemented", nil)
}

// Entries returns a copy of the current index entries, sorted by path.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Get returns the entry staged at path, if any.
func (ix *Index) Get(path string) (Entry, bool) {
	e, ok := ix.entries[path]
	return e, ok
}

// Dirtree projects the on-disk index into the DirDict shape: files only,
// no synthetic d placeholders (those are added by dirtree.Build).
func (ix *Index) Dirtree() dirtree.DirDict {
	dd := dirtree.New()
	for _, e := range ix.entries {
		dir := dirtree.ParentOf(e.Path)
		dd[dir] = append(dd[dir], dirtree.Entry{Name: e.Path, Kind: e.Kind, Key: e.Key})
	}
	return dd
}

// SetToDirtree replaces the index contents with the files enumerated in
// dd, all recorded as kind f.
func (ix *Index) SetToDirtree(dd dirtree.DirDict) {
	ix.entries = make(map[string]Entry)
	for _, entries := range dd {
		for _, e := range entries {
			if e.Kind != dirtree.File {
				continue
			}
			ix.entries[e.Name] = Entry{Key: e.Key, Kind: File, Path: e.Name}
		}
	}
}

// SaveToDB folds the flat index into nested tree objects via dirtree.Build
// and returns the root tree's key.
func (ix *Index) SaveToDB() (string, error) {
	return dirtree.Build(ix.store, ix.Dirtree())
}

// Refs is the subset of reference management Commit needs: resolving the
// current tip and advancing it to a new commit key. Defined here (rather
// than depending on pkg/repo directly) per §9's "Protocol abstractions"
// note: the index only needs this narrow slice of the repository's
// reference algebra, so it asks for an interface instead of a concrete
// dependency.
type Refs interface {
	// CurrentTip returns the current branch's (or, if detached, HEAD's)
	// tip commit key, or "" if there is no commit yet.
	CurrentTip() (string, error)
	// Advance writes key as the new tip.
	Advance(key string) error
}

const defaultMessage = "(no commit message)"

// Commit builds the tree for the current index contents, wraps it and the
// current tip (if any) in a commit object, stores it, and advances refs to
// the new commit. Returns the new commit's key.
func (ix *Index) Commit(refs Refs, message string) (string, error) {
	tip, err := refs.CurrentTip()
	if err != nil {
		return "", err
	}

	rootKey, err := ix.SaveToDB()
	if err != nil {
		return "", err
	}

	if message == "" {
		message = defaultMessage
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "tree %s\n", rootKey)
	if tip != "" {
		fmt.Fprintf(&buf, "parent %s\n", tip)
	}
	buf.WriteString("\n")
	buf.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		buf.WriteString("\n")
	}

	key, err := ix.store.Put([]byte(buf.String()), objectdb.Commit)
	if err != nil {
		return "", err
	}
	if err := refs.Advance(key); err != nil {
		return "", err
	}
	return key, nil
}
