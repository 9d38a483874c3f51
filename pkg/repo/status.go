package repo

import (
	"os"
	"path/filepath"
	"sort"

	"vc/pkg/dirtree"
	"vc/pkg/objectdb"
	"vc/pkg/vcerrors"
)

// FileStatus is the substatus of a staged or unstaged file entry.
type FileStatus string

const (
	StatusNew      FileStatus = "new"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
)

// FileWithStatus pairs a path with its classification.
type FileWithStatus struct {
	Path   string
	Status FileStatus
}

// Status is the result of §4.D's three-way comparison.
type Status struct {
	Branch           string // "" if detached
	DetachedShortTip string // "" if attached
	Staged           []FileWithStatus
	NotStaged        []FileWithStatus
	NotTracked       []string
}

// Status computes the repository's status by comparing the staging,
// working, and HEAD DirDicts. Fails NotInRepo if the metadata root is
// missing.
//
// Grounded on original_source's vc/impl/repo.py:_status and
// _add_file_to_repostatus: the early-return shape (a file absent from
// staging is classified as either untracked or deleted and nothing else;
// only files present in staging are checked for staged/not-staged
// modification) is preserved exactly.
func (r *Repo) Status() (Status, error) {
	if _, err := os.Stat(r.root); err != nil {
		return Status{}, vcerrors.NotInRepo("not in a repository", err)
	}

	stagingDict := r.Index.Dirtree()
	var dirs []string
	for d := range stagingDict {
		dirs = append(dirs, d)
	}

	ignore, err := r.loadIgnore()
	if err != nil {
		return Status{}, err
	}
	workingDict, err := r.buildWorkingDict(dirs, ignore)
	if err != nil {
		return Status{}, err
	}
	headDict, err := r.buildHeadDict()
	if err != nil {
		return Status{}, err
	}

	branch, tip, err := r.BranchCurrent()
	if err != nil {
		return Status{}, err
	}
	st := Status{Branch: branch}
	if branch == "" {
		if len(tip) > 7 {
			st.DetachedShortTip = tip[:7]
		} else {
			st.DetachedShortTip = tip
		}
	}

	seen := map[string]bool{}
	var names []string
	for _, n := range stagingDict.AllNames() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range workingDict.AllNames() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range headDict.AllNames() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)

	for _, f := range names {
		r.classify(f, &st, stagingDict, workingDict, headDict)
	}
	return st, nil
}

func (r *Repo) classify(f string, st *Status, staging, working, head dirtree.DirDict) {
	stagedEntry, inStaging := staging.FindEntry(f)
	if !inStaging {
		if _, inWorking := working.FindEntry(f); inWorking {
			st.NotTracked = append(st.NotTracked, f)
			return
		}
		if _, inHead := head.FindEntry(f); inHead {
			st.NotStaged = append(st.NotStaged, FileWithStatus{Path: f, Status: StatusDeleted})
			return
		}
		return
	}

	headEntry, inHead := head.FindEntry(f)
	if !inHead || stagedEntry.Key != headEntry.Key {
		status := StatusModified
		if !inHead {
			status = StatusNew
		}
		st.Staged = append(st.Staged, FileWithStatus{Path: f, Status: status})
	}

	if stagedEntry.Kind == dirtree.File {
		content, err := os.ReadFile(filepath.Join(r.workdirRoot, f))
		if err == nil {
			key, err := r.store.CalculateKey(content, objectdb.Blob)
			if err == nil && key != stagedEntry.Key {
				st.NotStaged = append(st.NotStaged, FileWithStatus{Path: f, Status: StatusModified})
			}
		}
	}
}

// buildWorkingDict lists, for every directory in dirs plus the workdir
// root, the on-disk entries directly inside it, skipping anything the
// ignore predicate matches.
func (r *Repo) buildWorkingDict(dirs []string, ignore *ignorePredicate) (dirtree.DirDict, error) {
	dd := dirtree.New()
	all := append([]string{""}, dirs...)
	seenDir := map[string]bool{}
	for _, dir := range all {
		if seenDir[dir] {
			continue
		}
		seenDir[dir] = true

		entries, err := os.ReadDir(filepath.Join(r.workdirRoot, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if ignore.Matches(e.Name()) {
				continue
			}
			kind := dirtree.File
			if e.IsDir() {
				kind = dirtree.Dir
			}
			full := e.Name()
			if dir != "" {
				full = dir + "/" + full
			}
			dd[dir] = append(dd[dir], dirtree.Entry{Name: full, Kind: kind})
		}
	}
	return dd, nil
}

// buildHeadDict loads the DirDict for the current tip's tree, or an empty
// DirDict if there is no tip yet.
func (r *Repo) buildHeadDict() (dirtree.DirDict, error) {
	_, tip, err := r.BranchCurrent()
	if err != nil {
		return nil, err
	}
	if tip == "" {
		return dirtree.New(), nil
	}
	obj, err := r.store.Get(tip)
	if err != nil {
		return nil, err
	}
	pc, err := parseCommitText(obj.Text())
	if err != nil {
		return nil, err
	}
	return dirtree.Load(r.store, pc.Tree)
}
