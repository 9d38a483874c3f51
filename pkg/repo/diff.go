package repo

import (
	"os"
	"path/filepath"
	"sort"

	"vc/pkg/dirtree"
)

// Diff computes a context diff per file across the union of the staging,
// working, and HEAD DirDicts, optionally restricted to filter (if
// non-empty). Binary files are unsupported in this version (§4.D); the
// diff is computed against whatever text is read, same as
// original_source's vc/impl/repo.py:_diff_file.
func (r *Repo) Diff(filter []string) ([]string, error) {
	stagingDict := r.Index.Dirtree()
	var dirs []string
	for d := range stagingDict {
		dirs = append(dirs, d)
	}

	ignore, err := r.loadIgnore()
	if err != nil {
		return nil, err
	}
	workingDict, err := r.buildWorkingDict(dirs, ignore)
	if err != nil {
		return nil, err
	}
	headDict, err := r.buildHeadDict()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var names []string
	for _, dd := range []dirtree.DirDict{stagingDict, workingDict, headDict} {
		for _, n := range dd.AllNames() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	if len(filter) > 0 {
		allowed := map[string]bool{}
		for _, f := range filter {
			allowed[f] = true
		}
		var kept []string
		for _, n := range names {
			if allowed[n] {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	sort.Strings(names)

	differ := dirtree.NewDiffer(r.store)
	var out []string
	for _, name := range names {
		entry, ok := stagingDict.FindEntry(name)
		if ok && entry.Kind != dirtree.File {
			continue
		}
		indexKey := ""
		if ok {
			indexKey = entry.Key
		}
		content, err := os.ReadFile(filepath.Join(r.workdirRoot, name))
		if err != nil {
			continue
		}
		d, err := differ.Diff(name, indexKey, string(content))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
