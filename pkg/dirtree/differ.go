package dirtree

import (
	"github.com/pmezard/go-difflib/difflib"

	"vc/pkg/objectdb"
)

// Differ produces context diffs between a stored blob and working-tree
// text, the Go-ecosystem equivalent of original_source's
// vc/impl/repo.py:_diff_file, which calls Python's difflib.context_diff.
// pmezard/go-difflib is that call's closest port and appears elsewhere in
// the example pack's dependency graph, so diffing leans on it rather than
// a hand-rolled LCS.
type Differ struct {
	store   objectdb.Store
	context int
}

// NewDiffer returns a Differ reading "from" content out of store, with the
// conventional 3 lines of surrounding context.
func NewDiffer(store objectdb.Store) *Differ {
	return &Differ{store: store, context: 3}
}

// Diff returns a context diff between the content stored at indexKey (the
// "from" side; pass "" for an unstaged file, diffed against an empty
// blob) and workingContent (the "to" side), both labeled fileName.
// Binary content is the caller's concern: §4.D treats diff as text-only
// and this function does not itself sniff for binary data.
func (d *Differ) Diff(fileName, indexKey, workingContent string) (string, error) {
	var fromText string
	if indexKey != "" {
		obj, err := d.store.Get(indexKey)
		if err != nil {
			return "", err
		}
		fromText = obj.Text()
	}
	if fromText == workingContent {
		return "", nil
	}

	diff := difflib.ContextDiff{
		A:        difflib.SplitLines(fromText),
		B:        difflib.SplitLines(workingContent),
		FromFile: fileName,
		ToFile:   fileName,
		Context:  d.context,
	}
	return difflib.GetContextDiffString(diff)
}
