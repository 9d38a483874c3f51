package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vc/pkg/dirtree"
	"vc/pkg/objectdb"
	"vc/pkg/vcerrors"
	"vc/pkg/vcfs"
)

// CheckoutResult is what a successful checkout reports back: the short
// comment of the checked-out commit, and whether HEAD ended up detached.
type CheckoutResult struct {
	ShortMessage string
	Detached     bool
}

// resolveCommitKey tries to resolve ref as a commit key (full or >=4-char
// prefix), succeeding only if the resolved object is actually a commit.
func (r *Repo) resolveCommitKey(ref string) (string, bool) {
	full, err := r.store.GetFullKey(ref)
	if err != nil {
		return "", false
	}
	obj, err := r.store.Get(full)
	if err != nil || obj.Type != objectdb.Commit {
		return "", false
	}
	return full, true
}

// dirtyEntries returns the paths of every staged file whose working-tree
// bytes no longer hash to the index's recorded blob key.
func (r *Repo) dirtyEntries() ([]string, error) {
	var dirty []string
	for _, e := range r.Index.Entries() {
		content, err := os.ReadFile(filepath.Join(r.workdirRoot, e.Path))
		if err != nil {
			continue // missing working file: nothing to conflict with
		}
		key, err := r.store.CalculateKey(content, objectdb.Blob)
		if err != nil {
			return nil, err
		}
		if key != e.Key {
			dirty = append(dirty, e.Path)
		}
	}
	return dirty, nil
}

// Checkout resolves ref — a commit key (full or >=4-char prefix), a
// branch name, or (with createBranch) a new branch name — and switches
// the workdir, index, and HEAD to it.
//
// Grounded on original_source's vc/impl/repo.py:_checkout: resolution
// order is commit-by-hash, then branch-by-name, then (if requested)
// branch creation at the current tip; the dirty check runs after
// resolution but before any working-tree, HEAD, or index write (with
// createBranch, the new branch ref has already been written by then, and
// it stays in place if the dirty check fails), and a detached HEAD is always written
// with the full resolved key, not whatever prefix the caller passed
// (scenario 4's "recovers the full commit id").
func (r *Repo) Checkout(ref string, createBranch bool) (CheckoutResult, error) {
	var commitKey, branchName string
	detached := false

	if key, ok := r.resolveCommitKey(ref); ok {
		commitKey = key
		detached = true
	} else if vcfs.Exists(r.root, branchRefPath(ref)) {
		tip, err := vcfs.ReadFile(r.root, branchRefPath(ref))
		if err != nil {
			return CheckoutResult{}, err
		}
		commitKey = strings.TrimSpace(tip)
		branchName = ref
	} else if createBranch {
		if err := r.BranchCreate(ref); err != nil {
			return CheckoutResult{}, err
		}
		tip, err := vcfs.ReadFile(r.root, branchRefPath(ref))
		if err != nil {
			return CheckoutResult{}, err
		}
		commitKey = strings.TrimSpace(tip)
		branchName = ref
	} else {
		return CheckoutResult{}, vcerrors.NotFound(
			fmt.Sprintf("pathspec %q did not match any commit or branch known to vc", ref), nil)
	}

	dirty, err := r.dirtyEntries()
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(dirty) > 0 {
		return CheckoutResult{}, vcerrors.Conflict(
			"your local changes to the following files would be overwritten by checkout: "+strings.Join(dirty, ", "), nil)
	}

	var dd dirtree.DirDict
	message := ""
	if commitKey != "" {
		obj, err := r.store.Get(commitKey)
		if err != nil {
			return CheckoutResult{}, err
		}
		pc, err := parseCommitText(obj.Text())
		if err != nil {
			return CheckoutResult{}, err
		}
		dd, err = dirtree.Load(r.store, pc.Tree)
		if err != nil {
			return CheckoutResult{}, err
		}
		message = shortComment(pc.Message)
	} else {
		dd = dirtree.New()
	}

	for _, name := range dd.AllNames() {
		e, _ := dd.FindEntry(name)
		if e.Kind != dirtree.File {
			continue
		}
		obj, err := r.store.Get(e.Key)
		if err != nil {
			return CheckoutResult{}, err
		}
		if err := vcfs.WriteFile(r.workdirRoot, name, string(obj.Payload)); err != nil {
			return CheckoutResult{}, err
		}
	}

	if detached {
		full, err := r.store.GetFullKey(commitKey)
		if err != nil {
			return CheckoutResult{}, err
		}
		if err := vcfs.WriteFile(r.root, "HEAD", full+"\n"); err != nil {
			return CheckoutResult{}, err
		}
	} else {
		if err := vcfs.WriteFile(r.root, "HEAD", branchRefLiteral(branchName)+"\n"); err != nil {
			return CheckoutResult{}, err
		}
	}

	r.Index.SetToDirtree(dd)
	if err := r.Index.Save(); err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{ShortMessage: message, Detached: detached}, nil
}
