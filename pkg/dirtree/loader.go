package dirtree

import (
	"vc/pkg/objectdb"
	"vc/pkg/vcerrors"
)

// Load recursively reads the tree object at rootKey (and every subtree it
// references) into a DirDict with fully qualified entry names, the
// inverse of Build. rootKey == "" yields an empty DirDict (an unborn
// branch with no commits has no tree to load).
//
// Grounded on the teacher's pkg/tree.TreeTraverser and on original_source's
// vc/impl/repo.py:_add_tree_entries, which walks a stored tree the same
// way, recursing into directory entries and accumulating a dict keyed by
// directory path.
func Load(store objectdb.Store, rootKey string) (DirDict, error) {
	result := make(DirDict)
	if rootKey == "" {
		return result, nil
	}
	if err := loadDir(store, rootKey, "", result); err != nil {
		return nil, err
	}
	return result, nil
}

func loadDir(store objectdb.Store, key, dir string, acc DirDict) error {
	obj, err := store.Get(key)
	if err != nil {
		return err
	}
	if obj.Type != objectdb.Tree {
		return vcerrors.Corrupt("expected a tree object", nil)
	}

	var entries []Entry
	for _, line := range splitTreeText(obj.Text()) {
		tl, err := ParseTreeLine(line)
		if err != nil {
			return err
		}
		fullName := join(dir, tl.Name)
		entries = append(entries, Entry{Name: fullName, Kind: tl.Kind, Key: tl.Key})
		if tl.Kind == Dir {
			if err := loadDir(store, tl.Key, fullName, acc); err != nil {
				return err
			}
		}
	}
	acc[dir] = entries
	return nil
}
