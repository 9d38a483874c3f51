package repo

// LogEntry is one commit in a first-parent walk: its key and the first
// non-blank line of its message.
type LogEntry struct {
	Key     string
	Comment string
}

// Log walks from the current tip following the first parent of each
// commit, emitting one LogEntry per commit, terminating at the first
// commit with no parents. Returns an empty slice on an unborn branch.
func (r *Repo) Log() ([]LogEntry, error) {
	_, tip, err := r.BranchCurrent()
	if err != nil {
		return nil, err
	}

	var entries []LogEntry
	for tip != "" {
		obj, err := r.store.Get(tip)
		if err != nil {
			return entries, nil
		}
		pc, err := parseCommitText(obj.Text())
		if err != nil {
			return nil, err
		}
		entries = append(entries, LogEntry{Key: tip, Comment: shortComment(pc.Message)})
		if len(pc.Parents) > 0 {
			tip = pc.Parents[0]
		} else {
			tip = ""
		}
	}
	return entries, nil
}
