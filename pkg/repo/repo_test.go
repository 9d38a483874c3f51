package repo

import (
	"os"
	"path/filepath"
	"testing"

	"vc/pkg/vcerrors"
)

func newTestRepo(t *testing.T) (*Repo, string) {
	t.Helper()
	workdir := t.TempDir()
	r, err := InitRepo(workdir, "")
	if err != nil {
		t.Fatalf("InitRepo: %v", err)
	}
	return r, workdir
}

func write(t *testing.T, workdir, name, content string) {
	t.Helper()
	full := filepath.Join(workdir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func stageAndCommit(t *testing.T, r *Repo, workdir, path, content, message string) string {
	t.Helper()
	write(t, workdir, path, content)
	if err := r.Index.StageFile(path); err != nil {
		t.Fatalf("StageFile: %v", err)
	}
	key, err := r.Index.Commit(r, message)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return key
}

// Scenario 1: Empty status.
func TestScenario_EmptyStatus(t *testing.T) {
	r, _ := newTestRepo(t)
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Branch != "master" {
		t.Fatalf("got branch %q, want master", st.Branch)
	}
	if st.DetachedShortTip != "" {
		t.Fatalf("expected attached, got detached tip %q", st.DetachedShortTip)
	}
	if len(st.Staged) != 0 || len(st.NotStaged) != 0 || len(st.NotTracked) != 0 {
		t.Fatalf("expected empty status, got %+v", st)
	}
}

// Scenario 2: New file untracked.
func TestScenario_NewFileUntracked(t *testing.T) {
	r, workdir := newTestRepo(t)
	write(t, workdir, "README", "abc")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.NotTracked) != 1 || st.NotTracked[0] != "README" {
		t.Fatalf("got not_tracked %v, want [README]", st.NotTracked)
	}
	if len(st.Staged) != 0 || len(st.NotStaged) != 0 {
		t.Fatalf("expected no staged/not_staged, got %+v", st)
	}
}

// Scenario 3: Two-commit history.
func TestScenario_TwoCommitHistory(t *testing.T) {
	r, workdir := newTestRepo(t)
	firstKey := stageAndCommit(t, r, workdir, "README", "abc", "first")
	write(t, workdir, "README", "abcdef")
	if err := r.Index.StageFile("README"); err != nil {
		t.Fatal(err)
	}
	secondKey, err := r.Index.Commit(r, "second")
	if err != nil {
		t.Fatal(err)
	}

	log, err := r.Log()
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("got %d log entries, want 2", len(log))
	}
	if log[0].Comment != "second" || log[0].Key != secondKey {
		t.Fatalf("log[0] = %+v, want second/%s", log[0], secondKey)
	}
	if log[1].Comment != "first" || log[1].Key != firstKey {
		t.Fatalf("log[1] = %+v, want first/%s", log[1], firstKey)
	}

	if _, err := r.Checkout(log[1].Key, false); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(workdir, "README"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "abc" {
		t.Fatalf("got README=%q after checkout, want abc", content)
	}
}

// Scenario 4: Prefix checkout.
func TestScenario_PrefixCheckout(t *testing.T) {
	r, workdir := newTestRepo(t)
	firstKey := stageAndCommit(t, r, workdir, "README", "abc", "first")
	write(t, workdir, "README", "abcdef")
	r.Index.StageFile("README")
	if _, err := r.Index.Commit(r, "second"); err != nil {
		t.Fatal(err)
	}

	log, _ := r.Log()
	_ = firstKey
	result, err := r.Checkout(log[0].Key[:6], false)
	if err != nil {
		t.Fatalf("Checkout(prefix): %v", err)
	}
	if !result.Detached {
		t.Fatal("expected detached checkout from a commit hash")
	}
	content, _ := os.ReadFile(filepath.Join(workdir, "README"))
	if string(content) != "abcdef" {
		t.Fatalf("got README=%q, want abcdef", content)
	}

	head, err := os.ReadFile(filepath.Join(r.root, "HEAD"))
	if err != nil {
		t.Fatal(err)
	}
	headStr := string(head)
	if len(headStr) < 40 {
		t.Fatalf("HEAD should contain the full commit id, got %q", headStr)
	}
}

// Scenario 5: Conflict on checkout with dirty working tree.
func TestScenario_CheckoutConflict(t *testing.T) {
	r, workdir := newTestRepo(t)
	firstKey := stageAndCommit(t, r, workdir, "README", "abc", "first")
	write(t, workdir, "README", "abcdef")
	r.Index.StageFile("README")
	if _, err := r.Index.Commit(r, "second"); err != nil {
		t.Fatal(err)
	}

	write(t, workdir, "README", "unstaged change")
	if _, err := r.Checkout(firstKey, false); !vcerrors.Is(err, vcerrors.KindConflict) {
		t.Fatalf("Checkout with dirty file = %v, want Conflict", err)
	}
}

// Scenario 6: Branch lifecycle.
func TestScenario_BranchLifecycle(t *testing.T) {
	r, workdir := newTestRepo(t)
	stageAndCommit(t, r, workdir, "README", "abc", "first")

	if err := r.BranchCreate("x"); err != nil {
		t.Fatalf("BranchCreate: %v", err)
	}
	names, current, err := r.ListBranches()
	if err != nil {
		t.Fatal(err)
	}
	if current != "master" {
		t.Fatalf("got current %q, want master", current)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["x"] || !found["master"] {
		t.Fatalf("got branches %v, want x and master", names)
	}

	result, err := r.Checkout("x", false)
	if err != nil {
		t.Fatalf("Checkout(x): %v", err)
	}
	if result.Detached {
		t.Fatal("expected attached checkout of branch x")
	}
	branch, _, err := r.BranchCurrent()
	if err != nil {
		t.Fatal(err)
	}
	if branch != "x" {
		t.Fatalf("got current branch %q, want x", branch)
	}

	if _, err := r.Checkout("master", false); err != nil {
		t.Fatal(err)
	}
	short, err := r.BranchDelete("x")
	if err != nil {
		t.Fatalf("BranchDelete(x): %v", err)
	}
	if len(short) != 7 {
		t.Fatalf("got short key %q, want 7 chars", short)
	}

	if _, err := r.BranchDelete("master"); !vcerrors.Is(err, vcerrors.KindExists) {
		t.Fatalf("BranchDelete(current) = %v, want Exists", err)
	}
}

func TestBranchCreate_DuplicateIsExists(t *testing.T) {
	r, workdir := newTestRepo(t)
	stageAndCommit(t, r, workdir, "a", "1", "m")
	if err := r.BranchCreate("dup"); err != nil {
		t.Fatal(err)
	}
	if err := r.BranchCreate("dup"); !vcerrors.Is(err, vcerrors.KindExists) {
		t.Fatalf("BranchCreate(dup) again = %v, want Exists", err)
	}
}

func TestBranchRename_MissingSourceIsNotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	if err := r.BranchRename("nope", "whatever"); !vcerrors.Is(err, vcerrors.KindNotFound) {
		t.Fatalf("BranchRename(missing) = %v, want NotFound", err)
	}
}

func TestCheckout_UnknownRefIsNotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	if _, err := r.Checkout("nonexistent", false); !vcerrors.Is(err, vcerrors.KindNotFound) {
		t.Fatalf("Checkout(unknown) = %v, want NotFound", err)
	}
}

func TestDiff_ReportsChangedContent(t *testing.T) {
	r, workdir := newTestRepo(t)
	stageAndCommit(t, r, workdir, "a.txt", "line1\nline2\n", "m")
	write(t, workdir, "a.txt", "line1\nCHANGED\n")

	diffs, err := r.Diff(nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 1 || diffs[0] == "" {
		t.Fatalf("expected one non-empty diff, got %v", diffs)
	}
}

func TestIgnore_ExcludesMetaDirAndPatterns(t *testing.T) {
	r, workdir := newTestRepo(t)
	if err := os.WriteFile(filepath.Join(workdir, ".vcignore"), []byte("ignored\\.txt\n"), 0644); err != nil {
		t.Fatal(err)
	}
	write(t, workdir, "ignored.txt", "x")
	write(t, workdir, "tracked.txt", "y")

	st, err := r.Status()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, f := range st.NotTracked {
		found[f] = true
	}
	if found["ignored.txt"] {
		t.Fatal("ignored.txt should not appear as untracked")
	}
	if !found["tracked.txt"] {
		t.Fatal("tracked.txt should appear as untracked")
	}
}
