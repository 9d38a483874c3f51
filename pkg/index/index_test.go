package index

import (
	"os"
	"path/filepath"
	"testing"

	"vc/pkg/objectdb"
	"vc/pkg/objecthash"
	"vc/pkg/vcerrors"
	"vc/pkg/vcfs"
)

type fakeRefs struct {
	tip string
}

func (f *fakeRefs) CurrentTip() (string, error) { return f.tip, nil }
func (f *fakeRefs) Advance(key string) error     { f.tip = key; return nil }

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	workdir := t.TempDir()
	root, err := vcfs.CreateRepoRoot(workdir)
	if err != nil {
		t.Fatal(err)
	}
	store, err := objectdb.NewFileStore(root, objecthash.Default)
	if err != nil {
		t.Fatal(err)
	}
	ix, err := Load(root, workdir, store)
	if err != nil {
		t.Fatal(err)
	}
	return ix, workdir
}

func TestStageFile_RecordsBlobKey(t *testing.T) {
	ix, workdir := newTestIndex(t)
	if err := os.WriteFile(filepath.Join(workdir, "README"), []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ix.StageFile("README"); err != nil {
		t.Fatalf("StageFile: %v", err)
	}
	e, ok := ix.Get("README")
	if !ok {
		t.Fatal("expected README staged")
	}
	want, _ := ix.store.CalculateKey([]byte("abc"), objectdb.Blob)
	if e.Key != want {
		t.Fatalf("got key %q want %q", e.Key, want)
	}
}

func TestStageFile_Idempotent(t *testing.T) {
	ix, workdir := newTestIndex(t)
	os.WriteFile(filepath.Join(workdir, "f"), []byte("x"), 0644)
	if err := ix.StageFile("f"); err != nil {
		t.Fatal(err)
	}
	before, _ := ix.Get("f")
	if err := ix.StageFile("f"); err != nil {
		t.Fatal(err)
	}
	after, _ := ix.Get("f")
	if before != after {
		t.Fatalf("staging unchanged file twice should leave entry unchanged: %+v != %+v", before, after)
	}
}

func TestStageFile_RejectsDirectory(t *testing.T) {
	ix, workdir := newTestIndex(t)
	os.Mkdir(filepath.Join(workdir, "sub"), 0755)
	if err := ix.StageFile("sub"); !vcerrors.Is(err, vcerrors.KindUnsupported) {
		t.Fatalf("StageFile(dir) = %v, want Unsupported", err)
	}
}

func TestStageFile_MissingFileIsNotFound(t *testing.T) {
	ix, _ := newTestIndex(t)
	if err := ix.StageFile("nope"); !vcerrors.Is(err, vcerrors.KindNotFound) {
		t.Fatalf("StageFile(missing) = %v, want NotFound", err)
	}
}

func TestRemoveFile_UnknownPathIsNotFound(t *testing.T) {
	ix, _ := newTestIndex(t)
	if err := ix.RemoveFile("nope"); !vcerrors.Is(err, vcerrors.KindNotFound) {
		t.Fatalf("RemoveFile(unknown) = %v, want NotFound", err)
	}
}

func TestUnstageFile_AlwaysUnsupported(t *testing.T) {
	ix, _ := newTestIndex(t)
	if err := ix.UnstageFile("anything"); !vcerrors.Is(err, vcerrors.KindUnsupported) {
		t.Fatalf("UnstageFile = %v, want Unsupported", err)
	}
}

func TestSaveReload_RoundTrips(t *testing.T) {
	ix, workdir := newTestIndex(t)
	os.WriteFile(filepath.Join(workdir, "a"), []byte("1"), 0644)
	os.MkdirAll(filepath.Join(workdir, "src"), 0755)
	os.WriteFile(filepath.Join(workdir, "src", "b"), []byte("2"), 0644)
	if err := ix.StageFile("a"); err != nil {
		t.Fatal(err)
	}
	if err := ix.StageFile(filepath.Join("src", "b")); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(ix.root, workdir, ix.store)
	if err != nil {
		t.Fatal(err)
	}
	entries := reloaded.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
}

func TestCommit_BuildsTreeAndAdvancesRef(t *testing.T) {
	ix, workdir := newTestIndex(t)
	os.WriteFile(filepath.Join(workdir, "README"), []byte("abc"), 0644)
	if err := ix.StageFile("README"); err != nil {
		t.Fatal(err)
	}

	refs := &fakeRefs{}
	key, err := ix.Commit(refs, "first")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if refs.tip != key {
		t.Fatalf("refs not advanced: tip=%q key=%q", refs.tip, key)
	}

	obj, err := ix.store.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if obj.Type != objectdb.Commit {
		t.Fatalf("got type %v, want commit", obj.Type)
	}

	second, err := ix.Commit(refs, "second")
	if err != nil {
		t.Fatal(err)
	}
	obj2, _ := ix.store.Get(second)
	if want := "parent " + key; !containsLine(obj2.Text(), want) {
		t.Fatalf("expected commit to reference parent %q, got %q", key, obj2.Text())
	}
}

func TestCommit_DefaultsMessageWhenEmpty(t *testing.T) {
	ix, _ := newTestIndex(t)
	refs := &fakeRefs{}
	key, err := ix.Commit(refs, "")
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := ix.store.Get(key)
	if !containsLine(obj.Text(), defaultMessage) {
		t.Fatalf("expected default message in %q", obj.Text())
	}
}

func containsLine(text, substr string) bool {
	return len(text) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(text); i++ {
			if text[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
