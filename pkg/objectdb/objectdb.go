// Package objectdb implements the §4.B Object DB: a hash-keyed, compressed,
// typed blob store on disk, plus prefix lookup.
//
// Grounded in the teacher's pkg/cas.FileCAS — same two-character fan-out
// directory layout, same atomic temp-file-then-rename write, same
// write-skips-if-exists dedup — generalized from a raw SHA-256 CAS to the
// typed, length-prefixed, DEFLATE-compressed object format original_source's
// vc/impl/db.py and vc/prots.py describe (object = "<type> <size>\0<payload>",
// then compressed, then hashed). Compression uses
// github.com/klauspost/compress/flate, a drop-in for compress/flate also
// pulled in by grafana-nanogit, so the store exercises a real third-party
// codec instead of the standard library's.
package objectdb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/klauspost/compress/flate"

	"vc/pkg/objecthash"
	"vc/pkg/vcerrors"
)

// ObjectType tags the kind of payload a Stored object carries.
type ObjectType string

const (
	Blob   ObjectType = "blob"
	Tree   ObjectType = "tree"
	Commit ObjectType = "commit"
	Tag    ObjectType = "tag"
)

// Object is a decoded stored object: its declared type, declared size, and
// payload bytes.
type Object struct {
	Type    ObjectType
	Size    int
	Payload []byte
}

// Text returns the payload decoded as a UTF-8 string, for the text-bearing
// object types (tree, commit).
func (o Object) Text() string {
	return string(o.Payload)
}

// Store is the Object DB contract: put/get typed, content-addressed blobs.
type Store interface {
	// CalculateKey computes the key that Put(content, typ) would produce,
	// without writing anything.
	CalculateKey(content []byte, typ ObjectType) (string, error)
	// Put stores content under typ, returning its key. Idempotent: a
	// second Put with identical (content, typ) performs no write.
	Put(content []byte, typ ObjectType) (string, error)
	// Get resolves a full or >=4-char hex prefix key to its object.
	Get(key string) (*Object, error)
	// GetFullKey resolves a prefix the same way Get does, returning only
	// the full key.
	GetFullKey(prefix string) (string, error)
}

// FileStore is the on-disk Store implementation, rooted at the repository
// metadata directory R.
type FileStore struct {
	root   string
	hasher objecthash.Hasher
}

// NewFileStore opens (or prepares to populate) the object store rooted at
// root, the repository metadata directory. Fails NotInRepo if root does
// not exist.
func NewFileStore(root string, hasher objecthash.Hasher) (*FileStore, error) {
	if hasher == nil {
		hasher = objecthash.Default
	}
	if _, err := os.Stat(root); err != nil {
		return nil, vcerrors.NotInRepo("not in a repository", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "objects"), 0755); err != nil {
		return nil, err
	}
	return &FileStore{root: root, hasher: hasher}, nil
}

func encode(content []byte, typ ObjectType) []byte {
	header := fmt.Sprintf("%s %d\x00", typ, len(content))
	buf := make([]byte, 0, len(header)+len(content))
	buf = append(buf, header...)
	buf = append(buf, content...)
	return buf
}

func compress(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := flate.NewWriter(&out, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	return io.ReadAll(r)
}

func decode(raw []byte) (ObjectType, int, []byte, error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", 0, nil, vcerrors.Corrupt("object header missing NUL separator", nil)
	}
	header := string(raw[:nul])
	sp := bytes.IndexByte([]byte(header), ' ')
	if sp < 0 {
		return "", 0, nil, vcerrors.Corrupt("object header missing type/size separator", nil)
	}
	typ := ObjectType(header[:sp])
	size, err := strconv.Atoi(header[sp+1:])
	if err != nil {
		return "", 0, nil, vcerrors.Corrupt("object header has non-numeric size", err)
	}
	payload := raw[nul+1:]
	if len(payload) != size {
		return "", 0, nil, vcerrors.Corrupt("object payload size mismatch", nil)
	}
	return typ, size, payload, nil
}

// compressedKey returns the hash of content wrapped and compressed under
// typ — the key Put would assign. This hashes the compressed bytes, not
// the logical payload: a deliberate deviation preserved from spec.md §4.B
// ("Note on compression") and §9's first open question. An external VCS
// with an identical-looking format hashes before compressing; bit-exact
// interop with it is a non-goal.
func (s *FileStore) compressedKey(content []byte, typ ObjectType) (string, []byte, error) {
	raw := encode(content, typ)
	compressed, err := compress(raw)
	if err != nil {
		return "", nil, err
	}
	return s.hasher.Hash(compressed), compressed, nil
}

func (s *FileStore) objectPath(key string) string {
	return filepath.Join(s.root, "objects", key[:2], key[2:])
}

// CalculateKey computes the key Put(content, typ) would produce.
func (s *FileStore) CalculateKey(content []byte, typ ObjectType) (string, error) {
	if _, err := os.Stat(s.root); err != nil {
		return "", vcerrors.NotInRepo("not in a repository", err)
	}
	key, _, err := s.compressedKey(content, typ)
	return key, err
}

// Put stores content under typ, returning its key. If an object with that
// key is already on disk the write is skipped and the existing key
// returned — idempotent by construction of the content-addressed key.
func (s *FileStore) Put(content []byte, typ ObjectType) (string, error) {
	key, compressed, err := s.compressedKey(content, typ)
	if err != nil {
		return "", err
	}

	path := s.objectPath(key)
	if _, err := os.Stat(path); err == nil {
		return key, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	return key, nil
}

// resolve finds the single candidate file matching a >=4-char hex prefix,
// returning its full key and path. Zero or multiple matches (or a too-short
// prefix) fail NotFound — an Ambiguous prefix collapses to NotFound per spec.
func (s *FileStore) resolve(prefix string) (string, string, error) {
	if len(prefix) < 4 {
		return "", "", vcerrors.NotFound("key too short", nil)
	}
	if _, err := os.Stat(s.root); err != nil {
		return "", "", vcerrors.NotInRepo("not in a repository", err)
	}

	shardDir := filepath.Join(s.root, "objects", prefix[:2])
	pattern := filepath.Join(shardDir, prefix[2:]+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", "", vcerrors.NotFound("object not found", err)
	}
	if len(matches) != 1 {
		if len(matches) > 1 {
			return "", "", vcerrors.NotFound("prefix matches multiple objects", nil)
		}
		return "", "", vcerrors.NotFound("object not found", nil)
	}

	fullKey := prefix[:2] + filepath.Base(matches[0])
	return fullKey, matches[0], nil
}

// Get resolves key (full or >=4-char prefix) and returns its decoded object.
func (s *FileStore) Get(key string) (*Object, error) {
	if key == "" {
		return nil, vcerrors.NotFound("empty key", nil)
	}
	_, path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, vcerrors.NotFound("object not found", err)
		}
		return nil, err
	}
	raw, err := decompress(compressed)
	if err != nil {
		return nil, vcerrors.Corrupt("failed to decompress object", err)
	}
	typ, size, payload, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &Object{Type: typ, Size: size, Payload: payload}, nil
}

// GetFullKey resolves prefix the same way Get does, returning only the
// resolved 40-char key.
func (s *FileStore) GetFullKey(prefix string) (string, error) {
	if prefix == "" {
		return "", vcerrors.NotFound("empty key", nil)
	}
	full, _, err := s.resolve(prefix)
	return full, err
}

var _ Store = (*FileStore)(nil)

// listAllKeys enumerates every object key present on disk, sorted. Not
// part of the Store contract; nothing in the repository calls it.
func (s *FileStore) listAllKeys() ([]string, error) {
	shardDirs, err := os.ReadDir(filepath.Join(s.root, "objects"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, shard := range shardDirs {
		if !shard.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.root, "objects", shard.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			keys = append(keys, shard.Name()+f.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}
