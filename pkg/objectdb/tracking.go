package objectdb

import "sync"

// WriteStats tracks how many Put calls actually touched the store versus
// how many were deduplicated against an existing object.
type WriteStats struct {
	TotalPuts          int
	ActualWrites       int
	DeduplicatedWrites int
}

// TrackingStore wraps a Store to count real writes versus dedup hits.
// Adapted from the teacher's pkg/cas.TrackingCAS; used by this package's
// own tests to assert the idempotence property of §8 ("the second call
// performs no disk write") rather than just comparing returned keys.
type TrackingStore struct {
	inner Store
	mu    sync.Mutex
	stats WriteStats
}

// NewTrackingStore wraps inner, tracking its Put calls.
func NewTrackingStore(inner Store) *TrackingStore {
	return &TrackingStore{inner: inner}
}

func (t *TrackingStore) CalculateKey(content []byte, typ ObjectType) (string, error) {
	return t.inner.CalculateKey(content, typ)
}

func (t *TrackingStore) Put(content []byte, typ ObjectType) (string, error) {
	existingKey, err := t.inner.CalculateKey(content, typ)
	if err != nil {
		return "", err
	}
	_, getErr := t.inner.Get(existingKey)
	existedBefore := getErr == nil

	key, err := t.inner.Put(content, typ)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalPuts++
	if existedBefore {
		t.stats.DeduplicatedWrites++
	} else {
		t.stats.ActualWrites++
	}
	return key, nil
}

func (t *TrackingStore) Get(key string) (*Object, error) {
	return t.inner.Get(key)
}

func (t *TrackingStore) GetFullKey(prefix string) (string, error) {
	return t.inner.GetFullKey(prefix)
}

// Stats returns a copy of the current write statistics.
func (t *TrackingStore) Stats() WriteStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

var _ Store = (*TrackingStore)(nil)
