package kviter

import "bytes"

// LsmIterator wraps a merged inner iterator, enforcing an upper bound and
// skipping tombstones (entries with an empty value) so that only live,
// in-range entries are ever visible to a caller (spec §4.7).
type LsmIterator struct {
	inner StorageIterator
	upper Bound
	valid bool
}

var _ StorageIterator = (*LsmIterator)(nil)

// NewLsmIterator wraps inner, immediately skipping forward past any leading
// tombstones, then checking the upper bound: if the first live entry lies
// past it, the iterator starts out invalid.
func NewLsmIterator(inner StorageIterator, upper Bound) (*LsmIterator, error) {
	it := &LsmIterator{inner: inner, upper: upper}
	if err := it.skipTombstones(); err != nil {
		return nil, err
	}
	it.checkBound()
	return it, nil
}

func (it *LsmIterator) checkBound() {
	if !it.inner.Valid() {
		it.valid = false
		return
	}
	switch it.upper.Kind {
	case Included:
		it.valid = bytes.Compare(it.inner.Key(), it.upper.Key) <= 0
	case Excluded:
		it.valid = bytes.Compare(it.inner.Key(), it.upper.Key) < 0
	default:
		it.valid = true
	}
}

func (it *LsmIterator) skipTombstones() error {
	for it.inner.Valid() && len(it.inner.Value()) == 0 {
		if err := it.inner.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Valid reports whether the iterator is positioned on a live, in-range entry.
func (it *LsmIterator) Valid() bool { return it.valid }

// Key returns the current entry's key.
func (it *LsmIterator) Key() []byte { return it.inner.Key() }

// Value returns the current entry's value.
func (it *LsmIterator) Value() []byte { return it.inner.Value() }

// Next advances past the current entry, then skips any tombstones, then
// re-checks the upper bound.
func (it *LsmIterator) Next() error {
	if err := it.inner.Next(); err != nil {
		return err
	}
	if err := it.skipTombstones(); err != nil {
		return err
	}
	it.checkBound()
	return nil
}

// FusedIterator makes Next a safe no-op once the wrapped iterator has gone
// invalid or returned an error, matching the spec's requirement that
// callers may keep calling Next past exhaustion without misbehavior.
type FusedIterator struct {
	inner   StorageIterator
	errored bool
}

var _ StorageIterator = (*FusedIterator)(nil)

// NewFusedIterator wraps inner.
func NewFusedIterator(inner StorageIterator) *FusedIterator {
	return &FusedIterator{inner: inner}
}

// Valid reports whether the iterator is positioned on an entry.
func (f *FusedIterator) Valid() bool {
	return !f.errored && f.inner.Valid()
}

// Key returns the current entry's key.
func (f *FusedIterator) Key() []byte { return f.inner.Key() }

// Value returns the current entry's value.
func (f *FusedIterator) Value() []byte { return f.inner.Value() }

// Next advances the wrapped iterator. Once it has gone invalid or errored,
// Next is a no-op that returns nil forever after.
func (f *FusedIterator) Next() error {
	if f.errored || !f.inner.Valid() {
		return nil
	}
	if err := f.inner.Next(); err != nil {
		f.errored = true
		return err
	}
	return nil
}
