package kviter

import "errors"

// fakeIterator is a StorageIterator over a fixed, in-memory slice of
// entries, used by this package's own tests to exercise the merge and LSM
// iterator stack without depending on block/sstable/memtable.
type fakeIterator struct {
	entries [][2]string
	pos     int
}

var _ StorageIterator = (*fakeIterator)(nil)

func newFakeIterator(entries [][2]string) *fakeIterator {
	return &fakeIterator{entries: entries}
}

func (f *fakeIterator) Valid() bool   { return f.pos < len(f.entries) }
func (f *fakeIterator) Key() []byte   { return []byte(f.entries[f.pos][0]) }
func (f *fakeIterator) Value() []byte { return []byte(f.entries[f.pos][1]) }
func (f *fakeIterator) Next() error {
	f.pos++
	return nil
}

var errFakeAdvance = errors.New("kviter: fake advance failure")

// erroringIterator behaves like fakeIterator except that advancing past
// errorAt fails, simulating a mid-iteration read failure (e.g. a corrupt
// block an sstable.Iterator.Next would otherwise hit).
type erroringIterator struct {
	fakeIterator
	errorAt int
}

func newErroringIterator(entries [][2]string, errorAt int) *erroringIterator {
	return &erroringIterator{fakeIterator: fakeIterator{entries: entries}, errorAt: errorAt}
}

func (e *erroringIterator) Next() error {
	if e.pos == e.errorAt {
		return errFakeAdvance
	}
	return e.fakeIterator.Next()
}
