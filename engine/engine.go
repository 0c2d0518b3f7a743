// Package engine coordinates the memtable and SST layers into the single
// point of entry an embedder uses: get, put, delete, sync, and scan over an
// ordered byte-string keyspace (spec §4.8).
package engine

import (
	"fmt"
	"sync"

	"github.com/arjunvedant/stratakv/kviter"
	"github.com/arjunvedant/stratakv/memtable"
	"github.com/arjunvedant/stratakv/sstable"
)

// Engine is the storage engine's coordinator. The zero value is not usable;
// construct one with Open.
type Engine struct {
	dir string

	blockSize          int
	memtableSizeLimit  int
	expectedKeysPerSst int

	stateMu sync.RWMutex
	state   *lsmState

	syncMu sync.Mutex
}

// Open discovers existing SSTs under dir (resuming next_sst_id from the
// highest one found), starts a fresh active memtable, and returns a ready
// Engine.
func Open(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		dir:                dir,
		blockSize:          defaultBlockSize,
		memtableSizeLimit:  defaultMemtableSizeLimit,
		expectedKeysPerSst: defaultExpectedKeysPerSst,
	}
	for _, opt := range opts {
		opt(e)
	}

	tables, nextID, err := scanTableDir(dir)
	if err != nil {
		return nil, fmt.Errorf("engine: open %s: %w", dir, err)
	}

	e.state = &lsmState{
		active:    memtable.New(nextID),
		frozen:    nil,
		l0:        tables,
		nextSstID: nextID + 1,
	}

	return e, nil
}

func (e *Engine) snapshot() *lsmState {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Get looks up key, consulting the active memtable, then frozen memtables
// newest-first, then L0 SSTs newest-first, stopping at the first hit
// (spec §4.8). A tombstone hit is reported as absent.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	s := e.snapshot()

	if v, ok := s.active.Get(key); ok {
		return liveValue(v)
	}

	for i := len(s.frozen) - 1; i >= 0; i-- {
		if v, ok := s.frozen[i].Get(key); ok {
			return liveValue(v)
		}
	}

	for i := len(s.l0) - 1; i >= 0; i-- {
		table := s.l0[i]
		if !table.MayContain(key) {
			continue
		}
		it, err := sstable.NewAndSeekToKey(table, key)
		if err != nil {
			if sstable.IsKeyPastLastBlock(err) {
				continue
			}
			return nil, false, fmt.Errorf("engine: get %q from table %d: %w", key, table.ID(), err)
		}
		if it.Valid() && string(it.Key()) == string(key) {
			return liveValue(it.Value())
		}
	}

	return nil, false, nil
}

func liveValue(v []byte) ([]byte, bool, error) {
	if len(v) == 0 {
		return nil, false, nil
	}
	return v, true, nil
}

// Put inserts or replaces key with value. Both must be non-empty.
func (e *Engine) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}

	s := e.snapshot()
	s.active.Put(key, value)

	if s.active.ApproximateSize() >= e.memtableSizeLimit {
		return e.Sync()
	}
	return nil
}

// Delete writes a tombstone for key.
func (e *Engine) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	s := e.snapshot()
	s.active.Delete(key)

	if s.active.ApproximateSize() >= e.memtableSizeLimit {
		return e.Sync()
	}
	return nil
}

// Sync freezes the active memtable, installs a fresh one, flushes the
// frozen memtable to an SST, and installs that SST into L0 (spec §4.8,
// §5's "Sync serialization"). At most one sync runs at a time; concurrent
// readers always see a consistent state because the frozen memtable and
// its eventual SST cover the same keys and reader precedence puts the
// newer source first regardless of which is currently installed.
func (e *Engine) Sync() error {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	e.stateMu.Lock()
	cur := e.state
	if cur.active.IsEmpty() {
		e.stateMu.Unlock()
		return nil
	}
	fresh := memtable.New(cur.nextSstID)
	next := cur.withFrozenActive(fresh)
	e.state = next
	e.stateMu.Unlock()

	toFlush := next.frozen[len(next.frozen)-1]

	builder := sstable.NewBuilder(e.blockSize, e.expectedKeysPerSst)
	if err := toFlush.Flush(builder); err != nil {
		return fmt.Errorf("engine: flushing memtable %d: %w", toFlush.ID(), err)
	}
	table, err := builder.Build(toFlush.ID(), e.dir)
	if err != nil {
		return fmt.Errorf("engine: building sst %d: %w", toFlush.ID(), err)
	}

	e.stateMu.Lock()
	e.state = e.state.withFlushedTable(table)
	e.stateMu.Unlock()

	return nil
}

// Scan returns a fused iterator over the keys between lower and upper, each
// bound included, excluded or unbounded according to its Kind; the newest
// value wins for any duplicated key across sources (spec §2/§4.8).
func (e *Engine) Scan(lower, upper kviter.Bound) (kviter.StorageIterator, error) {
	s := e.snapshot()

	memSources := []kviter.StorageIterator{s.active.Scan(lower, upper)}
	for i := len(s.frozen) - 1; i >= 0; i-- {
		memSources = append(memSources, s.frozen[i].Scan(lower, upper))
	}
	memMerged, err := kviter.NewMergeIterator(memSources)
	if err != nil {
		return nil, err
	}

	var diskSources []kviter.StorageIterator
	for i := len(s.l0) - 1; i >= 0; i-- {
		it, err := l0PointOrFirstIterator(s.l0[i], lower)
		if err != nil {
			return nil, err
		}
		diskSources = append(diskSources, it)
	}
	diskMerged, err := kviter.NewMergeIterator(diskSources)
	if err != nil {
		return nil, err
	}

	fused, err := kviter.NewTwoMergeIterator(memMerged, diskMerged)
	if err != nil {
		return nil, err
	}
	lsmIt, err := kviter.NewLsmIterator(fused, upper)
	if err != nil {
		return nil, err
	}
	return kviter.NewFusedIterator(lsmIt), nil
}

// l0PointOrFirstIterator seeks table according to the lower bound's kind,
// exactly as spec §4.8 describes: Included(k) seeks to k; Excluded(k) seeks
// to k and advances past an exact landing match; Unbounded seeks to first.
func l0PointOrFirstIterator(table *sstable.SsTable, lower kviter.Bound) (*sstable.Iterator, error) {
	switch lower.Kind {
	case kviter.Unbounded:
		return sstable.NewAndSeekToFirst(table)
	case kviter.Included:
		it, err := sstable.NewAndSeekToKey(table, lower.Key)
		if err != nil {
			return emptyTableIteratorOnKeyPastEnd(table, err)
		}
		return it, nil
	case kviter.Excluded:
		it, err := sstable.NewAndSeekToKey(table, lower.Key)
		if err != nil {
			return emptyTableIteratorOnKeyPastEnd(table, err)
		}
		if it.Valid() && string(it.Key()) == string(lower.Key) {
			if err := it.Next(); err != nil {
				return nil, err
			}
		}
		return it, nil
	default:
		return sstable.NewAndSeekToFirst(table)
	}
}

// emptyTableIteratorOnKeyPastEnd turns sstable.ErrKeyPastLastBlock into a
// correctly-exhausted iterator instead of a scan-ending error: the lower
// bound sorting after every key in this table simply means this table
// contributes nothing to the scan.
func emptyTableIteratorOnKeyPastEnd(table *sstable.SsTable, err error) (*sstable.Iterator, error) {
	if sstable.IsKeyPastLastBlock(err) {
		it, openErr := sstable.NewAndSeekToFirst(table)
		if openErr != nil {
			return nil, openErr
		}
		for it.Valid() {
			if err := it.Next(); err != nil {
				return nil, err
			}
		}
		return it, nil
	}
	return nil, err
}
