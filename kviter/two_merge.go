package kviter

import "bytes"

// TwoMergeIterator fuses two iterators, A and B, preferring A on a key
// collision (spec §4.6). It is used to fuse the memtable-chain merge
// (higher precedence) with the on-disk merge (lower precedence).
type TwoMergeIterator struct {
	a, b StorageIterator
	useA bool
}

var _ StorageIterator = (*TwoMergeIterator)(nil)

// NewTwoMergeIterator builds a TwoMergeIterator over a (preferred) and b.
func NewTwoMergeIterator(a, b StorageIterator) (*TwoMergeIterator, error) {
	m := &TwoMergeIterator{a: a, b: b}
	if err := m.skipB(); err != nil {
		return nil, err
	}
	m.chooseSide()
	return m, nil
}

// skipB advances b past any key that a currently holds, since a always
// wins a collision and b's copy would otherwise be visited redundantly. A
// failed advance is propagated rather than left as b's stale position,
// which chooseSide would otherwise read as b's current (wrong) key.
func (m *TwoMergeIterator) skipB() error {
	if !m.a.Valid() {
		return nil
	}
	for m.b.Valid() && bytes.Equal(m.a.Key(), m.b.Key()) {
		if err := m.b.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (m *TwoMergeIterator) chooseSide() {
	switch {
	case !m.a.Valid():
		m.useA = false
	case !m.b.Valid():
		m.useA = true
	default:
		m.useA = bytes.Compare(m.a.Key(), m.b.Key()) <= 0
	}
}

// Valid reports whether the iterator is positioned on an entry.
func (m *TwoMergeIterator) Valid() bool {
	if m.useA {
		return m.a.Valid()
	}
	return m.b.Valid()
}

// Key returns the current entry's key.
func (m *TwoMergeIterator) Key() []byte {
	if m.useA {
		return m.a.Key()
	}
	return m.b.Key()
}

// Value returns the current entry's value.
func (m *TwoMergeIterator) Value() []byte {
	if m.useA {
		return m.a.Value()
	}
	return m.b.Value()
}

// Next advances the winning side, then re-synchronizes b past any key a now
// holds and re-chooses which side leads.
func (m *TwoMergeIterator) Next() error {
	if m.useA {
		if err := m.a.Next(); err != nil {
			return err
		}
	} else {
		if err := m.b.Next(); err != nil {
			return err
		}
	}
	if err := m.skipB(); err != nil {
		return err
	}
	m.chooseSide()
	return nil
}
