package memtable

import (
	"fmt"
	"sync"
	"testing"

	"github.com/arjunvedant/stratakv/kviter"
	"github.com/arjunvedant/stratakv/sstable"
)

func collect(it *Iterator) [][2]string {
	var got [][2]string
	for it.Valid() {
		got = append(got, [2]string{string(it.Key()), string(it.Value())})
		_ = it.Next()
	}
	return got
}

func TestPutGetDelete(t *testing.T) {
	m := New(1)

	if _, ok := m.Get([]byte("k1")); ok {
		t.Fatal("expected miss on empty memtable")
	}

	m.Put([]byte("k1"), []byte("v1"))
	v, ok := m.Get([]byte("k1"))
	if !ok || string(v) != "v1" {
		t.Fatalf("got (%s,%v), want (v1,true)", v, ok)
	}

	m.Delete([]byte("k1"))
	v, ok = m.Get([]byte("k1"))
	if !ok {
		t.Fatal("expected tombstone to remain visible at the memtable layer")
	}
	if len(v) != 0 {
		t.Fatalf("expected empty tombstone value, got %q", v)
	}
}

func TestScanUnboundedUnbounded(t *testing.T) {
	m := New(1)
	m.Put([]byte("k1"), []byte("v1"))
	m.Put([]byte("k2"), []byte("v2"))

	got := collect(m.Scan(kviter.Unbound(), kviter.Unbound()))
	want := [][2]string{{"k1", "v1"}, {"k2", "v2"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanBoundCombinations(t *testing.T) {
	m := New(1)
	for i := 0; i < 5; i++ {
		m.Put([]byte(fmt.Sprintf("k%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}

	cases := []struct {
		name         string
		lower, upper kviter.Bound
		wantKeys     []string
	}{
		{"unbounded-included-upper", kviter.Unbound(), kviter.IncludedBound([]byte("k2")), []string{"k0", "k1", "k2"}},
		{"unbounded-excluded-upper", kviter.Unbound(), kviter.ExcludedBound([]byte("k2")), []string{"k0", "k1"}},
		{"included-lower-unbounded", kviter.IncludedBound([]byte("k2")), kviter.Unbound(), []string{"k2", "k3", "k4"}},
		{"excluded-lower-unbounded", kviter.ExcludedBound([]byte("k2")), kviter.Unbound(), []string{"k3", "k4"}},
		{"included-both", kviter.IncludedBound([]byte("k1")), kviter.IncludedBound([]byte("k3")), []string{"k1", "k2", "k3"}},
		{"excluded-both", kviter.ExcludedBound([]byte("k1")), kviter.ExcludedBound([]byte("k3")), []string{"k2"}},
		{"empty-range", kviter.ExcludedBound([]byte("k2")), kviter.IncludedBound([]byte("k2")), nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := collect(m.Scan(c.lower, c.upper))
			if len(got) != len(c.wantKeys) {
				t.Fatalf("got %v, want keys %v", got, c.wantKeys)
			}
			for i, k := range c.wantKeys {
				if got[i][0] != k {
					t.Fatalf("entry %d: got key %q, want %q", i, got[i][0], k)
				}
			}
		})
	}
}

func TestScanSnapshotIsStableAcrossConcurrentWrites(t *testing.T) {
	m := New(1)
	for i := 0; i < 100; i++ {
		m.Put([]byte(fmt.Sprintf("k%03d", i)), []byte(fmt.Sprintf("v%03d", i)))
	}

	it := m.Scan(kviter.Unbound(), kviter.Unbound())

	m.Put([]byte("k050"), []byte("overwritten"))
	m.Put([]byte("new"), []byte("entry"))

	got := collect(it)
	if len(got) != 100 {
		t.Fatalf("expected snapshot of 100 entries, got %d", len(got))
	}
	if got[50] != [2]string{"k050", "v050"} {
		t.Fatalf("snapshot should not observe the overwrite, got %v", got[50])
	}
}

func TestConcurrentPutIsSafe(t *testing.T) {
	m := New(1)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-k%03d", g, i)
				m.Put([]byte(key), []byte("v"))
			}
		}(g)
	}
	wg.Wait()

	got := collect(m.Scan(kviter.Unbound(), kviter.Unbound()))
	if len(got) != 800 {
		t.Fatalf("expected 800 entries, got %d", len(got))
	}
}

func TestApproximateSizeAndIsEmpty(t *testing.T) {
	m := New(1)
	if !m.IsEmpty() {
		t.Fatal("expected new memtable to be empty")
	}
	if m.ApproximateSize() != 0 {
		t.Fatalf("expected size 0, got %d", m.ApproximateSize())
	}

	m.Put([]byte("ab"), []byte("cde"))
	if m.IsEmpty() {
		t.Fatal("expected non-empty memtable")
	}
	if got := m.ApproximateSize(); got != 5 {
		t.Fatalf("expected size 5, got %d", got)
	}
}

func TestScanWithOverwriteAndTombstoneInRange(t *testing.T) {
	m := New(1)
	for i := 0; i < 100; i++ {
		m.Put([]byte(fmt.Sprintf("k%03d", i)), []byte(fmt.Sprintf("v%03d", i)))
	}
	m.Put([]byte("k050"), []byte("v050-updated"))
	m.Delete([]byte("k010"))

	got := collect(m.Scan(kviter.IncludedBound([]byte("k005")), kviter.ExcludedBound([]byte("k015"))))
	if len(got) != 10 {
		t.Fatalf("expected 10 entries in [k005,k015), got %d", len(got))
	}
	foundTombstone := false
	for _, kv := range got {
		if kv[0] == "k010" {
			foundTombstone = true
			if kv[1] != "" {
				t.Fatalf("expected k010 to carry a tombstone, got %q", kv[1])
			}
		}
	}
	if !foundTombstone {
		t.Fatal("expected to find the deleted key's tombstone in the scan")
	}
}

func TestFlushWritesAllEntriesInOrder(t *testing.T) {
	m := New(1)
	for i := 0; i < 50; i++ {
		m.Put([]byte(fmt.Sprintf("k%03d", i)), []byte(fmt.Sprintf("v%03d", i)))
	}
	m.Delete([]byte("k010"))

	builder := sstable.NewBuilder(4096, 50)
	if err := m.Flush(builder); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dir := t.TempDir()
	table, err := builder.Build(1, dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	it, err := sstable.NewAndSeekToFirst(table)
	if err != nil {
		t.Fatalf("NewAndSeekToFirst: %v", err)
	}

	count := 0
	for it.Valid() {
		wantKey := fmt.Sprintf("k%03d", count)
		if string(it.Key()) != wantKey {
			t.Fatalf("entry %d: got key %q, want %q", count, it.Key(), wantKey)
		}
		if wantKey == "k010" && len(it.Value()) != 0 {
			t.Fatalf("expected flushed tombstone for k010, got %q", it.Value())
		}
		count++
		if err := it.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if count != 50 {
		t.Fatalf("expected 50 flushed entries, got %d", count)
	}
}
