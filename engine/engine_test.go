package engine

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/arjunvedant/stratakv/kviter"
)

func drainKV(t *testing.T, it kviter.StorageIterator) [][2]string {
	t.Helper()
	var got [][2]string
	for it.Valid() {
		got = append(got, [2]string{string(it.Key()), string(it.Value())})
		if err := it.Next(); err != nil {
			t.Fatal(err)
		}
	}
	return got
}

func assertKV(t *testing.T, got, want [][2]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func mustGet(t *testing.T, e *Engine, key string) (string, bool) {
	t.Helper()
	v, ok, err := e.Get([]byte(key))
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	return string(v), ok
}

func TestPutAndScanFull(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := e.Put([]byte("k2"), []byte("v2")); err != nil {
		t.Fatal(err)
	}

	it, err := e.Scan(kviter.Unbound(), kviter.Unbound())
	if err != nil {
		t.Fatal(err)
	}
	assertKV(t, drainKV(t, it), [][2]string{{"k1", "v1"}, {"k2", "v2"}})
}

func TestOverwriteVisibleOnGet(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := e.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatal(err)
	}

	v, ok := mustGet(t, e, "k")
	if !ok || v != "v2" {
		t.Fatalf("got (%q,%v), want (v2,true)", v, ok)
	}
}

func TestDeleteHidesKeyFromGetAndScan(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := e.Delete([]byte("k")); err != nil {
		t.Fatal(err)
	}

	if _, ok := mustGet(t, e, "k"); ok {
		t.Fatal("expected absent after delete")
	}

	it, err := e.Scan(kviter.Unbound(), kviter.Unbound())
	if err != nil {
		t.Fatal(err)
	}
	if got := drainKV(t, it); len(got) != 0 {
		t.Fatalf("expected empty scan, got %v", got)
	}
}

func TestSyncFlushesAndOverwriteOutrunsTable(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%03d", i)
		val := bytes.Repeat([]byte{byte('a' + i%26)}, 200)
		if err := e.Put([]byte(key), val); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.Sync(); err != nil {
		t.Fatal(err)
	}

	if err := e.Put([]byte("k050"), []byte("new")); err != nil {
		t.Fatal(err)
	}

	v, ok := mustGet(t, e, "k050")
	if !ok || v != "new" {
		t.Fatalf("k050: got (%q,%v), want (new,true)", v, ok)
	}

	original := string(bytes.Repeat([]byte{byte('a' + 0%26)}, 200))
	v, ok = mustGet(t, e, "k000")
	if !ok || v != original {
		t.Fatalf("k000: got ok=%v, want original value to survive the sync", ok)
	}

	it, err := e.Scan(kviter.IncludedBound([]byte("k049")), kviter.ExcludedBound([]byte("k051")))
	if err != nil {
		t.Fatal(err)
	}
	got := drainKV(t, it)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if got[0][0] != "k049" {
		t.Fatalf("expected first entry k049, got %v", got[0])
	}
	if got[1][0] != "k050" || got[1][1] != "new" {
		t.Fatalf("expected k050 to carry the post-sync overwrite, got %v", got[1])
	}
}

func TestRepeatedSyncKeepsLatestValue(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := e.Sync(); err != nil {
		t.Fatal(err)
	}
	if err := e.Put([]byte("a"), []byte("2")); err != nil {
		t.Fatal(err)
	}
	if err := e.Sync(); err != nil {
		t.Fatal(err)
	}

	it, err := e.Scan(kviter.Unbound(), kviter.Unbound())
	if err != nil {
		t.Fatal(err)
	}
	assertKV(t, drainKV(t, it), [][2]string{{"a", "2"}})
}

func TestPutRejectsEmptyKeyOrValue(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Put(nil, []byte("v")); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := e.Put([]byte("k"), nil); err == nil {
		t.Fatal("expected error for empty value")
	}
}

func TestOpenResumesFromExistingTables(t *testing.T) {
	dir := t.TempDir()

	e, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := e.Sync(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	v, ok := mustGet(t, reopened, "k")
	if !ok || v != "v" {
		t.Fatalf("got (%q,%v), want (v,true) after reopen", v, ok)
	}

	if err := reopened.Put([]byte("k2"), []byte("v2")); err != nil {
		t.Fatal(err)
	}
	if err := reopened.Sync(); err != nil {
		t.Fatal(err)
	}
}

func TestScanWithNoL0TablesYet(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	it, err := e.Scan(kviter.Unbound(), kviter.Unbound())
	if err != nil {
		t.Fatal(err)
	}
	if got := drainKV(t, it); len(got) != 0 {
		t.Fatalf("expected empty scan over an empty engine, got %v", got)
	}
}
