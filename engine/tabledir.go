package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/arjunvedant/stratakv/sstable"
	"github.com/arjunvedant/stratakv/sstfile"
)

var tableFileNamePattern = regexp.MustCompile(`^(\d{6})\.sst$`)

type tableEntry struct {
	id   uint64
	name string
}

type tableEntries []tableEntry

func (a tableEntries) Len() int           { return len(a) }
func (a tableEntries) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a tableEntries) Less(i, j int) bool { return a[i].id < a[j].id }

func isDirectoryValid(path string) error {
	fileInfo, err := os.Stat(path)
	if err == nil {
		if fileInfo.IsDir() {
			return nil
		}
		return fmt.Errorf("path exists but is not a directory: %s", path)
	}
	return err
}

// scanTableDir opens dir (creating it if absent), discovers every existing
// NNNNNN.sst table ordered oldest to newest, and reports the next unused
// table id — resuming LsmState.next_sst_id across process restarts (spec
// §3, §4.8). Adapted from the teacher's segmentmanager directory scan,
// repointed at SST files instead of log segments.
func scanTableDir(dir string) (tables []*sstable.SsTable, nextID uint64, err error) {
	if err := isDirectoryValid(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, 0, err
			}
			return nil, 1, nil
		}
		return nil, 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	var found tableEntries
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		matches := tableFileNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		id, err := strconv.ParseUint(matches[1], 10, 64)
		if err != nil {
			continue
		}
		found = append(found, tableEntry{id: id, name: entry.Name()})
	}

	if len(found) == 0 {
		return nil, 1, nil
	}

	sort.Sort(found)

	tables = make([]*sstable.SsTable, 0, len(found))
	for _, e := range found {
		f, err := sstfile.Open(filepath.Join(dir, e.name))
		if err != nil {
			return nil, 0, fmt.Errorf("opening table %s: %w", e.name, err)
		}
		t, err := sstable.Open(e.id, f)
		if err != nil {
			return nil, 0, fmt.Errorf("opening table %s: %w", e.name, err)
		}
		tables = append(tables, t)
	}

	return tables, found[len(found)-1].id + 1, nil
}
