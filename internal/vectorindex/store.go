package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrCacheMiss means there is no usable snapshot on disk: files are missing, corrupt,
// or belong to different builds.
var ErrCacheMiss = errors.New("index cache miss")

// Paths locate the three artifacts of a snapshot.
type Paths struct {
	Index      string
	Mapping    string
	MasterData string
}

// MappingRow ties an index row back to the submitted job list.
type MappingRow struct {
	Row      int    `json:"row"`
	Position int    `json:"position"`
	JobID    string `json:"job_id"`
}

// Snapshot is everything needed to answer queries without re-embedding.
type Snapshot struct {
	Fingerprint string
	Index       Index
	Mapping     []MappingRow
	// Jobs is the JSON array of the records the index was built from.
	Jobs json.RawMessage
}

type mappingFile struct {
	Fingerprint string       `json:"fingerprint"`
	Kind        Kind         `json:"kind"`
	Dim         int          `json:"dim"`
	Rows        []MappingRow `json:"rows"`
}

type masterDataFile struct {
	Fingerprint string          `json:"fingerprint"`
	Jobs        json.RawMessage `json:"jobs"`
}

// Store persists snapshots. Writers are serialised and every file is replaced by rename,
// so readers see whole files. All three files carry the build fingerprint; a load that
// finds mixed fingerprints is treated as a miss.
type Store struct {
	paths Paths
	mu    sync.RWMutex
}

func NewStore(paths Paths) *Store {
	return &Store{paths: paths}
}

func (s *Store) Paths() Paths { return s.paths }

func (s *Store) Save(snap *Snapshot) error {
	if snap == nil || snap.Index == nil {
		return errors.New("save: empty snapshot")
	}
	if len(snap.Mapping) != snap.Index.Len() {
		return fmt.Errorf("save: mapping has %d rows, index has %d", len(snap.Mapping), snap.Index.Len())
	}

	indexBytes, err := EncodeIndex(snap.Index, snap.Fingerprint)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	mappingBytes, err := json.Marshal(mappingFile{
		Fingerprint: snap.Fingerprint,
		Kind:        snap.Index.Kind(),
		Dim:         snap.Index.Dim(),
		Rows:        snap.Mapping,
	})
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	jobs := snap.Jobs
	if len(jobs) == 0 {
		jobs = json.RawMessage("[]")
	}
	masterBytes, err := json.Marshal(masterDataFile{Fingerprint: snap.Fingerprint, Jobs: jobs})
	if err != nil {
		return fmt.Errorf("encode master data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range []struct {
		path string
		data []byte
	}{
		{s.paths.Index, indexBytes},
		{s.paths.Mapping, mappingBytes},
		{s.paths.MasterData, masterBytes},
	} {
		if err := writeFileAtomic(f.path, f.data); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the snapshot. Every failure is wrapped in ErrCacheMiss.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indexBytes, err := os.ReadFile(s.paths.Index)
	if err != nil {
		return nil, miss("read index", err)
	}
	idx, fp, err := DecodeIndex(indexBytes)
	if err != nil {
		return nil, miss("decode index", err)
	}

	var mapping mappingFile
	if err := readJSON(s.paths.Mapping, &mapping); err != nil {
		return nil, miss("mapping", err)
	}
	var master masterDataFile
	if err := readJSON(s.paths.MasterData, &master); err != nil {
		return nil, miss("master data", err)
	}

	if mapping.Fingerprint != fp || master.Fingerprint != fp {
		return nil, miss("fingerprint", errors.New("artifacts come from different builds"))
	}
	if len(mapping.Rows) != idx.Len() || mapping.Kind != idx.Kind() || mapping.Dim != idx.Dim() {
		return nil, miss("mapping", fmt.Errorf("mapping (%d rows) does not match index (%d rows)", len(mapping.Rows), idx.Len()))
	}
	for i, row := range mapping.Rows {
		if row.Row != i || row.Position < 0 {
			return nil, miss("mapping", fmt.Errorf("row %d out of order", i))
		}
	}

	return &Snapshot{
		Fingerprint: fp,
		Index:       idx,
		Mapping:     mapping.Rows,
		Jobs:        master.Jobs,
	}, nil
}

func miss(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCacheMiss, stage, err)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeFileAtomic writes to a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
