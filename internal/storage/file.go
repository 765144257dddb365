package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "pdbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.snapshot.json (periodic snapshot of the whole state)
//   - <prefix>.journal.jsonl (append-only journal)
//
// The journal is periodically compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	journalFile  *os.File

	dedup map[string]int64 // unix milli
	flags map[string]bool
	blobs map[string][]byte

	writes int
}

type journalRecord struct {
	Kind  string `json:"kind"` // "dedup" | "flag" | "blob"
	Key   string `json:"key"`
	Until int64  `json:"until,omitempty"`
	On    bool   `json:"on,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

type snapshotState struct {
	Dedup map[string]int64  `json:"dedup,omitempty"`
	Flags map[string]bool   `json:"flags,omitempty"`
	Blobs map[string][]byte `json:"blobs,omitempty"`
}

const compactEvery = 512

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	snapPath := prefix + ".snapshot.json"
	journalPath := prefix + ".journal.jsonl"

	s := &fileStore{
		log:          log,
		snapshotPath: snapPath,
		dedup:        map[string]int64{},
		flags:        map[string]bool{},
		blobs:        map[string][]byte{},
	}

	// Load snapshot then replay journal on top of it.
	_ = s.loadSnapshot(snapPath)
	_ = s.replayJournal(journalPath)
	pruneExpiredDedup(s.dedup)

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	s.journalFile = jf

	return s, nil
}

func (s *fileStore) loadSnapshot(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var st snapshotState
	if err := json.Unmarshal(b, &st); err != nil {
		return err
	}
	if st.Dedup != nil {
		s.dedup = st.Dedup
	}
	if st.Flags != nil {
		s.flags = st.Flags
	}
	if st.Blobs != nil {
		s.blobs = st.Blobs
	}
	return nil
}

func (s *fileStore) replayJournal(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec journalRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Torn tail write; stop replaying.
			break
		}
		s.applyRecord(rec)
	}
	return sc.Err()
}

func (s *fileStore) applyRecord(rec journalRecord) {
	switch rec.Kind {
	case "dedup":
		s.dedup[rec.Key] = rec.Until
	case "flag":
		if rec.On {
			s.flags[rec.Key] = true
		} else {
			delete(s.flags, rec.Key)
		}
	case "blob":
		s.blobs[rec.Key] = rec.Data
	}
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.journalFile != nil {
		// Final compact keeps the journal short across restarts.
		if cerr := s.compactLocked(); cerr != nil {
			s.log.Debug("final compact failed", logx.Err(cerr))
		}
		err = s.journalFile.Close()
		s.journalFile = nil
	}
	return err
}

func (s *fileStore) append(rec journalRecord) error {
	if s.journalFile == nil {
		return errors.New("journal closed")
	}
	enc := json.NewEncoder(s.journalFile)
	if err := enc.Encode(rec); err != nil {
		return err
	}
	s.writes++
	if s.writes%compactEvery == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) PutDedup(ctx context.Context, key string, until time.Time) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	ms := until.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedup[key] = ms
	return s.append(journalRecord{Kind: "dedup", Key: key, Until: ms})
}

func (s *fileStore) GetDedup(ctx context.Context, key string) (time.Time, bool, error) {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return time.Time{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.dedup[key]
	if !ok {
		return time.Time{}, false, nil
	}
	until := time.UnixMilli(ms)
	if !until.After(time.Now()) {
		// Expired keys read as absent; the journal replay drops them too.
		delete(s.dedup, key)
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (s *fileStore) SetFlag(ctx context.Context, key string, on bool) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.flags[key] = true
	} else {
		delete(s.flags, key)
	}
	return s.append(journalRecord{Kind: "flag", Key: key, On: on})
}

func (s *fileStore) GetFlag(ctx context.Context, key string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[strings.TrimSpace(key)], nil
}

func (s *fileStore) PutBlob(ctx context.Context, key string, data []byte) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	cp := append([]byte(nil), data...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = cp
	return s.append(journalRecord{Kind: "blob", Key: key, Data: cp})
}

func (s *fileStore) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[strings.TrimSpace(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *fileStore) compactLocked() error {
	pruneExpiredDedup(s.dedup)

	st := snapshotState{Dedup: s.dedup, Flags: s.flags, Blobs: s.blobs}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}

	tmp := s.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}

	// Truncate the journal now that the snapshot holds everything.
	if s.journalFile != nil {
		if err := s.journalFile.Truncate(0); err != nil {
			return err
		}
		if _, err := s.journalFile.Seek(0, 0); err != nil {
			return err
		}
	}
	return nil
}

func pruneExpiredDedup(dedup map[string]int64) {
	now := time.Now().UnixMilli()
	for k, until := range dedup {
		if until > 0 && until < now {
			delete(dedup, k)
		}
	}
}
