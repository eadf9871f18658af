// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/metrics"
)

const offenderKeyPrefix = "offender:"

const (
	// writeStripes serializes same-player writes inside one process.
	writeStripes = 64

	// maxConflictRetries bounds retries of a transaction that lost a
	// conflict to a concurrent Delete or Purge.
	maxConflictRetries = 8
)

// ErrOffenderNotFound is returned when a player has no offender record.
var ErrOffenderNotFound = errors.New("offender not found")

// OffenderRecord tracks how often a player has been handled.
type OffenderRecord struct {
	Player        string    `json:"player"`
	Offenses      int       `json:"offenses"`
	ManualFlags   int       `json:"manual_flags"`
	FirstOffense  time.Time `json:"first_offense"`
	LastOffense   time.Time `json:"last_offense"`
	LastSuspicion float64   `json:"last_suspicion"`
	LastMaterial  string    `json:"last_material,omitempty"`
	LastReason    string    `json:"last_reason,omitempty"`
}

// OffenderStore persists offender records in BadgerDB.
type OffenderStore struct {
	db       *badger.DB
	inMemory bool

	stripes [writeStripes]sync.Mutex
}

// OpenOffenderStore opens (or creates) the store at path. An empty path
// opens an in-memory store.
func OpenOffenderStore(path string) (*OffenderStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for offenders: %w", err)
	}
	return &OffenderStore{db: db, inMemory: path == ""}, nil
}

// NewOffenderStoreFromDB wraps an already opened database.
func NewOffenderStoreFromDB(db *badger.DB) *OffenderStore {
	return &OffenderStore{db: db, inMemory: db.Opts().InMemory}
}

func offenderKey(player string) []byte {
	return []byte(offenderKeyPrefix + player)
}

func (s *OffenderStore) stripe(player string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(player))
	return &s.stripes[h.Sum32()%writeStripes]
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *OffenderStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("offender update after %d attempts: %w", maxConflictRetries, err)
}

// RecordOffense folds one signal into the player's record and returns the
// updated record. Offenses == 1 marks a first-time offender.
func (s *OffenderStore) RecordOffense(ctx context.Context, sig heuristics.Signal) (OffenderRecord, error) {
	if err := ctx.Err(); err != nil {
		return OffenderRecord{}, err
	}
	at := sig.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	mu := s.stripe(sig.Player)
	mu.Lock()
	defer mu.Unlock()

	var rec OffenderRecord
	err := s.update(func(txn *badger.Txn) error {
		rec = OffenderRecord{}
		key := offenderKey(sig.Player)
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			rec = OffenderRecord{Player: sig.Player, FirstOffense: at}
		case err != nil:
			return fmt.Errorf("get offender: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal offender: %w", err)
			}
		}

		rec.Offenses++
		if sig.Manual {
			rec.ManualFlags++
		}
		if at.After(rec.LastOffense) {
			rec.LastOffense = at
		}
		if at.Before(rec.FirstOffense) {
			rec.FirstOffense = at
		}
		rec.LastSuspicion = sig.Suspicion
		rec.LastMaterial = string(sig.Material)
		rec.LastReason = sig.Reason

		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshal offender: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return OffenderRecord{}, err
	}
	metrics.RecordOffense()
	return rec, nil
}

// Get returns the record for player.
func (s *OffenderStore) Get(_ context.Context, player string) (*OffenderRecord, error) {
	var rec OffenderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(offenderKey(player))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrOffenderNotFound
		}
		if err != nil {
			return fmt.Errorf("get offender: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every record ordered by offense count, highest first.
func (s *OffenderStore) List(_ context.Context) ([]OffenderRecord, error) {
	var records []OffenderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(offenderKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec OffenderRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list offenders: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Offenses != records[j].Offenses {
			return records[i].Offenses > records[j].Offenses
		}
		return records[i].Player < records[j].Player
	})
	return records, nil
}

// Delete absolves one player.
func (s *OffenderStore) Delete(_ context.Context, player string) error {
	mu := s.stripe(player)
	mu.Lock()
	defer mu.Unlock()

	return s.update(func(txn *badger.Txn) error {
		key := offenderKey(player)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrOffenderNotFound
		} else if err != nil {
			return fmt.Errorf("get offender: %w", err)
		}
		return txn.Delete(key)
	})
}

// Purge absolves every player and returns how many records were removed.
func (s *OffenderStore) Purge(_ context.Context) (int, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(offenderKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan offenders: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete offender: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush purge: %w", err)
	}
	return len(keys), nil
}

// Count returns the number of stored records.
func (s *OffenderStore) Count(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(offenderKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// RunGC reclaims value-log space until nothing is left to rewrite.
// In-memory stores have no value log and return nil.
func (s *OffenderStore) RunGC(discardRatio float64) error {
	if s.inMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log gc: %w", err)
		}
	}
}

// Close closes the database.
func (s *OffenderStore) Close() error {
	return s.db.Close()
}
