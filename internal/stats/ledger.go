// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package stats

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const dirtyKeyPrefix = "dirty:"

// DirtyLedger durably tracks screenshot ids awaiting reconciliation, so
// requestStatsUpdate survives a process restart between drains (spec.md
// §4.8: "appends to an in-process set of dirty ids"), grounded on the
// teacher's BadgerDB-backed session store.
type DirtyLedger struct {
	db *badger.DB
}

// OpenDirtyLedger opens (creating if necessary) the BadgerDB store at path.
func OpenDirtyLedger(path string) (*DirtyLedger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats ledger: %w", err)
	}
	return &DirtyLedger{db: db}, nil
}

// Close closes the underlying BadgerDB handle.
func (l *DirtyLedger) Close() error {
	return l.db.Close()
}

// MarkDirty records id as needing reconciliation.
func (l *DirtyLedger) MarkDirty(id string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(dirtyKeyPrefix+id), nil)
	})
}

// DrainAll returns every currently dirty id and clears the ledger. Ids
// added concurrently with a drain may or may not be included; the next
// five-minute cron picks up anything missed.
func (l *DirtyLedger) DrainAll() ([]string, error) {
	var ids []string

	err := l.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(dirtyKeyPrefix)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			keys = append(keys, key)
			ids = append(ids, string(key[len(dirtyKeyPrefix):]))
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to delete dirty key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain dirty ledger: %w", err)
	}
	return ids, nil
}
