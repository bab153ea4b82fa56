// Package pebblestore keeps matches and participants in an embedded Pebble
// database for single-node deployments.
package pebblestore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/spec-kit/match-service/internal/repository"
)

const (
	matchPrefix            = "match/"
	matchPairPrefix        = "match-pair/"
	participantPrefix      = "participant/"
	participantEmailPrefix = "participant-email/"
)

// DB owns the Pebble handle shared by the match and participant stores.
// Writes that touch more than one key are serialized by mu and committed as
// one batch.
type DB struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open opens or creates the database in dir.
func Open(dir string) (*DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &DB{db: db}, nil
}

// Close flushes and closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// get returns a copy of the value stored at key.
func (d *DB) get(key string) ([]byte, error) {
	val, closer, err := d.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// scan calls fn with a copy of every value under prefix, in key order.
func (d *DB) scan(prefix string, fn func(val []byte) error) error {
	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(append([]byte(nil), iter.Value()...)); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (d *DB) commit(apply func(b *pebble.Batch) error) error {
	batch := d.db.NewBatch()
	defer batch.Close()
	if err := apply(batch); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}
