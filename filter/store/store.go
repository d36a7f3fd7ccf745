// Package store persists interchange-encoded field records in BadgerDB
// so captured inputs can be replayed into execution contexts later.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/wbrown/janus-filter/filter"
)

// ErrNotFound is returned when no record exists under a given ID.
var ErrNotFound = errors.New("record not found")

var recordPrefix = []byte("record/")

// Record is one evaluation input: interchange-encoded values keyed by
// field name. Values stay in their raw JSON form until they are
// replayed against a scheme, since decoding is kind-inferring and needs
// no type information.
type Record map[string]json.RawMessage

// RecordStore is a BadgerDB-backed store of records keyed by ID.
type RecordStore struct {
	db *badger.DB
}

// Open opens (or creates) a record store at the given path. An empty
// path opens a transient in-memory store.
func Open(path string) (*RecordStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &RecordStore{db: db}, nil
}

// Close releases the underlying database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

func recordKey(id string) []byte {
	return append(append([]byte{}, recordPrefix...), id...)
}

// Put stores a record under an ID, replacing any previous record.
func (s *RecordStore) Put(id string, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %q: %w", id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(id), data)
	})
}

// Get loads the record stored under an ID.
func (s *RecordStore) Get(id string) (Record, error) {
	var record Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the record stored under an ID, if any.
func (s *RecordStore) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
}

// Each calls fn for every stored record in key order. Iteration stops
// at the first error, which is returned.
func (s *RecordStore) Each(fn func(id string, record Record) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(recordPrefix); it.ValidForPrefix(recordPrefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(recordPrefix):])
			var record Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to decode record %q: %w", id, err)
			}
			if err := fn(id, record); err != nil {
				return err
			}
		}
		return nil
	})
}

// PopulateContext replays a record into an execution context through
// the checked set API. Every field named by the record must exist in
// the context's scheme and its decoded value must match the declared
// type; the first failure is returned with the field name attached.
func PopulateContext(ctx *filter.ExecutionContext, record Record) error {
	scheme := ctx.Scheme()
	for name, raw := range record {
		if _, ok := scheme.GetField(name); !ok {
			return fmt.Errorf("record field %q is not registered in the scheme", name)
		}
		value, err := filter.UnmarshalLhsValue(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if err := ctx.SetFieldValue(name, value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}
