package bench

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"github.com/vmihailenco/msgpack/v5"
)

var entryPrefix = []byte("entry/")

// Entry is a stored benchmark result.
type Entry struct {
	ID        uuid.UUID `msgpack:"id"`
	Benchmark Benchmark `msgpack:"benchmark"`
	Result    Result    `msgpack:"result"`
	Finished  time.Time `msgpack:"finished"`
}

// Store keeps benchmark results in a badger database, one entry per
// benchmark configuration.
type Store struct {
	db   *badger.DB
	path string
}

// OpenStore opens the store at path, creating it if needed. An empty path
// opens an in-memory store.
func OpenStore(path string) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create result store directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(commonlog.GetLogger("lime.bench.store"))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the store directory, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(b Benchmark) []byte {
	key, err := msgpack.Marshal(&b)
	if err != nil {
		panic(fmt.Sprintf("bench: encoding key of %s: %s", b, err))
	}
	return append(append([]byte(nil), entryPrefix...), key...)
}

// Put stores e, replacing any entry for the same benchmark.
func (s *Store) Put(e Entry) error {
	val, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", e.Benchmark, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(e.Benchmark), val)
	})
}

// Get returns the entry stored for b.
func (s *Store) Get(b Benchmark) (Entry, bool, error) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(b))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &e)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read entry %s: %w", b, err)
	}
	return e, true, nil
}

// All returns every stored entry.
func (s *Store) All() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode entry: %w", err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
