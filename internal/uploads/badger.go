package uploads

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// BadgerSessionStore persists upload sessions to an embedded badger KV
// store, so in-flight uploads survive a server restart. Entries carry a
// TTL as a backstop; the coordinator's sweeper remains the authority on
// expiry because it also removes the chunk files on disk.
type BadgerSessionStore struct {
	db  *badger.DB
	ttl time.Duration
}

func NewBadgerSessionStore(dir string, ttl time.Duration) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerSessionStore{db: db, ttl: ttl}, nil
}

func (b *BadgerSessionStore) Get(key string) (*Session, error) {
	var session *Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			session = &Session{}
			return json.Unmarshal(val, session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (b *BadgerSessionStore) Put(session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(session.Key), payload)
		if b.ttl > 0 {
			// Twice the session TTL: the sweeper should win the race.
			entry = entry.WithTTL(2 * b.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerSessionStore) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerSessionStore) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (b *BadgerSessionStore) Close() error {
	return b.db.Close()
}
