package pkgresolve

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Cache is a narrow BadgerDB-backed cache of discovery results, adapted
// from the teacher's storage engine but trimmed to the one operation
// pkgresolve actually needs: get/set a JSON blob by a discovery-root
// fingerprint, so repeated runs against an unchanged site-packages tree
// skip re-walking it.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) a BadgerDB cache directory.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).
		WithValueLogFileSize(1 << 28).
		WithSyncWrites(false).
		WithCompactL0OnClose(true).
		WithCompression(options.ZSTD).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("pkgresolve: open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// Get looks up a fingerprint's cached discovery result.
func (c *Cache) Get(fingerprint string) (map[string]*PackageMetadata, bool) {
	var out map[string]*PackageMetadata
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// Put stores a fingerprint's discovery result, expiring it after 24h so
// a long-idle environment is eventually re-scanned even without an
// explicit cache-bust.
func (c *Cache) Put(fingerprint string, result map[string]*PackageMetadata) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("pkgresolve: marshal cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(fingerprint), blob).WithTTL(24 * time.Hour)
		return txn.SetEntry(entry)
	})
}

func cacheKey(fingerprint string) []byte {
	return []byte("discovery:" + fingerprint)
}
