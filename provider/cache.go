package provider

import (
	"sync"

	"github.com/df-mc/goleveldb/leveldb"
	"go.uber.org/atomic"
)

// cache holds the databases that are currently open, so that multiple providers on the same directory share
// a single database.
var cache sync.Map

type cacheEntry struct {
	db   *leveldb.DB
	refs *atomic.Int64
}

// cacheLoad looks up the database open for the directory passed and takes a reference on it.
func cacheLoad(dir string) (*leveldb.DB, bool) {
	if v, ok := cache.Load(dir); ok {
		e := v.(*cacheEntry)
		e.refs.Inc()
		return e.db, true
	}
	return nil, false
}

// cacheStore stores a newly opened database for the directory passed with a single reference.
func cacheStore(dir string, db *leveldb.DB) {
	cache.Store(dir, &cacheEntry{db: db, refs: atomic.NewInt64(1)})
}

// cacheDelete drops a reference on the database of the directory passed and returns the amount of
// references left. The database is removed from the cache once no references are left.
func cacheDelete(dir string) int64 {
	v, ok := cache.Load(dir)
	if !ok {
		return 0
	}
	e := v.(*cacheEntry)
	refs := e.refs.Dec()
	if refs <= 0 {
		cache.Delete(dir)
	}
	return refs
}
