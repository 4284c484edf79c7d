package conn

import (
	"container/list"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"pgnative/deepsize"
	"pgnative/wire"
)

// preparedStatement is everything the engine needs to Bind against an
// already-Parsed statement without re-sending its SQL text.
type preparedStatement struct {
	name       string
	sql        string
	paramOIDs  []int32
	resultCols []wire.ColumnDescription
}

// statementCacheEntry is the value stored in the LRU list; key is kept
// alongside it so eviction can remove the matching map entry.
type statementCacheEntry struct {
	key        uint64
	stmt       *preparedStatement
	insertedAt time.Time
}

// statementCache is a bounded, xxhash-keyed LRU of named prepared
// statements, generalizing the teacher's unprepared one-shot query
// handling: a statement surviving across Execute calls is kept server
// side under a generated name, and only evicted (via a Close message)
// once the cache is full or the statement has outlived maxLifetime.
// Bounded by statement_cache_size and max_cached_statement_lifetime.
type statementCache struct {
	capacity    int
	maxLifetime time.Duration
	ll          *list.List
	index       map[uint64]*list.Element
	seq         int

	// pendingCloses collects names age-evicted by lookup, which cannot
	// itself write to the connection; the caller drains this via
	// takePendingCloses and sends a Close(Statement) for each.
	pendingCloses []string
}

// newStatementCache builds a cache that never expires entries by age
// (only by LRU eviction past capacity). Equivalent to
// newStatementCacheWithLifetime(capacity, 0).
func newStatementCache(capacity int) *statementCache {
	return newStatementCacheWithLifetime(capacity, 0)
}

// newStatementCacheWithLifetime builds a cache that additionally treats
// an entry as a miss once it has sat uninserted-into for longer than
// maxLifetime. maxLifetime <= 0 means "never expire by age".
func newStatementCacheWithLifetime(capacity int, maxLifetime time.Duration) *statementCache {
	return &statementCache{
		capacity:    capacity,
		maxLifetime: maxLifetime,
		ll:          list.New(),
		index:       make(map[uint64]*list.Element),
	}
}

// statementKey hashes the SQL text, with leading and trailing whitespace
// trimmed, together with the caller-pinned parameter OIDs, since the
// same SQL bound against different explicit types is a different
// prepared statement server side.
func statementKey(sql string, paramOIDs []int32) uint64 {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(sql))
	for _, oid := range paramOIDs {
		b.WriteByte(0)
		b.WriteString(strconv.FormatInt(int64(oid), 10))
	}
	return xxhash.Sum64String(b.String())
}

// lookup returns the cached statement for (sql, paramOIDs) and marks it
// most-recently-used, or (nil, false) on a miss. An entry older than
// maxLifetime is evicted and reported as a miss; its name is queued for
// takePendingCloses rather than returned directly, since lookup has no
// way to write a Close message itself.
func (c *statementCache) lookup(sql string, paramOIDs []int32) (*preparedStatement, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	key := statementKey(sql, paramOIDs)
	el, ok := c.index[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*statementCacheEntry)
	if c.maxLifetime > 0 && time.Since(entry.insertedAt) > c.maxLifetime {
		c.ll.Remove(el)
		delete(c.index, key)
		c.pendingCloses = append(c.pendingCloses, entry.stmt.name)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.stmt, true
}

// takePendingCloses returns and clears the names lookup has age-evicted
// since the last call, for the caller to Close(Statement) best-effort.
func (c *statementCache) takePendingCloses() []string {
	if len(c.pendingCloses) == 0 {
		return nil
	}
	names := c.pendingCloses
	c.pendingCloses = nil
	return names
}

// insert adds stmt to the cache, evicting the least-recently-used entry
// if the cache is at capacity. The evicted statement's name is returned
// so the caller can send a Close(Statement) for it; evicted is false
// when nothing was evicted.
func (c *statementCache) insert(sql string, paramOIDs []int32, stmt *preparedStatement) (evictedName string, evicted bool) {
	if c.capacity <= 0 {
		return "", false
	}
	key := statementKey(sql, paramOIDs)
	if el, ok := c.index[key]; ok {
		entry := el.Value.(*statementCacheEntry)
		entry.stmt = stmt
		entry.insertedAt = time.Now()
		c.ll.MoveToFront(el)
		return "", false
	}
	el := c.ll.PushFront(&statementCacheEntry{key: key, stmt: stmt, insertedAt: time.Now()})
	c.index[key] = el
	if c.ll.Len() <= c.capacity {
		return "", false
	}
	back := c.ll.Back()
	c.ll.Remove(back)
	entry := back.Value.(*statementCacheEntry)
	delete(c.index, entry.key)
	return entry.stmt.name, true
}

// nextName returns a fresh, connection-unique statement name for the
// unnamed-becomes-named promotion that prepared (cached) statements
// require.
func (c *statementCache) nextName() string {
	c.seq++
	return fmt.Sprintf("pgnative_s%d", c.seq)
}

// clear empties the cache without emitting Close messages; used when
// the underlying connection is already gone (e.g. it errored out).
func (c *statementCache) clear() {
	c.ll.Init()
	c.index = make(map[uint64]*list.Element)
}

// approxMemory estimates the cache's heap footprint (SQL text, param
// OID slices, and cached RowDescription columns), for Pool.Stats.
func (c *statementCache) approxMemory() int64 {
	var total int64
	for el := c.ll.Front(); el != nil; el = el.Next() {
		total += deepsize.Of(el.Value.(*statementCacheEntry).stmt)
	}
	return total
}
