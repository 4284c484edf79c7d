package conn

import (
	"testing"
	"time"
)

func TestStatementCache_LookupMiss(t *testing.T) {
	c := newStatementCache(2)
	if _, ok := c.lookup("select 1", nil); ok {
		t.Fatalf("lookup on empty cache reported a hit")
	}
}

func TestStatementCache_InsertAndLookup(t *testing.T) {
	c := newStatementCache(2)
	stmt := &preparedStatement{name: "s1", sql: "select 1"}
	if _, evicted := c.insert("select 1", nil, stmt); evicted {
		t.Fatalf("first insert reported an eviction")
	}
	got, ok := c.lookup("select 1", nil)
	if !ok || got.name != "s1" {
		t.Fatalf("lookup = %+v, %v; want s1, true", got, ok)
	}
}

func TestStatementCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newStatementCache(2)
	c.insert("a", nil, &preparedStatement{name: "sa"})
	c.insert("b", nil, &preparedStatement{name: "sb"})

	// touch "a" so "b" becomes the least-recently-used entry.
	c.lookup("a", nil)

	evictedName, evicted := c.insert("c", nil, &preparedStatement{name: "sc"})
	if !evicted || evictedName != "sb" {
		t.Fatalf("evicted = %q, %v; want sb, true", evictedName, evicted)
	}
	if _, ok := c.lookup("b", nil); ok {
		t.Fatalf("evicted statement still present in cache")
	}
	if _, ok := c.lookup("a", nil); !ok {
		t.Fatalf("recently-used statement was evicted")
	}
}

func TestStatementCache_DistinguishesByParamOIDs(t *testing.T) {
	c := newStatementCache(4)
	c.insert("select $1", []int32{23}, &preparedStatement{name: "int4"})
	c.insert("select $1", []int32{25}, &preparedStatement{name: "text"})

	got, ok := c.lookup("select $1", []int32{25})
	if !ok || got.name != "text" {
		t.Fatalf("lookup by param OIDs = %+v, %v; want text, true", got, ok)
	}
}

func TestStatementCache_ZeroMaxLifetimeNeverExpiresByAge(t *testing.T) {
	c := newStatementCacheWithLifetime(2, 0)
	c.insert("select 1", nil, &preparedStatement{name: "s1"})
	if _, ok := c.lookup("select 1", nil); !ok {
		t.Fatalf("zero max lifetime: lookup reported a miss")
	}
}

func TestStatementCache_ExpiresByAge(t *testing.T) {
	c := newStatementCacheWithLifetime(2, time.Nanosecond)
	c.insert("select 1", nil, &preparedStatement{name: "s1"})
	time.Sleep(time.Microsecond)

	if _, ok := c.lookup("select 1", nil); ok {
		t.Fatalf("lookup past max lifetime reported a hit")
	}
	names := c.takePendingCloses()
	if len(names) != 1 || names[0] != "s1" {
		t.Fatalf("takePendingCloses() = %v, want [s1]", names)
	}
	if names := c.takePendingCloses(); names != nil {
		t.Fatalf("second takePendingCloses() = %v, want nil", names)
	}
}

func TestStatementCache_ZeroCapacityDisablesCaching(t *testing.T) {
	c := newStatementCache(0)
	c.insert("select 1", nil, &preparedStatement{name: "s1"})
	if _, ok := c.lookup("select 1", nil); ok {
		t.Fatalf("zero-capacity cache reported a hit")
	}
}
